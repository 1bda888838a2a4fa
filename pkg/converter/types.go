// Package converter provides conversion between host note dictionaries and DICE coordinate lists
package converter

// Grid constants shared by the decoder and encoder
const (
	TensorInitialIndex   = 1  // DICE coordinates are 1-indexed
	DrumRackInitialPitch = 36 // MIDI pitch of grid row 0
	GridSize             = 16 // steps and pitch slots per pattern
	StepDuration         = 1.0 / 4
)

// TimeSignature is the meter of a DICE pattern; the numerator is steps per unit of start_time
var TimeSignature = [2]int{4, 4}

// NoteDictionary is a named, ordered list of notes as stored by the host
type NoteDictionary struct {
	Name  string `json:"name,omitempty"`
	Notes []Note `json:"notes"`
}

// NewNoteDictionary creates an empty dictionary with the given name
func NewNoteDictionary(name string) *NoteDictionary {
	return &NoteDictionary{Name: name, Notes: []Note{}}
}

// Clone returns a deep copy of the dictionary
func (d *NoteDictionary) Clone() *NoteDictionary {
	if d == nil {
		return nil
	}
	out := &NoteDictionary{Name: d.Name, Notes: make([]Note, len(d.Notes))}
	for i, n := range d.Notes {
		out.Notes[i] = n.Clone()
	}
	return out
}

// Kit names the rows of the grid for a given instrument layout
type Kit interface {
	Name() string
	ID() string
	Label(pitch int) string
	Pitch(label string) (int, bool)
}

// Converter handles format conversions
type Converter struct {
	kit Kit
}

// New creates a new Converter with the specified kit
func New(kit Kit) *Converter {
	return &Converter{kit: kit}
}

// GetKit returns the current kit
func (c *Converter) GetKit() Kit {
	return c.kit
}

// SetKit sets the kit used for labelling rows
func (c *Converter) SetKit(kit Kit) {
	c.kit = kit
}
