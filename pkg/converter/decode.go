package converter

// DecodeNote maps one 1-indexed coordinate to a note
func DecodeNote(p Pair) Note {
	x := p.X - TensorInitialIndex
	y := p.Y - TensorInitialIndex

	return Note{
		StartTime: float64(x) / float64(TimeSignature[0]),
		Pitch:     y + DrumRackInitialPitch,
		Duration:  StepDuration,
	}
}

// Decode appends one note per coordinate pair to dict, in input order.
// A trailing unpaired value is dropped and ranges are not checked.
// A nil dict is allocated.
func Decode(coo Coo, dict *NoteDictionary) *NoteDictionary {
	if dict == nil {
		dict = NewNoteDictionary("")
	}
	if dict.Notes == nil {
		dict.Notes = []Note{}
	}

	for _, p := range coo.Pairs() {
		dict.Notes = append(dict.Notes, DecodeNote(p))
	}
	return dict
}
