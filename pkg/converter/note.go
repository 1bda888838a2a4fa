package converter

import (
	"encoding/json"
	"fmt"
	"math"
)

// Note is a single host note. Keys the host sends that are not modelled here
// (mute, probability, release_velocity, ...) are kept in Extra so they survive
// a decode/encode round trip untouched.
type Note struct {
	StartTime float64
	Pitch     int     // nearest integer of the host pitch
	Duration  float64
	Velocity  float64 // 0 means unset
	NoteID    *int    // host-assigned, stripped on encode
	Extra     map[string]json.RawMessage

	// modelled keys as the host sent them; nil for notes built here
	src *noteSource
}

// noteSource remembers the host's encoding of the modelled keys so a note
// that was not changed is written back byte for byte
type noteSource struct {
	raw    map[string]json.RawMessage
	values map[string]float64
}

const (
	keyStartTime = "start_time"
	keyPitch     = "pitch"
	keyDuration  = "duration"
	keyVelocity  = "velocity"
	keyNoteID    = "note_id"
)

// Clone returns a copy of the note that shares no mutable memory with n
func (n Note) Clone() Note {
	out := n
	if n.NoteID != nil {
		id := *n.NoteID
		out.NoteID = &id
	}
	if n.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(n.Extra))
		for k, v := range n.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	// src is never written after UnmarshalJSON
	return out
}

// exactPitch is the host pitch before rounding, while Pitch still matches it
func (n Note) exactPitch() float64 {
	if n.src != nil {
		if v, ok := n.src.values[keyPitch]; ok && int(roundHalfUp(v)) == n.Pitch {
			return v
		}
	}
	return float64(n.Pitch)
}

// put sets key to the host's bytes while unchanged accepts the value the host
// sent, and to value otherwise. A zero value is left out when the host did not
// send the key, and for notes built here unless the key is required.
func (n Note) put(fields map[string]any, key string, value any, zero, required bool, unchanged func(float64) bool) {
	if n.src != nil {
		if v, ok := n.src.values[key]; ok {
			if unchanged(v) {
				fields[key] = n.src.raw[key]
			} else {
				fields[key] = value
			}
			return
		}
		required = false
	}
	if zero && !required {
		return
	}
	fields[key] = value
}

// MarshalJSON writes the note as a flat host dictionary
func (n Note) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(n.Extra)+5)
	for k, v := range n.Extra {
		fields[k] = v
	}

	n.put(fields, keyStartTime, n.StartTime, n.StartTime == 0, true, func(v float64) bool { return v == n.StartTime })
	n.put(fields, keyPitch, n.Pitch, n.Pitch == 0, true, func(v float64) bool { return int(roundHalfUp(v)) == n.Pitch })
	n.put(fields, keyDuration, n.Duration, n.Duration == 0, true, func(v float64) bool { return v == n.Duration })
	n.put(fields, keyVelocity, n.Velocity, n.Velocity == 0, false, func(v float64) bool { return v == n.Velocity })

	if n.NoteID != nil {
		fields[keyNoteID] = *n.NoteID
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads a host note. Pitch and note_id may arrive as
// fractional numbers; Pitch holds the nearest integer while the original
// value is kept for writing the note back.
func (n *Note) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*n = Note{}
	src := &noteSource{
		raw:    make(map[string]json.RawMessage, 4),
		values: make(map[string]float64, 4),
	}
	number := func(key string) (float64, error) {
		raw, ok := fields[key]
		if !ok {
			return 0, nil
		}
		delete(fields, key)
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		if key != keyNoteID {
			src.raw[key] = raw
			src.values[key] = v
		}
		return v, nil
	}

	var err error
	if n.StartTime, err = number(keyStartTime); err != nil {
		return err
	}
	pitch, err := number(keyPitch)
	if err != nil {
		return err
	}
	n.Pitch = int(roundHalfUp(pitch))
	if n.Duration, err = number(keyDuration); err != nil {
		return err
	}
	if n.Velocity, err = number(keyVelocity); err != nil {
		return err
	}
	if _, ok := fields[keyNoteID]; ok {
		id, err := number(keyNoteID)
		if err != nil {
			return err
		}
		v := int(roundHalfUp(id))
		n.NoteID = &v
	}

	if len(fields) > 0 {
		n.Extra = fields
	}
	n.src = src
	return nil
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf,
// the same as JavaScript's Math.round
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
