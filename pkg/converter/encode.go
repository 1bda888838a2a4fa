package converter

// EncodeNote returns the 1-indexed coordinate of a note and whether it lies on the grid
func EncodeNote(n Note) (Pair, bool) {
	x := int(roundHalfUp(n.StartTime * float64(TimeSignature[0])))
	y := int(roundHalfUp(n.exactPitch() - DrumRackInitialPitch))

	if x < 0 || x >= GridSize || y < 0 || y >= GridSize {
		return Pair{}, false
	}
	return Pair{X: x + TensorInitialIndex, Y: y + TensorInitialIndex}, true
}

// Encode consumes the on-grid notes of dict and returns their coordinates in
// note order. Every note loses its note_id; off-grid notes stay in dict with
// their relative order unchanged.
func Encode(dict *NoteDictionary) Coo {
	coo := Coo{}
	if dict == nil {
		return coo
	}

	// Removal happens after the scan so indices recorded during it stay valid.
	consumed := make([]bool, len(dict.Notes))
	for i := range dict.Notes {
		dict.Notes[i].NoteID = nil

		p, ok := EncodeNote(dict.Notes[i])
		if !ok {
			continue
		}
		coo = append(coo, p.X, p.Y)
		consumed[i] = true
	}

	kept := dict.Notes[:0]
	for i, n := range dict.Notes {
		if !consumed[i] {
			kept = append(kept, n)
		}
	}
	clear(dict.Notes[len(kept):])
	dict.Notes = kept

	return coo
}
