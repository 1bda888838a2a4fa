package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ParseDict parses a note dictionary. Both the host's {"notes": [...]} form
// and a bare array of notes are accepted.
func ParseDict(data []byte) (*NoteDictionary, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty dictionary data")
	}

	if trimmed[0] == '[' {
		var notes []Note
		if err := json.Unmarshal(trimmed, &notes); err != nil {
			return nil, fmt.Errorf("failed to parse notes: %w", err)
		}
		return &NoteDictionary{Notes: notes}, nil
	}

	var dict NoteDictionary
	if err := json.Unmarshal(trimmed, &dict); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}
	if dict.Notes == nil {
		dict.Notes = []Note{}
	}
	return &dict, nil
}

// MarshalDict writes a dictionary as indented JSON
func MarshalDict(dict *NoteDictionary) ([]byte, error) {
	if dict == nil {
		return nil, errors.New("nil dictionary")
	}
	return json.MarshalIndent(dict, "", "  ")
}

// ReadDictFile reads a dictionary from a JSON file. A missing name is taken
// from the file's base name.
func ReadDictFile(filename string) (*NoteDictionary, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}
	dict, err := ParseDict(data)
	if err != nil {
		return nil, err
	}
	if dict.Name == "" {
		dict.Name = filenameStem(filename)
	}
	return dict, nil
}

// WriteDictFile writes a dictionary to a JSON file
func WriteDictFile(dict *NoteDictionary, filename string) error {
	data, err := MarshalDict(dict)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ValidateDict checks the notes for values the host would reject
func ValidateDict(dict *NoteDictionary) error {
	if dict == nil {
		return errors.New("nil dictionary")
	}
	for i, n := range dict.Notes {
		if math.IsNaN(n.StartTime) || math.IsInf(n.StartTime, 0) {
			return fmt.Errorf("invalid start_time at note %d", i)
		}
		if n.Pitch < 0 || n.Pitch > 127 {
			return fmt.Errorf("invalid pitch at note %d: %d (0-127)", i, n.Pitch)
		}
		if n.Duration < 0 {
			return fmt.Errorf("negative duration at note %d", i)
		}
	}
	return nil
}
