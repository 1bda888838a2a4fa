package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatDict    Format = "dict"
	FormatCoo     Format = "coo"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mid", ".midi":
		return FormatMIDI
	case ".json":
		return FormatDict
	case ".coo", ".txt":
		return FormatCoo
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) >= 4 && string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if trimmed[0] == '{' {
		return FormatDict
	}

	// Anything else is treated as a list of numbers
	return FormatCoo
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	inputFormat := DetectFormat(inputPath)
	if inputFormat == FormatUnknown {
		inputFormat = DetectFormatFromContent(data)
	}

	outputData, err := c.Convert(data, inputFormat, outputFormat)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// Convert dispatches to the conversion between two formats
func (c *Converter) Convert(data []byte, from, to Format) ([]byte, error) {
	switch {
	case from == FormatCoo && to == FormatDict:
		return c.CooToDict(data)
	case from == FormatDict && to == FormatCoo:
		return c.DictToCoo(data)
	case from == FormatMIDI && to == FormatCoo:
		return c.MIDIToCoo(data)
	case from == FormatCoo && to == FormatMIDI:
		return c.CooToMIDI(data)
	case from == FormatMIDI && to == FormatDict:
		return c.MIDIToDict(data)
	case from == FormatDict && to == FormatMIDI:
		return c.DictToMIDI(data)
	default:
		return nil, fmt.Errorf("unsupported conversion: %s to %s", from, to)
	}
}

// CooToDict decodes a coordinate list into dictionary JSON
func (c *Converter) CooToDict(cooData []byte) ([]byte, error) {
	coo, err := ParseCoo(string(cooData))
	if err != nil {
		return nil, err
	}
	return MarshalDict(Decode(coo, nil))
}

// DictToCoo encodes the on-grid notes of dictionary JSON into a coordinate list
func (c *Converter) DictToCoo(dictData []byte) ([]byte, error) {
	dict, err := ParseDict(dictData)
	if err != nil {
		return nil, err
	}
	return []byte(Encode(dict).String() + "\n"), nil
}

// MIDIToCoo encodes the on-grid notes of a MIDI file into a coordinate list
func (c *Converter) MIDIToCoo(midiData []byte) ([]byte, error) {
	dict, err := NewMIDIConverter().ParseMIDI(midiData)
	if err != nil {
		return nil, err
	}
	return []byte(Encode(dict).String() + "\n"), nil
}

// CooToMIDI decodes a coordinate list into a MIDI file
func (c *Converter) CooToMIDI(cooData []byte) ([]byte, error) {
	coo, err := ParseCoo(string(cooData))
	if err != nil {
		return nil, err
	}
	return NewMIDIConverter().GenerateMIDI(Decode(coo, nil))
}

// MIDIToDict converts a MIDI file into dictionary JSON
func (c *Converter) MIDIToDict(midiData []byte) ([]byte, error) {
	dict, err := NewMIDIConverter().ParseMIDI(midiData)
	if err != nil {
		return nil, err
	}
	return MarshalDict(dict)
}

// DictToMIDI converts dictionary JSON into a MIDI file
func (c *Converter) DictToMIDI(dictData []byte) ([]byte, error) {
	dict, err := ParseDict(dictData)
	if err != nil {
		return nil, err
	}
	if err := ValidateDict(dict); err != nil {
		return nil, err
	}
	return NewMIDIConverter().GenerateMIDI(dict)
}

// ExtractCoo returns the coordinates DICE would see for data: a coo list as
// is, or the on-grid notes of a dictionary or MIDI file
func ExtractCoo(data []byte, format Format) (Coo, error) {
	switch format {
	case FormatCoo:
		return ParseCoo(string(data))
	case FormatDict:
		dict, err := ParseDict(data)
		if err != nil {
			return nil, err
		}
		return Encode(dict), nil
	case FormatMIDI:
		dict, err := NewMIDIConverter().ParseMIDI(data)
		if err != nil {
			return nil, err
		}
		return Encode(dict), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"coo -> dict",
		"dict -> coo",
		"midi -> coo",
		"coo -> midi",
		"midi -> dict",
		"dict -> midi",
	}
}

// OutputExtension returns the default file extension for a format
func OutputExtension(f Format) string {
	switch f {
	case FormatMIDI:
		return ".mid"
	case FormatDict:
		return ".json"
	case FormatCoo:
		return ".coo"
	default:
		return ""
	}
}

func filenameStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
