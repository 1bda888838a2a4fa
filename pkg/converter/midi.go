package converter

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// DrumChannel is MIDI channel 10, zero based
const DrumChannel = 9

// maxTick is the largest delta a standard MIDI file can carry. Bounding
// absolute ticks by it keeps every delta of a generated track encodable.
const maxTick = 0x0FFFFFFF

// MIDIConverter handles MIDI file parsing and generation.
// Note times are in quarter-note beats, the unit of the host's start_time.
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
	channel         uint8
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
		tempo:           120.0,
		channel:         DrumChannel,
	}
}

// Tempo returns the tempo of the last parsed file, or the default
func (m *MIDIConverter) Tempo() float64 {
	return m.tempo
}

// SetTempo sets the tempo written by GenerateMIDI
func (m *MIDIConverter) SetTempo(bpm float64) {
	if bpm > 0 {
		m.tempo = bpm
	}
}

// ParseMIDIFile reads a MIDI file and extracts its notes
func (m *MIDIConverter) ParseMIDIFile(filename string) (*NoteDictionary, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	dict, err := m.ParseMIDI(data)
	if err != nil {
		return nil, err
	}
	dict.Name = filenameStem(filename)
	return dict, nil
}

// ParseMIDI pairs note on/off events from every track into notes, ordered by start time
func (m *MIDIConverter) ParseMIDI(data []byte) (dict *NoteDictionary, err error) {
	// smf panics on some truncated files
	defer func() {
		if r := recover(); r != nil {
			dict = nil
			err = fmt.Errorf("failed to parse MIDI: %v", r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt.Resolution() > 0 {
		m.ticksPerQuarter = mt.Resolution()
	}
	tpq := float64(m.ticksPerQuarter)

	type ongoing struct {
		tick     int64
		velocity uint8
	}

	dict = NewNoteDictionary("")
	tempoFound := false

	for _, track := range s.Tracks {
		var currentTick int64
		open := make(map[uint16]ongoing)

		for _, ev := range track {
			currentTick += int64(ev.Delta)
			msg := ev.Message

			// Tempo meta message (FF 51 03 tt tt tt), first one wins
			if !tempoFound && len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					m.tempo = math.Round(60000000.0 / float64(microsecondsPerBeat))
					tempoFound = true
				}
				continue
			}

			if len(msg) < 3 {
				continue
			}
			status := msg[0] & 0xF0
			key := uint16(msg[0]&0x0F)<<8 | uint16(msg[1])
			velocity := msg[2]

			switch {
			case status == 0x90 && velocity > 0:
				open[key] = ongoing{tick: currentTick, velocity: velocity}
			case status == 0x80 || (status == 0x90 && velocity == 0):
				on, ok := open[key]
				if !ok {
					continue
				}
				delete(open, key)
				dict.Notes = append(dict.Notes, Note{
					StartTime: float64(on.tick) / tpq,
					Pitch:     int(msg[1]),
					Duration:  float64(currentTick-on.tick) / tpq,
					Velocity:  float64(on.velocity),
				})
			}
		}
	}

	sort.SliceStable(dict.Notes, func(i, j int) bool {
		return dict.Notes[i].StartTime < dict.Notes[j].StartTime
	})
	return dict, nil
}

// GenerateMIDI creates a single-track drum MIDI file from a dictionary
func (m *MIDIConverter) GenerateMIDI(dict *NoteDictionary) ([]byte, error) {
	if dict == nil {
		return nil, errors.New("nil dictionary")
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)
	tpq := float64(m.ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / m.tempo)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))
	// 4/4
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, byte(TimeSignature[0]), 0x02, 0x18, 0x08}))

	type event struct {
		tick uint32
		off  bool
		msg  midi.Message
	}
	var events []event

	for _, n := range dict.Notes {
		if !(n.StartTime >= 0) || n.Pitch < 0 || n.Pitch > 127 {
			continue
		}
		duration := n.Duration
		if !(duration > 0) {
			duration = StepDuration
		}
		velocity := n.Velocity
		if !(velocity > 0) {
			velocity = 100
		}
		velocity = math.Min(velocity, 127)

		// notes past the last representable tick are dropped like negative ones
		startTick := math.Round(n.StartTime * tpq)
		endTick := math.Round((n.StartTime + duration) * tpq)
		if endTick <= startTick {
			endTick = startTick + 1
		}
		if endTick > maxTick {
			continue
		}
		start, end := uint32(startTick), uint32(endTick)
		key := uint8(n.Pitch)
		events = append(events,
			event{tick: start, msg: midi.NoteOn(m.channel, key, uint8(velocity))},
			event{tick: end, off: true, msg: midi.NoteOff(m.channel, key)},
		)
	}

	// note offs first so repeated hits on one key retrigger cleanly
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var currentTick uint32
	for _, ev := range events {
		track.Add(ev.tick-currentTick, ev.msg)
		currentTick = ev.tick
	}

	// pad to the end of the bar holding the last event, at least one pattern long
	barTicks := uint64(TimeSignature[0]) * uint64(m.ticksPerQuarter)
	total := barTicks
	if last := uint64(currentTick); last > total {
		total = (last + barTicks - 1) / barTicks * barTicks
	}
	track.Close(uint32(total - uint64(currentTick)))

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMIDIFile writes a dictionary to a MIDI file
func (m *MIDIConverter) WriteMIDIFile(dict *NoteDictionary, filename string) error {
	data, err := m.GenerateMIDI(dict)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
