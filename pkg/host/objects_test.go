package host

import (
	"testing"

	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderDictionary(t *testing.T) {
	s := NewStore()
	var emitted []string
	d := NewDecoder(s, func(name string) { emitted = append(emitted, name) })

	d.List(converter.Coo{1, 1, 2, 5})
	d.Dictionary("clip")

	assert.Equal(t, []string{"clip"}, emitted)
	dict, ok := s.Get("clip")
	require.True(t, ok)
	assert.Equal(t, []converter.Note{
		{StartTime: 0, Pitch: 36, Duration: 0.25},
		{StartTime: 0.25, Pitch: 40, Duration: 0.25},
	}, dict.Notes)
}

func TestDecoderWithoutListEmitsEmptyDictionary(t *testing.T) {
	s := NewStore()
	var emitted []string
	d := NewDecoder(s, func(name string) { emitted = append(emitted, name) })

	d.Dictionary("clip")

	assert.Equal(t, []string{"clip"}, emitted)
	dict, ok := s.Get("clip")
	require.True(t, ok)
	assert.Empty(t, dict.Notes)
}

func TestDecoderAppendsAndKeepsPending(t *testing.T) {
	s := NewStore()
	d := NewDecoder(s, nil)

	d.List(converter.Coo{1, 1})
	d.Dictionary("clip")
	d.Dictionary("clip")

	dict, _ := s.Get("clip")
	assert.Len(t, dict.Notes, 2)
	assert.Equal(t, converter.Coo{1, 1}, d.Pending())
}

func TestDecodersDoNotShareState(t *testing.T) {
	s := NewStore()
	a := NewDecoder(s, nil)
	b := NewDecoder(s, nil)

	a.List(converter.Coo{1, 1})
	b.List(converter.Coo{2, 2, 3, 3})

	a.Dictionary("a")
	b.Dictionary("b")

	da, _ := s.Get("a")
	db, _ := s.Get("b")
	assert.Len(t, da.Notes, 1)
	assert.Len(t, db.Notes, 2)
}

func TestDecoderInvalidNameEmitsNothing(t *testing.T) {
	called := false
	d := NewDecoder(NewStore(), func(string) { called = true })
	d.List(converter.Coo{1, 1})
	d.Dictionary("")
	assert.False(t, called)
}

func TestEncoderOutletOrder(t *testing.T) {
	s := NewStore()
	id := 4
	require.NoError(t, s.Put("clip", &converter.NoteDictionary{Notes: []converter.Note{
		{StartTime: 0, Pitch: 36, Duration: 0.25, NoteID: &id},
		{StartTime: 8, Pitch: 36, Duration: 0.25, NoteID: &id},
	}}))

	var order []string
	var coo converter.Coo
	e := NewEncoder(s,
		func(c converter.Coo) { order = append(order, "coo"); coo = c },
		func(name string) { order = append(order, "dict:"+name) },
	)
	e.Dictionary("clip")

	assert.Equal(t, []string{"coo", "dict:clip"}, order)
	assert.Equal(t, converter.Coo{1, 1}, coo)

	dict, _ := s.Get("clip")
	require.Len(t, dict.Notes, 1)
	assert.Equal(t, 8.0, dict.Notes[0].StartTime)
	assert.Nil(t, dict.Notes[0].NoteID)
}

func TestEncoderMissingDictionary(t *testing.T) {
	s := NewStore()
	var coo converter.Coo
	e := NewEncoder(s, func(c converter.Coo) { coo = c }, nil)

	e.Dictionary("missing")

	assert.NotNil(t, coo)
	assert.Empty(t, coo)
	_, ok := s.Get("missing")
	assert.True(t, ok)
}

func TestDecodeEncodeThroughStore(t *testing.T) {
	s := NewStore()
	pattern := converter.Coo{1, 1, 5, 3, 9, 1, 13, 3}
	require.NoError(t, DecodeInto(s, "clip", pattern))

	coo, err := EncodeFrom(s, "clip")
	require.NoError(t, err)
	assert.Equal(t, pattern, coo)

	dict, _ := s.Get("clip")
	assert.Empty(t, dict.Notes)
}
