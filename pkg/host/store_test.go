package host

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Put("clip", &converter.NoteDictionary{Notes: []converter.Note{{Pitch: 36}}}))

	dict, ok := s.Get("clip")
	require.True(t, ok)
	assert.Equal(t, "clip", dict.Name)
	dict.Notes[0].Pitch = 99

	again, _ := s.Get("clip")
	assert.Equal(t, 36, again.Notes[0].Pitch)
}

func TestStorePutCopies(t *testing.T) {
	s := NewStore()
	dict := &converter.NoteDictionary{Notes: []converter.Note{{Pitch: 36}}}
	require.NoError(t, s.Put("clip", dict))
	dict.Notes[0].Pitch = 99

	got, _ := s.Get("clip")
	assert.Equal(t, 36, got.Notes[0].Pitch)
}

func TestStoreInvalidNames(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, s.Put(name, nil), ErrInvalidName, name)
	}
}

func TestStoreCreateNamesDelete(t *testing.T) {
	s := NewStore()
	name := s.Create()

	_, err := uuid.Parse(name)
	require.NoError(t, err)

	dict, ok := s.Get(name)
	require.True(t, ok)
	assert.NotNil(t, dict.Notes)
	assert.Empty(t, dict.Notes)

	require.NoError(t, s.Put("b", nil))
	require.NoError(t, s.Put("a", nil))
	names := s.Names()
	assert.Len(t, names, 3)
	assert.True(t, sort.StringsAreSorted(names))

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := s.Create()
			assert.NoError(t, DecodeInto(s, name, converter.Coo{1, 1}))
			s.Names()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Names(), 20)
}

func TestPersistentStoreFlushAndLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := NewPersistentStore(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	require.NoError(t, DecodeInto(s, "clip", converter.Coo{1, 1, 2, 5}))
	_, err = os.Stat(filepath.Join(dir, "clip.json"))
	require.NoError(t, err)

	reloaded, err := NewPersistentStore(dir, 0)
	require.NoError(t, err)
	dict, ok := reloaded.Get("clip")
	require.True(t, ok)
	assert.Len(t, dict.Notes, 2)

	assert.True(t, reloaded.Delete("clip"))
	_, err = os.Stat(filepath.Join(dir, "clip.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestPersistentStoreSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.json"), []byte(`{"name": "other", "notes": []}`), 0644))

	s, err := NewPersistentStore(dir, 0)
	require.NoError(t, err)
	// the file name wins
	assert.Equal(t, []string{"ok"}, s.Names())
}

func TestPersistentStoreDebouncesFlush(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPersistentStore(dir, 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, s.Put("clip", nil))
	require.NoError(t, DecodeInto(s, "clip", converter.Coo{1, 1}))

	path := filepath.Join(dir, "clip.json")
	require.Eventually(t, func() bool {
		dict, err := converter.ReadDictFile(path)
		return err == nil && len(dict.Notes) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
