// Package host models the message boundary between the host and the DICE
// coordinate adapter: a dictionary store and the decoder/encoder objects.
package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/debug"
)

var (
	// ErrNotFound is returned for a dictionary name the store does not hold
	ErrNotFound = errors.New("dictionary not found")
	// ErrInvalidName is returned for names that cannot be used as a file name
	ErrInvalidName = errors.New("invalid dictionary name")
)

// Store is the named dictionary registry the objects read and write.
// Dictionaries go in and come out as copies, so callers own what they hold.
type Store struct {
	mu      sync.Mutex
	dicts   map[string]*converter.NoteDictionary
	removed map[string]bool

	dir      string
	debounce func(f func())
}

// NewStore creates an in-memory store
func NewStore() *Store {
	return &Store{
		dicts:   make(map[string]*converter.NoteDictionary),
		removed: make(map[string]bool),
	}
}

// NewPersistentStore creates a store backed by dir. Existing <name>.json
// files are loaded, and every change is flushed once changes stop for delay.
func NewPersistentStore(dir string, delay time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := NewStore()
	s.dir = dir
	if delay > 0 {
		s.debounce = debounce.New(delay)
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the backing directory, empty for an in-memory store
func (s *Store) Dir() string {
	return s.dir
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Get returns a copy of the named dictionary
func (s *Store) Get(name string) (*converter.NoteDictionary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dict, ok := s.dicts[name]
	if !ok {
		return nil, false
	}
	return dict.Clone(), true
}

// Put stores a copy of dict under name
func (s *Store) Put(name string, dict *converter.NoteDictionary) error {
	if err := validName(name); err != nil {
		return err
	}

	stored := dict.Clone()
	if stored == nil {
		stored = converter.NewNoteDictionary(name)
	}
	stored.Name = name
	if stored.Notes == nil {
		stored.Notes = []converter.Note{}
	}

	s.mu.Lock()
	s.dicts[name] = stored
	delete(s.removed, name)
	s.mu.Unlock()

	debug.Log("store", "put %s (%d notes)", name, len(stored.Notes))
	s.changed()
	return nil
}

// Create stores an empty dictionary under a fresh name and returns the name
func (s *Store) Create() string {
	name := uuid.New().String()
	// a uuid is always a valid name
	_ = s.Put(name, nil)
	return name
}

// Delete removes the named dictionary
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	_, ok := s.dicts[name]
	if ok {
		delete(s.dicts, name)
		s.removed[name] = true
	}
	s.mu.Unlock()

	if ok {
		debug.Log("store", "delete %s", name)
		s.changed()
	}
	return ok
}

// Names lists the stored dictionary names, sorted
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.dicts))
	for name := range s.dicts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads every <name>.json in the backing directory. The file name wins
// over a name stored inside the file.
func (s *Store) Load() error {
	if s.dir == "" {
		return nil
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return err
	}

	loaded := make(map[string]*converter.NoteDictionary, len(paths))
	for _, path := range paths {
		dict, err := converter.ReadDictFile(path)
		if err != nil {
			debug.Error("store", fmt.Errorf("%s: %w", path, err))
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		dict.Name = name
		loaded[name] = dict
	}

	s.mu.Lock()
	for name, dict := range loaded {
		s.dicts[name] = dict
	}
	s.mu.Unlock()

	debug.Log("store", "loaded %d dictionaries from %s", len(loaded), s.dir)
	return nil
}

// Flush writes every dictionary to the backing directory and removes the
// files of deleted ones
func (s *Store) Flush() error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	dicts := make([]*converter.NoteDictionary, 0, len(s.dicts))
	for _, dict := range s.dicts {
		dicts = append(dicts, dict.Clone())
	}
	removed := make([]string, 0, len(s.removed))
	for name := range s.removed {
		removed = append(removed, name)
	}
	s.removed = make(map[string]bool)
	s.mu.Unlock()

	var errs []error
	for _, dict := range dicts {
		path := filepath.Join(s.dir, dict.Name+".json")
		if err := converter.WriteDictFile(dict, path); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range removed {
		err := os.Remove(filepath.Join(s.dir, name+".json"))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	debug.Log("store", "flushed %d dictionaries", len(dicts))
	return errors.Join(errs...)
}

func (s *Store) changed() {
	if s.dir == "" {
		return
	}
	if s.debounce == nil {
		debug.Error("store", s.Flush())
		return
	}
	s.debounce(func() {
		debug.Error("store", s.Flush())
	})
}
