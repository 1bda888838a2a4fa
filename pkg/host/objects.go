package host

import (
	"fmt"
	"sync"

	"github.com/james-see/dicebridge/pkg/converter"
	"github.com/james-see/dicebridge/pkg/debug"
)

// DecodeInto decodes pending into the named dictionary, creating it when
// missing, and stores the result
func DecodeInto(store *Store, name string, pending converter.Coo) error {
	dict, ok := store.Get(name)
	if !ok {
		dict = converter.NewNoteDictionary(name)
	}
	converter.Decode(pending, dict)
	return store.Put(name, dict)
}

// EncodeFrom encodes the named dictionary, stores the notes left over and
// returns the coordinates. A missing dictionary encodes as empty.
func EncodeFrom(store *Store, name string) (converter.Coo, error) {
	dict, ok := store.Get(name)
	if !ok {
		debug.Log("encode", "dictionary %s not found, encoding as empty", name)
		dict = converter.NewNoteDictionary(name)
	}
	coo := converter.Encode(dict)
	if err := store.Put(name, dict); err != nil {
		return coo, err
	}
	return coo, nil
}

// Decoder is the coo to dictionary object. A list message sets its pending
// coordinates, a dictionary message decodes them into the named dictionary.
type Decoder struct {
	store *Store

	mu      sync.Mutex
	pending converter.Coo

	// Outlet receives the dictionary name after each decode
	Outlet func(name string)
}

// NewDecoder creates a decoder writing into store
func NewDecoder(store *Store, outlet func(name string)) *Decoder {
	return &Decoder{store: store, Outlet: outlet}
}

// List sets the pending coordinates. They stay pending after a decode, so
// one list can be decoded into several dictionaries.
func (d *Decoder) List(coo converter.Coo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(converter.Coo(nil), coo...)
}

// Pending returns a copy of the pending coordinates
func (d *Decoder) Pending() converter.Coo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append(converter.Coo(nil), d.pending...)
}

// Dictionary decodes the pending coordinates into name and emits name.
// Failures are logged and nothing is emitted.
func (d *Decoder) Dictionary(name string) {
	if err := DecodeInto(d.store, name, d.Pending()); err != nil {
		debug.Error("decode", fmt.Errorf("dictionary %s: %w", name, err))
		return
	}
	if d.Outlet != nil {
		d.Outlet(name)
	}
}

// Encoder is the dictionary to coo object
type Encoder struct {
	store *Store

	// CooOutlet is outlet 1, fired first
	CooOutlet func(coo converter.Coo)
	// DictOutlet is outlet 0, fired last
	DictOutlet func(name string)
}

// NewEncoder creates an encoder reading from store
func NewEncoder(store *Store, cooOutlet func(converter.Coo), dictOutlet func(string)) *Encoder {
	return &Encoder{store: store, CooOutlet: cooOutlet, DictOutlet: dictOutlet}
}

// Dictionary encodes the named dictionary, then emits the coordinates
// followed by the name. Failures are logged and nothing is emitted.
func (e *Encoder) Dictionary(name string) {
	coo, err := EncodeFrom(e.store, name)
	if err != nil {
		debug.Error("encode", fmt.Errorf("dictionary %s: %w", name, err))
		return
	}
	if e.CooOutlet != nil {
		e.CooOutlet(coo)
	}
	if e.DictOutlet != nil {
		e.DictOutlet(name)
	}
}
