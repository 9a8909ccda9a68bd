// Package params holds named model parameters shared between the kinematics
// engine and amplitude callables.
//
// A Store is an explicit context: kinematics writes the s_ij invariants of
// the current phase-space point into it and amplitudes read them back
// together with couplings and masses. Only declared names can be written.
package params

import (
	"fmt"
	"sort"
)

type Kind int

const (
	Real Kind = iota
	Complex
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case Complex:
		return "complex"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Handle addresses a declared entry without a map lookup.
type Handle int

type entry struct {
	name  string
	kind  Kind
	value complex128
}

type Store struct {
	entries []entry
	index   map[string]Handle
}

func New() *Store {
	return &Store{index: make(map[string]Handle)}
}

// DeclareReal adds a real entry. Declaring an existing name keeps its value
// and returns the existing handle.
func (s *Store) DeclareReal(name string, v float64) Handle {
	return s.declare(name, Real, complex(v, 0))
}

func (s *Store) DeclareComplex(name string, v complex128) Handle {
	return s.declare(name, Complex, v)
}

func (s *Store) declare(name string, kind Kind, v complex128) Handle {
	if h, ok := s.index[name]; ok {
		return h
	}
	h := Handle(len(s.entries))
	s.entries = append(s.entries, entry{name: name, kind: kind, value: v})
	s.index[name] = h
	return h
}

func (s *Store) Lookup(name string) (Handle, bool) {
	h, ok := s.index[name]
	return h, ok
}

func (s *Store) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// SetReal writes v to a declared entry and reports whether name was declared.
func (s *Store) SetReal(name string, v float64) bool {
	h, ok := s.index[name]
	if !ok {
		return false
	}
	s.entries[h].value = complex(v, 0)
	return true
}

func (s *Store) SetComplex(name string, v complex128) bool {
	h, ok := s.index[name]
	if !ok {
		return false
	}
	s.entries[h].value = v
	return true
}

// Set writes through a handle obtained from this store.
func (s *Store) Set(h Handle, v float64) {
	s.entries[h].value = complex(v, 0)
}

func (s *Store) Get(h Handle) complex128 {
	return s.entries[h].value
}

// Real returns the real part of name, or 0 when it is not declared.
func (s *Store) Real(name string) float64 {
	return real(s.Complex(name))
}

func (s *Store) Complex(name string) complex128 {
	h, ok := s.index[name]
	if !ok {
		return 0
	}
	return s.entries[h].value
}

func (s *Store) Kind(name string) (Kind, bool) {
	h, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.entries[h].kind, true
}

// Names returns the declared names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the real parts of every entry, for persistence.
func (s *Store) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(s.entries))
	for _, e := range s.entries {
		out[e.name] = real(e.value)
	}
	return out
}

func (s *Store) Len() int { return len(s.entries) }
