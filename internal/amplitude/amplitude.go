// Package amplitude maps process names to squared-matrix-element callables.
//
// An amplitude reads everything it needs from a params.Store: the s_ij
// invariants published by kinematics and any couplings or masses. Amplitude
// generation itself is external; the Provider is the lookup table the rest
// of the engine talks to.
package amplitude

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/widthlab/internal/params"
)

var (
	ErrUnknown   = errors.New("amplitude: unknown amplitude")
	ErrDuplicate = errors.New("amplitude: amplitude already registered")
)

// Func evaluates a squared matrix element. The imaginary part should vanish;
// a residual is reported but otherwise ignored.
type Func func(store *params.Store) complex128

type Amplitude struct {
	Name        string
	Description string

	// Incoming and Outgoing give the particle counts the callable expects;
	// zero means any.
	Incoming, Outgoing int

	// Requires lists the s_ij invariants read by Fn.
	Requires []string

	// Params are couplings and masses with their default values.
	Params map[string]float64

	Fn Func
}

// Accepts reports whether the amplitude can be used for nIn -> nOut.
func (a Amplitude) Accepts(nIn, nOut int) bool {
	return (a.Incoming == 0 || a.Incoming == nIn) && (a.Outgoing == 0 || a.Outgoing == nOut)
}

// Declare adds the amplitude's invariants and parameters to store.
// Entries that already exist keep their values.
func (a Amplitude) Declare(store *params.Store) {
	for _, name := range a.Requires {
		store.DeclareReal(name, 0)
	}
	for name, v := range a.Params {
		store.DeclareReal(name, v)
	}
}

type Provider struct {
	amps map[string]Amplitude
}

func NewProvider() *Provider {
	return &Provider{amps: make(map[string]Amplitude)}
}

func (p *Provider) Register(a Amplitude) error {
	if a.Fn == nil {
		return fmt.Errorf("amplitude: %q has no callable", a.Name)
	}
	if _, ok := p.amps[a.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, a.Name)
	}
	p.amps[a.Name] = a
	return nil
}

func (p *Provider) Lookup(name string) (Amplitude, error) {
	a, ok := p.amps[name]
	if !ok {
		return Amplitude{}, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return a, nil
}

func (p *Provider) Names() []string {
	names := make([]string, 0, len(p.amps))
	for name := range p.amps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
