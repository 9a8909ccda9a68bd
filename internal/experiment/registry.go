package experiment

import (
	"github.com/san-kum/widthlab/internal/amplitude"
	"github.com/san-kum/widthlab/internal/kinematics"
)

// Registry resolves amplitude names for experiments. It starts with the
// builtin amplitudes; generated ones are added with Register.
type Registry struct {
	amplitudes *amplitude.Provider
}

func NewRegistry() *Registry {
	return &Registry{amplitudes: amplitude.Builtins()}
}

func (r *Registry) Register(a amplitude.Amplitude) error {
	return r.amplitudes.Register(a)
}

func (r *Registry) GetAmplitude(name string) (amplitude.Amplitude, error) {
	return r.amplitudes.Lookup(name)
}

func (r *Registry) ListAmplitudes() []string {
	return r.amplitudes.Names()
}

// AmplitudesFor lists the amplitudes usable with the given topology.
func (r *Registry) AmplitudesFor(topo kinematics.Topology) []string {
	var names []string
	for _, name := range r.amplitudes.Names() {
		amp, _ := r.amplitudes.Lookup(name)
		if amp.Accepts(topo.Incoming(), topo.Outgoing()) {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) Provider() *amplitude.Provider {
	return r.amplitudes
}
