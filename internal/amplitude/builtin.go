package amplitude

import (
	"math"

	"github.com/san-kum/widthlab/internal/params"
)

const (
	// FermiConstant in GeV^-2.
	FermiConstant = 1.1663787e-5
	// FineStructure at zero momentum transfer.
	FineStructure = 1 / 137.035999084
)

// Builtins returns a provider loaded with the hand-written amplitudes.
func Builtins() *Provider {
	p := NewProvider()
	for _, a := range builtins {
		if err := p.Register(a); err != nil {
			panic(err)
		}
	}
	return p
}

var builtins = []Amplitude{
	{
		Name:        "unit",
		Description: "|M|^2 = 1, pure phase space",
		Fn:          func(*params.Store) complex128 { return 1 },
	},
	{
		// S -> f fbar with a Yukawa coupling, summed over spins:
		// 4 y² (p_f·p_fbar - m_f²).
		Name:        "scalar_yukawa",
		Description: "scalar to fermion pair, Yukawa coupling y",
		Incoming:    1,
		Outgoing:    2,
		Requires:    []string{"s_23"},
		Params:      map[string]float64{"y": 1, "m_f": 0},
		Fn: func(s *params.Store) complex128 {
			y, mf := s.Real("y"), s.Real("m_f")
			return complex(4*y*y*(s.Real("s_23")-mf*mf), 0)
		},
	},
	{
		// V -> f fbar with couplings gamma^mu (g_V - g_A gamma^5), averaged
		// over the three vector polarisations.
		Name:        "vector_ff",
		Description: "massive vector to fermion pair, couplings g_V and g_A",
		Incoming:    1,
		Outgoing:    2,
		Requires:    []string{"s_23"},
		Params:      map[string]float64{"g_V": 1, "g_A": 0, "m_f": 0},
		Fn: func(s *params.Store) complex128 {
			gv, ga, mf := s.Real("g_V"), s.Real("g_A"), s.Real("m_f")
			s23 := s.Real("s_23")
			return complex(8.0/3*(gv*gv*(s23+2*mf*mf)+ga*ga*(s23-mf*mf)), 0)
		},
	},
	{
		// mu(1) -> e(2) nubar_e(3) nu_mu(4), V-A, spin averaged.
		Name:        "muon_decay",
		Description: "muon decay in the Fermi theory",
		Incoming:    1,
		Outgoing:    3,
		Requires:    []string{"s_13", "s_24"},
		Params:      map[string]float64{"G_F": FermiConstant},
		Fn: func(s *params.Store) complex128 {
			g := s.Real("G_F")
			return complex(64*g*g*s.Real("s_13")*s.Real("s_24"), 0)
		},
	},
	{
		// e+ e- -> mu+ mu- through a photon, massless, spin averaged.
		Name:        "ee_mumu",
		Description: "QED e+e- -> mu+mu- (massless)",
		Incoming:    2,
		Outgoing:    2,
		Requires:    []string{"s_12", "s_13", "s_14"},
		Params:      map[string]float64{"alpha": FineStructure},
		Fn: func(s *params.Store) complex128 {
			e2 := 4 * math.Pi * s.Real("alpha")
			s12, s13, s14 := s.Real("s_12"), s.Real("s_13"), s.Real("s_14")
			if s12 == 0 {
				return 0
			}
			return complex(2*e2*e2*(s13*s13+s14*s14)/(s12*s12), 0)
		},
	},
	{
		Name:        "contact",
		Description: "constant |M|^2 = lambda^2",
		Params:      map[string]float64{"lambda": 1},
		Fn: func(s *params.Store) complex128 {
			l := s.Real("lambda")
			return complex(l*l, 0)
		},
	},
}
