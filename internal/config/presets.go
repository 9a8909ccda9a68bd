package config

import "sort"

const (
	MuonMass = 0.1056583755
	TauMass  = 1.77686
	ZMass    = 91.1876
	HiggsVEV = 246.22
)

func budget(calls, maxIter int) IntegrationConfig {
	return IntegrationConfig{Calls: calls, MaxIterations: maxIter, Seed: DefaultSeed, Bins: DefaultBins}
}

var Presets = map[string]*Config{
	"muon_decay": {
		Name: "muon_decay", Amplitude: "muon_decay",
		Incoming: []float64{MuonMass}, Outgoing: []float64{0, 0, 0},
		Integration: budget(5000, 30),
	},
	"z_mumu": {
		Name: "z_mumu", Amplitude: "vector_ff",
		Incoming: []float64{ZMass}, Outgoing: []float64{MuonMass, MuonMass},
		Params:      map[string]float64{"g_V": -0.01393, "g_A": -0.18518, "m_f": MuonMass},
		Integration: budget(DefaultCalls, DefaultMaxIterations),
		Scan:        ScanConfig{Variable: "mass", From: 20, To: 200, Points: 19},
	},
	"higgs_bb": {
		Name: "higgs_bb", Amplitude: "scalar_yukawa",
		Incoming: []float64{125.25}, Outgoing: []float64{4.18, 4.18},
		Params:      map[string]float64{"y": 4.18 / HiggsVEV, "m_f": 4.18},
		Integration: budget(DefaultCalls, DefaultMaxIterations),
		Scan:        ScanConfig{Variable: "mass", From: 10, To: 250, Points: 25},
	},
	"ee_mumu": {
		Name: "ee_mumu", Amplitude: "ee_mumu",
		Incoming: []float64{0, 0}, Outgoing: []float64{0, 0}, SqrtS: 10,
		Integration: budget(2000, 30),
		Scan:        ScanConfig{Variable: "sqrt_s", From: 5, To: 50, Points: 10},
	},
	"contact_23": {
		Name: "contact_23", Amplitude: "contact",
		Incoming: []float64{0, 0}, Outgoing: []float64{0, 0, 0}, SqrtS: 100,
		Params:      map[string]float64{"lambda": 1},
		Integration: budget(4000, 30),
	},
	"dalitz_demo": {
		Name: "dalitz_demo", Amplitude: "unit",
		Incoming: []float64{100}, Outgoing: []float64{1, 2, 3},
		Integration: budget(5000, 30),
		Scan:        ScanConfig{Variable: "mass", From: 10, To: 200, Points: 20},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
