package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/widthlab/internal/lorentz"
	"github.com/san-kum/widthlab/internal/params"
)

func checkConservation(t *testing.T, k *Kinematics) {
	t.Helper()
	ps := k.Momenta()
	nIn := k.Topology().Incoming()
	diff := lorentz.Sum(ps[:nIn]...).Sub(lorentz.Sum(ps[nIn:]...))
	for i, v := range diff {
		if math.Abs(v) > 1e-9*math.Max(1, k.SqrtS()) {
			t.Errorf("component %d not conserved: in-out = %v", i, diff)
			break
		}
	}
	for i, m := range k.Masses() {
		if got := ps[i].Mass(); math.Abs(got-m) > 1e-6*math.Max(1, m) {
			t.Errorf("particle %d off shell: mass %v, want %v", i, got, m)
		}
	}
}

func TestDecay12Momentum(t *testing.T) {
	k, err := NewDecay(10, []float64{2, 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := k.Update(nil, false); err != nil {
		t.Fatal(err)
	}

	p1, _ := k.Momentum(1)
	want := math.Sqrt((100-25)*(100-1)) / 20
	if math.Abs(p1.P()-want) > 1e-12 {
		t.Errorf("|p1| = %v, want %v", p1.P(), want)
	}
	if p1.Pz() <= 0 {
		t.Errorf("first daughter should move along +z, got %v", p1)
	}
	checkConservation(t, k)
}

func TestDecay13EndToEnd(t *testing.T) {
	store := params.New()
	store.DeclareReal("s_12", 0)
	store.DeclareReal("s_13", 0)
	store.DeclareReal("s_34", 0)

	k, err := NewDecay(100, []float64{1, 2, 3}, store)
	if err != nil {
		t.Fatal(err)
	}

	point := []float64{0.3, 0.35}
	if !k.Valid(point) {
		t.Fatalf("point %v should be physical", point)
	}
	if err := k.Update(point, false); err != nil {
		t.Fatal(err)
	}
	checkConservation(t, k)

	const M2 = 100 * 100
	if got := store.Real("s_12"); math.Abs(got-0.3*M2) > 1e-8*M2 {
		t.Errorf("s_12 = %v, want %v", got, 0.3*M2)
	}
	if got := store.Real("s_13"); math.Abs(got-0.35*M2) > 1e-8*M2 {
		t.Errorf("s_13 = %v, want %v", got, 0.35*M2)
	}

	ps := k.Momenta()
	if got, want := store.Real("s_34"), ps[2].Dot(ps[3]); math.Abs(got-want) > 1e-9*M2 {
		t.Errorf("s_34 = %v, want %v", got, want)
	}
	if store.Has("s_14") {
		t.Error("Update must not declare new keys")
	}
}

func TestDecay13Validity(t *testing.T) {
	k, err := NewDecay(100, []float64{1, 2, 3}, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		point []float64
		want  bool
	}{
		{"interior", []float64{0.3, 0.35}, true},
		{"t at upper edge", []float64{0.01, 0.3}, false},
		{"third daughter below its mass", []float64{0.49, 0.49}, false},
		{"outside box", []float64{0.05, 0.05}, false},
	}
	for _, tt := range tests {
		if got := k.Valid(tt.point); got != tt.want {
			t.Errorf("%s: Valid(%v) = %v, want %v", tt.name, tt.point, got, tt.want)
		}
	}

	k.SetPredicate(func([]float64) bool { return true })
	if !k.Valid([]float64{0.49, 0.49}) {
		t.Error("custom predicate not used")
	}
	k.ResetPredicate()
	if k.Valid([]float64{0.49, 0.49}) {
		t.Error("ResetPredicate did not restore the physical check")
	}
}

func TestScatter22Kinematics(t *testing.T) {
	k, err := New([]float64{0.5, 0.5}, []float64{2, 3}, 12, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []float64{-1, -0.3, 0, 0.7, 1} {
		if err := k.Update([]float64{c}, false); err != nil {
			t.Fatal(err)
		}
		checkConservation(t, k)

		p0, _ := k.Momentum(0)
		p2, _ := k.Momentum(2)
		got := p0.Vec3()[2]*p2.Vec3()[2] + p0.Vec3()[0]*p2.Vec3()[0]
		if want := c * p0.P() * p2.P(); math.Abs(got-want) > 1e-9 {
			t.Errorf("cos theta = %v: p0.p2 spatial = %v, want %v", c, got, want)
		}
	}
}

func TestScatter23Kinematics(t *testing.T) {
	k, err := New([]float64{0, 0}, []float64{1, 2, 3}, 20, nil)
	if err != nil {
		t.Fatal(err)
	}
	lim := k.Limits()
	if lim[0].Lo != 25 || math.Abs(lim[0].Hi-361) > 1e-9 {
		t.Errorf("t limits = %v, want [25, 361]", lim[0])
	}

	points := [][]float64{
		{50, 0.3, -0.4, 1.0},
		{300, -0.9, 0.95, 5.5},
		{26, 1, -1, 0},
	}
	for _, point := range points {
		if err := k.Update(point, false); err != nil {
			t.Fatal(err)
		}
		checkConservation(t, k)

		ps := k.Momenta()
		pair := ps[3].Add(ps[4])
		if got := pair.Dot(pair); math.Abs(got-point[0]) > 1e-8*point[0] {
			t.Errorf("(p3+p4)^2 = %v, want %v", got, point[0])
		}
	}
}

func TestUpdateRangeCheck(t *testing.T) {
	k, err := NewMassless(2, 2, 10, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = k.Update([]float64{1.5}, false)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	var perr *PointError
	if !errors.As(err, &perr) || perr.Coord != 0 {
		t.Errorf("expected PointError on coordinate 0, got %#v", err)
	}

	if err := k.Update([]float64{1.5}, true); err != nil {
		t.Errorf("bypassed range check still failed: %v", err)
	}
	if err := k.Update([]float64{0.1, 0.2}, true); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
}

func TestUnsupportedTopology(t *testing.T) {
	if _, err := New([]float64{1}, []float64{0.5}, 1, nil); !errors.Is(err, ErrUnsupportedTopology) {
		t.Errorf("1->1: expected ErrUnsupportedTopology, got %v", err)
	}
	if _, err := NewMassless(2, 5, 10, nil); !errors.Is(err, ErrUnsupportedTopology) {
		t.Errorf("2->5: expected ErrUnsupportedTopology, got %v", err)
	}
}

func TestSetMasses(t *testing.T) {
	k, err := NewDecay(10, []float64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := k.SetIncomingMasses([]float64{20}); err != nil {
		t.Fatal(err)
	}
	if k.S() != 400 {
		t.Errorf("s = %v after parent mass change, want 400", k.S())
	}

	if err := k.SetIncomingMasses([]float64{2}); !errors.Is(err, ErrBelowThreshold) {
		t.Errorf("expected ErrBelowThreshold, got %v", err)
	}
	if k.IncomingMasses()[0] != 20 {
		t.Errorf("rejected update changed parent mass to %v", k.IncomingMasses()[0])
	}

	if err := k.SetOutgoingMasses([]float64{1, 2, 3}); !errors.Is(err, ErrTopologyChange) {
		t.Errorf("expected ErrTopologyChange, got %v", err)
	}

	s, err := New([]float64{1, 1}, []float64{3, 3}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetSqrtS(5); !errors.Is(err, ErrBelowThreshold) {
		t.Errorf("expected ErrBelowThreshold, got %v", err)
	}
	if s.S() != 100 {
		t.Errorf("rejected SetSqrtS changed s to %v", s.S())
	}
}

func TestInvariantKeys(t *testing.T) {
	k, err := NewDecay(5, []float64{0, 0, 0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"s_12", "s_13", "s_14", "s_23", "s_24", "s_34"}
	got := k.InvariantKeys()
	if len(got) != len(want) {
		t.Fatalf("InvariantKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, got[i], want[i])
		}
	}
}
