package process

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/widthlab/internal/amplitude"
	"github.com/san-kum/widthlab/internal/kinematics"
	"github.com/san-kum/widthlab/internal/params"
)

func TestDecay12Unit(t *testing.T) {
	kin, err := kinematics.NewDecay(10, []float64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p, err := FromProvider(amplitude.Builtins(), "unit", kin)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Evaluate(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := kinematics.Beta(1, 4, 100) / (16 * math.Pi * 10)
	if math.Abs(got-want) > 1e-15 {
		t.Errorf("Evaluate = %v, want %v", got, want)
	}
}

func TestScalarYukawaWidth(t *testing.T) {
	const M, mf, y = 125.0, 4.18, 0.02

	store := params.New()
	store.DeclareReal("y", y)
	store.DeclareReal("m_f", mf)
	kin, err := kinematics.NewDecay(M, []float64{mf, mf}, store)
	if err != nil {
		t.Fatal(err)
	}
	p, err := FromProvider(amplitude.Builtins(), "scalar_yukawa", kin)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Evaluate(nil)
	if err != nil {
		t.Fatal(err)
	}
	beta := math.Sqrt(1 - 4*mf*mf/(M*M))
	want := y * y * M * beta * beta * beta / (8 * math.Pi)
	if math.Abs(got-want) > 1e-12*want {
		t.Errorf("width = %v, want %v", got, want)
	}
}

func TestForbiddenPointIsZero(t *testing.T) {
	kin, err := kinematics.NewDecay(100, []float64{1, 2, 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p, err := FromProvider(amplitude.Builtins(), "unit", kin)
	if err != nil {
		t.Fatal(err)
	}

	for _, point := range [][]float64{{0.49, 0.49}, {0.05, 0.05}, {0.9, 0.9}} {
		got, err := p.Evaluate(point)
		if err != nil {
			t.Fatalf("forbidden point %v returned error %v", point, err)
		}
		if got != 0 {
			t.Errorf("forbidden point %v contributed %v", point, got)
		}
	}

	got, err := p.Evaluate([]float64{0.3, 0.35})
	if err != nil || got <= 0 {
		t.Errorf("physical point: %v, %v", got, err)
	}
}

func TestImaginaryResidual(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	kin, err := kinematics.NewMassless(2, 2, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	amp := amplitude.Amplitude{
		Name: "leaky",
		Fn:   func(*params.Store) complex128 { return complex(2, 1e-3) },
	}
	p, err := New(amp, kin, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		got, err := p.Evaluate([]float64{0.1})
		if err != nil {
			t.Fatal(err)
		}
		if want := 2 * kin.PhaseSpaceFactor([]float64{0.1}); got != want {
			t.Errorf("Evaluate = %v, want real part only %v", got, want)
		}
	}

	if p.ImaginaryResiduals() != 3 {
		t.Errorf("ImaginaryResiduals = %d, want 3", p.ImaginaryResiduals())
	}
	if n := strings.Count(buf.String(), "imaginary"); n != 1 {
		t.Errorf("expected one warning, got %d:\n%s", n, buf.String())
	}
}

func TestSmallImaginaryIgnored(t *testing.T) {
	kin, _ := kinematics.NewMassless(2, 2, 10, nil)
	amp := amplitude.Amplitude{
		Name: "clean",
		Fn:   func(*params.Store) complex128 { return complex(1, 1e-14) },
	}
	p, err := New(amp, kin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Evaluate([]float64{0}); err != nil {
		t.Fatal(err)
	}
	if p.ImaginaryResiduals() != 0 {
		t.Errorf("residual below tolerance was counted")
	}
}

func TestProviderErrors(t *testing.T) {
	kin, err := kinematics.NewDecay(10, []float64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := FromProvider(amplitude.Builtins(), "nope", kin); !errors.Is(err, amplitude.ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
	if _, err := FromProvider(amplitude.Builtins(), "muon_decay", kin); !errors.Is(err, ErrIncompatible) {
		t.Errorf("expected ErrIncompatible, got %v", err)
	}
}

func TestEvaluateDimensionError(t *testing.T) {
	kin, _ := kinematics.NewMassless(2, 2, 10, nil)
	p, err := FromProvider(amplitude.Builtins(), "contact", kin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Evaluate([]float64{0, 1}); !errors.Is(err, kinematics.ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
}

func TestVectorWidth(t *testing.T) {
	const M, mf, gv, ga = 91.1876, 1.777, -0.014, -0.185

	store := params.New()
	store.DeclareReal("g_V", gv)
	store.DeclareReal("g_A", ga)
	store.DeclareReal("m_f", mf)
	kin, err := kinematics.NewDecay(M, []float64{mf, mf}, store)
	if err != nil {
		t.Fatal(err)
	}
	p, err := FromProvider(amplitude.Builtins(), "vector_ff", kin)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Evaluate(nil)
	if err != nil {
		t.Fatal(err)
	}
	r := mf * mf / (M * M)
	beta := math.Sqrt(1 - 4*r)
	want := M * beta / (12 * math.Pi) * (gv*gv*(1+2*r) + ga*ga*beta*beta)
	if math.Abs(got-want) > 1e-12*want {
		t.Errorf("width = %v, want %v", got, want)
	}
}
