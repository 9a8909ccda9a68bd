package tui

import (
	"fmt"
	"strings"

	"github.com/san-kum/widthlab/internal/integration"
	"github.com/san-kum/widthlab/internal/kinematics"
	"github.com/san-kum/widthlab/internal/lorentz"
	"github.com/san-kum/widthlab/internal/storage"
)

// StateStyle picks the status colour for s.
func StateStyle(s integration.State) string {
	switch s {
	case integration.Converged:
		return StatusConverged.Render(strings.ToUpper(s.String()))
	case integration.Exhausted:
		return StatusFailed.Render(strings.ToUpper(s.String()))
	}
	return StatusRunning.Render(strings.ToUpper(s.String()))
}

func row(label, value string) string {
	return Label.Render(label) + Value.Render(value) + "\n"
}

// RenderRun formats a stored run for the terminal.
func RenderRun(meta *storage.RunMetadata) string {
	var s strings.Builder
	s.WriteString(Title.Render(meta.Process) + "  " + Subtle.Render(meta.ID) + "\n\n")
	s.WriteString(row("amplitude", meta.Amplitude))
	s.WriteString(row("topology", meta.Topology))
	s.WriteString(row("masses", fmt.Sprintf("%v -> %v", meta.Incoming, meta.Outgoing)))
	s.WriteString(row("sqrt(s)", fmt.Sprintf("%g", meta.SqrtS)))
	for _, k := range sortedKeys(meta.Params) {
		s.WriteString(row(k, fmt.Sprintf("%g", meta.Params[k])))
	}
	s.WriteString("\n")
	state, err := integration.ParseState(meta.State)
	if err == nil {
		s.WriteString(Label.Render("state") + StateStyle(state) + "\n")
	}
	s.WriteString(row("result", meta.Estimate().String()))
	s.WriteString(row("rel. error", fmt.Sprintf("%.3g", meta.Estimate().RelativeError())))
	s.WriteString(row("chi2/dof", fmt.Sprintf("%.3f", meta.Chi2PerDof)))
	s.WriteString(row("passes", fmt.Sprintf("%d x %d calls (cap %d)", meta.Passes, meta.Calls, meta.MaxIterations)))
	if meta.ImaginaryResiduals > 0 {
		s.WriteString(Label.Render("warnings") +
			StatusFailed.Render(fmt.Sprintf("%d imaginary residuals", meta.ImaginaryResiduals)) + "\n")
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// RenderLimits lists the integration box of kin.
func RenderLimits(name string, kin *kinematics.Kinematics) string {
	var s strings.Builder
	s.WriteString(Title.Render(name) + "  " + Subtle.Render(kin.Topology().String()) + "\n\n")
	s.WriteString(row("sqrt(s)", fmt.Sprintf("%g", kin.SqrtS())))
	s.WriteString(row("threshold", fmt.Sprintf("%g", kin.Threshold())))
	s.WriteString(row("dimension", fmt.Sprintf("%d", kin.Dim())))
	for i, l := range kin.Limits() {
		s.WriteString(row(fmt.Sprintf("x[%d]", i), l.String()))
	}
	s.WriteString(row("invariants", strings.Join(kin.InvariantKeys(), " ")))

	if point, ok := samplePoint(kin); ok && kin.Update(point, true) == nil {
		s.WriteString("\n" + Subtle.Render(fmt.Sprintf("sample point %v", point)) + "\n")
		nIn := kin.Topology().Incoming()
		for i, p := range kin.Momenta() {
			label := fmt.Sprintf("out %d", i-nIn+1)
			if i < nIn {
				label = fmt.Sprintf("in %d", i+1)
			}
			s.WriteString(row(label, formatMomentum(p)))
		}
		out := lorentz.Sum(kin.Momenta()[nIn:]...)
		s.WriteString(row("final mass", fmt.Sprintf("%.6g", out.Mass())))
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// samplePoint walks the diagonal of the box until it finds a physical point.
func samplePoint(kin *kinematics.Kinematics) ([]float64, bool) {
	limits := kin.Limits()
	point := make([]float64, len(limits))
	for _, t := range []float64{0.5, 0.4, 0.6, 0.3, 0.7, 0.2, 0.8} {
		for i, l := range limits {
			point[i] = l.Lo + t*l.Width()
		}
		if kin.Valid(point) {
			return point, true
		}
	}
	return nil, false
}

func formatMomentum(p lorentz.Momentum) string {
	out := fmt.Sprintf("E=%.4g m=%.4g pt=%.4g", p.E(), p.Mass(), p.Pt())
	if p.Pt() > 0 {
		out += fmt.Sprintf(" eta=%.3f", p.Eta())
	}
	return out
}
