package kinematics

import "fmt"

// Interval is a closed range [Lo, Hi] of one integration variable.
type Interval struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

func (i Interval) Width() float64 { return i.Hi - i.Lo }

func (i Interval) Contains(x float64) bool {
	return x >= i.Lo && x <= i.Hi
}

// Mid returns the centre of the interval.
func (i Interval) Mid() float64 { return (i.Lo + i.Hi) / 2 }

func (i Interval) String() string {
	return fmt.Sprintf("[%.6g, %.6g]", i.Lo, i.Hi)
}
