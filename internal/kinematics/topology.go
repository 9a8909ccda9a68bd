package kinematics

import "fmt"

// Topology is the closed set of supported process shapes.
type Topology int

const (
	Decay12 Topology = iota + 1
	Decay13
	Scatter22
	Scatter23
)

// TopologyFor maps particle counts to a Topology.
func TopologyFor(nIn, nOut int) (Topology, error) {
	switch {
	case nIn == 1 && nOut == 2:
		return Decay12, nil
	case nIn == 1 && nOut == 3:
		return Decay13, nil
	case nIn == 2 && nOut == 2:
		return Scatter22, nil
	case nIn == 2 && nOut == 3:
		return Scatter23, nil
	}
	return 0, fmt.Errorf("%w: %d -> %d", ErrUnsupportedTopology, nIn, nOut)
}

func (t Topology) Incoming() int {
	switch t {
	case Decay12, Decay13:
		return 1
	case Scatter22, Scatter23:
		return 2
	}
	panic(fmt.Sprintf("kinematics: invalid topology %d", int(t)))
}

func (t Topology) Outgoing() int {
	switch t {
	case Decay12, Scatter22:
		return 2
	case Decay13, Scatter23:
		return 3
	}
	panic(fmt.Sprintf("kinematics: invalid topology %d", int(t)))
}

// Dim is the number of integration variables.
func (t Topology) Dim() int {
	switch t {
	case Decay12:
		return 0
	case Decay13:
		return 2
	case Scatter22:
		return 1
	case Scatter23:
		return 4
	}
	panic(fmt.Sprintf("kinematics: invalid topology %d", int(t)))
}

func (t Topology) IsDecay() bool {
	return t.Incoming() == 1
}

func (t Topology) Particles() int {
	return t.Incoming() + t.Outgoing()
}

func (t Topology) String() string {
	switch t {
	case Decay12:
		return "1->2"
	case Decay13:
		return "1->3"
	case Scatter22:
		return "2->2"
	case Scatter23:
		return "2->3"
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}
