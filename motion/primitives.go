package motion

import (
	"math"

	"tour-planner/pose"
)

// Waypoint is a sample of a swept turn in the start pose's frame.
type Waypoint struct {
	Right   float64
	Forward float64
	DTheta  float64
}

// Set applies primitives with fixed magnitudes. It is immutable and safe for
// concurrent use.
type Set struct {
	params Params
	sweeps map[Movement][]Waypoint
}

// NewSet precomputes the swept waypoints of every turn.
func NewSet(p Params) *Set {
	s := &Set{params: p, sweeps: make(map[Movement][]Waypoint, 4)}
	for _, m := range All {
		if m.Turning() {
			s.sweeps[m] = sweep(p.turn(m), m.HeadingDelta(), p.Samples)
		}
	}
	return s
}

// Params returns the magnitudes the set was built with.
func (s *Set) Params() Params {
	return s.params
}

// Apply returns the pose reached by executing m from p.
func (s *Set) Apply(m Movement, p pose.Pose) pose.Pose {
	switch m {
	case Forward:
		return s.Forward(p)
	case Backward:
		return s.Backward(p)
	case ForwardLeft:
		return s.ForwardLeft(p)
	case ForwardRight:
		return s.ForwardRight(p)
	case BackwardLeft:
		return s.BackwardLeft(p)
	case BackwardRight:
		return s.BackwardRight(p)
	}
	return p
}

func (s *Set) Forward(p pose.Pose) pose.Pose {
	return p.Translate(pose.Vector(p.Heading, s.params.Forward))
}

func (s *Set) Backward(p pose.Pose) pose.Pose {
	return p.Translate(pose.Vector(p.Heading, -s.params.Backward))
}

func (s *Set) ForwardLeft(p pose.Pose) pose.Pose {
	return s.turn(ForwardLeft, p)
}

func (s *Set) ForwardRight(p pose.Pose) pose.Pose {
	return s.turn(ForwardRight, p)
}

func (s *Set) BackwardLeft(p pose.Pose) pose.Pose {
	return s.turn(BackwardLeft, p)
}

func (s *Set) BackwardRight(p pose.Pose) pose.Pose {
	return s.turn(BackwardRight, p)
}

func (s *Set) turn(m Movement, p pose.Pose) pose.Pose {
	t := s.params.turn(m)
	end := p.Local(t.Lateral, t.Longitudinal)
	return pose.Pose{X: end.X, Y: end.Y, Heading: p.Heading + m.HeadingDelta()}
}

// Cost is the distance travelled by m.
func (s *Set) Cost(m Movement) float64 {
	switch m {
	case Forward:
		return s.params.Forward
	case Backward:
		return s.params.Backward
	}
	return s.params.turn(m).Arc
}

// Sweep returns the waypoints sampled along turn m, ending at the turn's end
// pose. Straight movements have no sweep.
func (s *Set) Sweep(m Movement) []Waypoint {
	return s.sweeps[m]
}

// Reach bounds how far any footprint reference point can travel during m.
func (s *Set) Reach(m Movement) float64 {
	if !m.Turning() {
		return s.Cost(m)
	}
	t := s.params.turn(m)
	return math.Hypot(t.Lateral, t.Longitudinal) + t.Arc/2
}

// sweep samples a quarter ellipse from the origin to (t.Lateral, t.Longitudinal),
// rotating the heading linearly to delta.
func sweep(t Turn, delta float64, samples int) []Waypoint {
	if samples < 1 {
		samples = 1
	}
	wps := make([]Waypoint, 0, samples)
	for i := 1; i <= samples; i++ {
		phi := float64(i) / float64(samples) * math.Pi / 2
		wps = append(wps, Waypoint{
			Right:   t.Lateral * (1 - math.Cos(phi)),
			Forward: t.Longitudinal * math.Sin(phi),
			DTheta:  delta * phi / (math.Pi / 2),
		})
	}
	return wps
}

// Trace returns the world poses of m's sweep starting at p. Straight
// movements trace only their end pose.
func (s *Set) Trace(m Movement, p pose.Pose) []pose.Pose {
	if !m.Turning() {
		return []pose.Pose{s.Apply(m, p)}
	}
	wps := s.Sweep(m)
	out := make([]pose.Pose, len(wps))
	for i, w := range wps {
		pt := p.Local(w.Right, w.Forward)
		out[i] = pose.Pose{X: pt.X, Y: pt.Y, Heading: pose.WrapAngle(p.Heading + w.DTheta)}
	}
	return out
}
