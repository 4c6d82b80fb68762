// Package motion defines the six discrete manoeuvres the robot can execute
// in one planning step.
package motion

import (
	"fmt"
	"math"
)

// Movement is one of the six motion primitives.
type Movement int

const (
	Forward Movement = iota + 1
	Backward
	ForwardLeft
	ForwardRight
	BackwardLeft
	BackwardRight
)

// All lists every movement in expansion order.
var All = []Movement{Backward, BackwardLeft, BackwardRight, Forward, ForwardLeft, ForwardRight}

func (m Movement) String() string {
	switch m {
	case Forward:
		return "FWD"
	case Backward:
		return "BWD"
	case ForwardLeft:
		return "FWD_LEFT"
	case ForwardRight:
		return "FWD_RIGHT"
	case BackwardLeft:
		return "BWD_LEFT"
	case BackwardRight:
		return "BWD_RIGHT"
	}
	return fmt.Sprintf("Movement(%d)", int(m))
}

// Direction is the sense of travel.
type Direction int

const (
	Reverse Direction = -1
	Ahead   Direction = 1
)

// Steer is the steering class.
type Steer int

const (
	Left     Steer = -1
	Straight Steer = 0
	Right    Steer = 1
)

// Direction reports whether m drives forwards or backwards.
func (m Movement) Direction() Direction {
	switch m {
	case Backward, BackwardLeft, BackwardRight:
		return Reverse
	}
	return Ahead
}

// Steer reports the steering class of m.
func (m Movement) Steer() Steer {
	switch m {
	case ForwardLeft, BackwardLeft:
		return Left
	case ForwardRight, BackwardRight:
		return Right
	}
	return Straight
}

// Turning reports whether m changes the heading.
func (m Movement) Turning() bool {
	return m.Steer() != Straight
}

// HeadingDelta is the heading change m applies. Reversing with the wheels
// turned left swings the heading clockwise, so BackwardLeft subtracts a
// quarter turn and BackwardRight adds one.
func (m Movement) HeadingDelta() float64 {
	switch m {
	case ForwardLeft, BackwardRight:
		return math.Pi / 2
	case ForwardRight, BackwardLeft:
		return -math.Pi / 2
	}
	return 0
}

// Turn holds the geometry of a turning primitive. Lateral is measured along
// the robot's right axis and Longitudinal along its heading; both are signed.
// Arc is the length travelled and doubles as the step cost.
type Turn struct {
	Lateral      float64 `json:"lateral"`
	Longitudinal float64 `json:"longitudinal"`
	Arc          float64 `json:"arc"`
}

// Params are the primitive magnitudes.
type Params struct {
	Forward       float64 `json:"forward"`
	Backward      float64 `json:"backward"`
	ForwardLeft   Turn    `json:"forwardLeft"`
	ForwardRight  Turn    `json:"forwardRight"`
	BackwardLeft  Turn    `json:"backwardLeft"`
	BackwardRight Turn    `json:"backwardRight"`
	// Samples is the number of swept waypoints checked per turn.
	Samples int `json:"samples"`
}

// CircularParams builds primitives whose turns are quarter circles of the
// given radius.
func CircularParams(straight, radius float64, samples int) Params {
	arc := radius * math.Pi / 2
	return Params{
		Forward:       straight,
		Backward:      straight,
		ForwardLeft:   Turn{Lateral: -radius, Longitudinal: radius, Arc: arc},
		ForwardRight:  Turn{Lateral: radius, Longitudinal: radius, Arc: arc},
		BackwardLeft:  Turn{Lateral: -radius, Longitudinal: -radius, Arc: arc},
		BackwardRight: Turn{Lateral: radius, Longitudinal: -radius, Arc: arc},
		Samples:       samples,
	}
}

func (p Params) turn(m Movement) Turn {
	switch m {
	case ForwardLeft:
		return p.ForwardLeft
	case ForwardRight:
		return p.ForwardRight
	case BackwardLeft:
		return p.BackwardLeft
	case BackwardRight:
		return p.BackwardRight
	}
	return Turn{}
}
