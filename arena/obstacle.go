// Package arena is the occupancy map the planner queries: square obstacles
// with an image on one face, the robot footprint, and the docking pose for
// each obstacle.
package arena

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"tour-planner/pose"
)

// ErrUnknownFacing is returned when a facing name cannot be parsed.
var ErrUnknownFacing = errors.New("unknown facing")

// Facing is the side of an obstacle that carries its image.
type Facing int

const (
	North Facing = iota + 1
	South
	East
	West
)

func (f Facing) String() string {
	switch f {
	case North:
		return "NORTH"
	case South:
		return "SOUTH"
	case East:
		return "EAST"
	case West:
		return "WEST"
	}
	return fmt.Sprintf("Facing(%d)", int(f))
}

// ParseFacing accepts full names or initials, in any case.
func ParseFacing(s string) (Facing, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "S", "SOUTH":
		return South, nil
	case "E", "EAST":
		return East, nil
	case "W", "WEST":
		return West, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFacing, s)
}

func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Facing) UnmarshalText(b []byte) error {
	v, err := ParseFacing(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Obstacle is a square block whose lower-left corner sits at (X, Y).
type Obstacle struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Facing Facing  `json:"facing"`
}

// Bound is the obstacle's square for the given side length.
func (o Obstacle) Bound(width float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{o.X, o.Y},
		Max: orb.Point{o.X + width, o.Y + width},
	}
}

// Centre is the middle of the obstacle's square.
func (o Obstacle) Centre(width float64) orb.Point {
	return orb.Point{o.X + width/2, o.Y + width/2}
}

// Target is the pose the robot must reach to photograph the obstacle: centred
// on the image face, facing it, with its front CameraDistance away.
func (o Obstacle) Target(p Params) pose.Pose {
	w := p.ObstacleWidth
	standoff := p.CameraDistance + p.RobotLength/2
	switch o.Facing {
	case North:
		return pose.New(o.X+w/2, o.Y+w+standoff, -math.Pi/2)
	case South:
		return pose.New(o.X+w/2, o.Y-standoff, math.Pi/2)
	case East:
		return pose.New(o.X+w+standoff, o.Y+w/2, math.Pi)
	case West:
		return pose.New(o.X-standoff, o.Y+w/2, 0)
	}
	return pose.New(o.X+w/2, o.Y+w/2, 0)
}
