package pose

import (
	"fmt"
	"math"
)

// Key identifies a cell of the discretisation grid. I and J count coordinate
// steps, K counts heading steps in [0, Grid.Headings()).
type Key struct {
	I, J, K int
}

func (k Key) String() string {
	return fmt.Sprintf("[%d %d %d]", k.I, k.J, k.K)
}

// Less orders keys by I, then J, then K.
func (k Key) Less(o Key) bool {
	if k.I != o.I {
		return k.I < o.I
	}
	if k.J != o.J {
		return k.J < o.J
	}
	return k.K < o.K
}

// Grid quantises continuous poses. Coord is the coordinate step in map units and
// Theta the heading step in radians; Theta must divide 2π.
type Grid struct {
	Coord float64
	Theta float64
}

// NewGrid builds a grid from a coordinate step and a heading step in degrees.
func NewGrid(coord, thetaDegrees float64) Grid {
	return Grid{Coord: coord, Theta: thetaDegrees * math.Pi / 180}
}

// Headings is the number of distinct heading cells.
func (g Grid) Headings() int {
	return int(math.Round(2 * math.Pi / g.Theta))
}

// Snap rounds p to the nearest grid cell. The heading is wrapped into [0, 2π)
// before rounding; a heading that rounds up to 2π folds back to cell 0.
func (g Grid) Snap(p Pose) Key {
	k := int(math.Round(WrapAngle(p.Heading)/g.Theta)) % g.Headings()
	return Key{
		I: int(math.Round(p.X / g.Coord)),
		J: int(math.Round(p.Y / g.Coord)),
		K: k,
	}
}

// Pose returns the continuous pose at the centre of cell k.
func (g Grid) Pose(k Key) Pose {
	return Pose{
		X:       float64(k.I) * g.Coord,
		Y:       float64(k.J) * g.Coord,
		Heading: float64(k.K) * g.Theta,
	}
}

// SnapPose is Snap followed by Pose.
func (g Grid) SnapPose(p Pose) Pose {
	return g.Pose(g.Snap(p))
}
