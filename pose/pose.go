// Package pose holds the planar robot pose and the grid it is snapped onto.
package pose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose is a planar position with a heading in radians.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// New returns a pose at (x, y) facing heading.
func New(x, y, heading float64) Pose {
	return Pose{X: x, Y: y, Heading: heading}
}

// Point returns the position as a vector.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Translate returns a copy of p moved by v. The heading is unchanged.
func (p Pose) Translate(v r2.Point) Pose {
	return Pose{X: p.X + v.X, Y: p.Y + v.Y, Heading: p.Heading}
}

// Rotate returns a copy of p with dtheta added to its heading.
func (p Pose) Rotate(dtheta float64) Pose {
	return Pose{X: p.X, Y: p.Y, Heading: p.Heading + dtheta}
}

// Forward is the unit vector along the heading.
func (p Pose) Forward() r2.Point {
	return Vector(p.Heading, 1)
}

// Right is the unit vector perpendicular to the heading, clockwise.
func (p Pose) Right() r2.Point {
	return Vector(p.Heading-math.Pi/2, 1)
}

// Local converts a point given in p's frame (right, forward) to world coordinates.
func (p Pose) Local(right, forward float64) r2.Point {
	return p.Point().Add(p.Right().Mul(right)).Add(p.Forward().Mul(forward))
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Heading)
}

// Vector is the displacement of the given length along theta.
func Vector(theta, length float64) r2.Point {
	return r2.Point{X: math.Cos(theta) * length, Y: math.Sin(theta) * length}
}

// Distance is the planar Euclidean distance between a and b. Headings are ignored.
func Distance(a, b Pose) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// WrapAngle maps theta into [0, 2π).
func WrapAngle(theta float64) float64 {
	w := math.Mod(theta, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	if w >= 2*math.Pi {
		w = 0
	}
	return w
}

// AngleDiff is the smallest absolute difference between two headings, in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(WrapAngle(a - b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}
