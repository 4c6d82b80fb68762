package arena

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"tour-planner/motion"
	"tour-planner/pose"
)

// Params are the physical dimensions of the arena, the obstacles and the robot.
type Params struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	ObstacleWidth  float64 `json:"obstacleWidth"`
	RobotWidth     float64 `json:"robotWidth"`
	RobotLength    float64 `json:"robotLength"`
	CameraDistance float64 `json:"cameraDistance"`
	// Clearance pads every obstacle before collision checks.
	Clearance float64 `json:"clearance"`
}

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	obstacle Obstacle
	bbox     rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// Map answers footprint validity and obstacle-priority queries. It is
// read-only after construction and safe for concurrent use.
type Map struct {
	params    Params
	moves     *motion.Set
	obstacles []Obstacle
	tree      *rtreego.Rtree
	area      orb.Bound
}

// NewMap indexes obstacles. moves bounds the region each movement can sweep.
func NewMap(params Params, moves *motion.Set, obstacles []Obstacle) *Map {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	kept := make([]Obstacle, 0, len(obstacles))
	for _, o := range obstacles {
		bbox, err := rtreego.NewRect(
			rtreego.Point{o.X - params.Clearance, o.Y - params.Clearance},
			[]float64{params.ObstacleWidth + 2*params.Clearance, params.ObstacleWidth + 2*params.Clearance},
		)
		if err != nil {
			continue
		}
		tree.Insert(&obstacleEntry{obstacle: o, bbox: bbox})
		kept = append(kept, o)
	}

	return &Map{
		params:    params,
		moves:     moves,
		obstacles: kept,
		tree:      tree,
		area: orb.Bound{
			Min: orb.Point{0, 0},
			Max: orb.Point{params.Width, params.Height},
		},
	}
}

// Params returns the dimensions the map was built with.
func (m *Map) Params() Params {
	return m.params
}

// Obstacles returns the indexed obstacles in insertion order.
func (m *Map) Obstacles() []Obstacle {
	return m.obstacles
}

// Targets returns the docking pose of every obstacle, in obstacle order.
func (m *Map) Targets() []pose.Pose {
	out := make([]pose.Pose, len(m.obstacles))
	for i, o := range m.obstacles {
		out[i] = o.Target(m.params)
	}
	return out
}

// Footprint is the robot outline at p as a closed ring. The pose is the centre
// of the footprint; its length runs along the heading.
func (m *Map) Footprint(p pose.Pose) orb.Ring {
	hw, hl := m.params.RobotWidth/2, m.params.RobotLength/2
	corner := func(right, forward float64) orb.Point {
		v := p.Local(right, forward)
		return orb.Point{v.X, v.Y}
	}
	fl := corner(-hw, hl)
	return orb.Ring{fl, corner(hw, hl), corner(hw, -hl), corner(-hw, -hl), fl}
}

// IsValid reports whether the footprint at p lies inside the arena and clear
// of every obstacle in obstacles.
func (m *Map) IsValid(p pose.Pose, obstacles []Obstacle) bool {
	ring := m.Footprint(p)
	if !within(ring, m.area) {
		return false
	}
	fb := ring.Bound()
	for _, o := range obstacles {
		ob := o.Bound(m.params.ObstacleWidth).Pad(m.params.Clearance)
		if !ob.Intersects(fb) {
			continue
		}
		if ringOverlapsBound(ring, ob) {
			return false
		}
	}
	return true
}

// PriorityObstacles returns the obstacles close enough to p to collide with
// the robot while it executes mv.
func (m *Map) PriorityObstacles(p pose.Pose, mv motion.Movement) []Obstacle {
	if len(m.obstacles) == 0 {
		return nil
	}
	r := m.moves.Reach(mv) + math.Hypot(m.params.RobotWidth, m.params.RobotLength)/2
	bbox, err := rtreego.NewRect(rtreego.Point{p.X - r, p.Y - r}, []float64{2 * r, 2 * r})
	if err != nil {
		return m.obstacles
	}

	results := m.tree.SearchIntersect(bbox)
	obstacles := make([]Obstacle, 0, len(results))
	for _, item := range results {
		obstacles = append(obstacles, item.(*obstacleEntry).obstacle)
	}
	return obstacles
}
