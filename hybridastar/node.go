package hybridastar

import (
	"fmt"

	"tour-planner/motion"
	"tour-planner/pose"
)

// Node is one state of the search tree. Parent indexes the node's
// predecessor in the slice that holds it; the root has Parent -1.
type Node struct {
	Key       pose.Key
	Pose      pose.Pose
	G         float64
	H         float64
	Direction motion.Direction
	Steer     motion.Steer
	Movement  motion.Movement // zero for the start node
	Step      float64
	Parent    int
}

// F is the estimated total cost through n.
func (n Node) F() float64 {
	return n.G + n.H
}

func (n Node) String() string {
	return fmt.Sprintf("Node(x:%6.2f, y:%6.2f, θ:%6.2f, g:%6.2f, h:%6.2f, f:%6.2f, v:%d, s:%d)",
		n.Pose.X, n.Pose.Y, n.Pose.Heading, n.G, n.H, n.F(), n.Direction, n.Steer)
}

// Path is the outcome of a search. An empty path means the goal is unreachable.
type Path struct {
	Nodes    []Node
	Expanded int
}

// Found reports whether the search reached the goal region.
func (p Path) Found() bool {
	return len(p.Nodes) > 0
}

// Cost is the accumulated cost of the last node, or zero for an empty path.
func (p Path) Cost() float64 {
	if len(p.Nodes) == 0 {
		return 0
	}
	return p.Nodes[len(p.Nodes)-1].G
}

// End is the continuous pose the path finishes at.
func (p Path) End() (pose.Pose, bool) {
	if len(p.Nodes) == 0 {
		return pose.Pose{}, false
	}
	return p.Nodes[len(p.Nodes)-1].Pose, true
}

// Poses lists the continuous poses along the path.
func (p Path) Poses() []pose.Pose {
	out := make([]pose.Pose, len(p.Nodes))
	for i, n := range p.Nodes {
		out[i] = n.Pose
	}
	return out
}

// Movements lists the manoeuvres that take the robot along the path.
func (p Path) Movements() []motion.Movement {
	if len(p.Nodes) < 2 {
		return nil
	}
	out := make([]motion.Movement, 0, len(p.Nodes)-1)
	for _, n := range p.Nodes[1:] {
		out = append(out, n.Movement)
	}
	return out
}
