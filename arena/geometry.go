package arena

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// segmentsIntersect checks if segments p1p2 and p3p4 intersect. Touching
// endpoints and collinear overlap count as intersecting.
func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

// direction is the cross product giving the orientation of p3 relative to p1p2.
func direction(p1, p2, p3 orb.Point) float64 {
	return (p3[0]-p1[0])*(p2[1]-p1[1]) - (p2[0]-p1[0])*(p3[1]-p1[1])
}

// onSegment checks if q lies within the bounding box of pr.
func onSegment(p, r, q orb.Point) bool {
	return q[0] <= math.Max(p[0], r[0]) && q[0] >= math.Min(p[0], r[0]) &&
		q[1] <= math.Max(p[1], r[1]) && q[1] >= math.Min(p[1], r[1])
}

// ringOverlapsBound reports whether a closed convex ring and an axis-aligned
// box share any point.
func ringOverlapsBound(ring orb.Ring, b orb.Bound) bool {
	for _, p := range ring {
		if b.Contains(p) {
			return true
		}
	}
	box := b.ToRing()
	for _, c := range box {
		if planar.RingContains(ring, c) {
			return true
		}
	}
	for i := 0; i+1 < len(ring); i++ {
		for j := 0; j+1 < len(box); j++ {
			if segmentsIntersect(ring[i], ring[i+1], box[j], box[j+1]) {
				return true
			}
		}
	}
	return false
}

// within reports whether every point of ring lies inside b.
func within(ring orb.Ring, b orb.Bound) bool {
	for _, p := range ring {
		if !b.Contains(p) {
			return false
		}
	}
	return true
}
