package hybridastar

import "tour-planner/pose"

// item is an open-set entry pointing at a node in the search arena.
type item struct {
	node  int
	f, h  float64
	key   pose.Key
	seq   int
	index int // index in the heap
}

// openSet implements heap.Interface ordered by (f, h, key, insertion order).
type openSet []*item

func (q openSet) Len() int { return len(q) }

func (q openSet) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	if a.key != b.key {
		return a.key.Less(b.key)
	}
	return a.seq < b.seq
}

func (q openSet) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *openSet) Push(x interface{}) {
	it := x.(*item)
	it.index = len(*q)
	*q = append(*q, it)
}

func (q *openSet) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[0 : n-1]
	return it
}
