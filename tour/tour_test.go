package tour

import (
	"container/heap"
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"tour-planner/arena"
	"tour-planner/hybridastar"
	"tour-planner/motion"
	"tour-planner/pose"
)

const eps = 1e-9

func newPlanner(t *testing.T, width, height float64) *hybridastar.Planner {
	t.Helper()
	moves := motion.NewSet(motion.CircularParams(10, 25, 4))
	m := arena.NewMap(arena.Params{
		Width:          width,
		Height:         height,
		ObstacleWidth:  10,
		RobotWidth:     25,
		RobotLength:    28,
		CameraDistance: 20,
	}, moves, nil)
	p, err := hybridastar.New(m, moves, pose.NewGrid(5, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

// line is a source with three targets ahead of it on y=100, out of order.
func line() (pose.Pose, []pose.Pose) {
	return pose.New(20, 100, 0), []pose.Pose{
		pose.New(120, 100, 0),
		pose.New(60, 100, 0),
		pose.New(90, 100, 0),
	}
}

func checkTour(t *testing.T, res Result, k int) {
	t.Helper()
	if len(res.Order) != k+1 || res.Order[0] != 0 {
		t.Fatalf("order must start at the source and cover %d targets, got %v", k, res.Order)
	}
	seen := make(map[int]bool)
	for _, i := range res.Order[1:] {
		if i < 1 || i > k || seen[i] {
			t.Fatalf("order %v is not a permutation of the targets", res.Order)
		}
		seen[i] = true
	}
	if len(res.Legs) != k {
		t.Fatalf("expected %d legs, got %d", k, len(res.Legs))
	}
	var sum float64
	for _, leg := range res.Legs {
		sum += leg.Cost()
	}
	if math.Abs(sum-res.Cost) > eps {
		t.Errorf("tour cost %f does not match the sum of its legs %f", res.Cost, sum)
	}
}

func TestSolveOrdersTargets(t *testing.T) {
	s := NewSolver(newPlanner(t, 200, 200), WithWorkers(4))
	source, targets := line()
	res, err := s.Solve(context.Background(), source, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkTour(t, res, len(targets))
	if want := []int{0, 2, 3, 1}; !reflect.DeepEqual(res.Order, want) {
		t.Errorf("expected order %v, got %v", want, res.Order)
	}
	if want := []int{1, 2, 0}; !reflect.DeepEqual(res.Targets(), want) {
		t.Errorf("expected targets %v, got %v", want, res.Targets())
	}
	if math.Abs(res.Cost-100) > eps {
		t.Errorf("expected cost 100, got %f", res.Cost)
	}
	if len(res.Nodes()) != len(res.Poses()) || len(res.Nodes()) == 0 {
		t.Errorf("expected matching nodes and poses, got %d and %d", len(res.Nodes()), len(res.Poses()))
	}
}

func TestSolveExhaustiveAgrees(t *testing.T) {
	s := NewSolver(newPlanner(t, 200, 200), WithExhaustive(true), WithTopN(6))
	source, targets := line()
	res, err := s.Solve(context.Background(), source, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkTour(t, res, len(targets))
	if math.Abs(res.Cost-100) > eps {
		t.Errorf("expected cost 100, got %f", res.Cost)
	}
}

func TestSolveNoTargets(t *testing.T) {
	s := NewSolver(newPlanner(t, 200, 200))
	res, err := s.Solve(context.Background(), pose.New(50, 50, 0), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.Order, []int{0}) || res.Cost != 0 || len(res.Legs) != 0 {
		t.Errorf("expected an empty tour, got %+v", res)
	}
}

func TestSolveUnreachableTarget(t *testing.T) {
	s := NewSolver(newPlanner(t, 100, 100), WithUnreachable(1e9))
	targets := []pose.Pose{pose.New(60, 50, 0), pose.New(300, 300, 0)}
	res, err := s.Solve(context.Background(), pose.New(30, 50, 0), targets)
	if !errors.Is(err, ErrNoFeasibleTour) {
		t.Fatalf("expected ErrNoFeasibleTour, got %v", err)
	}
	if res.Cost < 1e9 {
		t.Errorf("expected the sentinel to dominate the cost, got %f", res.Cost)
	}
}

func TestSolveTooManyTargets(t *testing.T) {
	s := NewSolver(newPlanner(t, 200, 200), WithMaxTargets(2))
	source, targets := line()
	if _, err := s.Solve(context.Background(), source, targets); !errors.Is(err, ErrTooManyTargets) {
		t.Errorf("expected ErrTooManyTargets, got %v", err)
	}
}

func TestSolveCancelled(t *testing.T) {
	s := NewSolver(newPlanner(t, 200, 200))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source, targets := line()
	if _, err := s.Solve(ctx, source, targets); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCostsIndependentOfWorkers(t *testing.T) {
	source, targets := line()
	poses := append([]pose.Pose{source}, targets...)
	planner := newPlanner(t, 200, 200)

	one, err := NewSolver(planner, WithWorkers(1)).Costs(context.Background(), poses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	many, err := NewSolver(planner, WithWorkers(8)).Costs(context.Background(), poses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one.Len() != len(poses) || !reflect.DeepEqual(one.costs, many.costs) {
		t.Errorf("graphs differ between pool sizes:\n%v\n%v", one.costs, many.costs)
	}
	for i := 0; i < one.Len(); i++ {
		if one.Cost(i, i) != 0 {
			t.Errorf("expected a zero diagonal at %d, got %f", i, one.Cost(i, i))
		}
	}
	if one.Cost(0, 2) != 40 || one.Cost(2, 3) != 30 || one.Cost(3, 1) != 30 {
		t.Errorf("unexpected forward costs %f %f %f", one.Cost(0, 2), one.Cost(2, 3), one.Cost(3, 1))
	}
	if got := one.TourCost([]int{0, 2, 3, 1}); got != 100 {
		t.Errorf("expected tour cost 100, got %f", got)
	}
}

// stalled never finds a path before its context ends.
type stalled struct{}

func (stalled) Search(ctx context.Context, _, _ pose.Pose) (hybridastar.Path, error) {
	<-ctx.Done()
	return hybridastar.Path{}, ctx.Err()
}

func TestCostsPairTimeoutIsUnreachable(t *testing.T) {
	s := NewSolver(stalled{}, WithPairTimeout(10*time.Millisecond), WithUnreachable(42))
	g, err := s.Costs(context.Background(), []pose.Pose{pose.New(0, 0, 0), pose.New(10, 0, 0)})
	if err != nil {
		t.Fatalf("a timed out pair must not be an error, got %v", err)
	}
	if g.Cost(0, 1) != 42 || g.Cost(1, 0) != 42 {
		t.Errorf("expected sentinel costs, got %f and %f", g.Cost(0, 1), g.Cost(1, 0))
	}
}

func TestGreedy(t *testing.T) {
	s := NewSolver(newPlanner(t, 200, 200))
	source, targets := line()
	res, err := s.Greedy(context.Background(), source, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkTour(t, res, len(targets))
	if want := []int{0, 2, 3, 1}; !reflect.DeepEqual(res.Order, want) {
		t.Errorf("expected order %v, got %v", want, res.Order)
	}
}

func TestPermutations(t *testing.T) {
	var got [][]int
	permutations(3, func(order []int) { got = append(got, order) })
	want := [][]int{
		{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 2, 1, 3},
		{0, 2, 3, 1}, {0, 3, 1, 2}, {0, 3, 2, 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	var single [][]int
	permutations(0, func(order []int) { single = append(single, order) })
	if !reflect.DeepEqual(single, [][]int{{0}}) {
		t.Errorf("expected only the source, got %v", single)
	}
}

func TestCandidateHeapTieBreak(t *testing.T) {
	h := &candidateHeap{}
	heap.Push(h, candidate{order: []int{0, 2, 1}, cost: 5})
	heap.Push(h, candidate{order: []int{0, 1, 2}, cost: 5})
	heap.Push(h, candidate{order: []int{0, 2, 1}, cost: 3})
	var got []candidate
	for h.Len() > 0 {
		got = append(got, heap.Pop(h).(candidate))
	}
	want := []candidate{
		{order: []int{0, 2, 1}, cost: 3},
		{order: []int{0, 1, 2}, cost: 5},
		{order: []int{0, 2, 1}, cost: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
