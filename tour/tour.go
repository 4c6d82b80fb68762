// Package tour orders a set of target poses into the cheapest visiting tour
// from a fixed source, with leg costs taken from real path searches.
package tour

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"tour-planner/hybridastar"
	"tour-planner/pose"
)

var (
	// ErrNoFeasibleTour is returned when every verified tour costs at least
	// the unreachable sentinel.
	ErrNoFeasibleTour = errors.New("no feasible tour")
	// ErrTooManyTargets guards the factorial enumeration.
	ErrTooManyTargets = errors.New("too many targets")
)

// Planner is the path search a solver drives. Every call must keep its own
// search state so that workers can share one planner.
type Planner interface {
	Search(ctx context.Context, start, goal pose.Pose) (hybridastar.Path, error)
}

// Solver plans tours.
type Solver struct {
	planner     Planner
	workers     int
	topN        int
	unreachable float64
	maxTargets  int
	pairTimeout time.Duration
	exhaustive  bool
	logger      *zap.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

// WithWorkers sets the size of the pairwise planning pool.
func WithWorkers(n int) Option {
	return func(s *Solver) { s.workers = n }
}

// WithTopN sets how many of the cheapest candidate tours are verified.
func WithTopN(n int) Option {
	return func(s *Solver) { s.topN = n }
}

// WithUnreachable sets the sentinel cost of a pair with no path.
func WithUnreachable(cost float64) Option {
	return func(s *Solver) { s.unreachable = cost }
}

// WithMaxTargets bounds the number of targets accepted by Solve.
func WithMaxTargets(n int) Option {
	return func(s *Solver) { s.maxTargets = n }
}

// WithPairTimeout bounds each single search; zero disables the bound. A search
// that runs out of time counts as unreachable.
func WithPairTimeout(d time.Duration) Option {
	return func(s *Solver) { s.pairTimeout = d }
}

// WithExhaustive verifies all top candidates instead of stopping at the first
// feasible one.
func WithExhaustive(on bool) Option {
	return func(s *Solver) { s.exhaustive = on }
}

// NewSolver builds a solver with 4 workers, 3 verified candidates, a sentinel
// of 1e9, at most 8 targets and a 30 second pair timeout.
func NewSolver(planner Planner, opts ...Option) *Solver {
	s := &Solver{
		planner:     planner,
		workers:     4,
		topN:        3,
		unreachable: 1e9,
		maxTargets:  8,
		pairTimeout: 30 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.topN < 1 {
		s.topN = 1
	}
	return s
}

// Result is a verified tour. Order indexes the source (0) followed by the
// targets (1..k); Legs holds one path per consecutive pair of Order.
type Result struct {
	Order []int
	Cost  float64
	Legs  []hybridastar.Path
}

// Targets is the visiting order as indices into the targets slice.
func (r Result) Targets() []int {
	if len(r.Order) < 2 {
		return nil
	}
	out := make([]int, 0, len(r.Order)-1)
	for _, i := range r.Order[1:] {
		out = append(out, i-1)
	}
	return out
}

// Nodes concatenates the nodes of every leg.
func (r Result) Nodes() []hybridastar.Node {
	var out []hybridastar.Node
	for _, leg := range r.Legs {
		out = append(out, leg.Nodes...)
	}
	return out
}

// Poses concatenates the poses of every leg.
func (r Result) Poses() []pose.Pose {
	var out []pose.Pose
	for _, leg := range r.Legs {
		out = append(out, leg.Poses()...)
	}
	return out
}

// Solve finds the cheapest verified tour from source through every target.
// When no tour avoids the sentinel the best one found is returned together
// with ErrNoFeasibleTour.
func (s *Solver) Solve(ctx context.Context, source pose.Pose, targets []pose.Pose) (Result, error) {
	ctx, span := otel.Tracer("tour").Start(ctx, "tour.Solve")
	defer span.End()
	span.SetAttributes(attribute.Int("targets", len(targets)))

	if len(targets) == 0 {
		return Result{Order: []int{0}}, nil
	}
	if len(targets) > s.maxTargets {
		tourTotal.WithLabelValues("rejected").Inc()
		return Result{}, errors.Wrapf(ErrTooManyTargets, "%d targets, at most %d", len(targets), s.maxTargets)
	}

	poses := append([]pose.Pose{source}, targets...)
	graph, err := s.Costs(ctx, poses)
	if err != nil {
		tourTotal.WithLabelValues("cancelled").Inc()
		return Result{}, err
	}

	candidates := &candidateHeap{}
	permutations(len(targets), func(order []int) {
		heap.Push(candidates, candidate{order: order, cost: graph.TourCost(order)})
	})
	s.logger.Debug("enumerated tours", zap.Int("candidates", candidates.Len()))

	best := Result{Cost: math.Inf(1)}
	for n := 0; n < s.topN && candidates.Len() > 0; n++ {
		c := heap.Pop(candidates).(candidate)
		res, complete, err := s.verify(ctx, poses, c.order, best.Cost)
		if err != nil {
			tourTotal.WithLabelValues("cancelled").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "verification interrupted")
			return Result{}, err
		}
		candidatesVerified.Inc()
		if !complete {
			s.logger.Debug("pruned candidate", zap.Ints("order", c.order), zap.Float64("estimate", c.cost))
			continue
		}
		s.logger.Debug("verified candidate",
			zap.Ints("order", c.order),
			zap.Float64("estimate", c.cost),
			zap.Float64("cost", res.Cost))
		if res.Cost < best.Cost {
			best = res
		}
		if !s.exhaustive && best.Cost < s.unreachable {
			break
		}
	}

	span.SetAttributes(attribute.Float64("cost", best.Cost))
	if best.Cost >= s.unreachable {
		tourTotal.WithLabelValues("infeasible").Inc()
		s.logger.Warn("no feasible tour", zap.Int("targets", len(targets)), zap.Float64("cost", best.Cost))
		return best, ErrNoFeasibleTour
	}
	tourTotal.WithLabelValues("found").Inc()
	s.logger.Info("tour planned", zap.Ints("order", best.Order), zap.Float64("cost", best.Cost))
	return best, nil
}

// Greedy visits the nearest unvisited target next, by straight-line distance,
// and verifies the resulting order with real searches.
func (s *Solver) Greedy(ctx context.Context, source pose.Pose, targets []pose.Pose) (Result, error) {
	ctx, span := otel.Tracer("tour").Start(ctx, "tour.Greedy")
	defer span.End()

	poses := append([]pose.Pose{source}, targets...)
	order := []int{0}
	visited := make([]bool, len(poses))
	visited[0] = true
	for len(order) < len(poses) {
		cur := poses[order[len(order)-1]]
		next, nearest := -1, math.Inf(1)
		for i := 1; i < len(poses); i++ {
			if d := pose.Distance(cur, poses[i]); !visited[i] && d < nearest {
				next, nearest = i, d
			}
		}
		visited[next] = true
		order = append(order, next)
	}

	res, _, err := s.verify(ctx, poses, order, math.Inf(1))
	if err != nil {
		return Result{}, err
	}
	if res.Cost >= s.unreachable {
		tourTotal.WithLabelValues("infeasible").Inc()
		return res, ErrNoFeasibleTour
	}
	tourTotal.WithLabelValues("found").Inc()
	return res, nil
}

// verify plans the legs of order one after another. Each leg starts where the
// previous one ended, or at its target when that leg found no path. It stops
// early, reporting an incomplete result, once the running cost exceeds bound.
func (s *Solver) verify(ctx context.Context, poses []pose.Pose, order []int, bound float64) (Result, bool, error) {
	res := Result{Order: order, Legs: make([]hybridastar.Path, 0, len(order)-1)}
	from := poses[order[0]]
	for i := 1; i < len(order); i++ {
		to := poses[order[i]]
		path, cost, err := s.leg(ctx, from, to)
		if err != nil {
			return Result{}, false, err
		}
		res.Legs = append(res.Legs, path)
		res.Cost += cost
		if res.Cost > bound {
			return res, false, nil
		}
		if end, ok := path.End(); ok {
			from = end
		} else {
			from = to
		}
	}
	return res, true, nil
}
