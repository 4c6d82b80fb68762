// Package hybridastar plans paths for a car-like robot with A* over six motion
// primitives. Continuous poses are carried along the search while a snapped
// grid key identifies states for the open and closed sets.
package hybridastar

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"tour-planner/arena"
	"tour-planner/motion"
	"tour-planner/pose"
)

// ErrInvalidGoalRegion is returned for negative or non-finite tolerances.
var ErrInvalidGoalRegion = errors.New("invalid goal region")

// Map is the occupancy query the search relies on. Implementations must be
// safe for concurrent read-only use.
type Map interface {
	// PriorityObstacles narrows the obstacles that may be hit by mv from p.
	PriorityObstacles(p pose.Pose, mv motion.Movement) []arena.Obstacle
	// IsValid reports whether the footprint at p is clear of obstacles.
	IsValid(p pose.Pose, obstacles []arena.Obstacle) bool
}

// Tolerance is the goal region: a rectangle in the goal's frame plus a
// heading tolerance in radians.
type Tolerance struct {
	Left, Right, Front, Back float64
	Heading                  float64
}

func (t Tolerance) validate() error {
	var errs error
	for name, v := range map[string]float64{
		"left": t.Left, "right": t.Right, "front": t.Front, "back": t.Back, "heading": t.Heading,
	} {
		if !(v >= 0) || math.IsInf(v, 0) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s tolerance %v", ErrInvalidGoalRegion, name, v))
		}
	}
	return errs
}

// slack absorbs rounding in the goal test.
const slack = 1e-9

// ctxCheckInterval is how many pops happen between context checks.
const ctxCheckInterval = 256

// Planner searches paths over a map. It holds no per-search state, so one
// planner can serve concurrent searches.
type Planner struct {
	m             Map
	moves         *motion.Set
	grid          pose.Grid
	tolerance     Tolerance
	penalty       float64
	maxExpansions int
	observe       func(Node)
	logger        *zap.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// WithGoalTolerance sets the goal region.
func WithGoalTolerance(t Tolerance) Option {
	return func(p *Planner) { p.tolerance = t }
}

// WithStopPenalty sets the cost added when direction or steering changes.
func WithStopPenalty(penalty float64) Option {
	return func(p *Planner) { p.penalty = penalty }
}

// WithMaxExpansions bounds the number of expanded nodes; zero means no bound.
// A search that runs out of budget reports the goal as unreachable.
func WithMaxExpansions(n int) Option {
	return func(p *Planner) { p.maxExpansions = n }
}

// WithObserver registers a callback invoked for every expanded node, in order.
func WithObserver(fn func(Node)) Option {
	return func(p *Planner) { p.observe = fn }
}

// New builds a planner. The default goal region is 5 units each way and 15
// degrees; the default stop penalty is 10.
func New(m Map, moves *motion.Set, grid pose.Grid, opts ...Option) (*Planner, error) {
	p := &Planner{
		m:     m,
		moves: moves,
		grid:  grid,
		tolerance: Tolerance{
			Left: 5, Right: 5, Front: 5, Back: 5,
			Heading: math.Pi / 12,
		},
		penalty: 10,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.tolerance.validate(); err != nil {
		return nil, err
	}
	if !(p.penalty >= 0) {
		return nil, fmt.Errorf("stop penalty must not be negative, got %v", p.penalty)
	}
	if !(grid.Coord > 0) || !(grid.Theta > 0) {
		return nil, fmt.Errorf("grid steps must be positive, got %v and %v", grid.Coord, grid.Theta)
	}
	return p, nil
}

// goalRegion tests membership in the tolerance box oriented with the goal.
type goalRegion struct {
	goal       pose.Pose
	centre     r2.Point
	fwd, right r2.Point
	tol        Tolerance
}

func newGoalRegion(goal pose.Pose, tol Tolerance) goalRegion {
	return goalRegion{
		goal:   goal,
		centre: goal.Point(),
		fwd:    goal.Forward(),
		right:  goal.Right(),
		tol:    tol,
	}
}

func (g goalRegion) contains(p pose.Pose) bool {
	d := p.Point().Sub(g.centre)
	along, across := d.Dot(g.fwd), d.Dot(g.right)
	return along <= g.tol.Front+slack && along >= -g.tol.Back-slack &&
		across <= g.tol.Right+slack && across >= -g.tol.Left-slack &&
		pose.AngleDiff(p.Heading, g.goal.Heading) <= g.tol.Heading+slack
}

// search is the state of one call to Search.
type search struct {
	p      *Planner
	goal   pose.Pose
	region goalRegion
	nodes  []Node
	open   openSet
	best   map[pose.Key]float64
	closed map[pose.Key]struct{}
	seq    int
}

// Search plans from start to a pose inside goal's tolerance region. An
// unreachable goal yields an empty Path and a nil error; the error is only set
// when ctx ends first.
func (p *Planner) Search(ctx context.Context, start, goal pose.Pose) (Path, error) {
	ctx, span := otel.Tracer("hybridastar").Start(ctx, "hybridastar.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("start", start.String()),
		attribute.String("goal", goal.String()),
	)

	began := time.Now()
	defer func() { searchDuration.Observe(time.Since(began).Seconds()) }()

	p.logger.Debug("start search", zap.Stringer("start", start), zap.Stringer("goal", goal))

	s := &search{
		p:      p,
		goal:   goal,
		region: newGoalRegion(goal, p.tolerance),
		best:   make(map[pose.Key]float64),
		closed: make(map[pose.Key]struct{}),
	}
	heap.Init(&s.open)

	root := Node{
		Key:       p.grid.Snap(start),
		Pose:      start,
		Direction: motion.Ahead,
		Steer:     motion.Straight,
		Parent:    -1,
	}
	s.push(root)

	expanded := 0
	for pops := 0; s.open.Len() > 0; pops++ {
		if pops%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				searchTotal.WithLabelValues("cancelled").Inc()
				span.RecordError(err)
				span.SetStatus(codes.Error, "search interrupted")
				return Path{Expanded: expanded}, err
			}
		}

		it := heap.Pop(&s.open).(*item)
		if _, done := s.closed[it.key]; done {
			continue
		}
		if it.f > s.best[it.key] {
			// a cheaper entry for this cell was queued after this one
			continue
		}

		node := s.nodes[it.node]
		if s.region.contains(node.Pose) {
			path := Path{Nodes: s.reconstruct(it.node), Expanded: expanded}
			p.logger.Info("found goal",
				zap.Stringer("goal", goal),
				zap.Int("expanded", expanded),
				zap.Float64("cost", path.Cost()))
			searchTotal.WithLabelValues("found").Inc()
			searchExpanded.Observe(float64(expanded))
			span.SetAttributes(attribute.Int("expanded", expanded), attribute.Bool("found", true))
			return path, nil
		}

		s.closed[it.key] = struct{}{}
		expanded++
		if p.observe != nil {
			p.observe(node)
		}
		if p.maxExpansions > 0 && expanded >= p.maxExpansions {
			p.logger.Warn("expansion budget exhausted",
				zap.Stringer("start", start),
				zap.Stringer("goal", goal),
				zap.Int("expanded", expanded))
			searchTotal.WithLabelValues("budget").Inc()
			searchExpanded.Observe(float64(expanded))
			span.SetAttributes(attribute.Int("expanded", expanded), attribute.Bool("found", false))
			return Path{Expanded: expanded}, nil
		}
		s.expand(it.node)
	}

	p.logger.Info("unable to reach goal", zap.Stringer("start", start), zap.Stringer("goal", goal),
		zap.Int("expanded", expanded))
	searchTotal.WithLabelValues("unreachable").Inc()
	searchExpanded.Observe(float64(expanded))
	span.SetAttributes(attribute.Int("expanded", expanded), attribute.Bool("found", false))
	return Path{Expanded: expanded}, nil
}

func (s *search) push(n Node) {
	idx := len(s.nodes)
	s.nodes = append(s.nodes, n)
	s.best[n.Key] = n.F()
	heap.Push(&s.open, &item{node: idx, f: n.F(), h: n.H, key: n.Key, seq: s.seq})
	s.seq++
}

// expand queues every collision-free successor of nodes[idx] that improves on
// the best f recorded for its cell.
func (s *search) expand(idx int) {
	cur := s.nodes[idx]
	moves := s.p.moves
	for _, mv := range motion.All {
		next := moves.Apply(mv, cur.Pose)
		next.Heading = pose.WrapAngle(next.Heading)
		key := s.p.grid.Snap(next)

		if _, done := s.closed[key]; done || s.collides(cur.Pose, mv) {
			continue
		}

		var penalty float64
		if mv.Direction() != cur.Direction || mv.Steer() != cur.Steer {
			penalty = s.p.penalty
		}
		step := moves.Cost(mv)
		n := Node{
			Key:       key,
			Pose:      next,
			G:         cur.G + penalty + step,
			H:         pose.Distance(next, s.goal),
			Direction: mv.Direction(),
			Steer:     mv.Steer(),
			Movement:  mv,
			Step:      step,
			Parent:    idx,
		}
		if best, ok := s.best[key]; ok && n.F() >= best {
			continue
		}
		s.push(n)
	}
}

// collides checks the swept waypoints of a turn, or the end pose of a straight
// move, against the obstacles near from.
func (s *search) collides(from pose.Pose, mv motion.Movement) bool {
	obstacles := s.p.m.PriorityObstacles(from, mv)
	for _, wp := range s.p.moves.Trace(mv, from) {
		if !s.p.m.IsValid(wp, obstacles) {
			return true
		}
	}
	return false
}

// reconstruct walks parents back to the root and re-indexes them into the
// returned slice.
func (s *search) reconstruct(last int) []Node {
	var path []Node
	for i := last; i >= 0; i = s.nodes[i].Parent {
		path = append(path, s.nodes[i])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	for i := range path {
		path[i].Parent = i - 1
	}
	return path
}
