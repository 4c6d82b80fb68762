package tour

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tour-planner/hybridastar"
	"tour-planner/pose"
)

// Graph holds the planned cost between every ordered pair of poses.
// Unreachable pairs carry the solver's sentinel cost.
type Graph struct {
	costs [][]float64
}

func newGraph(n int) *Graph {
	costs := make([][]float64, n)
	for i := range costs {
		costs[i] = make([]float64, n)
	}
	return &Graph{costs: costs}
}

// Len is the number of poses in the graph.
func (g *Graph) Len() int {
	return len(g.costs)
}

// Cost is the planned cost from pose i to pose j.
func (g *Graph) Cost(i, j int) float64 {
	return g.costs[i][j]
}

// TourCost sums the edges along order.
func (g *Graph) TourCost(order []int) float64 {
	var total float64
	for i := 1; i < len(order); i++ {
		total += g.costs[order[i-1]][order[i]]
	}
	return total
}

// job is one ordered pair to plan.
type job struct {
	i, j int
}

// edge is a planned pair.
type edge struct {
	i, j int
	cost float64
}

// Costs plans every ordered pair of poses on a pool of workers. Results are
// collected by count, in whatever order the workers finish.
func (s *Solver) Costs(ctx context.Context, poses []pose.Pose) (*Graph, error) {
	ctx, span := otel.Tracer("tour").Start(ctx, "tour.Costs")
	defer span.End()

	n := len(poses)
	total := n*n - n
	span.SetAttributes(attribute.Int("poses", n), attribute.Int("pairs", total))
	g := newGraph(n)
	if total <= 0 {
		return g, nil
	}

	began := time.Now()
	defer func() { pairwiseDuration.Observe(time.Since(began).Seconds()) }()

	jobs := make(chan job, total)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				jobs <- job{i: i, j: j}
			}
		}
	}
	// closing the queue is the workers' end-of-work signal
	close(jobs)

	results := make(chan edge, total)
	eg, ectx := errgroup.WithContext(ctx)
	workers := s.workers
	if workers > total {
		workers = total
	}
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			for jb := range jobs {
				_, cost, err := s.leg(ectx, poses[jb.i], poses[jb.j])
				if err != nil {
					return err
				}
				results <- edge{i: jb.i, j: jb.j, cost: cost}
			}
			return nil
		})
	}

	for received := 0; received < total; received++ {
		select {
		case e := <-results:
			g.costs[e.i][e.j] = e.cost
		case <-ectx.Done():
			err := eg.Wait()
			if err == nil {
				err = ectx.Err()
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "pairwise planning interrupted")
			return nil, err
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("pairwise costs ready", zap.Int("poses", n), zap.Duration("elapsed", time.Since(began)))
	return g, nil
}

// leg plans from one pose to another under the per-pair deadline. An empty
// path, or one cut short by the deadline, costs the sentinel.
func (s *Solver) leg(ctx context.Context, from, to pose.Pose) (hybridastar.Path, float64, error) {
	sctx := ctx
	if s.pairTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, s.pairTimeout)
		defer cancel()
	}

	path, err := s.planner.Search(sctx, from, to)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("pair search timed out",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
				zap.Duration("timeout", s.pairTimeout))
			return hybridastar.Path{}, s.unreachable, nil
		}
		return hybridastar.Path{}, 0, err
	}
	if !path.Found() {
		return path, s.unreachable, nil
	}
	return path, path.Cost(), nil
}
