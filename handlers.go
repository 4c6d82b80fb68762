package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"tour-planner/arena"
	"tour-planner/config"
	"tour-planner/hybridastar"
	"tour-planner/motion"
	"tour-planner/pose"
	"tour-planner/tour"
)

type RouteRequest struct {
	Start pose.Pose `json:"start"`
	Goal  pose.Pose `json:"goal"`
	// Obstacles replaces the loaded map when present.
	Obstacles []arena.Obstacle `json:"obstacles,omitempty"`
}

type RouteResponse struct {
	RequestID string                     `json:"requestId"`
	Success   bool                       `json:"success"`
	Message   string                     `json:"message,omitempty"`
	Cost      float64                    `json:"cost,omitempty"`
	Expanded  int                        `json:"expanded"`
	Path      []pose.Pose                `json:"path"`
	Movements []string                   `json:"movements"`
	GeoJSON   *geojson.FeatureCollection `json:"geojson,omitempty"`
}

type TourRequest struct {
	Start pose.Pose `json:"start"`
	// Targets defaults to the docking poses of the obstacles.
	Targets   []pose.Pose      `json:"targets,omitempty"`
	Obstacles []arena.Obstacle `json:"obstacles,omitempty"`
	Greedy    bool             `json:"greedy,omitempty"`
}

type TourResponse struct {
	RequestID string                     `json:"requestId"`
	Success   bool                       `json:"success"`
	Message   string                     `json:"message,omitempty"`
	Order     []int                      `json:"order"`
	Cost      float64                    `json:"cost,omitempty"`
	Path      []pose.Pose                `json:"path"`
	Legs      int                        `json:"legs"`
	GeoJSON   *geojson.FeatureCollection `json:"geojson,omitempty"`
}

// server plans against a fixed configuration and a default obstacle map.
type server struct {
	cfg       config.Config
	moves     *motion.Set
	obstacles []arena.Obstacle
	logger    *zap.Logger
}

func newServer(cfg config.Config, obstacles []arena.Obstacle, logger *zap.Logger) *server {
	return &server{
		cfg:       cfg,
		moves:     motion.NewSet(cfg.Motion),
		obstacles: obstacles,
		logger:    logger,
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/route", corsMiddleware(s.routeHandler))
	mux.HandleFunc("/tour", corsMiddleware(s.tourHandler))
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// planner builds a map and search for one request.
func (s *server) planner(obstacles []arena.Obstacle, logger *zap.Logger) (*hybridastar.Planner, *arena.Map, error) {
	if obstacles == nil {
		obstacles = s.obstacles
	}
	m := arena.NewMap(s.cfg.Arena, s.moves, obstacles)
	goal := s.cfg.Search.Goal
	p, err := hybridastar.New(m, s.moves, s.cfg.PoseGrid(),
		hybridastar.WithLogger(logger),
		hybridastar.WithStopPenalty(s.cfg.Search.StopPenalty),
		hybridastar.WithMaxExpansions(s.cfg.Search.MaxExpansions),
		hybridastar.WithGoalTolerance(hybridastar.Tolerance{
			Left:    goal.Left,
			Right:   goal.Right,
			Front:   goal.Front,
			Back:    goal.Back,
			Heading: goal.HeadingTolerance(),
		}),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "build planner")
	}
	return p, m, nil
}

func (s *server) routeHandler(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger := s.logger.With(zap.String("requestId", id))

	if r.Method != http.MethodPost {
		logger.Warn("method not allowed", zap.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	logger.Info("route request", zap.Stringer("start", req.Start), zap.Stringer("goal", req.Goal))

	planner, m, err := s.planner(req.Obstacles, logger)
	if err != nil {
		logger.Error("planner setup failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	path, err := planner.Search(r.Context(), req.Start, req.Goal)
	if err != nil {
		logger.Warn("search interrupted", zap.Error(err))
		http.Error(w, "Search interrupted", http.StatusServiceUnavailable)
		return
	}

	resp := RouteResponse{
		RequestID: id,
		Success:   path.Found(),
		Expanded:  path.Expanded,
		Path:      path.Poses(),
		Movements: []string{},
	}
	for _, mv := range path.Movements() {
		resp.Movements = append(resp.Movements, mv.String())
	}
	if path.Found() {
		resp.Cost = path.Cost()
		resp.GeoJSON = arena.EncodeObstacles(m.Obstacles(), s.cfg.Arena).Append(arena.PathFeature(resp.Path))
	} else {
		resp.Message = "No path found"
	}
	logger.Info("route planned", zap.Bool("success", resp.Success), zap.Float64("cost", resp.Cost))
	writeJSON(w, logger, resp)
}

func (s *server) tourHandler(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger := s.logger.With(zap.String("requestId", id))

	if r.Method != http.MethodPost {
		logger.Warn("method not allowed", zap.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	planner, m, err := s.planner(req.Obstacles, logger)
	if err != nil {
		logger.Error("planner setup failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	targets := req.Targets
	if len(targets) == 0 {
		targets = m.Targets()
	}
	logger.Info("tour request", zap.Stringer("start", req.Start), zap.Int("targets", len(targets)))

	tc := s.cfg.Tour
	solver := tour.NewSolver(planner,
		tour.WithLogger(logger),
		tour.WithWorkers(tc.Workers),
		tour.WithTopN(tc.TopN),
		tour.WithUnreachable(tc.Unreachable),
		tour.WithMaxTargets(tc.MaxTargets),
		tour.WithPairTimeout(tc.PairTimeout.Duration()),
		tour.WithExhaustive(tc.Exhaustive),
	)
	solve := solver.Solve
	if req.Greedy {
		solve = solver.Greedy
	}

	res, err := solve(r.Context(), req.Start, targets)
	resp := TourResponse{RequestID: id, Order: []int{}, Path: []pose.Pose{}}
	switch {
	case errors.Is(err, tour.ErrTooManyTargets):
		logger.Warn("tour rejected", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, tour.ErrNoFeasibleTour):
		resp.Message = "No feasible tour"
	case err != nil:
		logger.Warn("tour interrupted", zap.Error(err))
		http.Error(w, "Tour interrupted", http.StatusServiceUnavailable)
		return
	default:
		resp.Success = true
		resp.Order = res.Targets()
		resp.Cost = res.Cost
		resp.Legs = len(res.Legs)
		resp.Path = res.Poses()
		resp.GeoJSON = arena.EncodeObstacles(m.Obstacles(), s.cfg.Arena).Append(arena.PathFeature(resp.Path))
	}
	logger.Info("tour planned", zap.Bool("success", resp.Success), zap.Ints("order", resp.Order), zap.Float64("cost", resp.Cost))
	writeJSON(w, logger, resp)
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]interface{}{
		"status":       "ready",
		"numObstacles": len(s.obstacles),
	})
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", zap.Error(err))
	}
}
