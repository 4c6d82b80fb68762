// Package config loads planner settings from a JSON document layered over
// the built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"tour-planner/arena"
	"tour-planner/motion"
	"tour-planner/pose"
)

// Grid sets the snapping resolution.
type Grid struct {
	Coord        float64 `json:"coord"`
	ThetaDegrees float64 `json:"thetaDegrees"`
}

// Tolerance is the goal region around a target pose, in the target's frame.
type Tolerance struct {
	Left           float64 `json:"left"`
	Right          float64 `json:"right"`
	Front          float64 `json:"front"`
	Back           float64 `json:"back"`
	HeadingDegrees float64 `json:"headingDegrees"`
}

// Search tunes the path search.
type Search struct {
	StopPenalty   float64   `json:"stopPenalty"`
	Goal          Tolerance `json:"goal"`
	MaxExpansions int       `json:"maxExpansions"`
}

// Tour tunes the multi-target search.
type Tour struct {
	Workers     int      `json:"workers"`
	TopN        int      `json:"topN"`
	Unreachable float64  `json:"unreachable"`
	MaxTargets  int      `json:"maxTargets"`
	PairTimeout Duration `json:"pairTimeout"`
	Exhaustive  bool     `json:"exhaustive"`
}

// Server configures the HTTP front end.
type Server struct {
	Addr      string `json:"addr"`
	Obstacles string `json:"obstacles"`
}

// Config is the complete planner configuration.
type Config struct {
	Arena  arena.Params  `json:"arena"`
	Grid   Grid          `json:"grid"`
	Motion motion.Params `json:"motion"`
	Search Search        `json:"search"`
	Tour   Tour          `json:"tour"`
	Server Server        `json:"server"`
}

// Default returns the settings of the reference robot: 25x28 footprint in a
// 200x200 arena, 10x10 obstacles, 5 unit and 15 degree snapping.
func Default() Config {
	return Config{
		Arena: arena.Params{
			Width:          200,
			Height:         200,
			ObstacleWidth:  10,
			RobotWidth:     25,
			RobotLength:    28,
			CameraDistance: 20,
			Clearance:      1,
		},
		Grid:   Grid{Coord: 5, ThetaDegrees: 15},
		Motion: motion.CircularParams(10, 25, 6),
		Search: Search{
			StopPenalty: 10,
			Goal: Tolerance{
				Left: 5, Right: 5, Front: 5, Back: 5,
				HeadingDegrees: 15,
			},
			MaxExpansions: 200000,
		},
		Tour: Tour{
			Workers:     4,
			TopN:        3,
			Unreachable: 1e9,
			MaxTargets:  8,
			PairTimeout: Duration(30 * time.Second),
		},
		Server: Server{Addr: ":8080"},
	}
}

// Load reads path and overlays it on Default. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs error
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) || math.IsInf(v, 0) {
			errs = multierr.Append(errs, fmt.Errorf("%s must not be negative, got %v", name, v))
		}
	}

	positive("arena.width", c.Arena.Width)
	positive("arena.height", c.Arena.Height)
	positive("arena.obstacleWidth", c.Arena.ObstacleWidth)
	positive("arena.robotWidth", c.Arena.RobotWidth)
	positive("arena.robotLength", c.Arena.RobotLength)
	nonNegative("arena.cameraDistance", c.Arena.CameraDistance)
	nonNegative("arena.clearance", c.Arena.Clearance)

	positive("grid.coord", c.Grid.Coord)
	positive("grid.thetaDegrees", c.Grid.ThetaDegrees)
	if c.Grid.ThetaDegrees > 0 {
		if n := 360 / c.Grid.ThetaDegrees; math.Abs(n-math.Round(n)) > 1e-9 {
			errs = multierr.Append(errs, fmt.Errorf("grid.thetaDegrees must divide 360, got %v", c.Grid.ThetaDegrees))
		}
	}

	positive("motion.forward", c.Motion.Forward)
	positive("motion.backward", c.Motion.Backward)
	for name, t := range map[string]motion.Turn{
		"motion.forwardLeft":   c.Motion.ForwardLeft,
		"motion.forwardRight":  c.Motion.ForwardRight,
		"motion.backwardLeft":  c.Motion.BackwardLeft,
		"motion.backwardRight": c.Motion.BackwardRight,
	} {
		positive(name+".arc", t.Arc)
		if chord := math.Hypot(t.Lateral, t.Longitudinal); t.Arc < chord {
			errs = multierr.Append(errs, fmt.Errorf("%s.arc %v is shorter than its chord %v", name, t.Arc, chord))
		}
	}
	if c.Motion.Samples < 1 {
		errs = multierr.Append(errs, fmt.Errorf("motion.samples must be at least 1, got %d", c.Motion.Samples))
	}

	nonNegative("search.stopPenalty", c.Search.StopPenalty)
	nonNegative("search.goal.left", c.Search.Goal.Left)
	nonNegative("search.goal.right", c.Search.Goal.Right)
	nonNegative("search.goal.front", c.Search.Goal.Front)
	nonNegative("search.goal.back", c.Search.Goal.Back)
	nonNegative("search.goal.headingDegrees", c.Search.Goal.HeadingDegrees)
	if c.Search.MaxExpansions < 0 {
		errs = multierr.Append(errs, fmt.Errorf("search.maxExpansions must not be negative, got %d", c.Search.MaxExpansions))
	}

	if c.Tour.Workers < 1 {
		errs = multierr.Append(errs, fmt.Errorf("tour.workers must be at least 1, got %d", c.Tour.Workers))
	}
	if c.Tour.TopN < 1 {
		errs = multierr.Append(errs, fmt.Errorf("tour.topN must be at least 1, got %d", c.Tour.TopN))
	}
	if c.Tour.MaxTargets < 1 {
		errs = multierr.Append(errs, fmt.Errorf("tour.maxTargets must be at least 1, got %d", c.Tour.MaxTargets))
	}
	positive("tour.unreachable", c.Tour.Unreachable)
	if c.Tour.PairTimeout < 0 {
		errs = multierr.Append(errs, fmt.Errorf("tour.pairTimeout must not be negative, got %s", time.Duration(c.Tour.PairTimeout)))
	}
	return errs
}

// PoseGrid is the snapping grid.
func (c Config) PoseGrid() pose.Grid {
	return pose.NewGrid(c.Grid.Coord, c.Grid.ThetaDegrees)
}

// HeadingTolerance is the goal heading tolerance in radians.
func (t Tolerance) HeadingTolerance() float64 {
	return t.HeadingDegrees * math.Pi / 180
}

// Duration is a time.Duration written as a string such as "30s" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "duration must be a string")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", s)
	}
	*d = Duration(v)
	return nil
}

// Duration converts back to a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
