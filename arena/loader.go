package arena

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"tour-planner/pose"
)

// LoadObstacles reads obstacles from a GeoJSON file. See DecodeObstacles.
func LoadObstacles(path string) ([]Obstacle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read obstacles %s", path)
	}
	obstacles, err := DecodeObstacles(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode obstacles %s", path)
	}
	return obstacles, nil
}

// DecodeObstacles parses a GeoJSON FeatureCollection. A Point feature gives
// the obstacle's lower-left corner; for a Polygon the minimum of its bound is
// used. Each feature needs a "facing" property and may carry an integer "id"
// (defaulting to its 1-based position). Every malformed feature is reported.
func DecodeObstacles(data []byte) ([]Obstacle, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse feature collection")
	}

	var errs error
	obstacles := make([]Obstacle, 0, len(fc.Features))
	for i, f := range fc.Features {
		var corner orb.Point
		switch g := f.Geometry.(type) {
		case orb.Point:
			corner = g
		case orb.Polygon:
			corner = g.Bound().Min
		default:
			errs = multierr.Append(errs, fmt.Errorf("feature %d: unsupported geometry %T", i, f.Geometry))
			continue
		}

		facing, err := ParseFacing(f.Properties.MustString("facing", ""))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("feature %d: %w", i, err))
			continue
		}

		obstacles = append(obstacles, Obstacle{
			ID:     f.Properties.MustInt("id", i+1),
			X:      corner[0],
			Y:      corner[1],
			Facing: facing,
		})
	}
	if errs != nil {
		return nil, errs
	}
	return obstacles, nil
}

// EncodeObstacles renders obstacles as polygons and their docking poses as
// points, for display by map tooling.
func EncodeObstacles(obstacles []Obstacle, p Params) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range obstacles {
		block := geojson.NewFeature(o.Bound(p.ObstacleWidth).ToPolygon())
		block.Properties["id"] = o.ID
		block.Properties["facing"] = o.Facing.String()
		fc.Append(block)

		target := o.Target(p)
		dock := geojson.NewFeature(orb.Point{target.X, target.Y})
		dock.Properties["id"] = o.ID
		dock.Properties["kind"] = "target"
		dock.Properties["heading"] = target.Heading
		fc.Append(dock)
	}
	return fc
}

// PathFeature renders a sequence of poses as a LineString feature.
func PathFeature(poses []pose.Pose) *geojson.Feature {
	ls := make(orb.LineString, len(poses))
	for i, p := range poses {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return geojson.NewFeature(ls)
}
