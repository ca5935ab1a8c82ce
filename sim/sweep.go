package sim

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/replacement"
)

// Point is one cache configuration in a parameter sweep.
type Point struct {
	Params geometry.Params
	Policy replacement.Policy
}

// Result is the outcome of one sweep point.
type Result struct {
	Point    Point
	Geometry geometry.Geometry
	Stats    Statistics
}

// Sweep replays addrs against every point. Each point gets its own simulator
// owned by a single goroutine, so every run sees the trace strictly in order.
// Up to parallelism points run at once; 0 means one per CPU. Results are in
// the order of points. Geometry errors are reported before anything runs.
func Sweep(addrs []uint64, points []Point, parallelism int) ([]Result, error) {
	geometries := make([]geometry.Geometry, len(points))
	for i, p := range points {
		g, err := geometry.New(p.Params)
		if err != nil {
			return nil, err
		}
		geometries[i] = g
	}

	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	results := make([]Result, len(points))

	var group errgroup.Group
	group.SetLimit(parallelism)

	for i := range points {
		group.Go(func() error {
			s := New(geometries[i], points[i].Policy)
			s.ReplayAll(addrs)

			results[i] = Result{
				Point:    points[i],
				Geometry: geometries[i],
				Stats:    s.Stats(),
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
