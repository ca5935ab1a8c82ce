// Package report prints and records the results of cache simulations.
package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/replacement"
	"github.com/sarchlab/cachesim/sim"
)

// Run is the finished state of one simulation.
type Run struct {
	Geometry geometry.Geometry
	Policy   replacement.Policy
	Stats    sim.Statistics
}

// RunOf captures the current state of a simulator.
func RunOf(s *sim.Simulator) Run {
	return Run{
		Geometry: s.Geometry(),
		Policy:   s.Policy(),
		Stats:    s.Stats(),
	}
}

// WriteSummary prints the end-of-run summary.
func WriteSummary(w io.Writer, r Run) error {
	g := r.Geometry
	st := r.Stats

	_, err := fmt.Fprintf(w,
		"\n=== Simulation Summary ===\n"+
			"Cache size: %d bytes   Block size: %d bytes   Associativity: %d-way   Num sets: %d\n"+
			"Replacement policy: %s\n"+
			"Address decomposition: offset_bits=%d index_bits=%d tag_bits=%d\n"+
			"Accesses: %d  Hits: %d  Misses: %d  Hit rate: %.2f%%\n"+
			"Miss breakdown: Compulsory=%d  Conflict=%d  Capacity=%d\n",
		g.CacheSize(), g.BlockSize(), g.Associativity(), g.NumSets(),
		r.Policy,
		g.OffsetBits(), g.IndexBits(), g.TagBits(),
		st.Accesses, st.Hits, st.Misses, st.HitRate(),
		st.MissCompulsory, st.MissConflict, st.MissCapacity,
	)

	return err
}
