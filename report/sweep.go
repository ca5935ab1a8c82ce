package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/cachesim/sim"
)

// SweepRow is the serialized form of one sweep point.
type SweepRow struct {
	CacheSize      uint64  `json:"cache_size"`
	BlockSize      uint64  `json:"block_size"`
	Associativity  int     `json:"associativity"`
	NumSets        int     `json:"num_sets"`
	Policy         string  `json:"policy"`
	Accesses       uint64  `json:"accesses"`
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
	MissCompulsory uint64  `json:"miss_compulsory"`
	MissConflict   uint64  `json:"miss_conflict"`
	MissCapacity   uint64  `json:"miss_capacity"`
}

// SweepRows converts sweep results into rows, keeping their order.
func SweepRows(results []sim.Result) []SweepRow {
	rows := make([]SweepRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, SweepRow{
			CacheSize:      r.Geometry.CacheSize(),
			BlockSize:      r.Geometry.BlockSize(),
			Associativity:  r.Geometry.Associativity(),
			NumSets:        r.Geometry.NumSets(),
			Policy:         r.Point.Policy.String(),
			Accesses:       r.Stats.Accesses,
			Hits:           r.Stats.Hits,
			Misses:         r.Stats.Misses,
			HitRate:        r.Stats.HitRate(),
			MissCompulsory: r.Stats.MissCompulsory,
			MissConflict:   r.Stats.MissConflict,
			MissCapacity:   r.Stats.MissCapacity,
		})
	}

	return rows
}

// WriteSweepTable prints sweep results as an aligned table.
func WriteSweepTable(w io.Writer, results []sim.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "size\tblock\tways\tsets\tpolicy\taccesses\thits\tmisses\thit%\tcompulsory\tconflict\tcapacity\t")
	for _, r := range SweepRows(results) {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%d\t%d\t%d\t%.2f\t%d\t%d\t%d\t\n",
			r.CacheSize, r.BlockSize, r.Associativity, r.NumSets, r.Policy,
			r.Accesses, r.Hits, r.Misses, r.HitRate,
			r.MissCompulsory, r.MissConflict, r.MissCapacity)
	}

	return tw.Flush()
}

// WriteSweepJSON prints sweep results as an indented JSON array.
func WriteSweepJSON(w io.Writer, results []sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(SweepRows(results)); err != nil {
		return fmt.Errorf("failed to serialize sweep results: %w", err)
	}

	return nil
}
