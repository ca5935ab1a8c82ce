package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/replacement"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/trace"
)

type sweepOptions struct {
	sizes       []int
	blocks      []int
	assocs      []int
	policies    []string
	addressBits int
	parallelism int
	json        bool
	verbose     bool
	record      string
}

func newSweepCmd(prof *profileOptions, stdout, stderr io.Writer) *cobra.Command {
	opts := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep trace.txt",
		Short: "Simulate every combination of the given cache parameters",
		Long: `sweep loads the trace once and replays it through one independent ` +
			`cache per combination of size, block size, associativity, and policy. ` +
			`Configurations run in parallel; each one sees the trace in order.`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return prof.wrap(func() error {
				return sweep(args, opts, stdout, stderr)
			})
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&opts.sizes, "sizes", []int{32 * 1024}, "cache sizes in bytes")
	flags.IntSliceVar(&opts.blocks, "blocks", []int{64}, "block sizes in bytes")
	flags.IntSliceVar(&opts.assocs, "assocs", []int{1, 2, 4, 8}, "associativities")
	flags.StringSliceVar(&opts.policies, "policies", []string{"lru", "fifo"},
		"replacement policies ("+policyNames()+")")
	flags.IntVar(&opts.addressBits, "addr-bits", 32, "address width in bits")
	flags.IntVar(&opts.parallelism, "parallel", 0,
		"configurations simulated at once, 0 for one per CPU")
	flags.BoolVar(&opts.json, "json", false, "print results as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show skipped trace lines")
	flags.StringVar(&opts.record, "record", "", "record results in this SQLite database")

	return cmd
}

func sweep(args []string, opts *sweepOptions, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errMissingTrace
	}
	tracePath := args[0]

	points, err := sweepPoints(opts)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, opts.verbose)

	addrs, err := trace.LoadFile(tracePath, trace.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.Debug("sweep started",
		"trace", tracePath,
		"accesses", len(addrs),
		"points", len(points))

	results, err := sim.Sweep(addrs, points, opts.parallelism)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(stdout)
	defer func() { _ = out.Flush() }()

	if opts.json {
		err = report.WriteSweepJSON(out, results)
	} else {
		err = report.WriteSweepTable(out, results)
	}
	if err != nil {
		return err
	}

	if opts.record != "" {
		return recordSweep(opts.record, tracePath, results, stderr)
	}

	return nil
}

// sweepPoints builds the cartesian product of the sweep parameters. Every
// point is validated before anything is simulated.
func sweepPoints(opts *sweepOptions) ([]sim.Point, error) {
	policies := make([]replacement.Policy, 0, len(opts.policies))
	for _, name := range opts.policies {
		p, err := replacement.ParsePolicy(name)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}

	var points []sim.Point
	for _, size := range opts.sizes {
		for _, block := range opts.blocks {
			for _, assoc := range opts.assocs {
				if size < 0 || block < 0 {
					return nil, geometry.NewConfigError("sweep", fmt.Sprintf("%d/%d", size, block),
						"sizes must not be negative")
				}

				params := geometry.Params{
					CacheSize:     uint64(size),
					BlockSize:     uint64(block),
					Associativity: assoc,
					AddressBits:   opts.addressBits,
				}
				if _, err := geometry.New(params); err != nil {
					return nil, err
				}

				for _, policy := range policies {
					points = append(points, sim.Point{Params: params, Policy: policy})
				}
			}
		}
	}

	return points, nil
}

func recordSweep(path, tracePath string, results []sim.Result, stderr io.Writer) error {
	rec, err := report.OpenRecorder(path)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()

	for _, r := range results {
		run := report.Run{Geometry: r.Geometry, Policy: r.Point.Policy, Stats: r.Stats}
		if _, err := rec.RecordRun(tracePath, run); err != nil {
			return err
		}
	}

	if err := rec.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Results of %d runs recorded in %s\n", len(results), path)

	return nil
}
