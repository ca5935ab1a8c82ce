package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/oracle"
	"github.com/sarchlab/cachesim/replacement"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/trace"
)

type rootOptions struct {
	verbose    bool
	configPath string
	preset     string
	oracle     string
	oracleWays int
	record     string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	prof := &profileOptions{}

	cmd := &cobra.Command{
		Use:   "cachesim trace.txt [cache_size] [block_size] [assoc] [policy] [addr_bits]",
		Short: "Simulate a set-associative cache against an address trace",
		Long: `cachesim replays a trace of memory addresses (one per line, decimal ` +
			`or 0x-prefixed hex, '#' starts a comment) through a set-associative ` +
			`cache and classifies every miss as compulsory, conflict, or capacity.

Defaults: cache_size=32768 block_size=64 assoc=4 policy=LRU addr_bits=32.`,
		Args:          usageArgs(cobra.MaximumNArgs(6)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return prof.wrap(func() error {
				return simulate(cmd, args, opts, stdout, stderr)
			})
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print one line per access")
	flags.StringVar(&opts.configPath, "config", "", "config file (yaml, json, or toml)")
	flags.StringVar(&opts.preset, "preset", "",
		"start from a named cache shape ("+strings.Join(geometry.PresetNames(), ", ")+")")
	flags.StringVar(&opts.oracle, "oracle", "",
		"reference cache used to classify misses: fa or directory")
	flags.IntVar(&opts.oracleWays, "oracle-ways", 0,
		"associativity of the directory oracle, 0 for fully associative")
	flags.StringVar(&opts.record, "record", "", "record results in this SQLite database")

	prof.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(newSweepCmd(prof, stdout, stderr))

	return cmd
}

func simulate(
	cmd *cobra.Command,
	args []string,
	opts *rootOptions,
	stdout, stderr io.Writer,
) error {
	if len(args) == 0 {
		return errMissingTrace
	}
	tracePath := args[0]

	cfg, err := loadConfig(cmd, args[1:], opts)
	if err != nil {
		return err
	}

	policy, err := cfg.ReplacementPolicy()
	if err != nil {
		return err
	}

	g, err := geometry.New(cfg.Params())
	if err != nil {
		return err
	}

	ref, err := buildOracle(cfg, g)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.Verbose)
	logger.Debug("simulation configured",
		"cache_size", g.CacheSize(),
		"block_size", g.BlockSize(),
		"associativity", g.Associativity(),
		"num_sets", g.NumSets(),
		"policy", policy,
		"oracle", cfg.Oracle)

	out := bufio.NewWriter(stdout)
	defer func() { _ = out.Flush() }()

	simOpts := []sim.Option{sim.WithOracle(ref)}
	if cfg.Verbose {
		simOpts = append(simOpts, sim.WithHook(report.NewAccessLog(out)))
	}

	var rec *report.Recorder
	if cfg.Record != "" {
		rec, err = report.OpenRecorder(cfg.Record)
		if err != nil {
			return err
		}
		defer func() { _ = rec.Close() }()

		simOpts = append(simOpts, sim.WithHook(rec))
	}

	f, err := trace.Open(tracePath, trace.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	s := sim.New(g, policy, simOpts...)
	if err := s.Replay(f); err != nil {
		return err
	}

	run := report.RunOf(s)
	if err := report.WriteSummary(out, run); err != nil {
		return err
	}

	if rec != nil {
		runID, err := rec.RecordRun(tracePath, run)
		if err != nil {
			return err
		}

		if err := rec.Close(); err != nil {
			return err
		}

		fmt.Fprintf(stderr, "Results recorded in %s (run %s)\n", rec.Path(), runID)
	}

	return nil
}

// loadConfig merges preset, config file, environment, flags, and positional
// arguments, in increasing order of precedence.
func loadConfig(
	cmd *cobra.Command,
	positional []string,
	opts *rootOptions,
) (*config.Config, error) {
	var base *config.Config
	if opts.preset != "" {
		var err error
		base, err = config.WithPreset(opts.preset)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(opts.configPath, base)
	if err != nil {
		return nil, err
	}

	if err := applyPositional(cfg, positional); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if opts.verbose {
		cfg.Verbose = true
	}
	if flags.Changed("oracle") {
		cfg.Oracle = opts.oracle
	}
	if flags.Changed("oracle-ways") {
		cfg.OracleWays = opts.oracleWays
	}
	if flags.Changed("record") {
		cfg.Record = opts.record
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyPositional overrides cfg with
// [cache_size] [block_size] [assoc] [policy] [addr_bits].
func applyPositional(cfg *config.Config, args []string) error {
	for i, arg := range args {
		var err error

		switch i {
		case 0:
			cfg.CacheSize, err = parseUint("cache_size", arg)
		case 1:
			cfg.BlockSize, err = parseUint("block_size", arg)
		case 2:
			cfg.Associativity, err = parseInt("associativity", arg)
		case 3:
			cfg.Policy = arg
		case 4:
			cfg.AddressBits, err = parseInt("address_bits", arg)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func parseUint(field, arg string) (uint64, error) {
	v, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, geometry.NewConfigError(field, arg, "not a non-negative integer")
	}
	return v, nil
}

func parseInt(field, arg string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, geometry.NewConfigError(field, arg, "not an integer")
	}
	return v, nil
}

func buildOracle(cfg *config.Config, g geometry.Geometry) (oracle.Oracle, error) {
	if strings.EqualFold(cfg.Oracle, config.OracleDirectory) {
		return oracle.NewDirectory(g.TotalBlocks(), cfg.OracleWays, g.BlockSize())
	}

	return oracle.NewFullyAssociative(g.TotalBlocks()), nil
}

// newLogger logs to stderr. Warnings such as skipped trace lines are only
// shown in verbose mode.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// usageArgs marks argument count errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// policyNames lists the accepted policy names for help texts.
func policyNames() string {
	return replacement.LRU.String() + ", " + replacement.FIFO.String()
}
