// Package main provides the cachesim command.
//
// cachesim replays a memory address trace through a set-associative cache and
// reports hits, misses, and the compulsory/conflict/capacity miss breakdown.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/replacement"
	"github.com/sarchlab/cachesim/trace"
)

// Exit codes.
const (
	exitOK          = 0
	exitUsage       = 1
	exitTraceIO     = 2
	exitConfigError = 3

	// exitFailure covers failures outside the classes above, such as an
	// unwritable record database.
	exitFailure = 1
)

const usageLine = "Usage: cachesim trace.txt [cache_size] [block_size] [assoc] [policy] [addr_bits] [-v]"

var errMissingTrace = errors.New("missing trace file argument")

// usageError is a command line that could not be parsed.
type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func main() {
	// Settings may come from a .env file in the working directory.
	_ = godotenv.Load()

	atexit.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	return exitCode(cmd.Execute(), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}

	var (
		usageErr  *usageError
		ioErr     *trace.IOError
		cfgErr    *geometry.ConfigError
		policyErr *replacement.PolicyError
	)

	switch {
	case errors.Is(err, errMissingTrace):
		fmt.Fprintln(stderr, usageLine)
		return exitUsage
	case errors.As(err, &usageErr):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, usageLine)
		return exitUsage
	case errors.As(err, &ioErr):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitTraceIO
	case errors.As(err, &cfgErr), errors.As(err, &policyErr):
		fmt.Fprintf(stderr, "Fatal error: %v\n", err)
		return exitConfigError
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}
