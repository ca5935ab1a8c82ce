package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/pflag"
)

// profileOptions holds the pprof outputs requested on the command line.
type profileOptions struct {
	cpuProfile string
	memProfile string
}

func (p *profileOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVar(&p.cpuProfile, "cpuprofile", "", "write cpu profile to file")
	flags.StringVar(&p.memProfile, "memprofile", "", "write memory profile to file")
}

// wrap runs fn under the requested profilers. The heap profile is written
// after fn returns, even when fn fails.
func (p *profileOptions) wrap(fn func() error) error {
	if p.cpuProfile != "" {
		f, err := os.Create(p.cpuProfile)
		if err != nil {
			return fmt.Errorf("creating CPU profile: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	runErr := fn()

	if p.memProfile != "" {
		if err := p.writeHeapProfile(); err != nil && runErr == nil {
			return err
		}
	}

	return runErr
}

func (p *profileOptions) writeHeapProfile() error {
	f, err := os.Create(p.memProfile)
	if err != nil {
		return fmt.Errorf("creating memory profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}

	return nil
}
