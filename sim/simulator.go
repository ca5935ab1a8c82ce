// Package sim replays address traces against a set-associative cache and
// classifies every miss as compulsory, conflict, or capacity.
package sim

import (
	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/oracle"
	"github.com/sarchlab/cachesim/replacement"
)

// Outcome describes a single access.
type Outcome struct {
	// Address is the address as given by the trace.
	Address uint64
	// BlockID, Tag, and Index are the decomposed fields.
	BlockID uint64
	Tag     uint64
	Index   int
	// Hit is true when the line was resident.
	Hit bool
	// Kind is the classification of the access.
	Kind Kind
	// Evicted is true if the access pushed a line out of its set.
	Evicted bool
	// EvictedTag is the tag of the evicted line (if Evicted is true).
	EvictedTag uint64
}

// A Hook observes every access after it has been classified.
type Hook interface {
	OnAccess(o Outcome)
}

// HookFunc adapts a function to a Hook.
type HookFunc func(o Outcome)

// OnAccess calls f.
func (f HookFunc) OnAccess(o Outcome) {
	f(o)
}

// Option is a functional option for configuring the Simulator.
type Option func(*Simulator)

// WithOracle replaces the default fully-associative reference cache.
func WithOracle(o oracle.Oracle) Option {
	return func(s *Simulator) {
		s.oracle = o
	}
}

// WithHook registers a hook that is called after every access.
func WithHook(h Hook) Option {
	return func(s *Simulator) {
		s.hooks = append(s.hooks, h)
	}
}

// Simulator is a set-associative cache together with a reference cache used
// to classify its misses. A Simulator is not safe for concurrent use; the
// order of accesses is part of the result.
type Simulator struct {
	geometry geometry.Geometry
	policy   replacement.Policy

	// sets are created on first use.
	sets   []*replacement.Set
	oracle oracle.Oracle

	// seen holds every block id referenced so far.
	seen map[uint64]struct{}

	stats Statistics
	hooks []Hook
}

// New creates a simulator. By default misses are classified against a
// fully-associative LRU cache holding as many blocks as the simulated cache.
func New(
	g geometry.Geometry,
	policy replacement.Policy,
	opts ...Option,
) *Simulator {
	s := &Simulator{
		geometry: g,
		policy:   policy,
		sets:     make([]*replacement.Set, g.NumSets()),
		seen:     make(map[uint64]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.oracle == nil {
		s.oracle = oracle.NewFullyAssociative(g.TotalBlocks())
	}

	return s
}

// Geometry returns the cache geometry.
func (s *Simulator) Geometry() geometry.Geometry {
	return s.geometry
}

// Policy returns the replacement policy of the sets.
func (s *Simulator) Policy() replacement.Policy {
	return s.policy
}

// Stats returns the counters accumulated so far.
func (s *Simulator) Stats() Statistics {
	return s.stats
}

// SetTags returns the tags resident in set index, oldest first.
func (s *Simulator) SetTags(index int) []uint64 {
	if s.sets[index] == nil {
		return []uint64{}
	}
	return s.sets[index].Tags()
}

func (s *Simulator) set(index int) *replacement.Set {
	set := s.sets[index]
	if set == nil {
		set = replacement.New(s.geometry.Associativity(), s.policy)
		s.sets[index] = set
	}
	return set
}

// Access references addr and returns how the cache handled it.
func (s *Simulator) Access(addr uint64) Outcome {
	a := s.geometry.Decompose(addr)
	set := s.set(a.Index)

	out := Outcome{
		Address: addr,
		BlockID: a.BlockID,
		Tag:     a.Tag,
		Index:   a.Index,
	}

	firstReference := s.markSeen(a.BlockID)

	if set.Contains(a.Tag) {
		set.Touch(a.Tag)

		// Keep the reference cache in step; its answer does not matter here.
		s.oracle.Access(a.BlockID)

		out.Hit = true
		out.Kind = Hit
	} else {
		referenceHit := s.oracle.Access(a.BlockID)

		switch {
		case firstReference:
			out.Kind = MissCompulsory
		case referenceHit:
			out.Kind = MissConflict
		default:
			out.Kind = MissCapacity
		}

		out.EvictedTag, out.Evicted = set.Insert(a.Tag)
	}

	s.stats.record(out.Kind)

	for _, h := range s.hooks {
		h.OnAccess(out)
	}

	return out
}

// markSeen records blockID and reports whether it had never been seen.
func (s *Simulator) markSeen(blockID uint64) bool {
	if _, ok := s.seen[blockID]; ok {
		return false
	}

	s.seen[blockID] = struct{}{}

	return true
}
