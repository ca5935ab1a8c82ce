package sim

// Statistics holds the counters of one simulation run.
type Statistics struct {
	// Accesses is the number of addresses replayed.
	Accesses uint64
	// Hits is the number of accesses that found their line resident.
	Hits uint64
	// Misses is the number of accesses that did not.
	Misses uint64
	// MissCompulsory counts first references to a block.
	MissCompulsory uint64
	// MissConflict counts misses the reference cache would have hit.
	MissConflict uint64
	// MissCapacity counts misses the reference cache also took.
	MissCapacity uint64
}

// HitRate returns the hit rate in percent, or 0 when nothing was accessed.
func (s Statistics) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return 100.0 * float64(s.Hits) / float64(s.Accesses)
}

func (s *Statistics) record(k Kind) {
	s.Accesses++

	switch k {
	case Hit:
		s.Hits++
		return
	case MissCompulsory:
		s.MissCompulsory++
	case MissConflict:
		s.MissConflict++
	case MissCapacity:
		s.MissCapacity++
	}

	s.Misses++
}
