package sim

import (
	"errors"
	"io"
)

// AddressSource yields trace addresses in order. Next returns io.EOF after the
// last address.
type AddressSource interface {
	Next() (uint64, error)
}

// Replay feeds every address from src into the simulator, in order. It stops
// at the first error other than io.EOF and returns it.
func (s *Simulator) Replay(src AddressSource) error {
	for {
		addr, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		s.Access(addr)
	}
}

// ReplayAll feeds a slice of addresses into the simulator, in order.
func (s *Simulator) ReplayAll(addrs []uint64) {
	for _, addr := range addrs {
		s.Access(addr)
	}
}
