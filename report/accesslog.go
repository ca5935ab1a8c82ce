package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/sim"
)

// AccessLog is a sim.Hook that prints one line per access.
type AccessLog struct {
	w io.Writer
}

// NewAccessLog creates an AccessLog writing to w.
func NewAccessLog(w io.Writer) *AccessLog {
	return &AccessLog{w: w}
}

// OnAccess implements sim.Hook.
func (l *AccessLog) OnAccess(o sim.Outcome) {
	fmt.Fprintf(l.w, "0x%08x  set=%2d tag=%d  => %s\n",
		o.Address, o.Index, o.Tag, o.Kind)
}
