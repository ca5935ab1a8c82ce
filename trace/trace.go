// Package trace reads memory address traces.
//
// A trace is plain text with one address per line. Anything after a '#' is a
// comment and blank lines are ignored. Addresses prefixed with 0x or 0X are
// hexadecimal, all others decimal.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// maxLineLength bounds a single trace line. Longer lines are skipped.
const maxLineLength = 1 << 20

// warnPrefixLength is how much of an overlong line a warning shows.
const warnPrefixLength = 32

var errLineTooLong = errors.New("line longer than 1 MiB")

// IOError reports a trace that cannot be opened or read.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not %s trace: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("could not %s trace file '%s': %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseWarning describes a trace line that was skipped.
type ParseWarning struct {
	Line  int
	Token string
	Err   error
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("skipping unparsable line %d: '%s'", w.Line, w.Token)
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for parse warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithWarningHandler registers a function called for every skipped line.
func WithWarningHandler(f func(ParseWarning)) Option {
	return func(r *Reader) {
		r.onWarning = f
	}
}

// Reader yields addresses from a trace, one at a time.
type Reader struct {
	br        *bufio.Reader
	path      string
	line      int
	skipped   int
	logger    *slog.Logger
	onWarning func(ParseWarning)
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	reader := &Reader{
		br:     bufio.NewReaderSize(r, 64*1024),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(reader)
	}

	return reader
}

// Next returns the next address. It returns io.EOF after the last one and an
// *IOError if the underlying reader fails.
func (r *Reader) Next() (uint64, error) {
	for {
		line, tooLong, err := r.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, &IOError{Op: "read", Path: r.path, Err: err}
		}

		if err != nil && line == "" && !tooLong {
			return 0, io.EOF
		}

		r.line++

		token := token(line)
		if token == "" {
			continue
		}

		if tooLong {
			r.warn(ParseWarning{Line: r.line, Token: token + "...", Err: errLineTooLong})
			continue
		}

		addr, err := ParseAddress(token)
		if err != nil {
			r.warn(ParseWarning{Line: r.line, Token: token, Err: err})
			continue
		}

		return addr, nil
	}
}

// readLine reads up to and including the next newline. For a line longer
// than maxLineLength only its first warnPrefixLength bytes are returned, with
// tooLong set; the rest of the line is consumed. err is io.EOF when the input
// ended, possibly after a final line without a newline.
func (r *Reader) readLine() (line string, tooLong bool, err error) {
	var buf []byte
	size := 0

	for {
		chunk, err := r.br.ReadSlice('\n')
		size += len(chunk)

		switch {
		case size > maxLineLength:
			if !tooLong {
				tooLong = true
				buf = append(buf, chunk...)
				if len(buf) > warnPrefixLength {
					buf = buf[:warnPrefixLength]
				}
			}
		default:
			buf = append(buf, chunk...)
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		return string(buf), tooLong, err
	}
}

// Skipped returns the number of lines skipped as unparsable.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) warn(w ParseWarning) {
	r.skipped++

	r.logger.Warn("trace: "+w.String(),
		"line", w.Line,
		"token", w.Token,
		"err", w.Err)

	if r.onWarning != nil {
		r.onWarning(w)
	}
}

// token strips the comment and surrounding whitespace from a line.
func token(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.Trim(line, " \t\r\n")
}

// ParseAddress parses a hexadecimal (0x-prefixed) or decimal address.
func ParseAddress(token string) (uint64, error) {
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		return strconv.ParseUint(token[2:], 16, 64)
	}
	return strconv.ParseUint(token, 10, 64)
}

// ReadAll collects every address from r.
func ReadAll(r io.Reader, opts ...Option) ([]uint64, error) {
	return NewReader(r, opts...).All()
}

// All collects the remaining addresses.
func (r *Reader) All() ([]uint64, error) {
	var addrs []uint64
	for {
		addr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return addrs, nil
		}

		if err != nil {
			return nil, err
		}

		addrs = append(addrs, addr)
	}
}
