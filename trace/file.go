package trace

import (
	"os"
)

// File is a trace file opened for reading.
type File struct {
	*Reader
	f *os.File
}

// Open opens the trace at path. Failures are reported as *IOError.
func Open(path string, opts ...Option) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	r := NewReader(f, opts...)
	r.path = path

	return &File{Reader: r, f: f}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// LoadFile reads every address of the trace at path.
func LoadFile(path string, opts ...Option) ([]uint64, error) {
	f, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return f.All()
}
