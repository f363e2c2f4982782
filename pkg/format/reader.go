package format

import (
	"fmt"
	"io"
	"os"
)

// File is a random-access handle on one slice.
type File interface {
	io.ReaderAt
	io.Closer
}

// Opener opens a slice path as a File.
type Opener func(path string) (File, error)

// OpenFile opens a slice with a plain file descriptor.
func OpenFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// OpenMmapFile opens a slice backed by a read-only memory mapping.
func OpenMmapFile(path string) (File, error) {
	m, err := OpenMmap(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ReadAt copies mapped bytes starting at off into p.
func (m *MmapFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("mmap %s: negative offset %d", m.path, off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
