//go:build !(linux || darwin || freebsd)

package format

import "errors"

// ErrMmapUnsupported is returned by OpenMmap on platforms without mmap.
var ErrMmapUnsupported = errors.New("mmap not supported on this platform")

// MmapFile is unavailable on this platform.
type MmapFile struct {
	path string
	data []byte
}

// OpenMmap always fails on this platform.
func OpenMmap(path string) (*MmapFile, error) {
	return nil, ErrMmapUnsupported
}

// Close is a no-op.
func (m *MmapFile) Close() error {
	return nil
}
