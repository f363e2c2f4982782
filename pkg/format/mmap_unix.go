//go:build linux || darwin || freebsd

package format

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapFile represents a memory-mapped slice file.
type MmapFile struct {
	path string
	data []byte
}

// OpenMmap opens a file and maps it into memory.
func OpenMmap(path string) (*MmapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	size := info.Size()
	if size == 0 {
		return &MmapFile{path: path}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	// sectors are mostly read front to back
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &MmapFile{path: path, data: data}, nil
}

// Close unmaps the file. Calling it more than once is a no-op.
func (m *MmapFile) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
