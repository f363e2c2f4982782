// Package fileutil resolves container slice files and writes outputs so that
// a failed run never leaves a partial file behind.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// WriteAtomic hands write a fresh temporary file in dir, then syncs it and
// renames it over outPath. write must not close f. An empty dir means the
// directory of outPath. Whatever goes wrong, the temporary file is removed and outPath keeps its
// previous contents.
func WriteAtomic(dir, outPath string, write func(f *os.File) error) (err error) {
	if dir == "" {
		dir = filepath.Dir(outPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tmp dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(outPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp file: %w", err)
	}
	tmpPath := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := write(f); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return fmt.Errorf("rename to %s: %w", outPath, err)
		}
		// tmp dir on another filesystem: stage a copy beside outPath.
		if err := copyThenRename(tmpPath, outPath); err != nil {
			return err
		}
		_ = os.Remove(tmpPath)
	}
	return nil
}

func copyThenRename(src, outPath string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	return WriteAtomic("", outPath, func(f *os.File) error {
		if _, err := io.Copy(f, in); err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
		return nil
	})
}
