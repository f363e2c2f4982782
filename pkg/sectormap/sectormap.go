// Package sectormap exports where every sector of a container is stored as a
// Parquet table.
package sectormap

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/eunmann/cci-extract/pkg/cci"
	"github.com/eunmann/cci-extract/pkg/fileutil"
	"github.com/eunmann/cci-extract/pkg/format"
)

// Row is one sector of the map.
type Row struct {
	Sector     uint32 `parquet:"sector"`
	Slice      int32  `parquet:"slice"`
	Path       string `parquet:"path,dict"`
	Offset     uint64 `parquet:"offset"`
	StoredSize uint64 `parquet:"stored_size"`
	Compressed bool   `parquet:"compressed"`
}

// Layout locates sectors without decoding them.
type Layout interface {
	TotalSectors() uint32
	Locate(sector uint32) (cci.Location, error)
}

// Collect builds one row per sector, in sector order.
func Collect(src Layout) ([]Row, error) {
	total := src.TotalSectors()
	rows := make([]Row, 0, total)
	for sector := range total {
		loc, err := src.Locate(sector)
		if err != nil {
			return nil, fmt.Errorf("locate sector %d: %w", sector, err)
		}
		rows = append(rows, Row{
			Sector:     loc.Sector,
			Slice:      int32(loc.Slice),
			Path:       loc.Path,
			Offset:     loc.Offset,
			StoredSize: loc.StoredSize,
			Compressed: loc.Compressed,
		})
	}
	return rows, nil
}

// Write encodes rows as a Parquet file.
func Write(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteFile collects the layout of src and writes it to path. A failure
// leaves no partial file at path.
func WriteFile(path string, src Layout) (Stats, error) {
	rows, err := Collect(src)
	if err != nil {
		return Stats{}, err
	}

	err = fileutil.WriteAtomic("", path, func(f *os.File) error {
		return Write(f, rows)
	})
	if err != nil {
		return Stats{}, err
	}

	return Summary(rows), nil
}

// Stats aggregates a sector map.
type Stats struct {
	Sectors    uint32
	Compressed uint32
	// Stored is the on-disk size of all sectors, Decoded their size once
	// decompressed.
	Stored  uint64
	Decoded uint64
}

// Summary aggregates rows.
func Summary(rows []Row) Stats {
	s := Stats{Sectors: uint32(len(rows))}
	for _, r := range rows {
		if r.Compressed {
			s.Compressed++
		}
		s.Stored += r.StoredSize
	}
	s.Decoded = uint64(s.Sectors) * format.BlockSize
	return s
}
