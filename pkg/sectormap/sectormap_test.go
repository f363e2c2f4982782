package sectormap

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunmann/cci-extract/internal/ccitest"
	"github.com/eunmann/cci-extract/pkg/cci"
	"github.com/eunmann/cci-extract/pkg/format"
)

func openContainer(t *testing.T) (*cci.Decoder, string, string) {
	t.Helper()
	dir := t.TempDir()
	first := ccitest.WriteFile(t, dir, "game.1.cci", ccitest.Sectors(ccitest.Pattern(0), ccitest.Noise(1)))
	second := ccitest.WriteFile(t, dir, "game.2.cci", ccitest.Sectors(ccitest.Pattern(2)))

	d, err := cci.Open(first)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, first, second
}

func TestCollect(t *testing.T) {
	d, first, second := openContainer(t)

	rows, err := Collect(d)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, uint32(0), rows[0].Sector)
	assert.Equal(t, first, rows[0].Path)
	assert.True(t, rows[0].Compressed)

	assert.Equal(t, first, rows[1].Path)
	assert.False(t, rows[1].Compressed)
	assert.Equal(t, uint64(format.BlockSize), rows[1].StoredSize)
	assert.Equal(t, rows[0].Offset+rows[0].StoredSize, rows[1].Offset)

	assert.Equal(t, int32(1), rows[2].Slice)
	assert.Equal(t, second, rows[2].Path)
	assert.Equal(t, uint32(2), rows[2].Sector)
}

func TestWriteFileRoundTrip(t *testing.T) {
	d, _, _ := openContainer(t)
	path := filepath.Join(t.TempDir(), "map.parquet")

	stats, err := WriteFile(path, d)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), stats.Sectors)
	assert.Equal(t, uint32(2), stats.Compressed)
	assert.Equal(t, uint64(3*format.BlockSize), stats.Decoded)
	assert.Less(t, stats.Stored, stats.Decoded)

	want, err := Collect(d)
	require.NoError(t, err)
	got, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))

	rows, err := parquet.Read[Row](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, Stats{}, Summary(nil))
}
