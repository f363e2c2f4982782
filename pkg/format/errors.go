package format

import "errors"

var (
	// ErrInvalidHeader is the category of every header validation failure.
	ErrInvalidHeader = errors.New("invalid slice header")
	// ErrInvalidIndex is the category of every index table failure.
	ErrInvalidIndex = errors.New("invalid index table")

	// ErrBadMagic indicates the magic number doesn't match.
	ErrBadMagic = errors.New("magic number mismatch")
	// ErrBadHeaderSize indicates a header size other than 32.
	ErrBadHeaderSize = errors.New("unsupported header size")
	// ErrBadBlockSize indicates a block size other than 2048.
	ErrBadBlockSize = errors.New("unsupported block size")
	// ErrBadVersion indicates an unsupported format version.
	ErrBadVersion = errors.New("unsupported format version")
	// ErrBadAlignment indicates an index alignment other than 2.
	ErrBadAlignment = errors.New("unsupported index alignment")
	// ErrTruncated indicates a short read in the header or index table.
	ErrTruncated = errors.New("truncated")
	// ErrTooManySectors indicates a sector count that does not fit 32 bits.
	ErrTooManySectors = errors.New("sector count overflows uint32")
	// ErrCorruptEntry indicates an index entry whose successor lies before it.
	ErrCorruptEntry = errors.New("index entries not monotonic")
	// ErrBoundsCheck indicates an out-of-bounds access attempt.
	ErrBoundsCheck = errors.New("index out of bounds")
)
