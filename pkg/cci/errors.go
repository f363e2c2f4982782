package cci

import "errors"

var (
	// ErrBadBufferSize indicates a sector buffer that is not exactly one block.
	ErrBadBufferSize = errors.New("sector buffer must be 2048 bytes")
	// ErrSectorOutOfRange indicates a sector outside every slice.
	ErrSectorOutOfRange = errors.New("sector out of range")
	// ErrDecodeFailed wraps decompression failures and short sectors.
	ErrDecodeFailed = errors.New("sector decode failed")
	// ErrClosed is returned by reads on a closed decoder.
	ErrClosed = errors.New("decoder closed")
)
