package lz4window

import "errors"

var (
	ErrEmptyBlock      = errors.New("empty compressed block")
	ErrTruncatedStream = errors.New("unexpected end of compressed stream")
	ErrZeroOffset      = errors.New("zero back-reference offset")
	ErrOffsetTooFar    = errors.New("back-reference offset exceeds window")
	ErrBadPadding      = errors.New("padding longer than block")
	ErrOutputOverflow  = errors.New("output buffer too small")
)
