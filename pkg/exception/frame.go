package exception

import "github.com/yanun0323/errors"

// Framing errors
var (
	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum.
	ErrFrameTooLarge = errors.New("frame: too large")

	// ErrFrameIncomplete is returned when the stream ends inside a frame.
	ErrFrameIncomplete = errors.New("frame: incomplete")

	ErrFrameUnknownDelimiter = errors.New("frame: unknown delimiter")
)
