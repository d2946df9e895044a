// Package frame splits a byte stream into single-message buffers for the
// parser. It owns the statuses the extractors never produce: oversized frames
// map to StatusBufferOverflow and a stream cut inside a frame maps to
// StatusIncompleteMessage.
package frame

import (
	"bufio"
	stderrors "errors"
	"io"

	"ingestion/internal/model/enum"
	"ingestion/pkg/exception"

	"github.com/yanun0323/errors"
)

// DefaultMaxMessageSize matches the native feed handler limit.
const DefaultMaxMessageSize = 4096

const (
	defaultBufferSize = 64 * 1024
	soh               = 0x01
	newline           = '\n'
)

var (
	checksumTag    = []byte("10=")
	beginStringTag = []byte("8=")
)

// Delimiter selects how frames are separated in the stream.
type Delimiter uint8

const (
	// DelimiterNewline treats every non-blank line as one message.
	DelimiterNewline Delimiter = iota

	// DelimiterSOH reads concatenated tag-value messages. A frame ends after
	// the checksum field, before the next BeginString field, or at a line
	// break following a complete field.
	DelimiterSOH
)

// ParseDelimiter maps a config name onto a Delimiter.
func ParseDelimiter(name string) (Delimiter, error) {
	switch name {
	case "", "newline":
		return DelimiterNewline, nil
	case "soh", "soh-frame":
		return DelimiterSOH, nil
	default:
		return 0, errors.Wrapf(exception.ErrFrameUnknownDelimiter, "delimiter: %q", name)
	}
}

// Option controls framing.
type Option struct {
	Delimiter      Delimiter
	MaxMessageSize int
	BufferSize     int
}

func (o Option) withDefaults() Option {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	return o
}

// Reader yields frames sequentially.
type Reader struct {
	r   *bufio.Reader
	opt Option

	buf      []byte
	head     [3]byte
	headLen  int
	dropping bool
	offset   int64
}

// NewReader wraps an io.Reader with framing.
func NewReader(r io.Reader, opt Option) *Reader {
	opt = opt.withDefaults()
	return &Reader{
		r:   bufio.NewReaderSize(r, opt.BufferSize),
		opt: opt,
		buf: make([]byte, 0, opt.MaxMessageSize),
	}
}

// Offset returns the number of stream bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next returns the next frame. The frame is only valid until the next call.
//
// ErrFrameTooLarge is recoverable: the oversized frame has been skipped and
// Next may be called again. ErrFrameIncomplete is followed by io.EOF.
func (r *Reader) Next() ([]byte, error) {
	switch r.opt.Delimiter {
	case DelimiterSOH:
		return r.nextSOH()
	default:
		return r.nextLine()
	}
}

// Status maps a framing error onto the parse status callers should record.
func Status(err error) (enum.ParseStatus, bool) {
	switch {
	case stderrors.Is(err, exception.ErrFrameTooLarge):
		return enum.StatusBufferOverflow, true
	case stderrors.Is(err, exception.ErrFrameIncomplete):
		return enum.StatusIncompleteMessage, true
	default:
		return 0, false
	}
}

func (r *Reader) reset() {
	r.buf = r.buf[:0]
	r.dropping = false
}

// readUntil consumes bytes through delim, appending them to the frame unless
// the frame has outgrown the limit. It returns the consumed byte count and
// whether delim was reached.
func (r *Reader) readUntil(delim byte) (int, bool, error) {
	n := 0
	r.headLen = 0
	for {
		chunk, err := r.r.ReadSlice(delim)
		n += len(chunk)
		r.offset += int64(len(chunk))
		for i := 0; i < len(chunk) && r.headLen < len(r.head); i++ {
			r.head[r.headLen] = chunk[i]
			r.headLen++
		}
		if !r.dropping {
			// +2 leaves room for the line terminator.
			if len(r.buf)+len(chunk) > r.opt.MaxMessageSize+2 {
				r.dropping = true
				r.buf = r.buf[:0]
			} else {
				r.buf = append(r.buf, chunk...)
			}
		}
		switch err {
		case nil:
			return n, true, nil
		case bufio.ErrBufferFull:
			continue
		default:
			return n, false, err
		}
	}
}

func (r *Reader) nextLine() ([]byte, error) {
	for {
		r.reset()
		n, _, err := r.readUntil(newline)
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "read line")
		}
		if n == 0 && err == io.EOF {
			return nil, io.EOF
		}
		if r.dropping {
			return nil, errors.Wrapf(exception.ErrFrameTooLarge, "offset: %d", r.offset)
		}
		line := trimLineEnd(r.buf)
		if len(line) > r.opt.MaxMessageSize {
			return nil, errors.Wrapf(exception.ErrFrameTooLarge, "offset: %d, size: %d", r.offset, len(line))
		}
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

func (r *Reader) nextSOH() ([]byte, error) {
	r.reset()
	if err := r.skipLineBreaks(); err != nil {
		return nil, err
	}

	frameLen := 0
	for {
		n, found, err := r.readUntil(soh)
		frameLen += n
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "read field")
		}
		if !found {
			if frameLen == 0 {
				return nil, io.EOF
			}
			if n > 0 {
				return nil, errors.Wrapf(exception.ErrFrameIncomplete, "offset: %d, size: %d", r.offset, frameLen)
			}
			return r.completeSOH(frameLen)
		}
		if r.headLen == len(checksumTag) && [3]byte(checksumTag) == r.head {
			return r.completeSOH(frameLen)
		}
		if next, _ := r.r.Peek(len(beginStringTag)); len(next) > 0 && (next[0] == newline || next[0] == '\r' || string(next) == string(beginStringTag)) {
			return r.completeSOH(frameLen)
		}
	}
}

func (r *Reader) completeSOH(frameLen int) ([]byte, error) {
	if r.dropping || frameLen > r.opt.MaxMessageSize {
		return nil, errors.Wrapf(exception.ErrFrameTooLarge, "offset: %d, size: %d", r.offset, frameLen)
	}
	return r.buf, nil
}

func (r *Reader) skipLineBreaks() error {
	for {
		b, err := r.r.Peek(1)
		if err != nil {
			if err == io.EOF {
				return io.EOF
			}
			return errors.Wrap(err, "peek")
		}
		if b[0] != newline && b[0] != '\r' {
			return nil
		}
		_, _ = r.r.Discard(1)
		r.offset++
	}
}

func trimLineEnd(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == newline || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
