package frame

import (
	"io"
	"strings"
	"testing"

	"ingestion/internal/model/enum"
	"ingestion/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r *Reader) ([]string, []error) {
	t.Helper()
	var (
		frames []string
		errs   []error
	)
	for range 100 {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, errs
		}
		if err != nil {
			errs = append(errs, err)
			frames = append(frames, "<error>")
			continue
		}
		frames = append(frames, string(frame))
	}
	t.Fatalf("reader did not reach EOF")
	return nil, nil
}

func TestNewlineFrames(t *testing.T) {
	stream := "{\"symbol\":\"AAPL\"}\n\n8=FIX.4.4|55=MSFT|\r\n  \nlast"
	r := NewReader(strings.NewReader(stream), Option{})

	frames, errs := collect(t, r)
	require.Empty(t, errs)
	assert.Equal(t, []string{`{"symbol":"AAPL"}`, "8=FIX.4.4|55=MSFT|", "  ", "last"}, frames)
	assert.Equal(t, int64(len(stream)), r.Offset())
}

func TestNewlineOversizedFrameIsSkipped(t *testing.T) {
	stream := strings.Repeat("x", 40) + "\n123456789\nok\n"
	r := NewReader(strings.NewReader(stream), Option{MaxMessageSize: 8, BufferSize: 16})

	frames, errs := collect(t, r)
	assert.Equal(t, []string{"<error>", "<error>", "ok"}, frames)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, exception.ErrFrameTooLarge)
		status, ok := Status(err)
		assert.True(t, ok)
		assert.Equal(t, enum.StatusBufferOverflow, status)
	}
}

func TestNewlineExactLimit(t *testing.T) {
	r := NewReader(strings.NewReader("12345678\r\n"), Option{MaxMessageSize: 8})
	frames, errs := collect(t, r)
	require.Empty(t, errs)
	assert.Equal(t, []string{"12345678"}, frames)
}

func TestSOHFrames(t *testing.T) {
	stream := "8=FIX.4.4\x0135=D\x0155=AAPL\x0110=123\x01" +
		"8=FIX.4.4\x0155=MSFT\x01\r\n" +
		"8=FIX.4.4\x0155=IBM\x01" +
		"8=FIX.4.4\x0155=SPY\x01"
	r := NewReader(strings.NewReader(stream), Option{Delimiter: DelimiterSOH})

	frames, errs := collect(t, r)
	require.Empty(t, errs)
	assert.Equal(t, []string{
		"8=FIX.4.4\x0135=D\x0155=AAPL\x0110=123\x01",
		"8=FIX.4.4\x0155=MSFT\x01",
		"8=FIX.4.4\x0155=IBM\x01",
		"8=FIX.4.4\x0155=SPY\x01",
	}, frames)
	assert.Equal(t, int64(len(stream)), r.Offset())
}

func TestSOHIncompleteTail(t *testing.T) {
	stream := "8=FIX.4.4\x0155=AAPL\x0110=001\x018=FIX.4.4\x0155=MS"
	r := NewReader(strings.NewReader(stream), Option{Delimiter: DelimiterSOH})

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "8=FIX.4.4\x0155=AAPL\x0110=001\x01", string(frame))

	_, err = r.Next()
	require.ErrorIs(t, err, exception.ErrFrameIncomplete)
	status, ok := Status(err)
	assert.True(t, ok)
	assert.Equal(t, enum.StatusIncompleteMessage, status)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSOHOversizedFrame(t *testing.T) {
	stream := "8=FIX.4.4\x0158=" + strings.Repeat("y", 64) + "\x0110=000\x01" +
		"8=FIX.4.4\x0155=AAPL\x0110=000\x01"
	r := NewReader(strings.NewReader(stream), Option{Delimiter: DelimiterSOH, MaxMessageSize: 32, BufferSize: 16})

	_, err := r.Next()
	require.ErrorIs(t, err, exception.ErrFrameTooLarge)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "8=FIX.4.4\x0155=AAPL\x0110=000\x01", string(frame))

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStatusIgnoresOtherErrors(t *testing.T) {
	_, ok := Status(io.ErrUnexpectedEOF)
	assert.False(t, ok)
	_, ok = Status(nil)
	assert.False(t, ok)
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]Delimiter{
		"":          DelimiterNewline,
		"newline":   DelimiterNewline,
		"soh":       DelimiterSOH,
		"soh-frame": DelimiterSOH,
	}
	for name, want := range cases {
		got, err := ParseDelimiter(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseDelimiter("tab")
	assert.ErrorIs(t, err, exception.ErrFrameUnknownDelimiter)
}
