package ingest

import (
	"context"
	"io"

	"ingestion/internal/frame"
	"ingestion/internal/model"
	"ingestion/internal/model/enum"
	"ingestion/internal/parser"
	"ingestion/internal/parser/tagvalue"
	"ingestion/pkg/exception"
	"ingestion/pkg/scanner"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

// Sink receives every successfully parsed message.
type Sink interface {
	Add(ctx context.Context, msg model.MarketMessage) error
}

// Option wires the usecase to its outputs. Output and Sink are optional.
type Option struct {
	Frame      frame.Option
	Output     io.Writer
	Sink       Sink
	LogRejects bool
}

// Summary counts what one Run saw, by outcome.
type Summary struct {
	Frames   uint64
	Statuses [enum.StatusCount]uint64
}

// Count returns how many frames ended with status.
func (s Summary) Count(status enum.ParseStatus) uint64 {
	if !status.IsAvailable() {
		return 0
	}
	return s.Statuses[status]
}

// Usecase reads framed raw messages from a stream and feeds them through
// the parser into the configured outputs.
type Usecase struct {
	parser *parser.Parser
	opt    Option
}

// NewUsecase creates an ingest usecase around p.
func NewUsecase(p *parser.Parser, opt Option) (*Usecase, error) {
	if p == nil {
		return nil, exception.ErrNilInstance
	}
	return &Usecase{parser: p, opt: opt}, nil
}

// Run consumes r until EOF, cancellation or shutdown.
func (use *Usecase) Run(ctx context.Context, r io.Reader) (Summary, error) {
	var (
		summary Summary
		reader  = frame.NewReader(r, use.opt.Frame)
		encoder sonic.Encoder
	)
	if use.opt.Output != nil {
		encoder = sonic.ConfigStd.NewEncoder(use.opt.Output)
	}

	for {
		select {
		case <-sys.Shutdown():
			return summary, nil
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		payload, err := reader.Next()
		if err == io.EOF {
			return summary, nil
		}
		if status, ok := frame.Status(err); ok {
			summary.Frames++
			summary.Statuses[status]++
			use.parser.Record(status)
			if use.opt.LogRejects {
				logs.Errorf("frame rejected, status: %s, offset: %d, err: %+v", status, reader.Offset(), err)
			}
			continue
		}
		if err != nil {
			return summary, errors.Wrap(err, "read frame")
		}

		summary.Frames++
		if isDisplayForm(payload) {
			payload = tagvalue.FromDisplay(payload)
		}

		status, msg := use.parser.Parse(payload)
		summary.Statuses[status]++
		if status != enum.StatusSuccess {
			if use.opt.LogRejects {
				logs.Errorf("message rejected, status: %s, offset: %d", status, reader.Offset())
			}
			continue
		}

		if encoder != nil {
			if err := encoder.Encode(msg); err != nil {
				return summary, errors.Wrap(err, "encode message")
			}
		}
		if use.opt.Sink != nil {
			if err := use.opt.Sink.Add(ctx, *msg); err != nil {
				return summary, errors.Wrap(err, "sink message")
			}
		}
	}
}

var (
	displayDelimiter = []byte("|")
	beginString      = []byte("8=")
)

// isDisplayForm reports a tag-value line written with '|' in place of SOH.
func isDisplayForm(payload []byte) bool {
	return scanner.HasPrefix(payload, beginString) &&
		scanner.IndexByteFrom(payload, tagvalue.Delimiter, 0) < 0 &&
		scanner.IndexOf(payload, displayDelimiter) >= 0
}
