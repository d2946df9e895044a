// Package parser is the single entry point for turning raw wire buffers into
// normalized market messages. It detects the protocol, dispatches to the
// matching extractor, backfills the timestamp and keeps running counters.
package parser

import (
	"sync/atomic"
	"time"

	"ingestion/internal/model"
	"ingestion/internal/model/enum"
	"ingestion/internal/obs"
	"ingestion/internal/parser/jsonmsg"
	"ingestion/internal/parser/tagvalue"
)

// Implementation names the parser backend in statistics.
const Implementation = "go"

// Extractor turns a buffer of one known protocol into a MarketMessage.
// Extractors are total: every input yields a status and they never panic on
// purpose. The message is meaningful only on StatusSuccess.
type Extractor interface {
	Extract(buf []byte) (enum.ParseStatus, model.MarketMessage)
}

var (
	_ Extractor = tagvalue.Extractor{}
	_ Extractor = jsonmsg.Extractor{}
)

// Option configures a Parser. The zero value is valid.
type Option struct {
	// StrictValidation rejects symbols, prices and sizes outside the native
	// feed limits. See model.Validate.
	StrictValidation bool

	// Clock returns the backfill time in nanoseconds. Defaults to wall clock.
	Clock func() int64

	// Metrics receives per-call observations when set.
	Metrics *obs.Metrics
}

// Statistics is a point-in-time view of the parser counters.
type Statistics struct {
	MessagesParsed uint64  `json:"messages_parsed"`
	ParseErrors    uint64  `json:"parse_errors"`
	ErrorRate      float64 `json:"error_rate"`
	Implementation string  `json:"implementation"`
}

// Parser is safe for concurrent use. Parsing is lock-free; only the counters
// are shared, and they are atomic.
type Parser struct {
	tagValue Extractor
	json     Extractor
	strict   bool
	now      func() int64
	metrics  *obs.Metrics

	parsed atomic.Uint64
	errors atomic.Uint64
}

// New creates a Parser with both protocol extractors.
func New(opt Option) *Parser {
	now := opt.Clock
	if now == nil {
		now = wallClock
	}
	return &Parser{
		tagValue: tagvalue.NewExtractor(),
		json:     jsonmsg.NewExtractor(),
		strict:   opt.StrictValidation,
		now:      now,
		metrics:  opt.Metrics,
	}
}

func wallClock() int64 {
	return time.Now().UnixNano()
}

// Parse parses one message. The returned message is nil iff the status is not
// StatusSuccess.
func (p *Parser) Parse(buf []byte) (enum.ParseStatus, *model.MarketMessage) {
	var start time.Time
	if p.metrics != nil {
		start = time.Now()
	}

	protocol, status, msg := p.decide(buf)
	if status == enum.StatusSuccess && msg.Timestamp == 0 {
		msg.Timestamp = p.now()
	}
	p.count(status)

	if p.metrics != nil {
		p.metrics.ObserveParse(protocol, status, len(buf), time.Since(start))
	}

	if status != enum.StatusSuccess {
		return status, nil
	}
	return status, &msg
}

// ParseString parses text input encoded as UTF-8.
func (p *Parser) ParseString(s string) (enum.ParseStatus, *model.MarketMessage) {
	return p.Parse([]byte(s))
}

// Decide runs detection and extraction without touching counters or the
// clock. A successful message may still carry a zero timestamp.
func (p *Parser) Decide(buf []byte) (enum.ParseStatus, model.MarketMessage) {
	_, status, msg := p.decide(buf)
	return status, msg
}

func (p *Parser) decide(buf []byte) (protocol enum.Protocol, status enum.ParseStatus, msg model.MarketMessage) {
	protocol = Detect(buf)
	extractor := p.extractorFor(protocol)
	if extractor == nil {
		return protocol, enum.StatusUnknownProtocol, model.MarketMessage{}
	}

	defer func() {
		if r := recover(); r != nil {
			status, msg = enum.StatusInvalidFormat, model.MarketMessage{}
		}
	}()

	status, msg = extractor.Extract(buf)
	if status != enum.StatusSuccess {
		return protocol, status, model.MarketMessage{}
	}
	if len(msg.Symbol) == 0 {
		return protocol, enum.StatusInvalidFormat, model.MarketMessage{}
	}
	if p.strict && model.Validate(msg) != nil {
		return protocol, enum.StatusInvalidFormat, model.MarketMessage{}
	}
	return protocol, status, msg
}

func (p *Parser) extractorFor(protocol enum.Protocol) Extractor {
	switch protocol {
	case enum.ProtocolTagValue:
		return p.tagValue
	case enum.ProtocolJSON:
		return p.json
	default:
		return nil
	}
}

// Record accounts a status the caller detected itself, such as
// StatusBufferOverflow or StatusIncompleteMessage from stream framing.
func (p *Parser) Record(status enum.ParseStatus) {
	p.count(status)
	p.metrics.ObserveStatus(status)
}

func (p *Parser) count(status enum.ParseStatus) {
	if status == enum.StatusSuccess {
		p.parsed.Add(1)
		return
	}
	p.errors.Add(1)
}

// Statistics returns the current counters.
func (p *Parser) Statistics() Statistics {
	parsed := p.parsed.Load()
	errs := p.errors.Load()
	return Statistics{
		MessagesParsed: parsed,
		ParseErrors:    errs,
		ErrorRate:      float64(errs) / float64(max(1, parsed+errs)),
		Implementation: Implementation,
	}
}

// ResetStatistics zeroes both counters.
func (p *Parser) ResetStatistics() {
	p.parsed.Store(0)
	p.errors.Store(0)
}
