package parser

import (
	"sync"
	"testing"

	"ingestion/internal/model"
	"ingestion/internal/model/enum"
	"ingestion/internal/obs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixNewOrder = "8=FIX.4.4\x0135=D\x0155=AAPL\x0154=1\x0144=150.25\x0138=100\x01"
	jsonQuote   = `{"symbol":"MSFT","bid":300.25,"ask":300.75,"bid_size":50,"ask_size":50}`
)

func fixedClock(ns int64) func() int64 {
	return func() int64 { return ns }
}

func TestParseTagValue(t *testing.T) {
	p := New(Option{Clock: fixedClock(42)})

	status, msg := p.Parse([]byte(fixNewOrder))
	require.Equal(t, enum.StatusSuccess, status)
	require.NotNil(t, msg)
	assert.Equal(t, "AAPL", msg.Symbol)
	assert.Equal(t, enum.SideBuy, msg.Side)
	assert.Equal(t, 150.25, msg.Price)
	assert.Equal(t, int64(100), msg.Size)
	assert.Equal(t, enum.MessageTypeNewOrder, msg.Type)
	assert.Equal(t, int64(42), msg.Timestamp)
}

func TestParseJSONQuote(t *testing.T) {
	p := New(Option{})

	status, msg := p.ParseString(jsonQuote)
	require.Equal(t, enum.StatusSuccess, status)
	require.NotNil(t, msg)
	assert.Equal(t, "MSFT", msg.Symbol)
	assert.Equal(t, 300.50, msg.Price)
	assert.Equal(t, int64(100), msg.Size)
	assert.Equal(t, enum.MessageTypeQuote, msg.Type)
	assert.NotZero(t, msg.Timestamp)
}

func TestParseTagValueTimestampFromClock(t *testing.T) {
	p := New(Option{Clock: fixedClock(42)})

	status, msg := p.ParseString("8=FIX.4.4\x0135=D\x0155=AAPL\x0152=20240101-12:00:00.123\x01")
	require.Equal(t, enum.StatusSuccess, status)
	assert.Equal(t, int64(42), msg.Timestamp)
}

func TestParseJSONQuoteExample(t *testing.T) {
	p := New(Option{})

	status, msg := p.ParseString(`{"symbol":"MSFT","bid":300.45,"ask":300.55,"bid_size":75,"ask_size":25}`)
	require.Equal(t, enum.StatusSuccess, status)
	require.NotNil(t, msg)
	assert.Equal(t, "MSFT", msg.Symbol)
	assert.Equal(t, 300.50, msg.Price)
	assert.Equal(t, int64(100), msg.Size)
	assert.Equal(t, enum.MessageTypeQuote, msg.Type)
}

func TestParsePreservesTimestamp(t *testing.T) {
	p := New(Option{Clock: fixedClock(42)})

	status, msg := p.ParseString(`{"symbol":"AAPL","timestamp":1700000000000000000}`)
	require.Equal(t, enum.StatusSuccess, status)
	assert.Equal(t, int64(1700000000000000000), msg.Timestamp)
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name string
		buf  string
		want enum.ParseStatus
	}{
		{name: "unknown protocol", buf: "INVALID_MESSAGE_FORMAT", want: enum.StatusUnknownProtocol},
		{name: "empty", buf: "", want: enum.StatusUnknownProtocol},
		{name: "missing symbol", buf: "8=FIX.4.4\x0135=D\x0154=1\x01", want: enum.StatusInvalidFormat},
		{name: "invalid price", buf: "8=FIX.4.4\x0155=AAPL\x0144=invalid_price\x01", want: enum.StatusInvalidFormat},
		{name: "malformed json", buf: `{"symbol":`, want: enum.StatusInvalidFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(Option{})
			status, msg := p.ParseString(tc.buf)
			assert.Equal(t, tc.want, status)
			assert.Nil(t, msg)

			stats := p.Statistics()
			assert.Equal(t, uint64(0), stats.MessagesParsed)
			assert.Equal(t, uint64(1), stats.ParseErrors)
			assert.Equal(t, 1.0, stats.ErrorRate)
		})
	}
}

func TestStatistics(t *testing.T) {
	p := New(Option{})

	stats := p.Statistics()
	assert.Zero(t, stats.MessagesParsed)
	assert.Zero(t, stats.ParseErrors)
	assert.Zero(t, stats.ErrorRate)
	assert.Equal(t, Implementation, stats.Implementation)

	for range 3 {
		p.ParseString(fixNewOrder)
	}
	p.ParseString("garbage")

	stats = p.Statistics()
	assert.Equal(t, uint64(3), stats.MessagesParsed)
	assert.Equal(t, uint64(1), stats.ParseErrors)
	assert.Equal(t, 0.25, stats.ErrorRate)

	p.ResetStatistics()
	stats = p.Statistics()
	assert.Zero(t, stats.MessagesParsed)
	assert.Zero(t, stats.ParseErrors)
	assert.Zero(t, stats.ErrorRate)
}

func TestRecordCountsCallerStatuses(t *testing.T) {
	m := obs.NewMetrics()
	p := New(Option{Metrics: m})

	p.Record(enum.StatusBufferOverflow)
	p.Record(enum.StatusIncompleteMessage)
	p.Record(enum.StatusSuccess)

	stats := p.Statistics()
	assert.Equal(t, uint64(1), stats.MessagesParsed)
	assert.Equal(t, uint64(2), stats.ParseErrors)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.StatusCounts[enum.StatusBufferOverflow])
	assert.Equal(t, uint64(1), snap.StatusCounts[enum.StatusIncompleteMessage])
}

func TestRecordWithoutMetrics(t *testing.T) {
	p := New(Option{})
	assert.NotPanics(t, func() { p.Record(enum.StatusBufferOverflow) })
	assert.Equal(t, uint64(1), p.Statistics().ParseErrors)
}

func TestParseObservesMetrics(t *testing.T) {
	m := obs.NewMetrics()
	p := New(Option{Metrics: m})

	p.ParseString(fixNewOrder)
	p.ParseString(jsonQuote)
	p.ParseString("nope")

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.StatusCounts[enum.StatusSuccess])
	assert.Equal(t, uint64(1), snap.StatusCounts[enum.StatusUnknownProtocol])
	assert.Equal(t, uint64(1), snap.ProtocolCounts[enum.ProtocolTagValue])
	assert.Equal(t, uint64(1), snap.ProtocolCounts[enum.ProtocolJSON])
	assert.Equal(t, uint64(1), snap.ProtocolCounts[enum.ProtocolUnknown])
	assert.Equal(t, uint64(len(fixNewOrder)+len(jsonQuote)+len("nope")), snap.BytesIn)
	assert.Equal(t, uint64(3), snap.ParseLatency.Count)
}

func TestDecideLeavesCountersAlone(t *testing.T) {
	p := New(Option{Clock: fixedClock(42)})

	status, msg := p.Decide([]byte(fixNewOrder))
	require.Equal(t, enum.StatusSuccess, status)
	assert.Zero(t, msg.Timestamp)
	assert.Zero(t, p.Statistics().MessagesParsed)
}

func TestStrictValidation(t *testing.T) {
	long := `{"symbol":"ABCDEFGHIJKLMNOPQ","price":1}`
	negative := "8=FIX.4.4\x0155=AAPL\x0144=-1\x01"
	badChar := `{"symbol":"BTC/USDT","price":1}`

	lenient := New(Option{})
	for _, buf := range []string{long, negative, badChar} {
		status, _ := lenient.ParseString(buf)
		assert.Equal(t, enum.StatusSuccess, status, buf)
	}

	strict := New(Option{StrictValidation: true})
	for _, buf := range []string{long, negative, badChar} {
		status, msg := strict.ParseString(buf)
		assert.Equal(t, enum.StatusInvalidFormat, status, buf)
		assert.Nil(t, msg)
	}

	status, _ := strict.ParseString(`{"symbol":"BRK.B","price":1,"size":2}`)
	assert.Equal(t, enum.StatusSuccess, status)
}

type panicExtractor struct{}

func (panicExtractor) Extract([]byte) (enum.ParseStatus, model.MarketMessage) {
	panic("boom")
}

type emptySymbolExtractor struct{}

func (emptySymbolExtractor) Extract([]byte) (enum.ParseStatus, model.MarketMessage) {
	return enum.StatusSuccess, model.MarketMessage{}
}

func TestExtractorFaultsBecomeInvalidFormat(t *testing.T) {
	p := New(Option{})
	p.json = panicExtractor{}
	p.tagValue = emptySymbolExtractor{}

	status, msg := p.ParseString(`{"symbol":"AAPL"}`)
	assert.Equal(t, enum.StatusInvalidFormat, status)
	assert.Nil(t, msg)

	status, msg = p.ParseString(fixNewOrder)
	assert.Equal(t, enum.StatusInvalidFormat, status)
	assert.Nil(t, msg)

	assert.Equal(t, uint64(2), p.Statistics().ParseErrors)
}

func TestParseConcurrent(t *testing.T) {
	p := New(Option{})

	const workers, rounds = 8, 500
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rounds {
				if (w+i)%2 == 0 {
					p.ParseString(fixNewOrder)
				} else {
					p.ParseString("bad")
				}
			}
		}()
	}
	wg.Wait()

	stats := p.Statistics()
	assert.Equal(t, uint64(workers*rounds), stats.MessagesParsed+stats.ParseErrors)
	assert.Equal(t, uint64(workers*rounds/2), stats.MessagesParsed)
	assert.Equal(t, 0.5, stats.ErrorRate)
}
