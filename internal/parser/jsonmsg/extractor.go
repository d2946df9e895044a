// Package jsonmsg extracts market messages from JSON object buffers as sent
// over websocket market-data feeds.
package jsonmsg

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"ingestion/internal/model"
	"ingestion/internal/model/enum"
	"ingestion/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

const (
	keySymbol    = "symbol"
	keySide      = "side"
	keyPrice     = "price"
	keySize      = "size"
	keyBid       = "bid"
	keyAsk       = "ask"
	keyBidSize   = "bid_size"
	keyAskSize   = "ask_size"
	keyType      = "type"
	keyTimestamp = "timestamp"
)

var half = decimal.RequireFromString("0.5")

// rawField keeps the undecoded JSON value of a key. ok marks presence, so a
// present null is distinguishable from an absent key.
type rawField struct {
	raw []byte
	ok  bool
}

func (f *rawField) UnmarshalJSON(b []byte) error {
	f.raw = append(f.raw[:0], b...)
	f.ok = true
	return nil
}

// payload is the fixed set of keys the extractor consumes.
type payload struct {
	symbol    rawField
	side      rawField
	price     rawField
	size      rawField
	bid       rawField
	ask       rawField
	bidSize   rawField
	askSize   rawField
	typ       rawField
	timestamp rawField
}

func decodePayload(buf []byte) (payload, error) {
	// Keys must match exactly; struct tags would fold case.
	var obj map[string]rawField
	if err := sonic.ConfigStd.Unmarshal(buf, &obj); err != nil {
		return payload{}, errors.Wrap(exception.ErrMalformedJSON, err.Error())
	}
	if obj == nil {
		return payload{}, exception.ErrMalformedJSON
	}
	return payload{
		symbol:    obj[keySymbol],
		side:      obj[keySide],
		price:     obj[keyPrice],
		size:      obj[keySize],
		bid:       obj[keyBid],
		ask:       obj[keyAsk],
		bidSize:   obj[keyBidSize],
		askSize:   obj[keyAskSize],
		typ:       obj[keyType],
		timestamp: obj[keyTimestamp],
	}, nil
}

// Extractor parses JSON object buffers. The zero value is ready to use.
type Extractor struct{}

// NewExtractor returns a JSON extractor.
func NewExtractor() Extractor {
	return Extractor{}
}

// Extract maps a JSON buffer onto a MarketMessage.
func (e Extractor) Extract(buf []byte) (enum.ParseStatus, model.MarketMessage) {
	msg, err := e.extract(buf)
	if err != nil {
		return enum.StatusInvalidFormat, model.MarketMessage{}
	}
	return enum.StatusSuccess, msg
}

func (Extractor) extract(buf []byte) (model.MarketMessage, error) {
	if !utf8.Valid(buf) {
		return model.MarketMessage{}, exception.ErrInvalidEncoding
	}

	p, err := decodePayload(buf)
	if err != nil {
		return model.MarketMessage{}, err
	}

	var msg model.MarketMessage

	symbol, err := optionalString(p.symbol)
	if err != nil {
		return msg, errors.Wrap(err, keySymbol)
	}
	if len(symbol) == 0 {
		return msg, exception.ErrMissingSymbol
	}
	msg.Symbol = symbol

	side, err := optionalString(p.side)
	if err != nil {
		return msg, errors.Wrap(err, keySide)
	}
	switch strings.ToLower(side) {
	case "buy", "b":
		msg.Side = enum.SideBuy
	case "sell", "s":
		msg.Side = enum.SideSell
	}

	switch {
	case p.price.ok:
		if msg.Price, err = toFloat(p.price); err != nil {
			return msg, errors.Wrap(err, keyPrice)
		}
		if msg.Size, err = optionalInt(p.size); err != nil {
			return msg, errors.Wrap(err, keySize)
		}
	case p.bid.ok && p.ask.ok:
		bid, err := toFloat(p.bid)
		if err != nil {
			return msg, errors.Wrap(err, keyBid)
		}
		ask, err := toFloat(p.ask)
		if err != nil {
			return msg, errors.Wrap(err, keyAsk)
		}
		bidSize, err := optionalInt(p.bidSize)
		if err != nil {
			return msg, errors.Wrap(err, keyBidSize)
		}
		askSize, err := optionalInt(p.askSize)
		if err != nil {
			return msg, errors.Wrap(err, keyAskSize)
		}
		msg.Price = midPrice(bid, ask)
		msg.Size = bidSize + askSize
		msg.Type = enum.MessageTypeQuote
	}

	typ, err := optionalString(p.typ)
	if err != nil {
		return msg, errors.Wrap(err, keyType)
	}
	switch strings.ToLower(typ) {
	case "trade":
		msg.Type = enum.MessageTypeTrade
	case "quote":
		msg.Type = enum.MessageTypeQuote
	case "order":
		msg.Type = enum.MessageTypeNewOrder
	default:
		if msg.Type == enum.MessageTypeUnknown {
			msg.Type = enum.MessageTypeMarketData
		}
	}

	if p.timestamp.ok {
		if msg.Timestamp, err = toInt(p.timestamp); err != nil {
			return msg, errors.Wrap(err, keyTimestamp)
		}
	}

	return msg, nil
}

// midPrice averages in decimal so that quotes like 0.1/0.2 land on 0.15.
// Halving by multiplication is exact at any scale.
func midPrice(bid, ask float64) float64 {
	if !isFinite(bid) || !isFinite(ask) {
		return (bid + ask) / 2
	}
	mid, _ := decimal.NewFromFloat(bid).Add(decimal.NewFromFloat(ask)).Mul(half).Float64()
	return mid
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isString(raw []byte) bool {
	return len(raw) != 0 && raw[0] == '"'
}

func isNumber(raw []byte) bool {
	return len(raw) != 0 && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'))
}

func unquote(raw []byte) (string, error) {
	var s string
	if err := sonic.ConfigStd.Unmarshal(raw, &s); err != nil {
		return "", errors.Wrap(exception.ErrMalformedJSON, err.Error())
	}
	return s, nil
}

// optionalString returns "" for an absent key and fails for non-string values.
func optionalString(f rawField) (string, error) {
	if !f.ok {
		return "", nil
	}
	if !isString(f.raw) {
		return "", exception.ErrFieldType
	}
	return unquote(f.raw)
}

// toFloat accepts JSON numbers and strings holding a number.
func toFloat(f rawField) (float64, error) {
	var text string
	switch {
	case isNumber(f.raw):
		text = string(f.raw)
	case isString(f.raw):
		s, err := unquote(f.raw)
		if err != nil {
			return 0, err
		}
		text = strings.TrimSpace(s)
		if hasHexPrefix(text) {
			return 0, exception.ErrNumericConversion
		}
	default:
		return 0, exception.ErrFieldType
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.Wrap(exception.ErrNumericConversion, err.Error())
	}
	return v, nil
}

// hasHexPrefix reports literals like "0x1p4" that strconv accepts but
// decimal feeds never send.
func hasHexPrefix(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// toInt accepts integer strings and JSON numbers; fractional numbers truncate
// toward zero.
func toInt(f rawField) (int64, error) {
	switch {
	case isNumber(f.raw):
		if v, err := strconv.ParseInt(string(f.raw), 10, 64); err == nil {
			return v, nil
		}
		v, err := strconv.ParseFloat(string(f.raw), 64)
		if err != nil || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, exception.ErrNumericConversion
		}
		return int64(v), nil
	case isString(f.raw):
		s, err := unquote(f.raw)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, errors.Wrap(exception.ErrNumericConversion, err.Error())
		}
		return v, nil
	default:
		return 0, exception.ErrFieldType
	}
}

func optionalInt(f rawField) (int64, error) {
	if !f.ok {
		return 0, nil
	}
	return toInt(f)
}
