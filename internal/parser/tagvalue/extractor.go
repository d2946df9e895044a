// Package tagvalue extracts market messages from SOH-delimited tag=value
// (FIX-style) buffers. Only the tags below are modeled; others are skipped.
package tagvalue

import (
	"strconv"
	"unicode/utf8"

	"ingestion/internal/model"
	"ingestion/internal/model/enum"
	"ingestion/pkg/scanner"
)

// Delimiter separates fields on the wire.
const Delimiter byte = 0x01

const (
	tagMsgType     = "35"
	tagOrderQty    = "38"
	tagPrice       = "44"
	tagSide        = "54"
	tagSymbol      = "55"
)

// field is a captured tag value. ok is set even when the value is empty.
type field struct {
	value []byte
	ok    bool
}

func (f *field) set(v []byte) {
	f.value = v
	f.ok = true
}

// fields holds the known tags of one message; later duplicates overwrite.
type fields struct {
	msgType     field
	orderQty    field
	price       field
	side        field
	symbol      field
}

// Extractor parses tag-value buffers. The zero value is ready to use.
type Extractor struct{}

// NewExtractor returns a tag-value extractor.
func NewExtractor() Extractor {
	return Extractor{}
}

// Extract maps a tag-value buffer onto a MarketMessage.
func (Extractor) Extract(buf []byte) (enum.ParseStatus, model.MarketMessage) {
	if !utf8.Valid(buf) {
		return enum.StatusInvalidFormat, model.MarketMessage{}
	}

	f := scan(buf)

	if !f.symbol.ok || len(f.symbol.value) == 0 {
		return enum.StatusInvalidFormat, model.MarketMessage{}
	}

	msg := model.MarketMessage{
		Symbol: string(f.symbol.value),
		Side:   sideOf(f.side),
		Type:   messageTypeOf(f.msgType),
	}

	if f.price.ok {
		price, err := strconv.ParseFloat(string(scanner.TrimSpace(f.price.value)), 64)
		if err != nil {
			return enum.StatusInvalidFormat, model.MarketMessage{}
		}
		msg.Price = price
	}

	if f.orderQty.ok {
		size, err := strconv.ParseInt(string(scanner.TrimSpace(f.orderQty.value)), 10, 64)
		if err != nil {
			return enum.StatusInvalidFormat, model.MarketMessage{}
		}
		msg.Size = size
	}

	return enum.StatusSuccess, msg
}

func scan(buf []byte) fields {
	var f fields
	for i := 0; i < len(buf); {
		var segment []byte
		segment, i = scanner.NextField(buf, i, Delimiter)
		tag, value, ok := scanner.Cut(segment, '=')
		if !ok {
			continue
		}
		switch string(tag) {
		case tagMsgType:
			f.msgType.set(value)
		case tagOrderQty:
			f.orderQty.set(value)
		case tagPrice:
			f.price.set(value)
		case tagSide:
			f.side.set(value)
		case tagSymbol:
			f.symbol.set(value)
		}
	}
	return f
}

func sideOf(f field) enum.Side {
	if !f.ok {
		return enum.SideUnknown
	}
	switch string(f.value) {
	case "1":
		return enum.SideBuy
	case "2":
		return enum.SideSell
	default:
		return enum.SideUnknown
	}
}

func messageTypeOf(f field) enum.MessageType {
	if !f.ok {
		return enum.MessageTypeUnknown
	}
	switch string(f.value) {
	case "D":
		return enum.MessageTypeNewOrder
	case "F":
		return enum.MessageTypeCancelOrder
	case "G":
		return enum.MessageTypeModifyOrder
	case "8":
		return enum.MessageTypeTrade
	default:
		return enum.MessageTypeUnknown
	}
}

// FromDisplay converts the human-readable form, where '|' stands in for the
// delimiter, into wire form. buf is not modified.
func FromDisplay(buf []byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		if b == '|' {
			b = Delimiter
		}
		out[i] = b
	}
	return out
}

// ToDisplay is the inverse of FromDisplay.
func ToDisplay(buf []byte) string {
	out := make([]byte, len(buf))
	for i, b := range buf {
		if b == Delimiter {
			b = '|'
		}
		out[i] = b
	}
	return string(out)
}
