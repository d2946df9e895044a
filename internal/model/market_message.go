package model

import (
	"strconv"

	"ingestion/internal/model/enum"

	"github.com/bytedance/sonic"
)

// MarketMessage is the normalized record produced from either wire protocol.
// A zero Timestamp means unset; the parser backfills it on success.
type MarketMessage struct {
	Timestamp int64 // nanoseconds since epoch
	Symbol    string
	Side      enum.Side
	Price     float64
	Size      int64
	Type      enum.MessageType
}

// marketMessageJSON is the serialized projection. Enums render as names.
type marketMessageJSON struct {
	Timestamp int64            `json:"timestamp"`
	Symbol    string           `json:"symbol"`
	Side      enum.Side        `json:"side"`
	Price     float64          `json:"price"`
	Size      int64            `json:"size"`
	Type      enum.MessageType `json:"type"`
}

// MarshalJSON renders side and type by their symbolic names.
func (m MarketMessage) MarshalJSON() ([]byte, error) {
	return sonic.ConfigStd.Marshal(marketMessageJSON(m))
}

func (m *MarketMessage) UnmarshalJSON(data []byte) error {
	var v marketMessageJSON
	if err := sonic.ConfigStd.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = MarketMessage(v)
	return nil
}

func (m MarketMessage) String() string {
	buf := make([]byte, 0, 96)
	buf = append(buf, "MarketMessage(symbol="...)
	buf = append(buf, m.Symbol...)
	buf = append(buf, ", side="...)
	buf = append(buf, m.Side.String()...)
	buf = append(buf, ", price="...)
	buf = strconv.AppendFloat(buf, m.Price, 'f', -1, 64)
	buf = append(buf, ", size="...)
	buf = strconv.AppendInt(buf, m.Size, 10)
	buf = append(buf, ", type="...)
	buf = append(buf, m.Type.String()...)
	buf = append(buf, ')')
	return string(buf)
}

// IsValid reports whether the message satisfies the success invariant.
func (m MarketMessage) IsValid() bool {
	return len(m.Symbol) != 0 && m.Timestamp != 0
}
