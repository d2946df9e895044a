package store

import (
	"time"

	"ingestion/internal/model"
	"ingestion/internal/model/enum"
)

// Record is the persisted row of a parsed market message. Enums are stored by
// their symbolic names so rows stay readable without this code.
type Record struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	TimestampNs int64     `gorm:"column:timestamp_ns;index;not null"`
	Symbol      string    `gorm:"size:64;index;not null"`
	Side        string    `gorm:"size:8;not null"`
	Price       float64   `gorm:"not null"`
	Size        int64     `gorm:"not null"`
	Type        string    `gorm:"size:16;not null"`
	IngestedAt  time.Time `gorm:"autoCreateTime"`
}

func (Record) TableName() string {
	return "market_messages"
}

// NewRecord converts a parsed message into a row.
func NewRecord(m model.MarketMessage) Record {
	return Record{
		TimestampNs: m.Timestamp,
		Symbol:      m.Symbol,
		Side:        m.Side.String(),
		Price:       m.Price,
		Size:        m.Size,
		Type:        m.Type.String(),
	}
}

// Message converts a row back into a message.
func (r Record) Message() (model.MarketMessage, error) {
	var (
		side enum.Side
		typ  enum.MessageType
	)
	if err := side.UnmarshalText([]byte(r.Side)); err != nil {
		return model.MarketMessage{}, err
	}
	if err := typ.UnmarshalText([]byte(r.Type)); err != nil {
		return model.MarketMessage{}, err
	}
	return model.MarketMessage{
		Timestamp: r.TimestampNs,
		Symbol:    r.Symbol,
		Side:      side,
		Price:     r.Price,
		Size:      r.Size,
		Type:      typ,
	}, nil
}
