package enum

// MessageType classifies a normalized market message.
type MessageType uint8

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeNewOrder
	MessageTypeCancelOrder
	MessageTypeModifyOrder
	MessageTypeTrade
	MessageTypeQuote
	MessageTypeMarketData
	_message_type_end
)

var messageTypeNames = [_message_type_end]string{
	MessageTypeUnknown:     "UNKNOWN",
	MessageTypeNewOrder:    "NEW_ORDER",
	MessageTypeCancelOrder: "CANCEL_ORDER",
	MessageTypeModifyOrder: "MODIFY_ORDER",
	MessageTypeTrade:       "TRADE",
	MessageTypeQuote:       "QUOTE",
	MessageTypeMarketData:  "MARKET_DATA",
}

func (t MessageType) IsAvailable() bool {
	return t > MessageTypeUnknown && t < _message_type_end
}

func (t MessageType) String() string {
	if t >= _message_type_end {
		return messageTypeNames[MessageTypeUnknown]
	}
	return messageTypeNames[t]
}

func (t MessageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *MessageType) UnmarshalText(text []byte) error {
	v, ok := lookupName(messageTypeNames[:], text)
	if !ok {
		return errUnknownName("message type", text)
	}
	*t = MessageType(v)
	return nil
}
