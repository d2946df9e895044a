package enum

// Protocol is the wire grammar a raw buffer was classified as.
type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolTagValue
	ProtocolJSON
	_protocol_end
)

var protocolNames = [_protocol_end]string{
	ProtocolUnknown:  "UNKNOWN",
	ProtocolTagValue: "TAG_VALUE",
	ProtocolJSON:     "JSON",
}

// ProtocolCount is the number of defined protocols, for array-indexed counters.
const ProtocolCount = int(_protocol_end)

func (p Protocol) IsAvailable() bool {
	return p > ProtocolUnknown && p < _protocol_end
}

func (p Protocol) String() string {
	if p >= _protocol_end {
		return protocolNames[ProtocolUnknown]
	}
	return protocolNames[p]
}

func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Protocol) UnmarshalText(text []byte) error {
	v, ok := lookupName(protocolNames[:], text)
	if !ok {
		return errUnknownName("protocol", text)
	}
	*p = Protocol(v)
	return nil
}
