package enum

// Side unknown, buy, sell
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
	_side_end
)

var sideNames = [_side_end]string{
	SideUnknown: "UNKNOWN",
	SideBuy:     "BUY",
	SideSell:    "SELL",
}

func (s Side) IsAvailable() bool {
	return s > SideUnknown && s < _side_end
}

func (s Side) String() string {
	if s >= _side_end {
		return sideNames[SideUnknown]
	}
	return sideNames[s]
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	v, ok := lookupName(sideNames[:], text)
	if !ok {
		return errUnknownName("side", text)
	}
	*s = Side(v)
	return nil
}
