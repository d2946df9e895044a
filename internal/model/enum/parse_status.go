package enum

// ParseStatus is the outcome of one parse call. Exactly one per call.
type ParseStatus uint8

const (
	StatusSuccess ParseStatus = iota
	StatusInvalidFormat
	StatusIncompleteMessage
	StatusUnknownProtocol
	StatusBufferOverflow
	_status_end
)

var statusNames = [_status_end]string{
	StatusSuccess:           "SUCCESS",
	StatusInvalidFormat:     "INVALID_FORMAT",
	StatusIncompleteMessage: "INCOMPLETE_MESSAGE",
	StatusUnknownProtocol:   "UNKNOWN_PROTOCOL",
	StatusBufferOverflow:    "BUFFER_OVERFLOW",
}

// StatusCount is the number of defined statuses, for array-indexed counters.
const StatusCount = int(_status_end)

func (s ParseStatus) IsAvailable() bool {
	return s < _status_end
}

func (s ParseStatus) IsSuccess() bool {
	return s == StatusSuccess
}

func (s ParseStatus) String() string {
	if s >= _status_end {
		return "INVALID_STATUS"
	}
	return statusNames[s]
}

func (s ParseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ParseStatus) UnmarshalText(text []byte) error {
	v, ok := lookupName(statusNames[:], text)
	if !ok {
		return errUnknownName("parse status", text)
	}
	*s = ParseStatus(v)
	return nil
}
