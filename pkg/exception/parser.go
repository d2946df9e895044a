package exception

import "github.com/yanun0323/errors"

// Parser errors. Extractors map these onto parse statuses; they never reach
// callers of the parser as error values.
var (
	ErrInvalidEncoding    = errors.New("parser: invalid utf-8")
	ErrMalformedJSON      = errors.New("parser: malformed json")
	ErrMissingSymbol      = errors.New("parser: missing symbol")
	ErrFieldType          = errors.New("parser: unexpected field type")
	ErrNumericConversion  = errors.New("parser: numeric conversion")
	ErrValidationRejected = errors.New("parser: strict validation rejected")
)
