package model

import (
	"math"

	"ingestion/pkg/exception"

	"github.com/yanun0323/errors"
)

// MaxSymbolLength is the longest symbol accepted by native feed validation.
const MaxSymbolLength = 16

// Validate applies native feed limits: symbols of at most MaxSymbolLength
// characters from [A-Za-z0-9.], finite non-negative prices and non-negative
// sizes.
func Validate(m MarketMessage) error {
	if !ValidSymbol(m.Symbol) {
		return errors.Wrapf(exception.ErrValidationRejected, "symbol: %q", m.Symbol)
	}
	if !ValidPrice(m.Price) {
		return errors.Wrapf(exception.ErrValidationRejected, "price: %v", m.Price)
	}
	if !ValidSize(m.Size) {
		return errors.Wrapf(exception.ErrValidationRejected, "size: %d", m.Size)
	}
	return nil
}

func ValidSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > MaxSymbolLength {
		return false
	}
	for i := 0; i < len(symbol); i++ {
		c := symbol[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.':
		default:
			return false
		}
	}
	return true
}

func ValidPrice(price float64) bool {
	return price >= 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}

func ValidSize(size int64) bool {
	return size >= 0
}
