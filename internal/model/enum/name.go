package enum

import (
	"strings"

	"github.com/yanun0323/errors"
)

var errUnknownEnumName = errors.New("enum: unknown name")

func lookupName(names []string, text []byte) (int, bool) {
	s := string(text)
	for i, name := range names {
		if strings.EqualFold(name, s) {
			return i, true
		}
	}
	return 0, false
}

func errUnknownName(kind string, text []byte) error {
	return errors.Wrapf(errUnknownEnumName, "%s: %q", kind, text)
}
