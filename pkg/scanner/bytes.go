package scanner

import (
	"unicode"
	"unicode/utf8"
)

// NextField returns the field starting at i up to the next delim and the index
// just past that delim. next is len(payload) when the last field has no
// trailing delim.
func NextField(payload []byte, i int, delim byte) (field []byte, next int) {
	if i >= len(payload) {
		return nil, len(payload)
	}
	j := IndexByteFrom(payload, delim, i)
	if j < 0 {
		return payload[i:], len(payload)
	}
	return payload[i:j], j + 1
}

// Cut splits field on the first sep.
func Cut(field []byte, sep byte) (key, value []byte, ok bool) {
	for i := range field {
		if field[i] == sep {
			return field[:i], field[i+1:], true
		}
	}
	return field, nil, false
}

// IndexByteFrom returns the index of the first b at or after from, or -1.
func IndexByteFrom(payload []byte, b byte, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(payload); i++ {
		if payload[i] == b {
			return i
		}
	}
	return -1
}

func HasPrefix(payload []byte, prefix []byte) bool {
	if len(payload) < len(prefix) {
		return false
	}
	for i := range prefix {
		if payload[i] != prefix[i] {
			return false
		}
	}
	return true
}

// FirstNonSpaceRune decodes payload permissively and returns the first rune
// that is not whitespace. Invalid sequences decode as utf8.RuneError.
func FirstNonSpaceRune(payload []byte) (rune, bool) {
	for i := 0; i < len(payload); {
		r, size := utf8.DecodeRune(payload[i:])
		if r == utf8.RuneError || !IsSpaceRune(r) {
			return r, true
		}
		i += size
	}
	return 0, false
}

// IsSpaceRune extends unicode.IsSpace with the ASCII separators FS, GS, RS
// and US (U+001C to U+001F), which text feeds also strip as whitespace.
func IsSpaceRune(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func IndexOf(payload []byte, key []byte) int {
	return IndexOfFrom(payload, key, 0)
}

// IndexOfFrom returns the index of key at or after from, or -1.
func IndexOfFrom(payload []byte, key []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if len(key) == 0 || len(payload)-from < len(key) {
		return -1
	}
outer:
	for i := from; i <= len(payload)-len(key); i++ {
		for j := 0; j < len(key); j++ {
			if payload[i+j] != key[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// TrimSpace trims ASCII whitespace on both ends.
func TrimSpace(payload []byte) []byte {
	start, end := 0, len(payload)
	for start < end && IsSpace(payload[start]) {
		start++
	}
	for end > start && IsSpace(payload[end-1]) {
		end--
	}
	return payload[start:end]
}
