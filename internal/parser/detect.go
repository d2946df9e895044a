package parser

import (
	"ingestion/internal/model/enum"
	"ingestion/pkg/scanner"
)

var tagValueSignature = []byte("8=")

// Detect classifies buf by its leading bytes. It is pure and total.
func Detect(buf []byte) enum.Protocol {
	if len(buf) < len(tagValueSignature) {
		return enum.ProtocolUnknown
	}
	if scanner.HasPrefix(buf, tagValueSignature) {
		return enum.ProtocolTagValue
	}
	if r, ok := scanner.FirstNonSpaceRune(buf); ok && r == '{' {
		return enum.ProtocolJSON
	}
	return enum.ProtocolUnknown
}
