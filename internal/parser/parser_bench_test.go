package parser

import (
	"testing"

	"ingestion/internal/model/enum"

	"github.com/yanun0323/pkg/sys"
)

func BenchmarkParseTagValue(b *testing.B) {
	p := New(Option{})
	buf := []byte(fixNewOrder)
	for b.Loop() {
		_, msg := p.Parse(buf)
		_ = msg
	}
}

func BenchmarkParseJSON(b *testing.B) {
	p := New(Option{})
	buf := []byte(jsonQuote)
	for b.Loop() {
		_, msg := p.Parse(buf)
		_ = msg
	}
}

func BenchmarkDetect(b *testing.B) {
	buf := []byte(jsonQuote)
	for b.Loop() {
		_ = Detect(buf)
	}
}

func TestDecideTagValueMemory(t *testing.T) {
	p := New(Option{Clock: fixedClock(1)})
	buf := []byte(fixNewOrder)

	var status enum.ParseStatus
	alloc, bytes := sys.MeasureMem(func() {
		for range 1000 {
			status, _ = p.Decide(buf)
		}
	})
	if status != enum.StatusSuccess {
		t.Fatalf("status mismatch: got %s", status)
	}
	t.Logf("decide tag value x1000: alloc=%d bytes=%d", alloc, bytes)
}
