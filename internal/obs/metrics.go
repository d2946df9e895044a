package obs

import (
	"sync/atomic"
	"time"

	"ingestion/internal/model/enum"
)

// Metrics collects per-status and per-protocol counters and parse latency.
type Metrics struct {
	statusCounts   [enum.StatusCount]uint64
	protocolCounts [enum.ProtocolCount]uint64
	bytesIn        uint64

	parseLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	StatusCounts   map[enum.ParseStatus]uint64
	ProtocolCounts map[enum.Protocol]uint64
	BytesIn        uint64
	ParseLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveParse records one parse call that reached protocol detection.
func (m *Metrics) ObserveParse(protocol enum.Protocol, status enum.ParseStatus, size int, d time.Duration) {
	if m == nil {
		return
	}
	if idx := int(protocol); idx >= 0 && idx < len(m.protocolCounts) {
		atomic.AddUint64(&m.protocolCounts[idx], 1)
	}
	m.ObserveStatus(status)
	if size > 0 {
		atomic.AddUint64(&m.bytesIn, uint64(size))
	}
	m.parseLatency.Observe(d)
}

// ObserveStatus increments the counter of a status.
func (m *Metrics) ObserveStatus(status enum.ParseStatus) {
	if m == nil {
		return
	}
	if idx := int(status); idx >= 0 && idx < len(m.statusCounts) {
		atomic.AddUint64(&m.statusCounts[idx], 1)
	}
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	statusCounts := make(map[enum.ParseStatus]uint64)
	for i := range m.statusCounts {
		if v := atomic.LoadUint64(&m.statusCounts[i]); v > 0 {
			statusCounts[enum.ParseStatus(i)] = v
		}
	}
	protocolCounts := make(map[enum.Protocol]uint64)
	for i := range m.protocolCounts {
		if v := atomic.LoadUint64(&m.protocolCounts[i]); v > 0 {
			protocolCounts[enum.Protocol(i)] = v
		}
	}
	return Snapshot{
		StatusCounts:   statusCounts,
		ProtocolCounts: protocolCounts,
		BytesIn:        atomic.LoadUint64(&m.bytesIn),
		ParseLatency:   m.parseLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		low := atomic.LoadUint64(&l.min)
		if low != 0 && nanos >= low {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, low, nanos) {
			break
		}
	}

	for {
		high := atomic.LoadUint64(&l.max)
		if nanos <= high {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, high, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(atomic.LoadUint64(&l.sum) / count),
	}
}
