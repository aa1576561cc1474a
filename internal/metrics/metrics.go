package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goSession APIs.
//
// MetricID instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricHandshakeSettled is an exported constant or variable used by the session engine.
	MetricHandshakeSettled MetricID = iota
	// MetricSettleCarrier is an exported constant or variable used by the session engine.
	MetricSettleCarrier
	// MetricSettleStored is an exported constant or variable used by the session engine.
	MetricSettleStored
	// MetricSettleHost is an exported constant or variable used by the session engine.
	MetricSettleHost
	// MetricSettleTimeout is an exported constant or variable used by the session engine.
	MetricSettleTimeout
	// MetricSettleNone is an exported constant or variable used by the session engine.
	MetricSettleNone
	// MetricDuplicateReply is an exported constant or variable used by the session engine.
	MetricDuplicateReply
	// MetricResolveSuccess is an exported constant or variable used by the session engine.
	MetricResolveSuccess
	// MetricResolveUnauthenticated is an exported constant or variable used by the session engine.
	MetricResolveUnauthenticated
	// MetricResolveFailure is an exported constant or variable used by the session engine.
	MetricResolveFailure
	// MetricStaleResultDiscarded is an exported constant or variable used by the session engine.
	MetricStaleResultDiscarded
	// MetricRefreshSuccess is an exported constant or variable used by the session engine.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the session engine.
	MetricRefreshFailure
	// MetricRefreshTimeout is an exported constant or variable used by the session engine.
	MetricRefreshTimeout
	// MetricTokenExpired is an exported constant or variable used by the session engine.
	MetricTokenExpired
	// MetricCachePurged is an exported constant or variable used by the session engine.
	MetricCachePurged
	// MetricGuardRedirect is an exported constant or variable used by the session engine.
	MetricGuardRedirect
	// MetricLogout is an exported constant or variable used by the session engine.
	MetricLogout
	// MetricRevokeFailure is an exported constant or variable used by the session engine.
	MetricRevokeFailure
	// MetricStoreFailure is an exported constant or variable used by the session engine.
	MetricStoreFailure
	// MetricHandshakeLatency is an exported constant or variable used by the session engine.
	MetricHandshakeLatency

	// MetricIDCount is an exported constant or variable used by the session engine.
	MetricIDCount
)

const (
	// HistBucketCount is the fixed bucket count of every histogram.
	HistBucketCount = 8

	cacheLineSize = 64
)

type metricHistogram struct {
	buckets [HistBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls which metric families record anything.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics defines a public type used by goSession APIs.
//
// Metrics instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]metricHistogram
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled describes the latencyenabled operation and its
// observable behavior.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe describes the observe operation and its observable behavior.
// Only the handshake latency slot carries a histogram; other IDs are
// ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= MetricIDCount {
		return
	}
	if id != MetricHandshakeLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used
// concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, HistBucketCount)
		for i := 0; i < HistBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricHandshakeLatency].buckets[i])
		}
		s.Histograms[MetricHandshakeLatency] = buckets
	}

	return s
}

// Bucket thresholds cover the handshake latency range: most settles
// land well under 100ms, the 3s slot matches the default give-up
// timeout.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 10:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 3000:
		return 6
	default:
		return 7
	}
}
