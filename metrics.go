package authcore

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricSignInSuccess counts successful password sign-ins.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts rejected password sign-ins.
	MetricSignInFailure
	// MetricSignUpSuccess counts created accounts.
	MetricSignUpSuccess
	// MetricSignUpDuplicate counts sign-ups rejected as duplicates.
	MetricSignUpDuplicate
	// MetricSignOut counts sign-outs.
	MetricSignOut
	// MetricRefreshSuccess counts successful token refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts failed token refreshes.
	MetricRefreshFailure
	// MetricBiometricSuccess counts successful biometric sign-ins.
	MetricBiometricSuccess
	// MetricBiometricFailure counts failed biometric attempts, including
	// prompt timeouts.
	MetricBiometricFailure
	// MetricBiometricTimeout counts prompt timeouts specifically.
	MetricBiometricTimeout
	// MetricBiometricLockout counts biometric lockout transitions.
	MetricBiometricLockout
	// MetricPINSuccess counts successful PIN verifications.
	MetricPINSuccess
	// MetricPINFailure counts PIN mismatches.
	MetricPINFailure
	// MetricPINLockout counts PIN lockout transitions.
	MetricPINLockout
	// MetricSessionLocked counts lifecycle-triggered session locks.
	MetricSessionLocked
	// MetricSessionUnlocked counts successful unlocks.
	MetricSessionUnlocked
	// MetricStorageFault counts vault faults observed by the engine.
	MetricStorageFault

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value atomic.Uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters. All operations are no-ops when disabled.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance per cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].value.Add(1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return m.counters[id].value.Load()
}

// Snapshot deep-copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].value.Load()
	}
	return snap
}
