package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects per-operation counters for the agenda engine.
type Metrics struct {
	mu sync.Mutex

	requestTotal     atomic.Int64
	requestFailed    atomic.Int64
	versionConflicts atomic.Int64

	operations map[string]*OperationMetrics
}

// OperationMetrics holds counters for one operation name.
type OperationMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{operations: make(map[string]*OperationMetrics)}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// Record records one finished operation.
func (m *Metrics) Record(operation string, duration time.Duration, err error) {
	om := m.operation(operation)
	m.requestTotal.Add(1)
	om.executionCount.Add(1)
	om.totalDuration.Add(duration.Milliseconds())
	if err != nil {
		m.requestFailed.Add(1)
		om.errorCount.Add(1)
	}
}

// RecordVersionConflict counts one compare-and-swap miss.
func (m *Metrics) RecordVersionConflict() {
	m.versionConflicts.Add(1)
}

func (m *Metrics) operation(name string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.operations[name]
	if !ok {
		om = &OperationMetrics{}
		m.operations[name] = om
	}
	return om
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.versionConflicts.Store(0)

	m.mu.Lock()
	m.operations = make(map[string]*OperationMetrics)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make([]*OperationSnapshot, 0, len(m.operations))
	for name, om := range m.operations {
		count := om.executionCount.Load()
		var avg int64
		if count > 0 {
			avg = om.totalDuration.Load() / count
		}
		ops = append(ops, &OperationSnapshot{
			Operation:       name,
			ExecutionCount:  count,
			ErrorCount:      om.errorCount.Load(),
			AverageDuration: avg,
		})
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Operation < ops[j].Operation })

	return &MetricsSnapshot{
		RequestTotal:     m.requestTotal.Load(),
		RequestFailed:    m.requestFailed.Load(),
		VersionConflicts: m.versionConflicts.Load(),
		Operations:       ops,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal     int64                `json:"requestTotal"`
	RequestFailed    int64                `json:"requestFailed"`
	VersionConflicts int64                `json:"versionConflicts"`
	Operations       []*OperationSnapshot `json:"operations"`
}

// OperationSnapshot represents metrics for one operation.
type OperationSnapshot struct {
	Operation       string `json:"operation"`
	ExecutionCount  int64  `json:"executionCount"`
	ErrorCount      int64  `json:"errorCount"`
	AverageDuration int64  `json:"averageDurationMs"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
