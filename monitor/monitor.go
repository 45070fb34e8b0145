// Package monitor implements the validator's optional performance probe:
// fixed-size, lock-free striped ring buffers per MeasurementType, with
// running p50/p95/p99 computed on read. A disabled monitor is a pure no-op.
package monitor

import (
	"sort"
	"sync/atomic"
	"time"
)

// MeasurementType is the closed set of durations the validator instruments.
type MeasurementType int

const (
	TokenParsing MeasurementType = iota
	HeaderValidation
	SignatureValidation
	ClaimsValidation
	CacheLookup
	CacheStore
	KeyResolution
	CompleteValidation

	measurementTypeCount
)

const numStripes = 8

// Config controls a Monitor's construction. Enabled=false yields a no-op
// monitor regardless of the other fields.
type Config struct {
	Enabled    bool     `env:"MONITOR_ENABLED" envDefault:"false"`
	WindowSize uint32   `env:"MONITOR_WINDOW_SIZE" envDefault:"10000" validate:"omitempty,min=8"`
	// MeasurementTypes restricts which types record samples; a nil/empty
	// slice enables all of them.
	MeasurementTypes []MeasurementType
}

// DefaultConfig returns a disabled monitor with a 10000-sample window.
func DefaultConfig() Config {
	return Config{Enabled: false, WindowSize: 10000}
}

// Statistics summarizes the samples currently held for one MeasurementType.
type Statistics struct {
	Count uint64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Monitor records durations per MeasurementType and reports running
// percentiles. All methods are safe for concurrent use; Ticker.StopAndRecord
// never blocks a concurrent Statistics call or another writer.
type Monitor interface {
	// Start begins timing kind; call Ticker.StopAndRecord to record the
	// elapsed duration. An un-stopped Ticker records nothing — it is not an
	// error to drop one.
	Start(kind MeasurementType) *Ticker
	// Statistics snapshots the current sample set for kind.
	Statistics(kind MeasurementType) Statistics

	record(kind MeasurementType, d time.Duration)
}

// Ticker is a stack-friendly handle returned by Monitor.Start.
type Ticker struct {
	m     Monitor
	kind  MeasurementType
	start time.Time
}

// StopAndRecord writes one sample: the elapsed time since Start. Safe to
// call on a nil Ticker (no-op) and safe to call at most once meaningfully —
// later calls record additional, likely-larger samples, which is harmless
// but pointless.
func (t *Ticker) StopAndRecord() {
	if t == nil || t.m == nil {
		return
	}
	t.m.record(t.kind, time.Since(t.start))
}

// New builds a Monitor from cfg. A disabled config returns a singleton-style
// no-op monitor whose writes are free.
func New(cfg Config) Monitor {
	if !cfg.Enabled {
		return noop{}
	}
	window := cfg.WindowSize
	if window == 0 {
		window = 10000
	}
	perStripe := int(window) / numStripes
	if perStripe < 1 {
		perStripe = 1
	}

	enabled := [measurementTypeCount]bool{}
	if len(cfg.MeasurementTypes) == 0 {
		for i := range enabled {
			enabled[i] = true
		}
	} else {
		for _, k := range cfg.MeasurementTypes {
			if k >= 0 && int(k) < len(enabled) {
				enabled[k] = true
			}
		}
	}

	sm := &stripedMonitor{enabled: enabled}
	for i := range sm.byType {
		sm.byType[i] = newStripedSeries(perStripe)
	}
	return sm
}

type stripedMonitor struct {
	enabled [measurementTypeCount]bool
	byType  [measurementTypeCount]*stripedSeries
}

func (sm *stripedMonitor) Start(kind MeasurementType) *Ticker {
	return &Ticker{m: sm, kind: kind, start: time.Now()}
}

func (sm *stripedMonitor) record(kind MeasurementType, d time.Duration) {
	if kind < 0 || int(kind) >= len(sm.byType) || !sm.enabled[kind] {
		return
	}
	sm.byType[kind].record(d)
}

func (sm *stripedMonitor) Statistics(kind MeasurementType) Statistics {
	if kind < 0 || int(kind) >= len(sm.byType) {
		return Statistics{}
	}
	return sm.byType[kind].statistics()
}

// stripedSeries is the per-MeasurementType ring buffer: numStripes
// independent stripes, each with its own write cursor, so concurrent
// writers targeting the same MeasurementType rarely contend on the same
// cache line.
type stripedSeries struct {
	perStripe int
	cursor    atomic.Uint64 // round-robins which stripe the next writer uses
	stripes   [numStripes]stripe
}

type stripe struct {
	writeIdx atomic.Uint64
	samples  []atomic.Int64
}

func newStripedSeries(perStripe int) *stripedSeries {
	s := &stripedSeries{perStripe: perStripe}
	for i := range s.stripes {
		s.stripes[i].samples = make([]atomic.Int64, perStripe)
	}
	return s
}

func (s *stripedSeries) record(d time.Duration) {
	stripeIdx := s.cursor.Add(1) % numStripes
	st := &s.stripes[stripeIdx]
	idx := st.writeIdx.Add(1) - 1
	st.samples[idx%uint64(s.perStripe)].Store(int64(d))
}

func (s *stripedSeries) statistics() Statistics {
	var values []int64
	var total uint64
	for i := range s.stripes {
		st := &s.stripes[i]
		written := st.writeIdx.Load()
		filled := written
		if filled > uint64(s.perStripe) {
			filled = uint64(s.perStripe)
		}
		total += written
		for j := uint64(0); j < filled; j++ {
			values = append(values, st.samples[j].Load())
		}
	}
	if total > uint64(s.perStripe*numStripes) {
		total = uint64(s.perStripe * numStripes)
	}

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return Statistics{
		Count: total,
		P50:   percentile(values, 0.50),
		P95:   percentile(values, 0.95),
		P99:   percentile(values, 0.99),
	}
}

func percentile(sorted []int64, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(p*float64(n) + 0.999999) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return time.Duration(sorted[idx])
}

// noop is the disabled-monitor form: every write and read is free.
type noop struct{}

func (noop) Start(kind MeasurementType) *Ticker {
	return &Ticker{m: noop{}, kind: kind, start: time.Now()}
}
func (noop) Statistics(MeasurementType) Statistics { return Statistics{} }
func (noop) record(MeasurementType, time.Duration) {}
