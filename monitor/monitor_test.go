package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisabledMonitorIsNoop(t *testing.T) {
	m := New(Config{Enabled: false})
	ticker := m.Start(TokenParsing)
	time.Sleep(time.Millisecond)
	ticker.StopAndRecord()

	stats := m.Statistics(TokenParsing)
	assert.Equal(t, Statistics{}, stats)
}

func TestEnabledMonitorRecordsSamples(t *testing.T) {
	m := New(Config{Enabled: true, WindowSize: 80})
	for i := 0; i < 10; i++ {
		ticker := m.Start(SignatureValidation)
		ticker.StopAndRecord()
	}
	stats := m.Statistics(SignatureValidation)
	assert.Equal(t, uint64(10), stats.Count)
	assert.GreaterOrEqual(t, stats.P99, stats.P50)
}

func TestMonitorRespectsMeasurementTypeFilter(t *testing.T) {
	m := New(Config{Enabled: true, WindowSize: 80, MeasurementTypes: []MeasurementType{TokenParsing}})
	m.Start(TokenParsing).StopAndRecord()
	m.Start(CacheLookup).StopAndRecord()

	assert.Equal(t, uint64(1), m.Statistics(TokenParsing).Count)
	assert.Equal(t, uint64(0), m.Statistics(CacheLookup).Count)
}

func TestUnstoppedTickerRecordsNothing(t *testing.T) {
	m := New(Config{Enabled: true, WindowSize: 80})
	_ = m.Start(HeaderValidation)
	assert.Equal(t, uint64(0), m.Statistics(HeaderValidation).Count)
}

func TestMonitorCountSaturatesAtWindowSize(t *testing.T) {
	m := New(Config{Enabled: true, WindowSize: 16})
	for i := 0; i < 100; i++ {
		m.Start(ClaimsValidation).StopAndRecord()
	}
	stats := m.Statistics(ClaimsValidation)
	assert.Equal(t, uint64(16), stats.Count)
}

func TestMonitorConcurrentWrites(t *testing.T) {
	m := New(Config{Enabled: true, WindowSize: 800})
	var wg sync.WaitGroup
	const goroutines = 200
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			m.Start(CompleteValidation).StopAndRecord()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(goroutines), m.Statistics(CompleteValidation).Count)
}
