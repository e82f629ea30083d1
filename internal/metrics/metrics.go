// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Bridge RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Classifier metrics
	classificationsTotal atomic.Int64
	subParserErrors      atomic.Int64
	subParserPanics      atomic.Int64

	// LNURL metrics
	lnurlFetches     atomic.Int64
	lnurlFetchErrors atomic.Int64
	websiteFallbacks atomic.Int64

	// Cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	typesMu sync.Mutex
	byType  map[string]int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records a bridge RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordClassification records the type a classification resolved to.
func (m *Metrics) RecordClassification(dataType string) {
	m.classificationsTotal.Add(1)

	m.typesMu.Lock()
	defer m.typesMu.Unlock()
	if m.byType == nil {
		m.byType = make(map[string]int64)
	}
	m.byType[dataType]++
}

// RecordSubParserError records a swallowed sub-parser error.
func (m *Metrics) RecordSubParserError() {
	m.subParserErrors.Add(1)
}

// RecordSubParserPanic records a recovered sub-parser panic.
func (m *Metrics) RecordSubParserPanic() {
	m.subParserPanics.Add(1)
}

// RecordLNURLFetch records an LNURL parameter fetch.
func (m *Metrics) RecordLNURLFetch(err error) {
	m.lnurlFetches.Add(1)
	if err != nil {
		m.lnurlFetchErrors.Add(1)
	}
}

// RecordWebsiteFallback records an LNURL miss that fell back to Website.
func (m *Metrics) RecordWebsiteFallback() {
	m.websiteFallbacks.Add(1)
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// TypeCount is the number of classifications for one data type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal        int64       `json:"rpc_calls_total"`
	RPCErrorsTotal       int64       `json:"rpc_errors_total"`
	RPCLatencyNanos      int64       `json:"rpc_latency_nanos"`
	ClassificationsTotal int64       `json:"classifications_total"`
	SubParserErrors      int64       `json:"sub_parser_errors"`
	SubParserPanics      int64       `json:"sub_parser_panics"`
	LNURLFetches         int64       `json:"lnurl_fetches"`
	LNURLFetchErrors     int64       `json:"lnurl_fetch_errors"`
	WebsiteFallbacks     int64       `json:"website_fallbacks"`
	CacheHits            int64       `json:"cache_hits"`
	CacheMisses          int64       `json:"cache_misses"`
	ByType               []TypeCount `json:"by_type,omitempty"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:        m.rpcCallsTotal.Load(),
		RPCErrorsTotal:       m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:      m.rpcLatencyNanos.Load(),
		ClassificationsTotal: m.classificationsTotal.Load(),
		SubParserErrors:      m.subParserErrors.Load(),
		SubParserPanics:      m.subParserPanics.Load(),
		LNURLFetches:         m.lnurlFetches.Load(),
		LNURLFetchErrors:     m.lnurlFetchErrors.Load(),
		WebsiteFallbacks:     m.websiteFallbacks.Load(),
		CacheHits:            m.cacheHits.Load(),
		CacheMisses:          m.cacheMisses.Load(),
		ByType:               m.typeCounts(),
	}
}

// typeCounts returns per-type counts sorted by type name.
func (m *Metrics) typeCounts() []TypeCount {
	m.typesMu.Lock()
	defer m.typesMu.Unlock()

	counts := make([]TypeCount, 0, len(m.byType))
	for t, c := range m.byType {
		counts = append(counts, TypeCount{Type: t, Count: c})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Type < counts[j].Type })
	return counts
}

// ClassificationsOf returns how many classifications resolved to dataType.
func (m *Metrics) ClassificationsOf(dataType string) int64 {
	m.typesMu.Lock()
	defer m.typesMu.Unlock()
	return m.byType[dataType]
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
// Returns 0 if no cache operations have occurred.
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.classificationsTotal.Store(0)
	m.subParserErrors.Store(0)
	m.subParserPanics.Store(0)
	m.lnurlFetches.Store(0)
	m.lnurlFetchErrors.Store(0)
	m.websiteFallbacks.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)

	m.typesMu.Lock()
	m.byType = nil
	m.typesMu.Unlock()
}
