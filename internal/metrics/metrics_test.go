package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBridge = errors.New("bridge down")

func TestMetrics_RecordRPCCall(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRPCCall(100*time.Millisecond, nil)
	m.RecordRPCCall(200*time.Millisecond, errBridge)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.RPCCallsTotal)
	assert.Equal(t, int64(1), snap.RPCErrorsTotal)
	assert.InDelta(t, 150.0, m.RPCLatencyAvgMs(), 1.0)
}

func TestMetrics_RPCLatencyAvgNoCalls(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	assert.InDelta(t, 0.0, m.RPCLatencyAvgMs(), 0.001)
}

func TestMetrics_RecordClassification(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordClassification("bolt11")
	m.RecordClassification("bolt11")
	m.RecordClassification("unknown")

	assert.Equal(t, int64(2), m.ClassificationsOf("bolt11"))
	assert.Equal(t, int64(0), m.ClassificationsOf("bip21"))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.ClassificationsTotal)
	require.Len(t, snap.ByType, 2)
	assert.Equal(t, TypeCount{Type: "bolt11", Count: 2}, snap.ByType[0])
	assert.Equal(t, TypeCount{Type: "unknown", Count: 1}, snap.ByType[1])
}

func TestMetrics_ParserAndLNURLCounters(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordSubParserError()
	m.RecordSubParserPanic()
	m.RecordLNURLFetch(nil)
	m.RecordLNURLFetch(errBridge)
	m.RecordWebsiteFallback()

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.SubParserErrors)
	assert.Equal(t, int64(1), snap.SubParserPanics)
	assert.Equal(t, int64(2), snap.LNURLFetches)
	assert.Equal(t, int64(1), snap.LNURLFetchErrors)
	assert.Equal(t, int64(1), snap.WebsiteFallbacks)
}

func TestMetrics_CacheHitRate(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.CacheHitRate(), 0.001)

	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()

	assert.InDelta(t, 75.0, m.CacheHitRate(), 0.001)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRPCCall(time.Millisecond, nil)
	m.RecordCacheHit()
	m.RecordClassification("website")

	m.Reset()

	snap := m.Snapshot()
	assert.Equal(t, int64(0), snap.RPCCallsTotal)
	assert.Equal(t, int64(0), snap.CacheHits)
	assert.Equal(t, int64(0), snap.ClassificationsTotal)
	assert.Empty(t, snap.ByType)
}

func TestGlobal(t *testing.T) {
	assert.NotNil(t, Global)
	Global.Reset()
}
