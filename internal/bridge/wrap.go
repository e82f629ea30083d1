package bridge

import (
	"context"
	"time"

	"github.com/fedibtc/fedicore/internal/cache"
	"github.com/fedibtc/fedicore/internal/metrics"
)

type instrumented struct {
	next    Bridge
	metrics *metrics.Metrics
}

// Instrument wraps b so every call is counted and timed in m. A nil m
// records into metrics.Global.
func Instrument(b Bridge, m *metrics.Metrics) Bridge {
	if m == nil {
		m = metrics.Global
	}
	return &instrumented{next: b, metrics: m}
}

func (i *instrumented) DecodeInvoice(ctx context.Context, invoice, federationID string) (*Invoice, error) {
	start := time.Now()
	out, err := i.next.DecodeInvoice(ctx, invoice, federationID)
	i.metrics.RecordRPCCall(time.Since(start), err)
	return out, err
}

func (i *instrumented) ValidateEcash(ctx context.Context, ecash string) (*EcashInfo, error) {
	start := time.Now()
	out, err := i.next.ValidateEcash(ctx, ecash)
	i.metrics.RecordRPCCall(time.Since(start), err)
	return out, err
}

func (i *instrumented) MatrixUserProfile(ctx context.Context, userID string) (*MatrixUserProfile, error) {
	start := time.Now()
	out, err := i.next.MatrixUserProfile(ctx, userID)
	i.metrics.RecordRPCCall(time.Since(start), err)
	return out, err
}

type profileCached struct {
	Bridge
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// WithProfileCache serves MatrixUserProfile from c while entries are younger
// than ttl. Other calls pass straight through to b. Failed lookups are not
// cached.
func WithProfileCache(b Bridge, c cache.Cache, ttl time.Duration, m *metrics.Metrics) Bridge {
	if ttl <= 0 {
		ttl = cache.DefaultStaleness
	}
	if m == nil {
		m = metrics.Global
	}
	return &profileCached{Bridge: b, cache: c, ttl: ttl, metrics: m}
}

func (p *profileCached) MatrixUserProfile(ctx context.Context, userID string) (*MatrixUserProfile, error) {
	if entry, ok, age := p.cache.Get(userID); ok && age <= p.ttl {
		p.metrics.RecordCacheHit()
		return &MatrixUserProfile{DisplayName: entry.DisplayName}, nil
	}
	p.metrics.RecordCacheMiss()

	profile, err := p.Bridge.MatrixUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.cache.Set(cache.ProfileEntry{UserID: userID, DisplayName: profile.DisplayName})
	return profile, nil
}
