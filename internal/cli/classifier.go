package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fedibtc/fedicore/internal/bridge"
	"github.com/fedibtc/fedicore/internal/cache"
	"github.com/fedibtc/fedicore/internal/config"
	"github.com/fedibtc/fedicore/internal/lnurl"
	"github.com/fedibtc/fedicore/internal/metrics"
	"github.com/fedibtc/fedicore/internal/output"
	"github.com/fedibtc/fedicore/internal/parser"
	"github.com/fedibtc/fedicore/internal/transport"
)

// classifyOptions are the per-invocation overrides of the parse command.
type classifyOptions struct {
	FederationID string
	Ordered      bool
	Offline      bool
}

// classifier is a parser together with the resources backing it.
type classifier struct {
	*parser.Parser

	rpc      *bridge.RPCClient
	profiles *cache.ProfileCache
	store    *cache.FileStorage
}

// newClassifier builds a parser from configuration. An unreachable bridge
// is reported on stderr and replaced by the offline decoder.
func newClassifier(ctx context.Context, c *config.Config, opts classifyOptions, stderr io.Writer) (*classifier, error) {
	params, err := parser.NetworkParams(c.Network)
	if err != nil {
		return nil, err
	}

	precedence := parser.PrecedenceRace
	if opts.Ordered || c.IsOrdered() {
		precedence = parser.PrecedenceOrdered
	}

	federationID := c.Bridge.FederationID
	if opts.FederationID != "" {
		federationID = opts.FederationID
	}

	cl := &classifier{}

	var b bridge.Bridge = bridge.Offline{}
	if !opts.Offline && c.Bridge.URL != "" {
		rpc := bridge.NewRPCClient(c.Bridge.URL, &bridge.RPCOptions{
			Timeout: time.Duration(c.Bridge.TimeoutSeconds) * time.Second,
		})
		if err := rpc.Connect(ctx); err != nil {
			output.Warn(stderr, "bridge at %s unreachable, decoding offline: %v", c.Bridge.URL, err)
			_ = rpc.Close()
		} else {
			cl.rpc = rpc
			b = rpc
		}
	}
	b = bridge.Instrument(b, metrics.Global)

	cl.store = cache.NewFileStorage(config.ExpandHome(c.Cache.File))
	cl.profiles, err = cl.store.Load()
	if err != nil {
		log.Warnf("profile cache: %v", err)
		if !errors.Is(err, cache.ErrCorruptCache) || cl.profiles == nil {
			cl.profiles = cache.NewProfileCache()
		}
	}
	ttl := time.Duration(c.Cache.ProfileTTLMinutes) * time.Minute
	b = bridge.WithProfileCache(b, cl.profiles, ttl, metrics.Global)

	client := lnurl.NewClient(&lnurl.ClientOptions{
		Timeout:           time.Duration(c.LNURL.TimeoutSeconds) * time.Second,
		Limiter:           transport.NewRateLimiter(c.LNURL.RatePerSecond, c.LNURL.Burst),
		Metrics:           metrics.Global,
		DisallowHTTPOnion: !c.LNURL.AllowHTTPOnion,
	})

	online := !opts.Offline
	cl.Parser = parser.New(b,
		parser.WithNetwork(params),
		parser.WithFederationID(federationID),
		parser.WithPrecedence(precedence),
		parser.WithLNURLClient(client),
		parser.WithMetrics(metrics.Global),
		parser.WithOnline(func() bool { return online }),
	)

	log.Debugf("classifier: network=%s precedence=%s federation=%q offline=%t",
		params.Name, precedence, federationID, opts.Offline)
	return cl, nil
}

// Close waits for sub-parsers left running by race classification, then
// persists the profile cache and closes the bridge connection. Cancel the
// classification context first.
func (c *classifier) Close() error {
	if c.Parser != nil {
		c.Parser.Wait()
	}

	var errs []error
	if c.profiles != nil && c.profiles.Size() > 0 {
		c.profiles.Prune(7 * 24 * time.Hour)
		if err := c.store.Save(c.profiles); err != nil {
			errs = append(errs, err)
		}
	}
	if c.rpc != nil {
		if err := c.rpc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
