// Package parser classifies arbitrary user input (QR scans, pasted text,
// deep links) into one payment, identity or invite protocol.
package parser

import (
	"context"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btclog"

	"github.com/fedibtc/fedicore/internal/bridge"
	"github.com/fedibtc/fedicore/internal/lnurl"
	"github.com/fedibtc/fedicore/internal/metrics"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// Precedence decides which match wins when several sub-parsers match.
type Precedence int

const (
	// PrecedenceRace returns the first match to arrive.
	PrecedenceRace Precedence = iota

	// PrecedenceOrdered waits for every sub-parser and returns the match
	// with the highest declared priority.
	PrecedenceOrdered
)

// String returns the config name of the precedence.
func (p Precedence) String() string {
	if p == PrecedenceOrdered {
		return "ordered"
	}
	return "race"
}

// ParsePrecedence parses "race" or "ordered".
func ParsePrecedence(s string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "race":
		return PrecedenceRace, nil
	case "ordered":
		return PrecedenceOrdered, nil
	default:
		return PrecedenceRace, fedierr.WithDetails(fedierr.ErrInvalidInput, map[string]string{
			"precedence": s,
			"valid":      "race, ordered",
		})
	}
}

// Parser classifies input. It holds no per-call state and is safe for
// concurrent use.
type Parser struct {
	bridge       bridge.Bridge
	translate    Translator
	federationID string
	lnurl        *lnurl.Client
	net          *chaincfg.Params
	precedence   Precedence
	online       func() bool
	metrics      *metrics.Metrics

	// log is fixed at construction; sub-parsers left running after
	// Classify returns keep using it.
	log btclog.Logger

	// stragglers counts classifications whose sub-parsers are still running.
	stragglers sync.WaitGroup

	subParsers []subParser
}

// Option configures a Parser.
type Option func(*Parser)

// WithTranslator sets the translator used for Unknown and OfflineError messages.
func WithTranslator(t Translator) Option {
	return func(p *Parser) {
		if t != nil {
			p.translate = t
		}
	}
}

// WithFederationID sets the active federation. BIP21 URIs are only
// recognised when one is set.
func WithFederationID(id string) Option {
	return func(p *Parser) {
		p.federationID = strings.TrimSpace(id)
	}
}

// WithLNURLClient sets the client used to resolve LNURL parameters.
func WithLNURLClient(c *lnurl.Client) Option {
	return func(p *Parser) {
		p.lnurl = c
	}
}

// WithNetwork sets the chain on-chain addresses must belong to.
func WithNetwork(params *chaincfg.Params) Option {
	return func(p *Parser) {
		if params != nil {
			p.net = params
		}
	}
}

// WithPrecedence selects how competing matches are resolved.
func WithPrecedence(prec Precedence) Option {
	return func(p *Parser) {
		p.precedence = prec
	}
}

// WithOnline sets the connectivity probe. While it reports false only
// sub-parsers that need no network run.
func WithOnline(online func() bool) Option {
	return func(p *Parser) {
		p.online = online
	}
}

// WithMetrics sets where classification counters are recorded.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Parser) {
		if m != nil {
			p.metrics = m
		}
	}
}

// New creates a Parser backed by b. A nil b uses the offline decoder.
func New(b bridge.Bridge, opts ...Option) *Parser {
	if b == nil {
		b = bridge.Offline{}
	}

	p := &Parser{
		bridge:    b,
		translate: DefaultTranslator,
		net:       &chaincfg.MainNetParams,
		metrics:   metrics.Global,
		log:       log,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.lnurl == nil {
		p.lnurl = lnurl.NewClient(&lnurl.ClientOptions{Metrics: p.metrics})
	}
	p.subParsers = p.registry()
	return p
}

// Wait blocks until the sub-parsers left running by earlier Classify calls
// have returned. Cancel their contexts first to make this quick.
func (p *Parser) Wait() {
	p.stragglers.Wait()
}

// NetworkParams maps a config network name to chain parameters.
func NetworkParams(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fedierr.WithDetails(fedierr.ErrInvalidInput, map[string]string{"network": name})
	}
}

// input is the per-call view of the raw string shared by sub-parsers.
type input struct {
	raw     string
	trimmed string
	lower   string
}

func newInput(raw string) *input {
	trimmed := strings.TrimSpace(raw)
	return &input{
		raw:     raw,
		trimmed: trimmed,
		lower:   strings.ToLower(trimmed),
	}
}

// Classify returns exactly one Result for raw. It never fails: when
// nothing matches the result is Unknown.
func (p *Parser) Classify(ctx context.Context, raw string) Result {
	in := newInput(raw)

	var result Result
	switch {
	case in.trimmed == "":
		result = Unknown{}
	case p.online != nil && !p.online():
		result = p.classifyOffline(ctx, in)
	default:
		result = p.race(ctx, in, p.subParsers)
	}

	p.metrics.RecordClassification(string(result.Type()))
	return result
}

func (p *Parser) classifyOffline(ctx context.Context, in *input) Result {
	var offline []subParser
	for _, sp := range p.subParsers {
		if sp.offline {
			offline = append(offline, sp)
		}
	}

	result := p.race(ctx, in, offline)
	if u, ok := result.(Unknown); ok && u.Message == "" {
		return OfflineError{Message: p.translate(KeyRequiresInternet)}
	}
	return result
}

// stripPrefixFold removes the first matching prefix, ignoring case.
func stripPrefixFold(s string, prefixes ...string) string {
	for _, prefix := range prefixes {
		if hasPrefixFold(s, prefix) {
			return s[len(prefix):]
		}
	}
	return s
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
