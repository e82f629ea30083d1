package parser

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"golang.org/x/sync/errgroup"
)

// subParser recognises one protocol. It returns None for input that is not
// its protocol. Errors are logged and count as None.
type subParser struct {
	name string

	// offline marks sub-parsers that need no internet access.
	offline bool

	parse func(ctx context.Context, in *input) (fn.Option[Result], error)
}

// registry lists the sub-parsers in priority order: prefix checks first,
// then local decoding, then parsers that go to the network.
func (p *Parser) registry() []subParser {
	return []subParser{
		{name: "bolt12", offline: true, parse: p.parseBolt12},
		{name: "fedimint-invite", offline: true, parse: p.parseFedimintInvite},
		{name: "community-invite", offline: true, parse: p.parseCommunityInvite},
		{name: "fedi-uri", offline: true, parse: p.parseFediURI},
		{name: "cashu", offline: true, parse: p.parseCashuEcash},
		{name: "bitcoin-address", offline: true, parse: p.parseBitcoinAddress},
		{name: "bip21", offline: true, parse: p.parseBip21},
		{name: "bolt11", offline: true, parse: p.parseBolt11},
		{name: "lnurl", parse: p.parseLnurl},
		{name: "fedimint-ecash", parse: p.parseFedimintEcash},
	}
}

type outcome struct {
	index  int
	result fn.Option[Result]
}

// race runs every sub-parser concurrently. Losers are never canceled; they
// finish in the background and their results are dropped. The result
// channel has room for every sub-parser so a finished loser never blocks.
func (p *Parser) race(ctx context.Context, in *input, parsers []subParser) Result {
	if len(parsers) == 0 {
		return Unknown{}
	}

	results := make(chan outcome, len(parsers))
	start := time.Now()
	var failed atomic.Int32

	var g errgroup.Group
	for i, sp := range parsers {
		g.Go(func() error {
			res, err := p.run(ctx, sp, in)
			results <- outcome{index: i, result: res}
			if err != nil {
				failed.Add(1)
			}
			return err
		})
	}

	// Waited on only to report how the stragglers ended.
	p.stragglers.Add(1)
	go func() {
		defer p.stragglers.Done()
		err := g.Wait()
		p.log.Tracef("All %d sub-parsers settled in %v, %d failed (first: %v)",
			len(parsers), time.Since(start), failed.Load(), err)
	}()

	if p.precedence == PrecedenceOrdered {
		return p.selectOrdered(ctx, results, parsers)
	}
	return p.selectFirst(ctx, results, parsers)
}

func (p *Parser) selectFirst(ctx context.Context, results <-chan outcome, parsers []subParser) Result {
	for range parsers {
		select {
		case <-ctx.Done():
			p.log.Debugf("Classification abandoned: %v", ctx.Err())
			return Unknown{}
		case o := <-results:
			if o.result.IsSome() {
				p.log.Debugf("Input matched by %s", parsers[o.index].name)
				return o.result.UnwrapOr(Unknown{})
			}
		}
	}
	return Unknown{}
}

func (p *Parser) selectOrdered(ctx context.Context, results <-chan outcome, parsers []subParser) Result {
	matches := make([]fn.Option[Result], len(parsers))
	for range parsers {
		select {
		case <-ctx.Done():
			p.log.Debugf("Classification abandoned: %v", ctx.Err())
			return Unknown{}
		case o := <-results:
			matches[o.index] = o.result
		}
	}

	for i, m := range matches {
		if m.IsSome() {
			p.log.Debugf("Input matched by %s", parsers[i].name)
			return m.UnwrapOr(Unknown{})
		}
	}
	return Unknown{}
}

// run invokes one sub-parser, turning errors and panics into None.
func (p *Parser) run(ctx context.Context, sp subParser, in *input) (res fn.Option[Result], err error) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.RecordSubParserPanic()
			p.log.Errorf("Sub-parser %s panicked: %v", sp.name, r)
			res = fn.None[Result]()
			err = fmt.Errorf("%s: panic: %v", sp.name, r)
		}
	}()

	res, err = sp.parse(ctx, in)
	if err != nil {
		p.metrics.RecordSubParserError()
		p.log.Warnf("Sub-parser %s failed: %v", sp.name, err)
		return fn.None[Result](), fmt.Errorf("%s: %w", sp.name, err)
	}

	// A Some holding a nil interface is treated as no match.
	valid := false
	res.WhenSome(func(r Result) { valid = r != nil })
	if !valid {
		return fn.None[Result](), nil
	}
	return res, nil
}
