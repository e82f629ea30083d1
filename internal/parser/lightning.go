package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/fedibtc/fedicore/internal/bridge"
)

// bolt11Re gates bridge calls. It runs on lower-cased input.
//
//nolint:gochecknoglobals // compiled once
var bolt11Re = regexp.MustCompile(`^ln(bc|tb|tbs|bcrt)[0-9a-z]{30,}$`)

// lightningBody lower-cases s and removes a lightning: URI prefix.
func lightningBody(s string) string {
	return stripPrefixFold(strings.ToLower(s), "lightning://", "lightning:")
}

func (p *Parser) parseBolt11(ctx context.Context, in *input) (fn.Option[Result], error) {
	invoice := lightningBody(in.trimmed)
	if strings.HasPrefix(invoice, "lno") || strings.HasPrefix(invoice, "lnurl") {
		return fn.None[Result](), nil
	}
	if !bolt11Re.MatchString(invoice) {
		return fn.None[Result](), nil
	}

	return p.decodeBolt11(ctx, invoice, "")
}

// decodeBolt11 asks the bridge to decode invoice. An amountless invoice is
// recognised and reported as Unknown with an explanation.
func (p *Parser) decodeBolt11(ctx context.Context, invoice, fallbackAddress string) (fn.Option[Result], error) {
	decoded, err := p.bridge.DecodeInvoice(ctx, invoice, p.federationID)
	if err != nil {
		if strings.Contains(err.Error(), bridge.MissingAmountMessage) {
			return fn.Some[Result](Unknown{Message: p.translate(KeyInvoiceMissingAmount)}), nil
		}
		return fn.None[Result](), fmt.Errorf("decoding invoice: %w", err)
	}

	out := Bolt11{Invoice: *decoded, FallbackAddress: fallbackAddress}
	if out.Invoice.Invoice == "" {
		out.Invoice.Invoice = invoice
	}
	return fn.Some[Result](out), nil
}

func (p *Parser) parseBolt12(_ context.Context, in *input) (fn.Option[Result], error) {
	if !strings.HasPrefix(lightningBody(in.trimmed), "lno1") {
		return fn.None[Result](), nil
	}
	return fn.Some[Result](Bolt12{}), nil
}
