package parser

import (
	"context"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// parseFedimintEcash has no client-side format check: whatever the bridge
// accepts is ecash.
func (p *Parser) parseFedimintEcash(ctx context.Context, in *input) (fn.Option[Result], error) {
	info, err := p.bridge.ValidateEcash(ctx, in.trimmed)
	if err != nil {
		p.log.Tracef("Not fedimint ecash: %v", err)
		return fn.None[Result](), nil
	}
	return fn.Some[Result](FedimintEcash{
		Token:        in.trimmed,
		Amount:       info.Amount,
		FederationID: info.FederationID,
	}), nil
}

func (p *Parser) parseCashuEcash(_ context.Context, in *input) (fn.Option[Result], error) {
	token := stripPrefixFold(in.trimmed, "web+cashu://", "cashu://", "cashu:")
	if !isCashuToken(token) {
		return fn.None[Result](), nil
	}
	return fn.Some[Result](CashuEcash{Token: token}), nil
}

// isCashuToken checks for a V3 ("cashuA") or V4 ("cashuB") token with a
// base64 body.
func isCashuToken(s string) bool {
	if !strings.HasPrefix(s, "cashuA") && !strings.HasPrefix(s, "cashuB") {
		return false
	}
	body := s[len("cashuA"):]
	if body == "" {
		return false
	}
	for _, r := range body {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '+' || r == '/' || r == '=':
		default:
			return false
		}
	}
	return true
}
