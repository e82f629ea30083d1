package parser

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const bip21Scheme = "bitcoin:"

// decodeAddress accepts P2PKH, P2SH, P2WPKH, P2WSH and P2TR addresses for
// the configured network.
func (p *Parser) decodeAddress(s string) (btcutil.Address, bool) {
	addr, err := btcutil.DecodeAddress(s, p.net)
	if err != nil || !addr.IsForNet(p.net) {
		return nil, false
	}

	switch addr.(type) {
	case *btcutil.AddressPubKeyHash,
		*btcutil.AddressScriptHash,
		*btcutil.AddressWitnessPubKeyHash,
		*btcutil.AddressWitnessScriptHash,
		*btcutil.AddressTaproot:
		return addr, true
	default:
		return nil, false
	}
}

func (p *Parser) parseBitcoinAddress(_ context.Context, in *input) (fn.Option[Result], error) {
	if _, ok := p.decodeAddress(in.trimmed); !ok {
		return fn.None[Result](), nil
	}
	return fn.Some[Result](BitcoinAddress{Address: in.trimmed}), nil
}

func (p *Parser) parseBip21(ctx context.Context, in *input) (fn.Option[Result], error) {
	if !hasPrefixFold(in.trimmed, bip21Scheme) {
		return fn.None[Result](), nil
	}
	if p.federationID == "" {
		p.log.Debugf("Ignoring BIP21 URI: no active federation")
		return fn.None[Result](), nil
	}

	rest := strings.TrimPrefix(in.trimmed[len(bip21Scheme):], "//")
	address, rawQuery, _ := strings.Cut(rest, "?")

	params, err := parseBip21Query(rawQuery)
	if err != nil {
		return fn.None[Result](), err
	}

	for key := range params {
		if strings.HasPrefix(strings.ToLower(key), "req-") {
			p.log.Debugf("Ignoring BIP21 URI with required parameter %q", key)
			return fn.None[Result](), nil
		}
	}

	if invoice := params["lightning"]; invoice != "" {
		res, err := p.decodeBolt11(ctx, lightningBody(invoice), address)
		if err == nil && res.IsSome() {
			if _, unknown := res.UnwrapOr(Unknown{}).(Unknown); !unknown {
				return res, nil
			}
		}
		p.log.Debugf("Falling back to on-chain for BIP21 URI: %v", err)
	}

	if _, ok := p.decodeAddress(address); !ok {
		return fn.None[Result](), nil
	}

	out := Bip21{
		Address: address,
		Label:   params["label"],
		Message: params["message"],
	}
	if raw := params["amount"]; raw != "" {
		amount, err := parseBTCAmount(raw)
		if err != nil {
			return fn.None[Result](), err
		}
		out.Amount = amount
	}
	return fn.Some[Result](out), nil
}

// parseBip21Query splits a BIP21 query into its parameters. Values are
// percent-decoded only, so "+" stays a plus sign. The first occurrence of
// a key wins.
func parseBip21Query(raw string) (map[string]string, error) {
	params := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.PathUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("parsing bip21 query: %w", err)
		}
		value, err := url.PathUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("parsing bip21 query %q: %w", key, err)
		}
		if _, seen := params[key]; !seen {
			params[key] = value
		}
	}
	return params, nil
}

// btcAmountRe is the BIP21 amount grammar limited to satoshi precision.
var btcAmountRe = regexp.MustCompile(`^([0-9]+)(?:\.([0-9]{0,8}))?$`)

// parseBTCAmount parses a BIP21 decimal BTC amount exactly. Exponents, hex
// floats and sub-satoshi precision are rejected.
func parseBTCAmount(s string) (btcutil.Amount, error) {
	m := btcAmountRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid bip21 amount %q", s)
	}

	whole := strings.TrimLeft(m[1], "0")
	if len(whole) > 8 {
		return 0, fmt.Errorf("bip21 amount %q exceeds supply", s)
	}
	digits := whole + m[2] + strings.Repeat("0", 8-len(m[2]))
	sats, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bip21 amount %q: %w", s, err)
	}

	amount := btcutil.Amount(sats)
	if amount > btcutil.MaxSatoshi {
		return 0, fmt.Errorf("bip21 amount %q exceeds supply", s)
	}
	return amount, nil
}
