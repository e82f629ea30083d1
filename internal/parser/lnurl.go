package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/fedibtc/fedicore/internal/lnurl"
)

// expectedLnurlMisses are error fragments that mean "not an LNURL" rather
// than a failure worth a warning.
//
//nolint:gochecknoglobals // lookup table
var expectedLnurlMisses = []string{
	"Invalid URL",
	"invalid lnurl",
	"invalid JSON",
	"Network request failed",
}

func isExpectedLnurlMiss(err error) bool {
	msg := err.Error()
	for _, fragment := range expectedLnurlMisses {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func (p *Parser) parseLnurl(ctx context.Context, in *input) (fn.Option[Result], error) {
	target, ok := lnurl.Normalize(in.trimmed)
	if !ok {
		if lnurl.IsWebURL(in.trimmed) {
			return p.website(in), nil
		}
		return fn.None[Result](), nil
	}

	if auth, ok := lnurl.ParseAuth(target); ok {
		return fn.Some[Result](LnurlAuth{
			Domain: auth.Domain,
			K1:     auth.K1,
			URL:    auth.URL,
			Action: auth.Action,
		}), nil
	}

	resp, err := p.lnurl.Fetch(ctx, target)
	if err != nil {
		if lnurl.IsWebURL(in.trimmed) {
			p.log.Debugf("Treating %s as a website: %v", in.trimmed, err)
			return p.website(in), nil
		}
		if isExpectedLnurlMiss(err) {
			p.log.Debugf("Not an lnurl: %v", err)
			return fn.None[Result](), nil
		}
		return fn.None[Result](), fmt.Errorf("resolving lnurl: %w", err)
	}

	switch resp.Tag {
	case lnurl.TagPay:
		return fn.Some[Result](LnurlPay{
			Domain:          resp.Domain,
			Callback:        resp.Callback,
			MinSendable:     int64(resp.MinSendable),
			MaxSendable:     int64(resp.MaxSendable),
			Description:     resp.Metadata.Description,
			LongDescription: resp.Metadata.LongDescription,
			Thumbnail:       resp.Metadata.Image,
			Identifier:      resp.Metadata.Identifier,
			CommentAllowed:  resp.CommentAllowed,
			Metadata:        resp.Metadata.Raw,
		}), nil

	case lnurl.TagWithdraw:
		return fn.Some[Result](LnurlWithdraw{
			Domain:             resp.Domain,
			Callback:           resp.Callback,
			K1:                 resp.K1,
			MinWithdrawable:    int64(resp.MinWithdrawable),
			MaxWithdrawable:    int64(resp.MaxWithdrawable),
			DefaultDescription: resp.DefaultDescription,
		}), nil

	case lnurl.TagLogin:
		return fn.Some[Result](LnurlAuth{
			Domain: resp.Domain,
			K1:     resp.K1,
			URL:    target,
		}), nil

	default:
		p.log.Debugf("Unsupported lnurl tag %q from %s", resp.Tag, resp.Domain)
		return fn.Some[Result](Unknown{Message: p.translate(KeyUnsupportedLnurl)}), nil
	}
}

func (p *Parser) website(in *input) fn.Option[Result] {
	p.metrics.RecordWebsiteFallback()
	return fn.Some[Result](Website{URL: in.trimmed})
}
