package lnurl

import (
	"net/url"
	"regexp"
	"strings"
)

// LUD-17 schemes and the tag each one implies.
//
//nolint:gochecknoglobals // lookup table
var schemeTags = map[string]Tag{
	"lnurlp":  TagPay,
	"lnurlw":  TagWithdraw,
	"lnurlc":  TagChannel,
	"keyauth": TagLogin,
}

//nolint:gochecknoglobals // compiled once
var lightningAddressRe = regexp.MustCompile(`^([a-z0-9\-_.+]+)@([a-z0-9\-.]+\.[a-z0-9]{2,}(?::[0-9]+)?)$`)

// IsOnion reports whether host is a Tor hidden service.
func IsOnion(host string) bool {
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return strings.HasSuffix(strings.ToLower(host), ".onion")
}

// LightningAddressURL returns the LUD-16 well-known endpoint for a
// user@domain lightning address.
func LightningAddressURL(address string) (string, bool) {
	m := lightningAddressRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(address)))
	if m == nil {
		return "", false
	}
	user, domain := m[1], m[2]

	scheme := "https"
	if IsOnion(domain) {
		scheme = "http"
	}
	return scheme + "://" + domain + "/.well-known/lnurlp/" + user, true
}

// Normalize resolves any supported LNURL form to the http(s) URL that must
// be fetched. The boolean is false when raw is not an LNURL candidate.
//
// Accepted forms: bech32 "lnurl1..." with optional "lightning:"/"lnurl:"
// prefix, LUD-17 "lnurlp://" style URLs, LUD-16 lightning addresses and
// plain https URLs (optionally carrying a "lightning=LNURL..." fallback
// query parameter per LUD-01).
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	bare := stripPrefixFold(raw, "lightning://", "lightning:", "lnurl:")
	if strings.HasPrefix(strings.ToLower(bare), humanReadablePart+"1") {
		decoded, err := Decode(bare)
		if err != nil {
			return "", false
		}
		return decoded, isFetchable(decoded)
	}

	if scheme, rest, ok := strings.Cut(bare, "://"); ok {
		if _, known := schemeTags[strings.ToLower(scheme)]; known {
			host := rest
			if i := strings.IndexAny(host, "/?#"); i >= 0 {
				host = host[:i]
			}
			if IsOnion(host) {
				return "http://" + rest, true
			}
			return "https://" + rest, true
		}
	}

	if u, ok := LightningAddressURL(bare); ok {
		return u, true
	}

	if !isFetchable(raw) {
		return "", false
	}

	u, _ := url.Parse(raw)
	if fallback := u.Query().Get("lightning"); fallback != "" {
		if decoded, err := Decode(fallback); err == nil && isFetchable(decoded) {
			return decoded, true
		}
	}
	return raw, true
}

// AuthParams are the LUD-04 parameters carried directly in a login URL.
type AuthParams struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	K1     string `json:"k1"`
	Action string `json:"action,omitempty"`
}

// ParseAuth extracts LUD-04 parameters from a resolved URL with tag=login.
// Login URLs are never fetched; the challenge is in the query string.
func ParseAuth(resolved string) (*AuthParams, bool) {
	u, err := url.Parse(resolved)
	if err != nil || u.Host == "" {
		return nil, false
	}
	q := u.Query()
	if q.Get("tag") != string(TagLogin) || q.Get("k1") == "" {
		return nil, false
	}
	return &AuthParams{
		URL:    resolved,
		Domain: u.Hostname(),
		K1:     q.Get("k1"),
		Action: q.Get("action"),
	}, true
}

// IsWebURL reports whether raw is an absolute http or https URL with a host.
func IsWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "https" || scheme == "http"
}

// isFetchable reports whether raw may be fetched as an LNURL endpoint:
// https anywhere, plain http only for onion hosts.
func isFetchable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return true
	case "http":
		return IsOnion(u.Host)
	default:
		return false
	}
}
