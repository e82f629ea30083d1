// Package lnurl decodes and resolves LNURL identifiers: bech32 LNURLs,
// LUD-17 scheme URLs, LUD-16 lightning addresses and plain https endpoints.
package lnurl

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

const humanReadablePart = "lnurl"

// Decode turns a bech32 LNURL into the URL it encodes. A leading
// "lightning:" (or "lightning://") or "lnurl:" prefix is ignored.
func Decode(lnurl string) (string, error) {
	lnurl = stripPrefixFold(strings.TrimSpace(lnurl), "lightning://", "lightning:", "lnurl:")

	hrp, data, err := bech32.DecodeNoLimit(lnurl)
	if err != nil {
		return "", fedierr.Wrap(fedierr.ErrInvalidLNURL, "decoding bech32: %v", err)
	}

	if hrp != humanReadablePart {
		return "", fedierr.Wrap(fedierr.ErrInvalidLNURL,
			"incorrect hrp, expected %q got %q", humanReadablePart, hrp)
	}

	data, err = bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fedierr.Wrap(fedierr.ErrInvalidLNURL, "converting bits: %v", err)
	}

	return string(data), nil
}

// Encode bech32-encodes url as an upper-case LNURL.
func Encode(url string) (string, error) {
	converted, err := bech32.ConvertBits([]byte(url), 8, 5, true)
	if err != nil {
		return "", err
	}

	str, err := bech32.Encode(humanReadablePart, converted)
	if err != nil {
		return "", err
	}

	return strings.ToUpper(str), nil
}

// stripPrefixFold removes the first matching prefix, ignoring case.
func stripPrefixFold(s string, prefixes ...string) string {
	for _, p := range prefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return s[len(p):]
		}
	}
	return s
}
