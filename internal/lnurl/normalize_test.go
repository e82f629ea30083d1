package lnurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	encoded, err := Encode(payURL)
	require.NoError(t, err)

	onionEncoded, err := Encode("http://abcdef.onion/lnurl")
	require.NoError(t, err)

	plainHTTPEncoded, err := Encode("http://service.com/lnurl")
	require.NoError(t, err)

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"bech32", encoded, payURL, true},
		{"bech32 with lightning prefix", "lightning:" + encoded, payURL, true},
		{"bech32 onion over http", onionEncoded, "http://abcdef.onion/lnurl", true},
		{"bech32 plain http rejected", plainHTTPEncoded, "http://service.com/lnurl", false},
		{"lnurlp scheme", "lnurlp://service.com/pay/123", "https://service.com/pay/123", true},
		{"lnurlw scheme", "LNURLW://service.com/withdraw?x=1", "https://service.com/withdraw?x=1", true},
		{"lnurlc scheme", "lnurlc://service.com/channel", "https://service.com/channel", true},
		{"keyauth scheme", "keyauth://service.com/auth?tag=login&k1=ab", "https://service.com/auth?tag=login&k1=ab", true},
		{"lnurlp onion", "lnurlp://abcdef.onion/pay", "http://abcdef.onion/pay", true},
		{"lightning address", "Alice@Example.com", "https://example.com/.well-known/lnurlp/alice", true},
		{"lightning address onion", "bob@abcdef.onion", "http://abcdef.onion/.well-known/lnurlp/bob", true},
		{"https url", "https://service.com/lnurl", "https://service.com/lnurl", true},
		{"https fallback url", "https://site.com/?lightning=" + encoded, payURL, true},
		{"plain http url", "http://service.com/lnurl", "", false},
		{"bitcoin address", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", "", false},
		{"empty", "   ", "", false},
		{"garbage bech32", "lnurl1qqqqqq", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Normalize(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLightningAddressURL(t *testing.T) {
	t.Parallel()

	u, ok := LightningAddressURL("satoshi@bitcoin.org")
	require.True(t, ok)
	assert.Equal(t, "https://bitcoin.org/.well-known/lnurlp/satoshi", u)

	u, ok = LightningAddressURL("dev+tips@localhost.dev:8443")
	require.True(t, ok)
	assert.Equal(t, "https://localhost.dev:8443/.well-known/lnurlp/dev+tips", u)

	for _, bad := range []string{"satoshi", "@bitcoin.org", "satoshi@", "a b@c.com", "satoshi@bitcoin"} {
		_, ok := LightningAddressURL(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseAuth(t *testing.T) {
	t.Parallel()

	params, ok := ParseAuth("https://site.com/auth?tag=login&k1=e2af6254a8df433264fa23f67eb8188635d15ce883e8fc020989d5f82ae6f11e&action=register")
	require.True(t, ok)
	assert.Equal(t, "site.com", params.Domain)
	assert.Equal(t, "e2af6254a8df433264fa23f67eb8188635d15ce883e8fc020989d5f82ae6f11e", params.K1)
	assert.Equal(t, "register", params.Action)

	_, ok = ParseAuth("https://site.com/auth?tag=login")
	assert.False(t, ok)

	_, ok = ParseAuth("https://site.com/pay?tag=payRequest&k1=00")
	assert.False(t, ok)
}

func TestIsWebURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsWebURL("https://fedi.xyz"))
	assert.True(t, IsWebURL("http://fedi.xyz/path"))
	assert.False(t, IsWebURL("fedi.xyz"))
	assert.False(t, IsWebURL("ftp://fedi.xyz"))
	assert.False(t, IsWebURL("https://"))
}
