package fediuri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fedi:room:!abc123:m1.8fa.in:::", EncodeRoom("!abc123:m1.8fa.in"))
	assert.Equal(t, "fedi:user:@bob:m1.8fa.in:::", EncodeUser("@bob:m1.8fa.in"))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"!abc123:m1.8fa.in", "!XyZ:matrix.org:8448"} {
		got, err := DecodeRoom(EncodeRoom(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}

	for _, id := range []string{"@bob:m1.8fa.in", "@alice.smith:example.com"} {
		got, err := DecodeUser(EncodeUser(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		wantKind Kind
		wantID   string
	}{
		{"room", "fedi:room:!abc:m1.8fa.in:::", KindRoom, "!abc:m1.8fa.in"},
		{"room with slashes", "fedi://room:!abc:m1.8fa.in:::", KindRoom, "!abc:m1.8fa.in"},
		{"room upper scheme", "FEDI:ROOM:!abc:m1.8fa.in:::", KindRoom, "!abc:m1.8fa.in"},
		{"user", "fedi:user:@bob:m1.8fa.in:::", KindUser, "@bob:m1.8fa.in"},
		{"user with slashes", "fedi://user:@bob:m1.8fa.in:::", KindUser, "@bob:m1.8fa.in"},
		{"legacy member", "fedi:member:alice:::", KindMember, "alice"},
		{"legacy group", "fedi:group:g123:::", KindGroup, "g123"},
		{"whitespace", "  fedi:group:g123:::\n", KindGroup, "g123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kind, id, err := Decode(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()

	for _, uri := range []string{
		"fedi:room:!abc:m1.8fa.in",
		"fedi:room:abc:m1.8fa.in:::",
		"fedi:user:bob:m1.8fa.in:::",
		"fedi:user:@bob:::",
		"fedi:member:a:b:::",
		"fedi:community:xyz",
		"fedi:unknown:x:::",
		"https://fedi.xyz",
		"",
	} {
		t.Run(uri, func(t *testing.T) {
			t.Parallel()
			_, _, err := Decode(uri)
			require.ErrorIs(t, err, fedierr.ErrInvalidURI)
			assert.Equal(t, "INVALID_URI", fedierr.Code(err))
		})
	}
}

func TestDecodeWrongKind(t *testing.T) {
	t.Parallel()

	_, err := DecodeRoom("fedi:user:@bob:m1.8fa.in:::")
	require.ErrorIs(t, err, fedierr.ErrInvalidURI)

	_, err = DecodeUser("fedi:room:!abc:m1.8fa.in:::")
	require.ErrorIs(t, err, fedierr.ErrInvalidURI)
}

func TestIsFediURI(t *testing.T) {
	t.Parallel()

	assert.True(t, IsFediURI("fedi:room:!a:b:::"))
	assert.True(t, IsFediURI("FEDI://user:@a:b:::"))
	assert.False(t, IsFediURI("fed11qgqzc"))
	assert.False(t, IsFediURI("https://fedi.xyz"))
}
