package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/fedicore/internal/transport"
)

// exhausted reports whether host's bucket is empty, using a deadline the
// limiter cannot meet.
func exhausted(t *testing.T, rl *transport.RateLimiter, host string) bool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := rl.Wait(ctx, host)
	return err != nil
}

func TestRateLimiter_Burst(t *testing.T) {
	t.Parallel()
	rl := transport.NewRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		waited, err := rl.Wait(context.Background(), "lnurl.example.com")
		require.NoError(t, err, "request %d is within the burst", i)
		assert.Less(t, waited, 5*time.Millisecond)
	}
	assert.True(t, exhausted(t, rl, "lnurl.example.com"))
}

func TestRateLimiter_SeparateHosts(t *testing.T) {
	t.Parallel()
	rl := transport.NewRateLimiter(0.001, 1)

	_, err := rl.Wait(context.Background(), "a.example.com")
	require.NoError(t, err)
	assert.True(t, exhausted(t, rl, "a.example.com"))
	assert.False(t, exhausted(t, rl, "b.example.com"))
	assert.Equal(t, 2, rl.Hosts())
}

func TestRateLimiter_HostVariantsShareBucket(t *testing.T) {
	t.Parallel()
	rl := transport.NewRateLimiter(0.001, 1)

	_, err := rl.Wait(context.Background(), "Pay.Example.com:443")
	require.NoError(t, err)
	assert.True(t, exhausted(t, rl, "pay.example.com."))
	assert.Equal(t, 1, rl.Hosts())
}

func TestRateLimiter_ReportsThrottling(t *testing.T) {
	t.Parallel()
	rl := transport.NewRateLimiter(50, 1)

	_, err := rl.Wait(context.Background(), "host")
	require.NoError(t, err)
	waited, err := rl.Wait(context.Background(), "host")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, waited, 10*time.Millisecond)
}

func TestRateLimiter_ZeroBurstAllowsOne(t *testing.T) {
	t.Parallel()
	rl := transport.NewRateLimiter(0.001, 0)

	_, err := rl.Wait(context.Background(), "host")
	require.NoError(t, err)
}

func TestHostKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"pay.example.com", "pay.example.com"},
		{"Pay.Example.COM", "pay.example.com"},
		{"pay.example.com:8443", "pay.example.com"},
		{"pay.example.com.", "pay.example.com"},
		{"[::1]:443", "::1"},
		{"[::1]", "::1"},
		{" abc.onion ", "abc.onion"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, transport.HostKey(tt.in))
		})
	}
}
