package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/fedicore/internal/bridge"
	"github.com/fedibtc/fedicore/internal/lnurl"
	"github.com/fedibtc/fedicore/internal/metrics"
	"github.com/fedibtc/fedicore/internal/transport"
)

const (
	testFederationID = "15db8cb4f1ec8e484d73b889372bec94812580f929e8148b7437d359af422cd3"
	testInvoice      = "lnbc10u1pjqx5qqpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4js"
	genesisAddress   = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	testEcash        = "AwEEAAAAAAAAAQIDBAUGBwgJCgsMDQ4PEBESExQVFhcYGRobHB0eHyA"
	testCashu        = "cashuAeyJ0b2tlbiI6W3sibWludCI6Imh0dHBzOi8vODMzMy5zcGFjZTozMzM4In1dfQ"
)

var errProfileUnavailable = errors.New("profile unavailable")

// fakeBridge serves canned responses with adjustable latency so tests can
// steer which sub-parser settles first.
type fakeBridge struct {
	invoices map[string]bridge.Invoice
	ecash    map[string]bridge.EcashInfo
	profiles map[string]string

	invoiceErr error

	decodeDelay  time.Duration
	ecashDelay   time.Duration
	profileDelay time.Duration

	panicOnEcash bool

	decodeCalls  atomic.Int32
	ecashCalls   atomic.Int32
	profileCalls atomic.Int32
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		invoices: map[string]bridge.Invoice{
			testInvoice: {
				PaymentHash: "0001020304050607080900010203040506070809000102030405060708090102",
				Amount:      1_000_000,
				Description: "1 cup coffee",
				Fee:         &bridge.InvoiceFee{FediFee: 1000},
			},
		},
		ecash: map[string]bridge.EcashInfo{
			testEcash: {Amount: 50_000, FederationID: testFederationID},
		},
		profiles: map[string]string{
			"@bob:m1.8fa.in": "Bob",
		},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (f *fakeBridge) DecodeInvoice(ctx context.Context, invoice, _ string) (*bridge.Invoice, error) {
	f.decodeCalls.Add(1)
	if err := sleep(ctx, f.decodeDelay); err != nil {
		return nil, err
	}
	if f.invoiceErr != nil {
		return nil, f.invoiceErr
	}
	inv, ok := f.invoices[invoice]
	if !ok {
		return nil, &bridge.Error{Method: bridge.MethodDecodeInvoice, Message: "Invalid invoice"}
	}
	inv.Invoice = invoice
	return &inv, nil
}

func (f *fakeBridge) ValidateEcash(ctx context.Context, ecash string) (*bridge.EcashInfo, error) {
	f.ecashCalls.Add(1)
	if f.panicOnEcash {
		panic("ecash validator exploded")
	}
	if err := sleep(ctx, f.ecashDelay); err != nil {
		return nil, err
	}
	info, ok := f.ecash[ecash]
	if !ok {
		return nil, &bridge.Error{Method: bridge.MethodValidateEcash, Message: "Invalid ecash"}
	}
	return &info, nil
}

func (f *fakeBridge) MatrixUserProfile(ctx context.Context, userID string) (*bridge.MatrixUserProfile, error) {
	f.profileCalls.Add(1)
	if err := sleep(ctx, f.profileDelay); err != nil {
		return nil, err
	}
	name, ok := f.profiles[userID]
	if !ok {
		return nil, errProfileUnavailable
	}
	return &bridge.MatrixUserProfile{DisplayName: name}, nil
}

// lnurlServer is a TLS server answering LNURL requests by path.
type lnurlServer struct {
	*httptest.Server
	hits     atomic.Int32
	lastHost atomic.Value // string
}

const payMetadata = `[["text/plain","Tip Alice"],["text/long-desc","Tips go to Alice"],["image/jpeg;base64","/9j/4AAQ"]]`

func newLnurlServer(t *testing.T) *lnurlServer {
	t.Helper()
	s := &lnurlServer{}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.lastHost.Store(r.Host)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/.well-known/lnurlp/alice" || r.URL.Path == "/lnurlp/alice":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tag":         "payRequest",
				"callback":    "https://fedi.example/lnurlp/alice/callback",
				"minSendable": 1000,
				"maxSendable": 1_000_000_000,
				"metadata":    payMetadata,
			})
		case r.URL.Path == "/withdraw":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tag":                "withdrawRequest",
				"callback":           "https://fedi.example/withdraw/callback",
				"k1":                 "k1-withdraw",
				"minWithdrawable":    1000,
				"maxWithdrawable":    21000,
				"defaultDescription": "Faucet payout",
			})
		case r.URL.Path == "/channel":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tag":      "channelRequest",
				"callback": "https://fedi.example/channel",
				"k1":       "k1-channel",
			})
		case r.URL.Path == "/error":
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ERROR", "reason": "gone"})
		default:
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// host returns "127.0.0.1:port".
func (s *lnurlServer) host() string {
	return strings.TrimPrefix(s.URL, "https://")
}

func (s *lnurlServer) client() *lnurl.Client {
	return lnurl.NewClient(&lnurl.ClientOptions{
		HTTPClient: s.Client(),
		Limiter:    transport.NewRateLimiter(1000, 1000),
		Metrics:    &metrics.Metrics{},
	})
}

// clientFor returns a client that sends requests for any host to s, so
// lightning addresses on made-up domains resolve against it. The test
// certificate is issued for example.com.
func (s *lnurlServer) clientFor(t *testing.T) *lnurl.Client {
	t.Helper()
	base, ok := s.Client().Transport.(*http.Transport)
	require.True(t, ok)

	tr := base.Clone()
	tr.TLSClientConfig.ServerName = "example.com"
	addr := s.Listener.Addr().String()
	tr.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}

	return lnurl.NewClient(&lnurl.ClientOptions{
		HTTPClient: &http.Client{Transport: tr},
		Limiter:    transport.NewRateLimiter(1000, 1000),
		Metrics:    &metrics.Metrics{},
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var errDialFailed = errors.New("dial tcp: no route to host")

// unreachableClient fails every request without touching the network.
func unreachableClient() *lnurl.Client {
	return lnurl.NewClient(&lnurl.ClientOptions{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errDialFailed
		})},
		Limiter: transport.NewRateLimiter(1000, 1000),
		Metrics: &metrics.Metrics{},
	})
}

func newTestParser(t *testing.T, fb *fakeBridge, opts ...Option) (*Parser, *metrics.Metrics) {
	t.Helper()
	m := &metrics.Metrics{}
	base := []Option{
		WithFederationID(testFederationID),
		WithLNURLClient(unreachableClient()),
		WithMetrics(m),
	}
	return New(fb, append(base, opts...)...), m
}

func encodeLnurl(t *testing.T, url string) string {
	t.Helper()
	encoded, err := lnurl.Encode(url)
	require.NoError(t, err)
	return encoded
}

func p2wpkh(t *testing.T, net *chaincfg.Params) string {
	t.Helper()
	addr, err := btcutil.NewAddressWitnessPubKeyHash(bytes.Repeat([]byte{0x01}, 20), net)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func p2tr(t *testing.T, net *chaincfg.Params) string {
	t.Helper()
	addr, err := btcutil.NewAddressTaproot(bytes.Repeat([]byte{0x02}, 32), net)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func p2sh(t *testing.T, net *chaincfg.Params) string {
	t.Helper()
	addr, err := btcutil.NewAddressScriptHashFromHash(bytes.Repeat([]byte{0x03}, 20), net)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func p2wsh(t *testing.T, net *chaincfg.Params) string {
	t.Helper()
	addr, err := btcutil.NewAddressWitnessScriptHash(bytes.Repeat([]byte{0x04}, 32), net)
	require.NoError(t, err)
	return addr.EncodeAddress()
}
