package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fedibtc/fedicore/internal/transport"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// DefaultCallTimeout bounds a single RPC round-trip when the caller's
// context carries no deadline.
const DefaultCallTimeout = 15 * time.Second

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.New("bridge client closed")

type rpcRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcError struct {
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

// RPCOptions configures an RPCClient.
type RPCOptions struct {
	Timeout time.Duration
	Retry   transport.RetryConfig
	Dialer  *websocket.Dialer
}

// RPCClient talks to the bridge over a single websocket. Concurrent calls
// share the connection and are matched to responses by request id.
type RPCClient struct {
	url     string
	timeout time.Duration
	retry   transport.RetryConfig
	dialer  *websocket.Dialer
	log     btclog.Logger

	mu      sync.Mutex
	conn    *rpcConn
	dialing chan struct{} // non-nil while a dial is in flight; closed when it ends
	closed  bool

	readers sync.WaitGroup
}

// rpcConn is one websocket session. pending is owned by mu and set to nil
// once the read loop has given up on the session.
type rpcConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	pending map[string]chan rpcResponse
}

// Compile-time interface check
var _ Bridge = (*RPCClient)(nil)

// NewRPCClient creates a client for the bridge at url. The connection is
// established lazily on the first call.
func NewRPCClient(url string, opts *RPCOptions) *RPCClient {
	c := &RPCClient{
		url:     url,
		timeout: DefaultCallTimeout,
		retry:   transport.DefaultRetryConfig(),
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
	if opts != nil {
		if opts.Timeout > 0 {
			c.timeout = opts.Timeout
		}
		if opts.Retry.MaxAttempts > 0 {
			c.retry = opts.Retry
		}
		if opts.Dialer != nil {
			c.dialer = opts.Dialer
		}
	}
	return c
}

// Connect dials the bridge if there is no live connection.
func (c *RPCClient) Connect(ctx context.Context) error {
	_, err := c.connection(ctx)
	return err
}

// connection returns the live session, dialing one if needed. The dial runs
// without holding mu so Close and other callers are never stuck behind it;
// concurrent callers wait for the in-flight dial instead of starting their own.
func (c *RPCClient) connection(ctx context.Context) (*rpcConn, error) {
	for {
		c.mu.Lock()
		switch {
		case c.closed:
			c.mu.Unlock()
			return nil, ErrClientClosed
		case c.conn != nil:
			rc := c.conn
			c.mu.Unlock()
			return rc, nil
		case c.dialing != nil:
			wait := c.dialing
			c.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, fedierr.Wrap(fedierr.ErrBridgeUnavailable, "dialing %s: %v", c.url, ctx.Err())
			}
		}
		done := make(chan struct{})
		c.dialing = done
		c.mu.Unlock()

		ws, err := c.dial(ctx)

		c.mu.Lock()
		c.dialing = nil
		close(done)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		if c.closed {
			c.mu.Unlock()
			_ = ws.Close()
			return nil, ErrClientClosed
		}
		rc := &rpcConn{ws: ws, pending: make(map[string]chan rpcResponse)}
		c.conn = rc
		c.readers.Add(1)
		c.mu.Unlock()

		c.log.Debugf("Connected to bridge at %s", c.url)
		go c.readLoop(rc)
		return rc, nil
	}
}

func (c *RPCClient) dial(ctx context.Context) (*websocket.Conn, error) {
	ws, err := transport.Retry(ctx, c.retry, func() (*websocket.Conn, error) {
		ws, resp, err := c.dialer.DialContext(ctx, c.url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) || errors.Is(err, websocket.ErrBadHandshake) {
				return nil, transport.WrapRetryable(err)
			}
			return nil, err
		}
		return ws, nil
	})
	if err != nil {
		return nil, fedierr.WithSuggestion(
			fedierr.Wrap(fedierr.ErrBridgeUnavailable, "dialing %s: %v", c.url, err),
			"start the bridge or run with --offline",
		)
	}
	return ws, nil
}

// readLoop dispatches responses until the session fails, then fails every
// call still waiting on it.
func (c *RPCClient) readLoop(rc *rpcConn) {
	defer c.readers.Done()

	var readErr error
	for {
		_, data, err := rc.ws.ReadMessage()
		if err != nil {
			readErr = err
			break
		}

		var resp rpcResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			c.log.Warnf("Dropping malformed bridge message: %v", err)
			continue
		}

		c.mu.Lock()
		ch, ok := rc.pending[resp.ID]
		delete(rc.pending, resp.ID)
		c.mu.Unlock()

		if !ok {
			c.log.Debugf("Dropping response for unknown request %s", resp.ID)
			continue
		}
		ch <- resp
	}

	c.mu.Lock()
	if c.conn == rc {
		c.conn = nil
	}
	pending := rc.pending
	rc.pending = nil
	wasClosed := c.closed
	c.mu.Unlock()

	if !wasClosed {
		c.log.Infof("Bridge connection lost: %v", readErr)
	}
	for id, ch := range pending {
		ch <- rpcResponse{ID: id, Error: &rpcError{Message: "connection lost"}}
	}
	_ = rc.ws.Close()
}

// register records a waiter for id on a live session. The liveness check and
// the insert happen under one lock, so a session that dies concurrently
// either fails the waiter itself or is never handed it.
func (c *RPCClient) register(ctx context.Context, id string, ch chan rpcResponse) (*rpcConn, error) {
	for {
		rc, err := c.connection(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.conn == rc && rc.pending != nil {
			rc.pending[id] = ch
			c.mu.Unlock()
			return rc, nil
		}
		c.mu.Unlock()
	}
}

// Call invokes method with params and decodes the result into out. out may
// be nil when the result is not needed.
func (c *RPCClient) Call(ctx context.Context, method string, params, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id := uuid.NewString()
	ch := make(chan rpcResponse, 1)

	rc, err := c.register(ctx, id, ch)
	if err != nil {
		return err
	}

	rc.writeMu.Lock()
	err = rc.ws.WriteJSON(rpcRequest{ID: id, Method: method, Params: params})
	rc.writeMu.Unlock()
	if err != nil {
		c.forget(rc, id)
		return fedierr.Wrap(fedierr.ErrBridgeUnavailable, "sending %s: %v", method, err)
	}

	select {
	case <-ctx.Done():
		c.forget(rc, id)
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case resp := <-ch:
		if resp.Error != nil {
			return &Error{Method: method, Message: resp.Error.Message}
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fedierr.Wrap(fedierr.ErrBridge, "decoding %s result: %v", method, err)
		}
		return nil
	}
}

func (c *RPCClient) forget(rc *rpcConn, id string) {
	c.mu.Lock()
	delete(rc.pending, id)
	c.mu.Unlock()
}

// Close shuts the connection down and waits for its read loop to exit.
// Outstanding calls fail. A dial still in flight is discarded when it
// completes.
func (c *RPCClient) Close() error {
	c.mu.Lock()
	c.closed = true
	rc := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if rc != nil {
		rc.writeMu.Lock()
		_ = rc.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		rc.writeMu.Unlock()
		err = rc.ws.Close()
	}
	c.readers.Wait()
	return err
}

// DecodeInvoice decodes a BOLT11 invoice through the bridge.
func (c *RPCClient) DecodeInvoice(ctx context.Context, invoice, federationID string) (*Invoice, error) {
	params := struct {
		Invoice      string  `json:"invoice"`
		FederationID *string `json:"federationId"`
	}{Invoice: invoice}
	if federationID != "" {
		params.FederationID = &federationID
	}

	var out Invoice
	if err := c.Call(ctx, MethodDecodeInvoice, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateEcash asks the bridge to parse and validate an ecash string.
func (c *RPCClient) ValidateEcash(ctx context.Context, ecash string) (*EcashInfo, error) {
	params := struct {
		Ecash string `json:"ecash"`
	}{Ecash: ecash}

	var out EcashInfo
	if err := c.Call(ctx, MethodValidateEcash, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatrixUserProfile fetches a Matrix user's public profile.
func (c *RPCClient) MatrixUserProfile(ctx context.Context, userID string) (*MatrixUserProfile, error) {
	params := struct {
		UserID string `json:"userId"`
	}{UserID: userID}

	var out MatrixUserProfile
	if err := c.Call(ctx, MethodMatrixUserProfile, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
