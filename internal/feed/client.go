package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	clientProtocol          = "1.5"
	defaultHandshakeTimeout = 10 * time.Second
	// A read deadline of a few keepalive intervals distinguishes an idle
	// feed from a dead one.
	keepaliveReadMultiple = 3
)

// SubscriptionSpec is one subscribe message sent after the upgrade.
type SubscriptionSpec struct {
	Hub    string `mapstructure:"hub" json:"hub"`
	Method string `mapstructure:"method" json:"method"`
	League string `mapstructure:"league" json:"league"`
}

// Dialer hides the network from the session state machine.
type Dialer interface {
	Connect(ctx context.Context, subs []SubscriptionSpec) (Conn, error)
}

// Conn is one live push subscription. Read returns io.EOF when the
// connection is lost; a lost connection is never resumed — callers must go
// through Connect again.
type Conn interface {
	Read(ctx context.Context) (RawEvent, error)
	Dropped() uint64
	Close() error
}

// negotiateResponse is the synchronous half of the handshake.
type negotiateResponse struct {
	ConnectionToken  string  `json:"ConnectionToken"`
	ConnectionID     string  `json:"ConnectionId"`
	KeepAliveTimeout float64 `json:"KeepAliveTimeout"`
	TryWebSockets    bool    `json:"TryWebSockets"`
}

// Client negotiates a connection token over HTTP and upgrades to a
// persistent duplex stream. It holds no business-level state.
type Client struct {
	NegotiateURL     string
	APIKey           string
	HTTP             *http.Client
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	Logger           *zap.Logger
}

func (c *Client) Connect(ctx context.Context, subs []SubscriptionSpec) (Conn, error) {
	if c == nil || strings.TrimSpace(c.NegotiateURL) == "" {
		return nil, &ConfigError{Reason: "negotiate url is empty"}
	}
	if len(subs) == 0 {
		return nil, &ConfigError{Reason: "no subscriptions requested"}
	}
	timeout := c.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	hsCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	neg, err := c.negotiate(hsCtx)
	if err != nil {
		return nil, err
	}

	wsURL, err := connectURL(c.NegotiateURL, neg.ConnectionToken)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	// Note: the negotiate HTTP client is not reused here; a client-level
	// timeout would tear down the long-lived socket.
	ws, _, err := websocket.Dial(hsCtx, wsURL, nil)
	if err != nil {
		return nil, &ConnectError{Step: "upgrade", Err: err}
	}
	// Line batches for a full slate can be large; raise the read limit.
	ws.SetReadLimit(1 << 20)

	for i, sub := range subs {
		payload, err := json.Marshal(map[string]any{
			"H": sub.Hub,
			"M": sub.Method,
			"A": []any{sub.League},
			"I": i + 1,
		})
		if err != nil {
			ws.Close(websocket.StatusInternalError, "subscribe encode failed")
			return nil, &ConnectError{Step: "subscribe", Err: err}
		}
		if err := ws.Write(hsCtx, websocket.MessageText, payload); err != nil {
			ws.Close(websocket.StatusInternalError, "subscribe failed")
			return nil, &ConnectError{Step: "subscribe", Err: err}
		}
	}

	readTimeout := c.ReadTimeout
	if readTimeout <= 0 && neg.KeepAliveTimeout > 0 {
		readTimeout = time.Duration(neg.KeepAliveTimeout*float64(time.Second)) * keepaliveReadMultiple
	}
	if c.Logger != nil {
		c.Logger.Info("feed connected",
			zap.String("connection_id", neg.ConnectionID),
			zap.Int("subscriptions", len(subs)),
			zap.Duration("read_timeout", readTimeout),
		)
	}
	return &wsConn{ws: ws, readTimeout: readTimeout, logger: c.Logger}, nil
}

func (c *Client) negotiate(ctx context.Context) (*negotiateResponse, error) {
	u, err := url.Parse(c.NegotiateURL)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("negotiate url: %v", err)}
	}
	q := u.Query()
	q.Set("clientProtocol", clientProtocol)
	if c.APIKey != "" {
		q.Set("apiKey", c.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ConnectError{Step: "negotiate", Err: err}
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &ConnectError{Step: "negotiate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ConnectError{Step: "negotiate", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	var neg negotiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&neg); err != nil {
		return nil, &ConnectError{Step: "negotiate", Err: err}
	}
	if strings.TrimSpace(neg.ConnectionToken) == "" {
		return nil, &AuthError{Status: resp.StatusCode}
	}
	return &neg, nil
}

// connectURL swaps the negotiate endpoint for the upgraded transport,
// carrying the token from step one.
func connectURL(negotiateURL, token string) (string, error) {
	u, err := url.Parse(negotiateURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "negotiate") + "connect"
	q := u.Query()
	q.Set("transport", "webSockets")
	q.Set("clientProtocol", clientProtocol)
	q.Set("connectionToken", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type wsConn struct {
	ws          *websocket.Conn
	readTimeout time.Duration
	logger      *zap.Logger

	pending []RawEvent
	dropped uint64
}

// Read returns the next hub event. Keepalives are absorbed, malformed frames
// are logged and skipped (a single bad frame must not end an otherwise
// healthy session), explicit error frames surface as *UpstreamError, and
// connection loss or read-deadline expiry surfaces as io.EOF.
func (c *wsConn) Read(ctx context.Context) (RawEvent, error) {
	for {
		if len(c.pending) > 0 {
			ev := c.pending[0]
			c.pending = c.pending[1:]
			return ev, nil
		}

		readCtx := ctx
		var cancel context.CancelFunc
		if c.readTimeout > 0 {
			readCtx, cancel = context.WithTimeout(ctx, c.readTimeout)
		}
		_, raw, err := c.ws.Read(readCtx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if ctx.Err() != nil {
				return RawEvent{}, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// No frame, not even a keepalive: the feed is dead, not idle.
				if c.logger != nil {
					c.logger.Warn("feed read deadline hit, treating connection as dead")
				}
				return RawEvent{}, io.EOF
			}
			if c.logger != nil {
				c.logger.Warn("feed read failed", zap.Error(err))
			}
			return RawEvent{}, io.EOF
		}

		events, upstream, decodeErr := decodeFrame(raw)
		if decodeErr != nil {
			atomic.AddUint64(&c.dropped, 1)
			if c.logger != nil {
				c.logger.Warn("malformed feed frame dropped", zap.Error(decodeErr), zap.Int("bytes", len(raw)))
			}
			continue
		}
		if upstream != nil {
			return RawEvent{}, upstream
		}
		if len(events) == 0 {
			continue // keepalive
		}
		c.pending = events
	}
}

// Dropped counts malformed frames skipped on this connection.
func (c *wsConn) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

func (c *wsConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "session closed")
}
