package pushchan

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/ports"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	closeWriteTimeout       = time.Second
)

// Config locates the push channel endpoint. WSURL wins over APIURL when set.
type Config struct {
	APIURL           string
	WSURL            string
	HandshakeTimeout time.Duration
}

// ChannelURL builds ws(s)://host/run/ws/{batchID}. Without an explicit
// WebSocket base the scheme is derived from the API URL.
func ChannelURL(apiURL, wsURL, batchID string) (string, error) {
	if batchID == "" {
		return "", fmt.Errorf("batch id is required")
	}

	base := strings.TrimSpace(wsURL)
	if base == "" {
		base = strings.TrimSpace(apiURL)
	}
	if base == "" {
		return "", fmt.Errorf("no API or WebSocket URL configured")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing channel base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported channel URL scheme %q", u.Scheme)
	}

	prefix := strings.TrimRight(u.Path, "/")
	u.Path = prefix + "/run/ws/" + batchID
	u.RawPath = prefix + "/run/ws/" + url.PathEscape(batchID)
	u.RawQuery = ""
	return u.String(), nil
}

// Dialer opens push channels with gorilla/websocket.
type Dialer struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *zap.Logger
}

var _ ports.RunChannelDialer = (*Dialer)(nil)

// NewDialer validates cfg and returns a Dialer.
func NewDialer(cfg Config, logger *zap.Logger) (*Dialer, error) {
	if _, err := ChannelURL(cfg.APIURL, cfg.WSURL, "check"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	return &Dialer{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		logger: logger.With(zap.String("component", "pushchan")),
	}, nil
}

// Dial opens the channel for batchID.
func (d *Dialer) Dial(ctx context.Context, batchID string) (ports.RunChannel, error) {
	target, err := ChannelURL(d.cfg.APIURL, d.cfg.WSURL, batchID)
	if err != nil {
		return nil, err
	}

	ws, resp, err := d.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: handshake status %d: %w", target, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", target, err)
	}
	d.logger.Debug("channel open", zap.String("batch_id", batchID), zap.String("url", target))
	return &Conn{ws: ws}, nil
}

// Conn is one open push channel.
type Conn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// ReadMessage returns the next frame. Cancelling ctx unblocks a pending read;
// the connection is unusable afterwards.
func (c *Conn) ReadMessage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.ws.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("reading run channel: %w", err)
	}
	return data, nil
}

// Close sends a normal closure frame and releases the connection. It is
// safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
