package channel

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize   = 8 << 20
	closeGracePeriod = time.Second
)

type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, target string) (Conn, error)
}

type WebsocketDialer struct {
	dialer *websocket.Dialer
}

func NewWebsocketDialer() Dialer {
	return &WebsocketDialer{dialer: &websocket.Dialer{
		Proxy:             websocket.DefaultDialer.Proxy,
		HandshakeTimeout:  DefaultConnectTimeout,
		EnableCompression: true,
	}}
}

func (d *WebsocketDialer) Dial(ctx context.Context, target string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

// ReadMessage skips binary frames; the channel only speaks JSON text.
func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeGracePeriod))
	return c.conn.Close()
}

// BuildURL appends the username query parameter to the channel endpoint.
func BuildURL(base, user string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid channel url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid channel url scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("username", user)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
