package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"snake-client/constants"
)

// WebSocket dials a text websocket endpoint such as ws://host:3000/ws.
type WebSocket struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
}

func NewWebSocket(url string, header http.Header) *WebSocket {
	return &WebSocket{URL: url, Header: header}
}

func (w *WebSocket) Dial(ctx context.Context) (Conn, error) {
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, w.URL, w.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", w.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", w.URL, err)
	}

	conn.SetReadLimit(constants.MAX_MESSAGE_SIZE)
	conn.SetReadDeadline(time.Now().Add(constants.PONG_WAIT))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.PONG_WAIT))
	})
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(constants.PONG_WAIT))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(constants.WRITE_WAIT))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	})

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn      *websocket.Conn
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		switch {
		case errors.As(err, &ce):
			return nil, &CloseError{Code: ce.Code, Reason: ce.Text}
		case c.closed.Load():
			return nil, ErrClosed
		}
		return nil, err
	}
	if kind != websocket.TextMessage {
		return nil, ErrNonText
	}
	return data, nil
}

func (c *wsConn) WriteMessage(data []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(constants.WRITE_WAIT))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(constants.WRITE_WAIT))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(constants.WRITE_WAIT))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
