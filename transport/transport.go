// Package transport provides the message-oriented connections the session
// client runs over: a websocket and a WebRTC data channel.
package transport

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNonText is returned by ReadMessage for a binary frame. The connection stays usable.
	ErrNonText = errors.New("transport: non-text message")
	// ErrClosed is returned once the local side has closed the connection.
	ErrClosed = errors.New("transport: connection closed")
)

const (
	CloseNormal    = 1000
	CloseGoingAway = 1001
	CloseAbnormal  = 1006
)

// Dialer opens a single connection to the game server.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn carries whole UTF-8 text messages. ReadMessage is called from one
// goroutine and WriteMessage/Ping from one other goroutine; Close may be
// called from anywhere.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Ping() error
	Close() error
}

// CloseError reports that the peer closed the connection.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("connection closed. Code: %d, Reason: %s", e.Code, e.Reason)
}

// Clean is true for a normal or going-away close.
func (e *CloseError) Clean() bool {
	return e.Code == CloseNormal || e.Code == CloseGoingAway
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }
