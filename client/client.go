// Package client owns the single connection to the game server. It turns
// inbound records into typed callbacks and queues outbound intents for a
// dedicated write loop.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"snake-client/constants"
	"snake-client/models"
	"snake-client/protocol"
	"snake-client/transport"
)

var (
	ErrAlreadyStarted = errors.New("client: already started")
	ErrNotConnected   = errors.New("client: not connected")
	ErrQueueFull      = errors.New("client: send queue full")
	// ErrEncode is protocol.ErrEncode, re-exported for callers of Send.
	ErrEncode = protocol.ErrEncode
)

// Sink receives inbound server messages, one call per message, in the
// order the transport delivered them. Calls come from the read goroutine.
type Sink interface {
	OnSnapshot(state models.GameState)
	OnMatching(current, required uint)
	OnGameOver(rankings []models.Ranking)
}

type Option func(*Client)

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithSendBuffer sets how many outbound messages may wait for the write loop.
func WithSendBuffer(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.sendBuffer = n
		}
	}
}

func WithPingPeriod(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingPeriod = d
		}
	}
}

type Client struct {
	id         string
	dialer     transport.Dialer
	sink       Sink
	log        *zap.Logger
	sendBuffer int
	pingPeriod time.Duration

	started atomic.Bool
	state   atomic.Int32
	send    chan []byte
	diags   chan Diagnostic

	// mu guards conn, closed and cancel, and orders Send against the
	// connection closing.
	mu     sync.Mutex
	conn   transport.Conn
	closed bool
	cancel context.CancelFunc
}

func New(dialer transport.Dialer, sink Sink, opts ...Option) *Client {
	c := &Client{
		id:         uuid.New().String(),
		dialer:     dialer,
		sink:       sink,
		log:        zap.NewNop(),
		sendBuffer: constants.SEND_BUFFER,
		pingPeriod: constants.PING_PERIOD,
		diags:      make(chan Diagnostic, 64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("client", c.id))
	c.send = make(chan []byte, c.sendBuffer)
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) State() State { return State(c.state.Load()) }

// Diagnostics yields connection events and undeliverable messages. Delivery
// never blocks the client: when the buffer is full, diagnostics are dropped.
func (c *Client) Diagnostics() <-chan Diagnostic { return c.diags }

// Run dials once and serves the connection until the peer closes it, a
// transport error occurs, or ctx is cancelled. A clean close and
// cancellation return nil. There is no reconnection.
func (c *Client) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.setState(StateClosed)
		return nil
	}
	c.cancel = cancel
	c.setState(StateConnecting)
	c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		c.setState(StateClosed)
		c.report(Diagnostic{Kind: Closed, Err: err})
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("client: dial: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.setState(StateClosed)
		c.log.Info("connection closed", zap.String("reason", "closed while dialing"))
		c.report(Diagnostic{Kind: Closed, Detail: "closed locally"})
		if err := conn.Close(); err != nil {
			c.log.Debug("close", zap.Error(err))
		}
		return nil
	}
	c.conn = conn
	c.setState(StateOpen)
	c.mu.Unlock()
	c.log.Info("connection opened")
	c.report(Diagnostic{Kind: Opened})

	var closeErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(conn) })
	g.Go(func() error { return c.writeLoop(gctx, conn) })
	g.Go(func() error {
		<-gctx.Done()
		c.mu.Lock()
		c.setState(StateClosed)
		c.mu.Unlock()
		closeErr = conn.Close()
		return nil
	})
	err = g.Wait()
	c.dropQueued()

	var ce *transport.CloseError
	switch {
	case errors.As(err, &ce):
		c.log.Info("connection closed", zap.Int("code", ce.Code), zap.String("reason", ce.Reason))
		c.report(Diagnostic{Kind: Closed, Err: ce, Detail: ce.Reason})
		if ce.Clean() {
			return nil
		}
		return multierr.Append(err, closeErr)
	case errors.Is(err, transport.ErrClosed) || ctx.Err() != nil:
		c.log.Info("connection closed", zap.String("reason", "local"))
		c.report(Diagnostic{Kind: Closed, Detail: "closed locally"})
		return nil
	default:
		c.log.Warn("connection closed", zap.Error(err))
		c.report(Diagnostic{Kind: Closed, Err: err})
		return multierr.Append(err, closeErr)
	}
}

// Close ends the connection, or the dial in progress. Run then returns nil.
// Closing a client that never ran keeps it from running.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn, cancel := c.conn, c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	if c.started.CompareAndSwap(false, true) {
		c.setState(StateClosed)
	}
	return nil
}

// Send serializes m and queues it for the write loop. Failures are logged
// and reported as a diagnostic as well as returned.
func (c *Client) Send(m protocol.Message) error {
	if c.State() != StateOpen {
		c.log.Warn("send while not connected", zap.String("type", tagOf(m)))
		c.report(Diagnostic{Kind: NotConnected, Err: ErrNotConnected, Detail: tagOf(m)})
		return ErrNotConnected
	}

	data, err := protocol.Encode(m)
	if err != nil {
		c.log.Warn("failed to encode message", zap.Error(err))
		c.report(Diagnostic{Kind: EncodeFailed, Err: err})
		return err
	}

	c.mu.Lock()
	if c.State() != StateOpen {
		c.mu.Unlock()
		c.log.Warn("send while not connected", zap.String("type", m.Tag()))
		c.report(Diagnostic{Kind: NotConnected, Err: ErrNotConnected, Detail: m.Tag()})
		return ErrNotConnected
	}
	select {
	case c.send <- data:
		c.mu.Unlock()
		return nil
	default:
		c.mu.Unlock()
		c.log.Warn("send queue full", zap.String("type", m.Tag()))
		c.report(Diagnostic{Kind: Dropped, Err: ErrQueueFull, Detail: m.Tag()})
		return ErrQueueFull
	}
}

// dropQueued reports messages that were accepted but never written.
func (c *Client) dropQueued() {
	for {
		select {
		case data := <-c.send:
			c.log.Warn("message not sent", zap.String("text", truncate(data)))
			c.report(Diagnostic{Kind: Dropped, Err: ErrNotConnected, Detail: truncate(data)})
		default:
			return
		}
	}
}

func (c *Client) readLoop(conn transport.Conn) error {
	for {
		data, err := conn.ReadMessage()
		if errors.Is(err, transport.ErrNonText) {
			c.log.Warn("non-text message ignored")
			c.report(Diagnostic{Kind: NonText, Err: err})
			continue
		}
		if err != nil {
			return err
		}
		c.dispatch(data)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn transport.Conn) error {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-c.send:
			if err := conn.WriteMessage(data); err != nil {
				c.report(Diagnostic{Kind: Dropped, Err: err, Detail: truncate(data)})
				return fmt.Errorf("client: write: %w", err)
			}
			c.log.Debug("WS sent", zap.ByteString("data", data))
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return fmt.Errorf("client: ping: %w", err)
			}
		}
	}
}

// dispatch routes one inbound record strictly by its tag.
func (c *Client) dispatch(data []byte) {
	c.log.Debug("WS recv", zap.ByteString("data", data))

	msg, err := protocol.Decode(data)
	if err != nil {
		c.log.Warn("failed to parse message", zap.Error(err), zap.String("text", truncate(data)))
		c.report(Diagnostic{Kind: Malformed, Err: err, Detail: truncate(data)})
		return
	}

	if !protocol.Inbound(msg) {
		c.log.Warn("unexpected message from server", zap.String("type", msg.Tag()))
		c.report(Diagnostic{Kind: Unexpected, Detail: msg.Tag()})
		return
	}

	switch m := msg.(type) {
	case protocol.GameState:
		c.sink.OnSnapshot(m.State)
	case protocol.MatchingStatus:
		c.sink.OnMatching(m.Current, m.Required)
	case protocol.GameOver:
		c.sink.OnGameOver(m.Rankings)
	}
}

func (c *Client) report(d Diagnostic) {
	d.At = time.Now()
	select {
	case c.diags <- d:
	default:
	}
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func tagOf(m protocol.Message) string {
	if m == nil {
		return "<nil>"
	}
	return m.Tag()
}

func truncate(data []byte) string {
	const max = 120
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
