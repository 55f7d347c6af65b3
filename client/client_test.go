package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snake-client/constants"
	"snake-client/models"
	"snake-client/protocol"
	"snake-client/transport"
)

const timeout = 2 * time.Second

type readResult struct {
	data []byte
	err  error
}

type fakeConn struct {
	in     chan readResult
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan readResult, 16),
		out:    make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case r := <-f.in:
		return r.data, r.err
	case <-f.closed:
		return nil, transport.ErrClosed
	}
}

func (f *fakeConn) WriteMessage(data []byte) error {
	select {
	case f.out <- data:
		return nil
	case <-f.closed:
		return transport.ErrClosed
	}
}

func (f *fakeConn) Ping() error { return nil }

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) push(text string) { f.in <- readResult{data: []byte(text)} }

type event struct {
	kind     string
	state    models.GameState
	current  uint
	required uint
	rankings []models.Ranking
}

type recordingSink struct {
	events chan event
}

func newSink() *recordingSink { return &recordingSink{events: make(chan event, 16)} }

func (s *recordingSink) OnSnapshot(state models.GameState) {
	s.events <- event{kind: "snapshot", state: state}
}

func (s *recordingSink) OnMatching(current, required uint) {
	s.events <- event{kind: "matching", current: current, required: required}
}

func (s *recordingSink) OnGameOver(rankings []models.Ranking) {
	s.events <- event{kind: "gameover", rankings: rankings}
}

func (s *recordingSink) next(t *testing.T) event {
	t.Helper()
	select {
	case e := <-s.events:
		return e
	case <-time.After(timeout):
		t.Fatal("no sink event")
		return event{}
	}
}

func (s *recordingSink) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-s.events:
		t.Fatalf("unexpected sink event %q", e.kind)
	default:
	}
}

func nextDiag(t *testing.T, c *Client, kind Kind) Diagnostic {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case d := <-c.Diagnostics():
			if d.Kind == kind {
				return d
			}
		case <-deadline:
			t.Fatalf("no %s diagnostic", kind)
			return Diagnostic{}
		}
	}
}

func fakeDialer(conn transport.Conn) transport.Dialer {
	return transport.DialerFunc(func(context.Context) (transport.Conn, error) { return conn, nil })
}

// start runs c in the background and waits for it to open.
func start(t *testing.T, c *Client) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	nextDiag(t, c, Opened)
	require.Equal(t, StateOpen, c.State())
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestDispatchByTag(t *testing.T) {
	conn := newFakeConn()
	sink := newSink()
	c := New(fakeDialer(conn), sink)
	done := start(t, c)

	conn.push(`{"type":"MatchingStatus","current":1,"required":2}`)
	e := sink.next(t)
	assert.Equal(t, "matching", e.kind)
	assert.Equal(t, uint(1), e.current)
	assert.Equal(t, uint(2), e.required)

	conn.push(`{"type":"GameState","room_id":"r1","snakes":[{"id":1,"body":[{"x":5,"y":5}],"direction":"Up","alive":true,"score":0}],"foods":[],"game_started":true,"game_over":false}`)
	e = sink.next(t)
	require.Equal(t, "snapshot", e.kind)
	assert.Equal(t, "r1", e.state.RoomID)
	assert.True(t, e.state.InPlay())
	require.Len(t, e.state.Snakes, 1)
	assert.Equal(t, constants.UP, e.state.Snakes[0].Direction)

	conn.push(`{"type":"GameOver","rankings":[[2,40],[1,15]]}`)
	e = sink.next(t)
	assert.Equal(t, "gameover", e.kind)
	assert.Equal(t, []models.Ranking{{SnakeID: 2, Score: 40}, {SnakeID: 1, Score: 15}}, e.rankings)

	conn.Close()
	assert.NoError(t, waitRun(t, done))
	assert.Equal(t, StateClosed, c.State())
}

func TestDispatchRejects(t *testing.T) {
	conn := newFakeConn()
	sink := newSink()
	c := New(fakeDialer(conn), sink)
	done := start(t, c)

	conn.push(`{"type":"Ready"}`)
	d := nextDiag(t, c, Unexpected)
	assert.Equal(t, "Ready", d.Detail)

	conn.push(`{"type":"PlayerInput","Up":null}`)
	nextDiag(t, c, Unexpected)

	conn.push(`hello`)
	d = nextDiag(t, c, Malformed)
	assert.ErrorIs(t, d.Err, protocol.ErrMalformed)
	assert.Equal(t, "hello", d.Detail)

	conn.push(`{"type":"Foo"}`)
	d = nextDiag(t, c, Malformed)
	assert.ErrorIs(t, d.Err, protocol.ErrUnknownType)

	conn.in <- readResult{err: transport.ErrNonText}
	nextDiag(t, c, NonText)

	// The connection survives all of the above.
	conn.push(`{"type":"MatchingStatus","current":2,"required":2}`)
	assert.Equal(t, "matching", sink.next(t).kind)
	sink.none(t)

	conn.Close()
	assert.NoError(t, waitRun(t, done))
}

func TestSendNotConnected(t *testing.T) {
	c := New(fakeDialer(newFakeConn()), newSink())

	err := c.Send(protocol.Ready{})
	assert.ErrorIs(t, err, ErrNotConnected)
	d := nextDiag(t, c, NotConnected)
	assert.Equal(t, "Ready", d.Detail)
	assert.Equal(t, StateIdle, c.State())
}

func TestSendWritesWireForm(t *testing.T) {
	conn := newFakeConn()
	c := New(fakeDialer(conn), newSink())
	done := start(t, c)

	require.NoError(t, c.Send(protocol.Ready{}))
	require.NoError(t, c.Send(protocol.PlayerInput{Direction: constants.LEFT}))

	for _, want := range []string{`{"type":"Ready"}`, `{"type":"PlayerInput","Left":null}`} {
		select {
		case got := <-conn.out:
			assert.Equal(t, want, string(got))
		case <-time.After(timeout):
			t.Fatalf("never wrote %s", want)
		}
	}

	conn.Close()
	assert.NoError(t, waitRun(t, done))
}

func TestSendEncodeFailure(t *testing.T) {
	conn := newFakeConn()
	c := New(fakeDialer(conn), newSink())
	done := start(t, c)

	err := c.Send(protocol.PlayerInput{Direction: constants.Direction(42)})
	assert.ErrorIs(t, err, ErrEncode)
	nextDiag(t, c, EncodeFailed)

	assert.ErrorIs(t, c.Send(nil), ErrEncode)

	select {
	case got := <-conn.out:
		t.Fatalf("wrote %s", got)
	default:
	}

	conn.Close()
	assert.NoError(t, waitRun(t, done))
}

func TestSendQueueFull(t *testing.T) {
	conn := newFakeConn()
	conn.out = make(chan []byte) // nobody reads: the first write blocks
	c := New(fakeDialer(conn), newSink(), WithSendBuffer(1))
	done := start(t, c)

	var full error
	for i := 0; i < 5 && full == nil; i++ {
		full = c.Send(protocol.Ready{})
	}
	assert.ErrorIs(t, full, ErrQueueFull)
	nextDiag(t, c, Dropped)

	conn.Close()
	assert.NoError(t, waitRun(t, done))
}

func TestRunOnce(t *testing.T) {
	conn := newFakeConn()
	c := New(fakeDialer(conn), newSink())
	done := start(t, c)

	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyStarted)

	require.NoError(t, c.Close())
	assert.NoError(t, waitRun(t, done))
	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyStarted)
}

func TestRunPeerClose(t *testing.T) {
	conn := newFakeConn()
	c := New(fakeDialer(conn), newSink())
	done := start(t, c)

	conn.in <- readResult{err: &transport.CloseError{Code: transport.CloseNormal, Reason: "bye"}}
	assert.NoError(t, waitRun(t, done))
	d := nextDiag(t, c, Closed)
	assert.Equal(t, "bye", d.Detail)

	assert.ErrorIs(t, c.Send(protocol.Ready{}), ErrNotConnected)
}

func TestRunAbnormalClose(t *testing.T) {
	conn := newFakeConn()
	c := New(fakeDialer(conn), newSink())
	done := start(t, c)

	conn.in <- readResult{err: &transport.CloseError{Code: transport.CloseAbnormal}}
	err := waitRun(t, done)
	var ce *transport.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, transport.CloseAbnormal, ce.Code)
}

func TestRunCancel(t *testing.T) {
	conn := newFakeConn()
	c := New(fakeDialer(conn), newSink())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	nextDiag(t, c, Opened)

	cancel()
	assert.NoError(t, waitRun(t, done))
	select {
	case <-conn.closed:
	default:
		t.Fatal("connection left open")
	}
}

func TestRunDialError(t *testing.T) {
	boom := errors.New("connection refused")
	c := New(transport.DialerFunc(func(context.Context) (transport.Conn, error) { return nil, boom }), newSink())

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateClosed, c.State())
	nextDiag(t, c, Closed)
}

func TestCloseDuringDial(t *testing.T) {
	conn := newFakeConn()
	dialing := make(chan struct{})
	release := make(chan struct{})
	c := New(transport.DialerFunc(func(context.Context) (transport.Conn, error) {
		close(dialing)
		<-release
		return conn, nil
	}), newSink())

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	select {
	case <-dialing:
	case <-time.After(timeout):
		t.Fatal("never dialed")
	}
	assert.Equal(t, StateConnecting, c.State())

	require.NoError(t, c.Close())
	close(release)
	assert.NoError(t, waitRun(t, done))
	assert.Equal(t, StateClosed, c.State())
	select {
	case <-conn.closed:
	default:
		t.Fatal("dialed connection left open")
	}
	assert.ErrorIs(t, c.Send(protocol.Ready{}), ErrNotConnected)
}

func TestCloseCancelsDial(t *testing.T) {
	dialing := make(chan struct{})
	c := New(transport.DialerFunc(func(ctx context.Context) (transport.Conn, error) {
		close(dialing)
		<-ctx.Done()
		return nil, ctx.Err()
	}), newSink())

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	<-dialing
	require.NoError(t, c.Close())
	assert.NoError(t, waitRun(t, done))
	assert.Equal(t, StateClosed, c.State())
}

func TestCloseBeforeRun(t *testing.T) {
	c := New(fakeDialer(newFakeConn()), newSink())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyStarted)
	assert.Equal(t, StateClosed, c.State())
}

func TestUnsentMessagesReportedOnClose(t *testing.T) {
	conn := newFakeConn()
	conn.out = make(chan []byte) // nobody reads: writes block until close
	c := New(fakeDialer(conn), newSink(), WithSendBuffer(4))
	done := start(t, c)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Send(protocol.Ready{}))
	}
	conn.in <- readResult{err: &transport.CloseError{Code: transport.CloseNormal, Reason: "bye"}}
	assert.NoError(t, waitRun(t, done))

	dropped := 0
	for {
		select {
		case d := <-c.Diagnostics():
			if d.Kind == Dropped {
				dropped++
				assert.Equal(t, `{"type":"Ready"}`, d.Detail)
			}
			continue
		default:
		}
		break
	}
	assert.Equal(t, 3, dropped, "every accepted message is written or reported")
	assert.ErrorIs(t, c.Send(protocol.Ready{}), ErrNotConnected)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "malformed", Malformed.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, "open", StateOpen.String())
}
