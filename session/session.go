package session

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"snake-client/constants"
	"snake-client/models"
	"snake-client/protocol"
)

var ErrAlreadyRunning = errors.New("session: already running")

// Sender delivers outbound messages; *client.Client satisfies it.
type Sender interface {
	Send(m protocol.Message) error
}

type Option func(*Session)

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

type msg interface{ isSessionMsg() }

type apply struct{ ev Event }

type getView struct{ reply chan View }

func (apply) isSessionMsg()   {}
func (getView) isSessionMsg() {}

// Session owns a State. Events from the network and from the user are
// serialized through one goroutine, so a movement intent is checked against
// the same snapshot it is sent under.
type Session struct {
	inbox   chan msg
	done    chan struct{}
	running atomic.Bool
	subs    *registry
	log     *zap.Logger
}

func New(opts ...Option) *Session {
	s := &Session{
		inbox: make(chan msg, 64),
		done:  make(chan struct{}),
		subs:  newRegistry(Initial().View()),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run applies events until ctx is cancelled. Messages produced by the state
// machine go to sender; a nil sender drops them. Subscriber channels are
// closed when Run returns.
func (s *Session) Run(ctx context.Context, sender Sender) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		s.subs.closeAll()
		close(s.done)
	}()

	state := Initial()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-s.inbox:
			switch m := m.(type) {
			case apply:
				next, out := state.Apply(m.ev)
				s.log.Debug("session event",
					zap.String("event", eventName(m.ev)),
					zap.Stringer("phase", next.Phase),
					zap.Bool("ready", next.Ready))
				state = next
				s.subs.publish(state.View())
				s.deliver(sender, out)
			case getView:
				m.reply <- state.View()
			}
		}
	}
}

func (s *Session) deliver(sender Sender, out []protocol.Message) {
	for _, m := range out {
		if sender == nil {
			s.log.Warn("no connection, message dropped", zap.String("type", m.Tag()))
			continue
		}
		// The sender logs and reports its own failures.
		if err := sender.Send(m); err != nil {
			s.log.Debug("send failed", zap.String("type", m.Tag()), zap.Error(err))
		}
	}
}

func (s *Session) post(m msg) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

// Apply queues an event for the session goroutine.
func (s *Session) Apply(ev Event) { s.post(apply{ev: ev}) }

func (s *Session) OnSnapshot(state models.GameState) {
	s.Apply(SnapshotReceived{State: state})
}

func (s *Session) OnMatching(current, required uint) {
	s.Apply(MatchingReceived{Current: current, Required: required})
}

func (s *Session) OnGameOver(rankings []models.Ranking) {
	s.Apply(GameOverReceived{Rankings: rankings})
}

func (s *Session) Ready()   { s.Apply(ReadyIntent{}) }
func (s *Session) Restart() { s.Apply(RestartIntent{}) }

func (s *Session) Move(d constants.Direction) { s.Apply(MoveIntent{Direction: d}) }

// View returns the current view once every event queued before the call has
// been applied.
func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case s.inbox <- getView{reply: reply}:
	case <-s.done:
		return s.subs.snapshot(), nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return s.subs.snapshot(), nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Subscribe returns a channel that always holds the most recent view not yet
// read. The current view is available immediately.
func (s *Session) Subscribe() (string, <-chan View) { return s.subs.add() }

func (s *Session) Unsubscribe(id string) { s.subs.remove(id) }

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

func eventName(ev Event) string {
	switch ev.(type) {
	case SnapshotReceived:
		return constants.MSG_GAME_STATE
	case MatchingReceived:
		return constants.MSG_MATCHING_STATUS
	case GameOverReceived:
		return constants.MSG_GAME_OVER
	case ReadyIntent:
		return "ready"
	case RestartIntent:
		return "restart"
	case MoveIntent:
		return "move"
	}
	return "unknown"
}
