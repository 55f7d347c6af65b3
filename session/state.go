// Package session holds the client-local view of a game: which phase the
// player is in, whether they have signalled ready, and the last snapshot the
// server sent. State.Apply is the only way it changes.
package session

import (
	"fmt"

	"snake-client/constants"
	"snake-client/models"
	"snake-client/protocol"
)

type Phase int

const (
	Matching Phase = iota
	Playing
	GameOver
)

func (p Phase) String() string {
	switch p {
	case Matching:
		return "matching"
	case Playing:
		return "playing"
	case GameOver:
		return "game-over"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Event is an inbound server message or a local user intent.
type Event interface{ isEvent() }

type SnapshotReceived struct{ State models.GameState }

type MatchingReceived struct{ Current, Required uint }

type GameOverReceived struct{ Rankings []models.Ranking }

type ReadyIntent struct{}

type RestartIntent struct{}

type MoveIntent struct{ Direction constants.Direction }

func (SnapshotReceived) isEvent() {}
func (MatchingReceived) isEvent() {}
func (GameOverReceived) isEvent() {}
func (ReadyIntent) isEvent()      {}
func (RestartIntent) isEvent()    {}
func (MoveIntent) isEvent()       {}

// State is a value; Apply returns a new one and never mutates the slices it
// shares with its predecessor.
type State struct {
	Phase    Phase
	Ready    bool
	Current  uint
	Required uint
	// Snapshot is nil until the first GameState arrives.
	Snapshot *models.GameState
	// Rankings is non-nil exactly while the ranking panel is shown.
	Rankings []models.Ranking
	// Restarting is set by a restart and cleared by the next round.
	Restarting bool
}

func Initial() State {
	return State{
		Phase:    Matching,
		Current:  constants.DEFAULT_CURRENT,
		Required: constants.DEFAULT_REQUIRED,
	}
}

// Apply folds one event into s and returns the messages to send for it.
func (s State) Apply(ev Event) (State, []protocol.Message) {
	switch e := ev.(type) {
	case SnapshotReceived:
		snap := e.State
		s.Snapshot = &snap
		switch {
		case snap.InPlay():
			s.Phase = Playing
			s.Restarting = false
		case snap.GameStarted:
			// Final frame of a finished round. It may arrive on either side
			// of the GameOver message.
			if s.Rankings == nil && !s.Restarting {
				s.Phase = Playing
			}
		case s.Restarting:
			s.rearm()
		case s.Phase == Playing:
			s.Phase = Matching
		}

	case MatchingReceived:
		s.Current, s.Required = e.Current, e.Required
		if s.Restarting {
			s.rearm()
		}

	case GameOverReceived:
		s.Phase = GameOver
		s.Restarting = false
		s.Rankings = e.Rankings
		if s.Rankings == nil {
			s.Rankings = []models.Ranking{}
		}

	case ReadyIntent:
		if s.Phase == Matching && !s.Ready {
			s.Ready = true
			return s, []protocol.Message{protocol.Ready{}}
		}

	case RestartIntent:
		if s.ShowRankings() {
			s.Phase = GameOver
			s.Rankings = nil
			s.Ready = true
			s.Restarting = true
			return s, []protocol.Message{protocol.Ready{}}
		}

	case MoveIntent:
		if s.InputAllowed() && e.Direction.Valid() {
			return s, []protocol.Message{protocol.PlayerInput{Direction: e.Direction}}
		}
	}
	return s, nil
}

// rearm starts a new matching round after a restart.
func (s *State) rearm() {
	s.Phase = Matching
	s.Ready = false
	s.Restarting = false
}

// AwaitingRestart is true between a restart intent and the server's next
// matching status or snapshot that is not a finished round.
func (s State) AwaitingRestart() bool {
	return s.Restarting
}

// ShowMatchingPanel follows the latest snapshot's own flag, not the phase.
func (s State) ShowMatchingPanel() bool {
	return s.Snapshot == nil || !s.Snapshot.GameStarted
}

func (s State) ShowVirtualInput() bool {
	return s.Snapshot != nil && s.Snapshot.InPlay()
}

// InputAllowed gates movement intents with the same predicate as the
// on-screen controls.
func (s State) InputAllowed() bool {
	return s.ShowVirtualInput()
}

// ReadyEnabled stays true when the room is already full.
func (s State) ReadyEnabled() bool {
	return !s.Ready
}

// ShowRankings does not depend on the snapshot; only a restart clears the
// panel.
func (s State) ShowRankings() bool {
	return s.Rankings != nil
}

// View is a copy of State plus its derived flags, safe to hand to another goroutine.
type View struct {
	Phase             Phase
	Ready             bool
	Current           uint
	Required          uint
	Snapshot          *models.GameState
	Rankings          []models.Ranking
	ShowMatchingPanel bool
	ShowVirtualInput  bool
	InputAllowed      bool
	ReadyEnabled      bool
	ShowRankings      bool
	AwaitingRestart   bool
}

func (s State) View() View {
	v := View{
		Phase:             s.Phase,
		Ready:             s.Ready,
		Current:           s.Current,
		Required:          s.Required,
		Rankings:          models.CloneRankings(s.Rankings),
		ShowMatchingPanel: s.ShowMatchingPanel(),
		ShowVirtualInput:  s.ShowVirtualInput(),
		InputAllowed:      s.InputAllowed(),
		ReadyEnabled:      s.ReadyEnabled(),
		ShowRankings:      s.ShowRankings(),
		AwaitingRestart:   s.AwaitingRestart(),
	}
	if s.Snapshot != nil {
		snap := s.Snapshot.Clone()
		v.Snapshot = &snap
	}
	return v
}

func (v View) clone() View {
	v.Rankings = models.CloneRankings(v.Rankings)
	if v.Snapshot != nil {
		snap := v.Snapshot.Clone()
		v.Snapshot = &snap
	}
	return v
}
