// Package tui is the terminal front end: it draws session views and turns
// key presses into intents.
package tui

import (
	"context"

	"snake-client/input"
	"snake-client/session"
)

// Actions are the non-movement intents a player can trigger.
type Actions interface {
	Ready()
	Restart()
}

// Run draws every view from views and dispatches key and mouse events until
// the user quits, views is closed, or ctx is cancelled. Arrow keys and
// clicks on the on-screen arrows go to gate. Enter and Space press whichever
// button the view shows; clicks press the button under the pointer.
func Run(ctx context.Context, screen Screen, views <-chan session.View, gate *input.Gate, actions Actions) error {
	events := make(chan Event)
	stop := make(chan struct{})
	defer func() {
		close(stop)
		screen.Interrupt()
	}()
	go func() {
		for {
			ev := screen.PollEvent()
			if ev.Kind == EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	var (
		current session.View
		layout  Layout
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case v, ok := <-views:
			if !ok {
				return nil
			}
			current = v
			layout = Draw(screen, current)
			if err := screen.Flush(); err != nil {
				return err
			}

		case ev := <-events:
			switch ev.Kind {
			case EventError:
				return ev.Err
			case EventResize:
				layout = Draw(screen, current)
				if err := screen.Flush(); err != nil {
					return err
				}
			case EventKey:
				if quit(ev) {
					return nil
				}
				if gate.Key(ev.Key) {
					continue
				}
				if ev.Key == "Enter" || ev.Key == "Space" {
					press(current, actions)
				}
			case EventMouse:
				if act, ok := layout.at(ev.X, ev.Y); ok {
					click(act, gate, actions)
				}
			}
		}
	}
}

func quit(ev Event) bool {
	return ev.Key == "Escape" || ev.Key == "CtrlC" || ev.Rune == 'q'
}

// press activates the restart button when rankings are shown, otherwise the
// ready button if it is enabled.
func press(v session.View, actions Actions) {
	switch {
	case v.ShowRankings:
		actions.Restart()
	case v.ShowMatchingPanel && v.ReadyEnabled:
		actions.Ready()
	}
}

func click(act action, gate *input.Gate, actions Actions) {
	switch act.kind {
	case actMove:
		gate.Press(act.button)
	case actReady:
		actions.Ready()
	case actRestart:
		actions.Restart()
	}
}
