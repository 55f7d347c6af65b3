// Package input maps keys and on-screen controls to movement intents.
// Whether an intent is sent is decided by the session, which owns the
// gating snapshot.
package input

import "snake-client/constants"

// Mover receives one movement intent per press. *session.Session satisfies it.
type Mover interface {
	Move(d constants.Direction)
}

// KeyDirection maps a key name ("ArrowUp", "ArrowDown", "ArrowLeft",
// "ArrowRight") to a direction.
func KeyDirection(name string) (constants.Direction, bool) {
	switch name {
	case "ArrowUp":
		return constants.UP, true
	case "ArrowDown":
		return constants.DOWN, true
	case "ArrowLeft":
		return constants.LEFT, true
	case "ArrowRight":
		return constants.RIGHT, true
	}
	return 0, false
}

// Button is an on-screen directional control.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
)

func (b Button) Direction() (constants.Direction, bool) {
	switch b {
	case ButtonUp:
		return constants.UP, true
	case ButtonDown:
		return constants.DOWN, true
	case ButtonLeft:
		return constants.LEFT, true
	case ButtonRight:
		return constants.RIGHT, true
	}
	return 0, false
}

// Label is the arrow drawn on the control.
func (b Button) Label() string {
	switch b {
	case ButtonUp:
		return "↑"
	case ButtonDown:
		return "↓"
	case ButtonLeft:
		return "←"
	case ButtonRight:
		return "→"
	}
	return "?"
}

// Buttons in on-screen order: up on its own row, then left, down, right.
var Buttons = []Button{ButtonUp, ButtonLeft, ButtonDown, ButtonRight}

// Gate funnels both input sources into the same Mover. There is no repeat
// or debounce: each press is one intent.
type Gate struct {
	target Mover
}

func NewGate(target Mover) *Gate {
	return &Gate{target: target}
}

// Key forwards a known arrow key and reports whether it was one.
func (g *Gate) Key(name string) bool {
	d, ok := KeyDirection(name)
	if ok {
		g.Direction(d)
	}
	return ok
}

func (g *Gate) Press(b Button) bool {
	d, ok := b.Direction()
	if ok {
		g.Direction(d)
	}
	return ok
}

func (g *Gate) Direction(d constants.Direction) {
	if d.Valid() {
		g.target.Move(d)
	}
}
