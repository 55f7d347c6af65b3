package tui

import (
	"github.com/nsf/termbox-go"
)

// Attr is a foreground or background attribute. In 256-colour mode a
// palette index i is Attr(i+1); zero is the terminal default.
type Attr uint64

const (
	AttrDefault Attr = 0
	AttrBold    Attr = Attr(termbox.AttrBold)
	AttrReverse Attr = Attr(termbox.AttrReverse)
)

// Colour returns the attribute for a 256-colour palette index.
func Colour(index int) Attr { return Attr(index + 1) }

type EventKind int

const (
	EventKey EventKind = iota
	EventResize
	EventInterrupt
	EventError
	EventMouse
)

// Event is a terminal event. Key holds a key name such as "ArrowUp",
// "Enter", "Space", "Escape" or "CtrlC"; printable keys set Rune instead.
// A mouse event is a left click at cell (X, Y).
type Event struct {
	Kind EventKind
	Key  string
	Rune rune
	X, Y int
	Err  error
}

// Screen is the drawing surface and event source.
type Screen interface {
	Size() (width, height int)
	Clear()
	SetCell(x, y int, ch rune, fg, bg Attr)
	Flush() error
	// PollEvent blocks until an event arrives or Interrupt is called.
	PollEvent() Event
	// Interrupt wakes PollEvent and must not block.
	Interrupt()
	Close()
}

type termboxScreen struct{}

// NewTermbox takes over the terminal. Close restores it.
func NewTermbox() (Screen, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetOutputMode(termbox.Output256)
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)
	return termboxScreen{}, nil
}

func (termboxScreen) Size() (int, int) { return termbox.Size() }

func (termboxScreen) Clear() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
}

func (termboxScreen) SetCell(x, y int, ch rune, fg, bg Attr) {
	termbox.SetCell(x, y, ch, termbox.Attribute(fg), termbox.Attribute(bg))
}

func (termboxScreen) Flush() error { return termbox.Flush() }

// Interrupt does not wait for a poller to take the interrupt.
func (termboxScreen) Interrupt() { go termbox.Interrupt() }

func (termboxScreen) Close() { termbox.Close() }

var keyNames = map[termbox.Key]string{
	termbox.KeyArrowUp:    "ArrowUp",
	termbox.KeyArrowDown:  "ArrowDown",
	termbox.KeyArrowLeft:  "ArrowLeft",
	termbox.KeyArrowRight: "ArrowRight",
	termbox.KeyEnter:      "Enter",
	termbox.KeySpace:      "Space",
	termbox.KeyEsc:        "Escape",
	termbox.KeyCtrlC:      "CtrlC",
}

func (termboxScreen) PollEvent() Event {
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			if ev.Ch != 0 {
				return Event{Kind: EventKey, Rune: ev.Ch}
			}
			return Event{Kind: EventKey, Key: keyNames[ev.Key]}
		case termbox.EventMouse:
			// Releases, wheel and other buttons are not clicks.
			if ev.Key == termbox.MouseLeft {
				return Event{Kind: EventMouse, X: ev.MouseX, Y: ev.MouseY}
			}
		case termbox.EventResize:
			return Event{Kind: EventResize}
		case termbox.EventInterrupt:
			return Event{Kind: EventInterrupt}
		case termbox.EventError:
			return Event{Kind: EventError, Err: ev.Err}
		}
	}
}
