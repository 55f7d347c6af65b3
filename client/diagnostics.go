package client

import (
	"fmt"
	"time"
)

// Kind classifies a Diagnostic.
type Kind int

const (
	Opened Kind = iota
	Closed
	Malformed
	Unexpected
	NonText
	EncodeFailed
	NotConnected
	Dropped
)

var kindNames = [...]string{"opened", "closed", "malformed", "unexpected", "non-text", "encode-failed", "not-connected", "dropped"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Diagnostic reports a connection event or a message that was not delivered.
// None of them stop the client.
type Diagnostic struct {
	Kind   Kind
	Err    error
	Detail string
	At     time.Time
}

func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %v", d.Kind, d.Err)
	}
	if d.Detail != "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
	return d.Kind.String()
}

// State is the connection lifecycle.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}
