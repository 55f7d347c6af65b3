package input_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snake-client/constants"
	"snake-client/input"
	"snake-client/models"
	"snake-client/protocol"
	"snake-client/session"
)

type recorder struct{ moves []constants.Direction }

func (r *recorder) Move(d constants.Direction) { r.moves = append(r.moves, d) }

func TestKeyDirection(t *testing.T) {
	cases := map[string]constants.Direction{
		"ArrowUp":    constants.UP,
		"ArrowDown":  constants.DOWN,
		"ArrowLeft":  constants.LEFT,
		"ArrowRight": constants.RIGHT,
	}
	for key, want := range cases {
		d, ok := input.KeyDirection(key)
		require.True(t, ok, key)
		assert.Equal(t, want, d)
	}

	for _, key := range []string{"", "w", "arrowup", "Enter"} {
		_, ok := input.KeyDirection(key)
		assert.False(t, ok, key)
	}
}

func TestGateOnePressOneIntent(t *testing.T) {
	rec := &recorder{}
	g := input.NewGate(rec)

	assert.True(t, g.Key("ArrowUp"))
	assert.True(t, g.Key("ArrowUp"))
	assert.False(t, g.Key("Space"))
	assert.True(t, g.Press(input.ButtonLeft))
	assert.False(t, g.Press(input.Button(8)))
	g.Direction(constants.RIGHT)
	g.Direction(constants.Direction(-1))

	assert.Equal(t, []constants.Direction{constants.UP, constants.UP, constants.LEFT, constants.RIGHT}, rec.moves)
}

func TestButtons(t *testing.T) {
	var labels string
	for _, b := range input.Buttons {
		_, ok := b.Direction()
		assert.True(t, ok)
		labels += b.Label()
	}
	assert.Equal(t, "↑←↓→", labels)
}

type sender struct {
	mu   sync.Mutex
	sent []protocol.Message
}

func (s *sender) Send(m protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

func (s *sender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestGatedInputNeverReachesTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out := &sender{}
	s := session.New()
	go s.Run(ctx, out)
	g := input.NewGate(s)

	for _, b := range input.Buttons {
		g.Press(b)
	}
	g.Key("ArrowDown")
	_, err := s.View(ctx)
	require.NoError(t, err)
	assert.Zero(t, out.count())

	s.OnSnapshot(models.GameState{GameStarted: true})
	g.Key("ArrowDown")
	g.Press(input.ButtonUp)
	_, err = s.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, out.count())
}
