package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snake-client/constants"
)

func TestPositionInBounds(t *testing.T) {
	cases := []struct {
		name string
		pos  Position
		want bool
	}{
		{"origin", Position{0, 0}, true},
		{"last cell", Position{34, 34}, true},
		{"x past edge", Position{35, 0}, false},
		{"negative y", Position{3, -1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.pos.InBounds(constants.MAP_SIZE))
		})
	}
}

func TestSnakeCollisions(t *testing.T) {
	a := Snake{ID: 1, Body: []Position{{2, 2}, {2, 3}, {3, 3}, {3, 2}, {2, 2}}, Alive: true}
	assert.True(t, a.HitsSelf())

	b := Snake{ID: 2, Body: []Position{{5, 5}, {5, 6}}, Alive: true}
	assert.False(t, b.HitsSelf())

	c := Snake{ID: 3, Body: []Position{{5, 6}}, Alive: true}
	assert.True(t, c.HitsOther(b))
	assert.False(t, b.HitsOther(b))

	var empty Snake
	_, ok := empty.Head()
	assert.False(t, ok)
	assert.False(t, empty.HitsSelf())
	assert.False(t, empty.HitsOther(b))
}

func TestGameStateUnmarshalRequiresFields(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing room", `{"snakes":[],"foods":[],"game_started":false,"game_over":false}`},
		{"null snakes", `{"room_id":"r","snakes":null,"foods":[],"game_started":false,"game_over":false}`},
		{"missing game_over", `{"room_id":"r","snakes":[],"foods":[],"game_started":false}`},
		{"snake without score", `{"room_id":"r","snakes":[{"id":1,"body":[{"x":1,"y":1}],"direction":"Up","alive":true}],"foods":[],"game_started":true,"game_over":false}`},
		{"negative score", `{"room_id":"r","snakes":[{"id":1,"body":[{"x":1,"y":1}],"direction":"Up","alive":true,"score":-4}],"foods":[],"game_started":true,"game_over":false}`},
		{"bad direction", `{"room_id":"r","snakes":[{"id":1,"body":[{"x":1,"y":1}],"direction":"North","alive":true,"score":0}],"foods":[],"game_started":true,"game_over":false}`},
		{"alive with empty body", `{"room_id":"r","snakes":[{"id":1,"body":[],"direction":"Up","alive":true,"score":0}],"foods":[],"game_started":true,"game_over":false}`},
		{"food without position", `{"room_id":"r","snakes":[],"foods":[{}],"game_started":true,"game_over":false}`},
		{"position without y", `{"room_id":"r","snakes":[],"foods":[{"position":{"x":1}}],"game_started":true,"game_over":false}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var g GameState
			assert.Error(t, json.Unmarshal([]byte(tc.data), &g))
		})
	}
}

func TestGameStateUnmarshal(t *testing.T) {
	data := `{"room_id":"room-7","snakes":[{"id":2,"body":[{"x":4,"y":5},{"x":4,"y":6}],"direction":"Up","alive":true,"score":40},{"id":1,"body":[],"direction":"Left","alive":false,"score":15}],"foods":[{"position":{"x":9,"y":9}}],"game_started":true,"game_over":false,"extra":1}`

	var g GameState
	require.NoError(t, json.Unmarshal([]byte(data), &g))
	assert.Equal(t, "room-7", g.RoomID)
	require.Len(t, g.Snakes, 2)
	assert.Equal(t, constants.UP, g.Snakes[0].Direction)
	head, ok := g.Snakes[0].Head()
	require.True(t, ok)
	assert.Equal(t, Position{4, 5}, head)
	assert.Equal(t, []Food{{Position{9, 9}}}, g.Foods)
	assert.True(t, g.InPlay())

	assert.Equal(t, uint(1), g.Snakes[1].ID)
	assert.False(t, g.Snakes[1].Alive)
}

func TestGameStateMarshalEmptySlices(t *testing.T) {
	data, err := json.Marshal(GameState{RoomID: "r"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"room_id":"r","snakes":[],"foods":[],"game_started":false,"game_over":false}`, string(data))
}

func TestRankingJSON(t *testing.T) {
	data, err := json.Marshal([]Ranking{{SnakeID: 2, Score: 40}, {SnakeID: 1, Score: 15}})
	require.NoError(t, err)
	assert.Equal(t, `[[2,40],[1,15]]`, string(data))

	var back []Ranking
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Ranking{{2, 40}, {1, 15}}, back)

	for _, bad := range []string{`[[1]]`, `[[1,2,3]]`, `[[-1,2]]`, `[[1,null]]`, `[{"id":1}]`} {
		var r []Ranking
		assert.Error(t, json.Unmarshal([]byte(bad), &r), bad)
	}
}

func TestGameStateClone(t *testing.T) {
	g := GameState{
		RoomID: "r",
		Snakes: []Snake{{ID: 1, Body: []Position{{1, 1}}, Alive: true}},
		Foods:  []Food{{Position{2, 2}}},
	}
	c := g.Clone()
	assert.Equal(t, g, c)

	c.Snakes[0].Body[0].X = 9
	c.Foods[0].Position.Y = 9
	assert.Equal(t, 1, g.Snakes[0].Body[0].X)
	assert.Equal(t, 2, g.Foods[0].Position.Y)

	assert.Nil(t, GameState{}.Clone().Snakes)
	assert.Nil(t, CloneRankings(nil))
}
