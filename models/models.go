package models

import (
	"snake-client/constants"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether the position lies on a size x size grid.
func (p Position) InBounds(size int) bool {
	return p.X >= 0 && p.X < size && p.Y >= 0 && p.Y < size
}

type Snake struct {
	ID        uint                `json:"id"`
	Body      []Position          `json:"body"`
	Direction constants.Direction `json:"direction"`
	Alive     bool                `json:"alive"`
	Score     uint32              `json:"score"`
}

// Head returns body[0], if any.
func (s Snake) Head() (Position, bool) {
	if len(s.Body) == 0 {
		return Position{}, false
	}
	return s.Body[0], true
}

func (s Snake) HitsSelf() bool {
	head, ok := s.Head()
	if !ok {
		return false
	}
	for _, part := range s.Body[1:] {
		if part == head {
			return true
		}
	}
	return false
}

func (s Snake) HitsOther(other Snake) bool {
	if s.ID == other.ID {
		return false
	}
	head, ok := s.Head()
	if !ok {
		return false
	}
	for _, part := range other.Body {
		if part == head {
			return true
		}
	}
	return false
}

type Food struct {
	Position Position `json:"position"`
}

// GameState is a full world snapshot. Each one received replaces the previous.
type GameState struct {
	RoomID      string  `json:"room_id"`
	Snakes      []Snake `json:"snakes"`
	Foods       []Food  `json:"foods"`
	GameStarted bool    `json:"game_started"`
	GameOver    bool    `json:"game_over"`
}

// InPlay is true while the round has started and not finished.
func (g GameState) InPlay() bool {
	return g.GameStarted && !g.GameOver
}

// Clone returns a deep copy that shares no slices with g.
func (g GameState) Clone() GameState {
	out := g
	out.Snakes = cloneSlice(g.Snakes)
	for i := range out.Snakes {
		out.Snakes[i].Body = cloneSlice(out.Snakes[i].Body)
	}
	out.Foods = cloneSlice(g.Foods)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Ranking is one row of the final standings. Order is assigned by the server.
type Ranking struct {
	SnakeID uint
	Score   uint32
}

func CloneRankings(r []Ranking) []Ranking {
	return cloneSlice(r)
}
