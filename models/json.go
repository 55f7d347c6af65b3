package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"snake-client/constants"
)

// ErrInvalid marks a payload that parsed as JSON but failed structural validation.
var ErrInvalid = errors.New("invalid payload")

func missing(kind, field string) error {
	return fmt.Errorf("%w: %s: missing field %q", ErrInvalid, kind, field)
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var aux struct {
		X *int `json:"x"`
		Y *int `json:"y"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.X == nil:
		return missing("position", "x")
	case aux.Y == nil:
		return missing("position", "y")
	}
	*p = Position{X: *aux.X, Y: *aux.Y}
	return nil
}

func (s Snake) MarshalJSON() ([]byte, error) {
	type alias Snake
	out := alias(s)
	if out.Body == nil {
		out.Body = []Position{}
	}
	return json.Marshal(out)
}

func (s *Snake) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        *uint                `json:"id"`
		Body      *[]Position          `json:"body"`
		Direction *constants.Direction `json:"direction"`
		Alive     *bool                `json:"alive"`
		Score     *uint32              `json:"score"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.ID == nil:
		return missing("snake", "id")
	case aux.Body == nil:
		return missing("snake", "body")
	case aux.Direction == nil:
		return missing("snake", "direction")
	case aux.Alive == nil:
		return missing("snake", "alive")
	case aux.Score == nil:
		return missing("snake", "score")
	}
	if *aux.Alive && len(*aux.Body) == 0 {
		return fmt.Errorf("%w: snake %d is alive with an empty body", ErrInvalid, *aux.ID)
	}
	*s = Snake{
		ID:        *aux.ID,
		Body:      *aux.Body,
		Direction: *aux.Direction,
		Alive:     *aux.Alive,
		Score:     *aux.Score,
	}
	return nil
}

func (f *Food) UnmarshalJSON(data []byte) error {
	var aux struct {
		Position *Position `json:"position"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Position == nil {
		return missing("food", "position")
	}
	f.Position = *aux.Position
	return nil
}

func (g GameState) MarshalJSON() ([]byte, error) {
	type alias GameState
	out := alias(g)
	if out.Snakes == nil {
		out.Snakes = []Snake{}
	}
	if out.Foods == nil {
		out.Foods = []Food{}
	}
	return json.Marshal(out)
}

func (g *GameState) UnmarshalJSON(data []byte) error {
	var aux struct {
		RoomID      *string  `json:"room_id"`
		Snakes      *[]Snake `json:"snakes"`
		Foods       *[]Food  `json:"foods"`
		GameStarted *bool    `json:"game_started"`
		GameOver    *bool    `json:"game_over"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.RoomID == nil:
		return missing("game state", "room_id")
	case aux.Snakes == nil:
		return missing("game state", "snakes")
	case aux.Foods == nil:
		return missing("game state", "foods")
	case aux.GameStarted == nil:
		return missing("game state", "game_started")
	case aux.GameOver == nil:
		return missing("game state", "game_over")
	}
	*g = GameState{
		RoomID:      *aux.RoomID,
		Snakes:      *aux.Snakes,
		Foods:       *aux.Foods,
		GameStarted: *aux.GameStarted,
		GameOver:    *aux.GameOver,
	}
	return nil
}

// Rankings travel as two-element arrays: [snake_id, score].
func (r Ranking) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint64{uint64(r.SnakeID), uint64(r.Score)})
}

func (r *Ranking) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: ranking: want 2 elements, got %d", ErrInvalid, len(pair))
	}
	for _, elem := range pair {
		if string(elem) == "null" {
			return fmt.Errorf("%w: ranking: null element", ErrInvalid)
		}
	}
	var out Ranking
	if err := json.Unmarshal(pair[0], &out.SnakeID); err != nil {
		return fmt.Errorf("ranking snake id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &out.Score); err != nil {
		return fmt.Errorf("ranking score: %w", err)
	}
	*r = out
	return nil
}
