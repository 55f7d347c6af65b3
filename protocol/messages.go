// Package protocol is the tagged message union exchanged with the game server.
//
// Every message is a JSON object whose "type" key names the variant. The
// remaining keys are the variant's payload, flattened into the same object:
//
//	{"type":"PlayerInput","Up":null}
//	{"type":"Ready"}
//	{"type":"GameState","room_id":"...","snakes":[...],"foods":[...],"game_started":true,"game_over":false}
//	{"type":"MatchingStatus","current":1,"required":2}
//	{"type":"GameOver","rankings":[[2,40],[1,15]]}
package protocol

import (
	"snake-client/constants"
	"snake-client/models"
)

// Message is implemented by the five variants below and nothing else.
type Message interface {
	Tag() string
	isMessage()
}

// PlayerInput requests the next heading for the sender's snake. Client to server.
type PlayerInput struct {
	Direction constants.Direction
}

// Ready signals readiness to start or restart. Client to server.
type Ready struct{}

// GameState carries a full world snapshot. Server to client.
type GameState struct {
	State models.GameState
}

// MatchingStatus reports lobby occupancy. Server to client.
type MatchingStatus struct {
	Current  uint `json:"current"`
	Required uint `json:"required"`
}

// GameOver ends the round with the final standings. Server to client.
type GameOver struct {
	Rankings []models.Ranking `json:"rankings"`
}

func (PlayerInput) Tag() string    { return constants.MSG_PLAYER_INPUT }
func (Ready) Tag() string          { return constants.MSG_READY }
func (GameState) Tag() string      { return constants.MSG_GAME_STATE }
func (MatchingStatus) Tag() string { return constants.MSG_MATCHING_STATUS }
func (GameOver) Tag() string       { return constants.MSG_GAME_OVER }

func (PlayerInput) isMessage()    {}
func (Ready) isMessage()          {}
func (GameState) isMessage()      {}
func (MatchingStatus) isMessage() {}
func (GameOver) isMessage()       {}

// Inbound reports whether the server is expected to send this variant.
func Inbound(m Message) bool {
	switch m.(type) {
	case GameState, MatchingStatus, GameOver:
		return true
	}
	return false
}
