package constants

import "time"

const (
	// Map constants
	MAP_SIZE = 35

	// Matching defaults shown before the server reports occupancy
	DEFAULT_CURRENT  = 0
	DEFAULT_REQUIRED = 2

	// Message tags
	MSG_PLAYER_INPUT    = "PlayerInput"
	MSG_READY           = "Ready"
	MSG_GAME_STATE      = "GameState"
	MSG_MATCHING_STATUS = "MatchingStatus"
	MSG_GAME_OVER       = "GameOver"

	// Transport timings
	WRITE_WAIT       = 10 * time.Second
	PONG_WAIT        = 60 * time.Second
	PING_PERIOD      = (PONG_WAIT * 9) / 10
	MAX_MESSAGE_SIZE = 64 * 1024
	SEND_BUFFER      = 256

	DEFAULT_SERVER_URL = "ws://47.100.220.180:3000/ws"
)
