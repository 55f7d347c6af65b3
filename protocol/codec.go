package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"snake-client/constants"
	"snake-client/models"
)

var (
	ErrEncode      = errors.New("protocol: cannot encode message")
	ErrMalformed   = errors.New("protocol: malformed message")
	ErrUnknownType = errors.New("protocol: unknown message type")
)

// Encode serializes m into its tagged wire form.
func Encode(m Message) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	switch v := m.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil message", ErrEncode)
	case PlayerInput:
		// A unit variant nested under the tag is written as {"<Variant>":null}.
		name, merr := v.Direction.MarshalText()
		if merr != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, merr)
		}
		key, _ := json.Marshal(string(name))
		body = append(append([]byte{'{'}, key...), []byte(":null}")...)
	case Ready:
		body = []byte("{}")
	case GameState:
		body, err = json.Marshal(v.State)
	case MatchingStatus:
		body, err = json.Marshal(v)
	case GameOver:
		if v.Rankings == nil {
			v.Rankings = []models.Ranking{}
		}
		body, err = json.Marshal(v)
	default:
		return nil, fmt.Errorf("%w: unsupported message %T", ErrEncode, m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return withTag(m.Tag(), body), nil
}

// withTag prepends "type" to a marshalled JSON object.
func withTag(tag string, object []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	t, _ := json.Marshal(tag)
	buf.Write(t)
	if len(object) > 2 {
		buf.WriteByte(',')
	}
	buf.Write(object[1:])
	return buf.Bytes()
}

// Decode parses one wire record. Errors wrap ErrMalformed or ErrUnknownType.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rawTag, ok := fields["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	var tag *string
	if err := json.Unmarshal(rawTag, &tag); err != nil || tag == nil {
		return nil, fmt.Errorf("%w: type must be a string", ErrMalformed)
	}
	delete(fields, "type")

	switch *tag {
	case constants.MSG_PLAYER_INPUT:
		return decodePlayerInput(fields)
	case constants.MSG_READY:
		return Ready{}, nil
	case constants.MSG_GAME_STATE:
		var state models.GameState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, *tag, err)
		}
		return GameState{State: state}, nil
	case constants.MSG_MATCHING_STATUS:
		var aux struct {
			Current  *uint `json:"current"`
			Required *uint `json:"required"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, *tag, err)
		}
		if aux.Current == nil || aux.Required == nil {
			return nil, fmt.Errorf("%w: %s: missing current or required", ErrMalformed, *tag)
		}
		return MatchingStatus{Current: *aux.Current, Required: *aux.Required}, nil
	case constants.MSG_GAME_OVER:
		var aux struct {
			Rankings *[]models.Ranking `json:"rankings"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, *tag, err)
		}
		if aux.Rankings == nil {
			return nil, fmt.Errorf("%w: %s: missing rankings", ErrMalformed, *tag)
		}
		return GameOver{Rankings: *aux.Rankings}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, *tag)
	}
}

func decodePlayerInput(fields map[string]json.RawMessage) (Message, error) {
	if len(fields) != 1 {
		return nil, fmt.Errorf("%w: %s: want exactly one direction, got %d keys", ErrMalformed, constants.MSG_PLAYER_INPUT, len(fields))
	}
	for name, value := range fields {
		dir, err := constants.ParseDirection(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, constants.MSG_PLAYER_INPUT, err)
		}
		if string(bytes.TrimSpace(value)) != "null" {
			return nil, fmt.Errorf("%w: %s: direction %s carries a value", ErrMalformed, constants.MSG_PLAYER_INPUT, name)
		}
		return PlayerInput{Direction: dir}, nil
	}
	return nil, nil
}
