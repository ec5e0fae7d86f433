// Package protocol defines the wire contract between the client and the game
// server: the JSON envelope carried by every websocket frame, the closed set
// of inbound events and the outbound requests with their acknowledgements.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the frame format in both directions. Requests that expect an
// acknowledgement carry an ID; the server answers with an envelope whose Ack
// field repeats that ID.
type Envelope struct {
	Event string          `json:"event,omitempty"`
	ID    string          `json:"id,omitempty"`
	Ack   string          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EventConnect                 = "connect"
	EventRoomUpdate              = "roomUpdate"
	EventNewRound                = "newRound"
	EventGuessResult             = "guessResult"
	EventOpponentFinishedTurn    = "opponentFinishedTurn"
	EventRoundEnd                = "roundEnd"
	EventGameOver                = "gameOver"
	EventPlayerLeft              = "playerLeft"
	EventServerError             = "serverError"
	EventError                   = "error"
	EventSinglePlayerRoundStart  = "singlePlayerRoundStart"
	EventSinglePlayerGuessResult = "singlePlayerGuessResult"
)

// Outbound event names.
const (
	EmitJoinRoom                     = "joinRoom"
	EmitCreateRoom                   = "createRoom"
	EmitStartGame                    = "startGame"
	EmitPlayAgain                    = "playAgain"
	EmitSubmitGuess                  = "submitGuess"
	EmitSubmitSinglePlayerGuess      = "submitSinglePlayerGuess"
	EmitLeaveRoom                    = "leaveRoom"
	EmitCreateSinglePlayerGame       = "createSinglePlayerGame"
	EmitRequestNextSinglePlayerRound = "requestNextSinglePlayerRound"
)

// NewEnvelope marshals data into an envelope for event.
func NewEnvelope(event, id string, data any) (Envelope, error) {
	env := Envelope{Event: event, ID: id}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		env.Data = raw
	}
	return env, nil
}

// NewAck builds the acknowledgement envelope for request id.
func NewAck(id string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal ack: %w", err)
	}
	return Envelope{Ack: id, Data: raw}, nil
}
