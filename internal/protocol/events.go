package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/fakeyudi/duelword/internal/wordle"
)

// ErrUnknownEvent is returned by Decode for event names outside the catalog.
var ErrUnknownEvent = errors.New("unknown event")

// Event is one inbound server event, or a connection change reported by the
// transport. The set of implementations is closed.
type Event interface {
	EventName() string
	isEvent()
}

// Player is a roster entry as sent by the server.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Connected is emitted once per successful (re)connection with the id the
// server assigned to this connection.
type Connected struct {
	ID string `json:"id"`
}

// Disconnected reports a lost connection. Terminal is set when the transport
// has given up reconnecting.
type Disconnected struct {
	Reason   string
	Terminal bool
}

// ConnectError reports a failed connection attempt that will be retried.
type ConnectError struct {
	Message string
	Attempt int
}

type RoomUpdate struct {
	Players []Player `json:"players"`
}

type NewRound struct {
	Round        int      `json:"round"`
	WordLength   int      `json:"wordLength"`
	RoundEndTime *int64   `json:"roundEndTime"`
	Players      []Player `json:"players"`
	Language     string   `json:"language,omitempty"`
}

type GuessResult struct {
	Guess       string          `json:"guess"`
	Feedback    []wordle.Status `json:"feedback"`
	IsCorrect   bool            `json:"isCorrect"`
	GuessCount  int             `json:"guessCount"`
	CorrectWord string          `json:"correctWord,omitempty"`
}

type OpponentFinishedTurn struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	Reason      string `json:"reason"`
	CorrectWord string `json:"correctWord,omitempty"`
}

// Reasons carried by OpponentFinishedTurn.
const (
	ReasonCorrect       = "correct"
	ReasonNoMoreGuesses = "no_more_guesses"
)

type RoundEnd struct {
	WinnerID    string   `json:"winnerId,omitempty"`
	CorrectWord string   `json:"correctWord,omitempty"`
	Players     []Player `json:"players"`
	TimedOut    bool     `json:"timedOut"`
}

type GameOver struct {
	Winner            *Player  `json:"winner"`
	Players           []Player `json:"players"`
	CorrectWord       string   `json:"correctWord,omitempty"`
	Message           string   `json:"message,omitempty"`
	WinByDisconnect   bool     `json:"winByDisconnect,omitempty"`
	RemainingPlayerID string   `json:"remainingPlayerId,omitempty"`
}

type PlayerLeft struct {
	DisconnectedPlayerName string `json:"disconnectedPlayerName"`
	WinnerName             string `json:"winnerName,omitempty"`
	Message                string `json:"message,omitempty"`
	RemainingPlayerID      string `json:"remainingPlayerId,omitempty"`
}

// ServerError covers both the serverError and error events.
type ServerError struct {
	Message string `json:"message"`
}

type SinglePlayerRoundStart struct {
	Round        int      `json:"round"`
	WordLength   int      `json:"wordLength"`
	RoundEndTime *int64   `json:"roundEndTime"`
	Players      []Player `json:"players"`
	IsNewGame    bool     `json:"isNewGame,omitempty"`
	Language     string   `json:"language,omitempty"`
}

type SinglePlayerGuessResult struct {
	GuessResult
	RoundOver  bool    `json:"roundOver"`
	GameOver   bool    `json:"gameOver,omitempty"`
	GameWinner *Player `json:"gameWinner,omitempty"`
}

func (Connected) EventName() string               { return EventConnect }
func (Disconnected) EventName() string            { return "disconnect" }
func (ConnectError) EventName() string            { return "connect_error" }
func (RoomUpdate) EventName() string              { return EventRoomUpdate }
func (NewRound) EventName() string                { return EventNewRound }
func (GuessResult) EventName() string             { return EventGuessResult }
func (OpponentFinishedTurn) EventName() string    { return EventOpponentFinishedTurn }
func (RoundEnd) EventName() string                { return EventRoundEnd }
func (GameOver) EventName() string                { return EventGameOver }
func (PlayerLeft) EventName() string              { return EventPlayerLeft }
func (ServerError) EventName() string             { return EventServerError }
func (SinglePlayerRoundStart) EventName() string  { return EventSinglePlayerRoundStart }
func (SinglePlayerGuessResult) EventName() string { return EventSinglePlayerGuessResult }

func (Connected) isEvent()               {}
func (Disconnected) isEvent()            {}
func (ConnectError) isEvent()            {}
func (RoomUpdate) isEvent()              {}
func (NewRound) isEvent()                {}
func (GuessResult) isEvent()             {}
func (OpponentFinishedTurn) isEvent()    {}
func (RoundEnd) isEvent()                {}
func (GameOver) isEvent()                {}
func (PlayerLeft) isEvent()              {}
func (ServerError) isEvent()             {}
func (SinglePlayerRoundStart) isEvent()  {}
func (SinglePlayerGuessResult) isEvent() {}

// Decode parses and validates the payload of an inbound envelope. Payloads
// that fail validation are rejected here so the reconciler only ever sees
// well-formed events.
func Decode(env Envelope) (Event, error) {
	switch env.Event {
	case EventConnect:
		var e Connected
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		if e.ID == "" {
			return nil, fmt.Errorf("%s: missing id", env.Event)
		}
		return e, nil

	case EventRoomUpdate:
		var e RoomUpdate
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		return e, nil

	case EventNewRound:
		var e NewRound
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		wl, err := checkRound(env.Event, e.Round, e.WordLength)
		if err != nil {
			return nil, err
		}
		e.WordLength = wl
		return e, nil

	case EventGuessResult:
		var e GuessResult
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		if err := checkGuess(env.Event, e); err != nil {
			return nil, err
		}
		return e, nil

	case EventOpponentFinishedTurn:
		var e OpponentFinishedTurn
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		return e, nil

	case EventRoundEnd:
		var e RoundEnd
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		return e, nil

	case EventGameOver:
		var e GameOver
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		return e, nil

	case EventPlayerLeft:
		var e PlayerLeft
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		return e, nil

	case EventServerError, EventError:
		var e ServerError
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		return e, nil

	case EventSinglePlayerRoundStart:
		var e SinglePlayerRoundStart
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		wl, err := checkRound(env.Event, e.Round, e.WordLength)
		if err != nil {
			return nil, err
		}
		e.WordLength = wl
		return e, nil

	case EventSinglePlayerGuessResult:
		var e SinglePlayerGuessResult
		if err := unmarshal(env, &e); err != nil {
			return nil, err
		}
		if err := checkGuess(env.Event, e.GuessResult); err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func unmarshal(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s: empty payload", env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%s: %w", env.Event, err)
	}
	return nil
}

// checkRound validates round metadata and returns the word length to use;
// a missing length means the default.
func checkRound(event string, round, wordLength int) (int, error) {
	if round < 1 {
		return 0, fmt.Errorf("%s: round %d is not positive", event, round)
	}
	if wordLength == 0 {
		return wordle.DefaultWordLength, nil
	}
	if !wordle.ValidWordLength(wordLength) {
		return 0, fmt.Errorf("%s: unsupported word length %d", event, wordLength)
	}
	return wordLength, nil
}

func checkGuess(event string, g GuessResult) error {
	n := utf8.RuneCountInString(g.Guess)
	if n == 0 {
		return fmt.Errorf("%s: empty guess", event)
	}
	if len(g.Feedback) != n {
		return fmt.Errorf("%s: %d feedback entries for a %d letter guess", event, len(g.Feedback), n)
	}
	for i, s := range g.Feedback {
		if !s.IsFeedback() {
			return fmt.Errorf("%s: feedback[%d] is %v", event, i, s)
		}
	}
	return nil
}
