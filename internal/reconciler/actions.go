package reconciler

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fakeyudi/duelword/internal/protocol"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/transport"
	"github.com/fakeyudi/duelword/internal/wordle"
)

var (
	ErrInputInactive   = errors.New("input is not active")
	ErrWrongLength     = errors.New("guess does not fill the row")
	ErrInvalidRoomCode = errors.New("room code must be 5 letters or digits")
	ErrSubmitPending   = errors.New("previous guess is still with the server")
	ErrNotAllowed      = errors.New("not available right now")
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{5}$`)

// NormalizeRoomCode upper-cases and validates a user-entered room code.
func NormalizeRoomCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !roomCodePattern.MatchString(c) {
		return "", ErrInvalidRoomCode
	}
	return c, nil
}

// Type adds a letter to the current guess.
func (r *Reconciler) Type(ch rune) bool { return r.store.AppendLetter(ch) }

// Erase removes the last letter of the current guess.
func (r *Reconciler) Erase() bool { return r.store.Backspace() }

// Submit sends the current guess. The guess stays in the input until the
// server's verdict arrives; failures are reported through the Notifier.
func (r *Reconciler) Submit(ctx context.Context) error {
	s := r.store.Snapshot()
	if s.GameState != session.Game || !s.InputActive {
		return ErrInputInactive
	}
	if utf8.RuneCountInString(s.CurrentGuess) != s.WordLength {
		return ErrWrongLength
	}
	if !r.ch.Connected() {
		return transport.ErrNotConnected
	}
	select {
	case r.submitting <- struct{}{}:
	default:
		return ErrSubmitPending
	}

	event := protocol.EmitSubmitGuess
	if s.SinglePlayer {
		event = protocol.EmitSubmitSinglePlayerGuess
	}
	var ack protocol.Ack
	r.request(ctx, event, protocol.SubmitGuessRequest{RoomCode: s.RoomCode, Guess: s.CurrentGuess}, &ack, func(err error) {
		<-r.submitting
		if err == nil && ack.Success {
			return
		}
		log.Info().Err(err).Str("message", ack.Message).Msg("guess not accepted")
		r.notify.Notify(Notification{
			Key:       NoteGuessNotSent,
			Level:     LevelError,
			Message:   ack.Message,
			Retryable: err != nil,
		})
	})
	return nil
}

// ChooseMode moves from Home (or a finished game) to the mode screen.
func (r *Reconciler) ChooseMode(single bool) error {
	if !r.store.SelectMode(single) {
		return ErrNotAllowed
	}
	return nil
}

// CreateRoom asks the server for a new multiplayer room.
func (r *Reconciler) CreateRoom(ctx context.Context) error {
	s := r.store.Snapshot()
	if s.GameState != session.GameMode || s.SinglePlayer {
		return ErrNotAllowed
	}
	var ack protocol.CreateRoomAck
	r.request(ctx, protocol.EmitCreateRoom, protocol.CreateRoomRequest{PlayerName: s.PlayerName}, &ack, func(err error) {
		if err != nil || !ack.Success || ack.RoomCode == "" {
			r.requestFailed("Create room", err, ack.Message)
			return
		}
		me := []session.Player{{ID: s.MyID, Name: s.PlayerName}}
		r.store.EnterLobby(ack.RoomCode, me, 0)
	})
	return nil
}

// JoinRoom joins an existing room by code.
func (r *Reconciler) JoinRoom(ctx context.Context, code string) error {
	c, err := NormalizeRoomCode(code)
	if err != nil {
		return err
	}
	s := r.store.Snapshot()
	if s.GameState != session.GameMode || s.SinglePlayer {
		return ErrNotAllowed
	}
	var ack protocol.JoinRoomAck
	r.request(ctx, protocol.EmitJoinRoom, protocol.JoinRoomRequest{RoomCode: c, PlayerName: s.PlayerName}, &ack, func(err error) {
		if err != nil || !ack.Success {
			r.requestFailed("Join room", err, ack.Message)
			return
		}
		room := ack.RoomCode
		if room == "" {
			room = c
		}
		r.store.EnterLobby(room, toPlayers(ack.Players), ack.WordLength)
	})
	return nil
}

// StartGame asks the server to start the lobby's first round.
func (r *Reconciler) StartGame(ctx context.Context) error {
	s := r.store.Snapshot()
	if s.GameState != session.Lobby {
		return ErrNotAllowed
	}
	var ack protocol.Ack
	r.request(ctx, protocol.EmitStartGame, protocol.RoomRequest{RoomCode: s.RoomCode}, &ack, func(err error) {
		if err != nil || !ack.Success {
			r.requestFailed("Start game", err, ack.Message)
		}
	})
	return nil
}

// StartSinglePlayer starts a solo game with words of length n.
func (r *Reconciler) StartSinglePlayer(ctx context.Context, n int) error {
	if !wordle.ValidWordLength(n) {
		return ErrWrongLength
	}
	s := r.store.Snapshot()
	if s.GameState == session.GameOver || s.GameState == session.Home {
		if !r.store.SelectMode(true) {
			return ErrNotAllowed
		}
	} else if s.GameState != session.GameMode || !s.SinglePlayer {
		return ErrNotAllowed
	}
	var ack protocol.Ack
	r.request(ctx, protocol.EmitCreateSinglePlayerGame, protocol.CreateSinglePlayerGameRequest{WordLength: n}, &ack, func(err error) {
		if err != nil || !ack.Success {
			r.requestFailed("Start game", err, ack.Message)
		}
	})
	return nil
}

// NextSinglePlayerRound asks for the next solo round after a round result.
func (r *Reconciler) NextSinglePlayerRound(ctx context.Context) error {
	s := r.store.Snapshot()
	if s.GameState != session.RoundResult || !s.SinglePlayer {
		return ErrNotAllowed
	}
	var ack protocol.Ack
	r.request(ctx, protocol.EmitRequestNextSinglePlayerRound, protocol.RoomRequest{RoomCode: s.MyID}, &ack, func(err error) {
		if err != nil || !ack.Success {
			r.requestFailed("Next round", err, ack.Message)
		}
	})
	return nil
}

// PlayAgain replays after a finished game: a fresh solo game of the same
// word length, or back to the lobby of the same room.
func (r *Reconciler) PlayAgain(ctx context.Context) error {
	s := r.store.Snapshot()
	if s.GameState != session.GameOver {
		return ErrNotAllowed
	}
	if s.SinglePlayer {
		return r.StartSinglePlayer(ctx, s.WordLength)
	}
	if err := r.ch.Emit(protocol.EmitPlayAgain, protocol.RoomRequest{RoomCode: s.RoomCode}); err != nil {
		r.requestFailed("Play again", err, "")
		return nil
	}
	r.store.EnterLobby(s.RoomCode, s.Players, 0)
	return nil
}

// LeaveRoom tells the server we are gone and returns to Home.
func (r *Reconciler) LeaveRoom() {
	s := r.store.Snapshot()
	if s.RoomCode != "" && !s.SinglePlayer && r.ch.Connected() {
		if err := r.ch.Emit(protocol.EmitLeaveRoom, protocol.RoomRequest{RoomCode: s.RoomCode}); err != nil {
			log.Warn().Err(err).Str("room", s.RoomCode).Msg("leave room")
		}
	}
	r.store.Reset(true)
}

func (r *Reconciler) requestFailed(action string, err error, message string) {
	log.Warn().Err(err).Str("action", action).Str("message", message).Msg("request failed")
	r.notify.Notify(Notification{
		Key:       NoteRequestFailed,
		Level:     LevelError,
		Args:      map[string]string{"action": action},
		Message:   message,
		Retryable: err != nil,
	})
}
