// Package reconciler turns the server's event stream into Store transitions
// and user intents into server requests. It owns the resume handshake that
// reattaches a restarted client to its previous game.
package reconciler

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/fakeyudi/duelword/internal/protocol"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/transport"
	"github.com/fakeyudi/duelword/internal/wordle"
)

// Options tunes a Reconciler. Zero fields take defaults.
type Options struct {
	Clock     clockwork.Clock
	Notifier  Notifier
	Snapshots session.SnapshotStore
	// ResumeDelay is the pause between rebuilding a single-player session
	// and asking the server for its next round.
	ResumeDelay time.Duration
}

// Reconciler serializes every event and ack result through Run's loop.
type Reconciler struct {
	store  *session.Store
	ch     transport.Channel
	snaps  session.SnapshotStore
	clock  clockwork.Clock
	notify Notifier

	resumeDelay time.Duration
	posted      chan func()
	submitting  chan struct{}

	// Loop-owned.
	attempt      uint64
	connectedYet bool
	afterConnect func(resumed bool)
}

// New wires store and ch together.
func New(store *session.Store, ch transport.Channel, opts Options) *Reconciler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Notifier == nil {
		opts.Notifier = discard{}
	}
	if opts.ResumeDelay <= 0 {
		opts.ResumeDelay = 500 * time.Millisecond
	}
	return &Reconciler{
		store:       store,
		ch:          ch,
		snaps:       opts.Snapshots,
		clock:       opts.Clock,
		notify:      opts.Notifier,
		resumeDelay: opts.ResumeDelay,
		posted:      make(chan func(), 32),
		submitting:  make(chan struct{}, 1),
	}
}

// Store returns the session store this Reconciler drives.
func (r *Reconciler) Store() *session.Store { return r.store }

// AfterConnect registers fn to run once, on the loop, after the first
// connection has been handled. resumed reports whether a resume was started.
// Must be called before Run.
func (r *Reconciler) AfterConnect(fn func(resumed bool)) {
	r.afterConnect = fn
}

// Run dispatches transport events and posted ack results until ctx is done
// or the transport closes its event stream.
func (r *Reconciler) Run(ctx context.Context) error {
	events := r.ch.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.handle(ctx, ev)
		case fn := <-r.posted:
			fn()
		}
	}
}

// post hands fn to the loop.
func (r *Reconciler) post(ctx context.Context, fn func()) {
	select {
	case r.posted <- fn:
	case <-ctx.Done():
	}
}

// request sends an acknowledged event off the loop and runs then on the loop
// with the outcome.
func (r *Reconciler) request(ctx context.Context, event string, data, reply any, then func(err error)) {
	go func() {
		err := r.ch.Request(ctx, event, data, reply)
		r.post(ctx, func() { then(err) })
	}()
}

func (r *Reconciler) handle(ctx context.Context, ev protocol.Event) {
	log.Debug().Str("event", ev.EventName()).Msg("dispatch")

	switch e := ev.(type) {
	case protocol.Connected:
		r.onConnected(ctx, e)

	case protocol.Disconnected:
		r.store.SetConnection(false, e.Reason)
		if e.Terminal {
			r.notify.Notify(Notification{Key: NoteGaveUp, Level: LevelError, Message: e.Reason})
		} else {
			r.notify.Notify(Notification{Key: NoteConnectionLost, Level: LevelWarning})
		}

	case protocol.ConnectError:
		r.store.SetConnection(false, e.Message)
		r.notify.Notify(Notification{Key: NoteReconnecting, Level: LevelWarning, Args: map[string]string{"attempt": strconv.Itoa(e.Attempt)}})

	case protocol.RoomUpdate:
		r.store.ReplaceRoster(toPlayers(e.Players))

	case protocol.NewRound:
		applied := r.store.StartRound(session.RoundStart{
			Round:        e.Round,
			WordLength:   e.WordLength,
			RoundEndTime: e.RoundEndTime,
			Players:      toPlayers(e.Players),
			Language:     toLanguage(e.Language),
		})
		if applied {
			r.notify.Notify(Notification{Key: NoteRoundStarted, Level: LevelInfo, Args: map[string]string{"round": strconv.Itoa(e.Round)}})
		}

	case protocol.SinglePlayerRoundStart:
		s := r.store.Snapshot()
		r.store.StartRound(session.RoundStart{
			Round:        e.Round,
			WordLength:   e.WordLength,
			RoundEndTime: e.RoundEndTime,
			Players:      toPlayers(e.Players),
			Language:     toLanguage(e.Language),
			RoomCode:     s.MyID,
			SinglePlayer: true,
			NewGame:      e.IsNewGame,
		})

	case protocol.GuessResult:
		r.recordGuess(e)

	case protocol.SinglePlayerGuessResult:
		if !r.recordGuess(e.GuessResult) || !e.RoundOver {
			return
		}
		s := r.store.Snapshot()
		outcome := session.RoundOutcome{
			CorrectWord:     e.CorrectWord,
			ShowCorrectWord: true,
			AwardWinner:     e.IsCorrect,
		}
		if e.IsCorrect {
			outcome.WinnerID = s.MyID
			outcome.CorrectWord = e.Guess
		}
		if e.GameOver {
			var winner *session.Player
			if e.GameWinner != nil {
				w := toPlayer(*e.GameWinner)
				winner = &w
			}
			r.store.EndGame(winner, nil, &outcome)
			return
		}
		r.store.EndRound(outcome)

	case protocol.OpponentFinishedTurn:
		s := r.store.Snapshot()
		if e.PlayerID != "" && e.PlayerID == s.MyID {
			return
		}
		key := NoteOpponentOutOfGuesses
		if e.Reason == protocol.ReasonCorrect {
			key = NoteOpponentCorrect
		}
		r.notify.Notify(Notification{Key: key, Level: LevelInfo, Args: map[string]string{"name": e.PlayerName}})
		if e.CorrectWord != "" {
			r.store.StashCorrectWord(e.CorrectWord)
		}

	case protocol.RoundEnd:
		r.store.EndRound(session.RoundOutcome{
			WinnerID:        e.WinnerID,
			CorrectWord:     e.CorrectWord,
			TimedOut:        e.TimedOut,
			ShowCorrectWord: true,
			Players:         toPlayers(e.Players),
		})

	case protocol.GameOver:
		r.onGameOver(e)

	case protocol.PlayerLeft:
		r.onPlayerLeft(e)

	case protocol.ServerError:
		r.notify.Notify(Notification{Key: NoteServerError, Level: LevelError, Message: e.Message})

	default:
		log.Debug().Str("event", ev.EventName()).Msg("unhandled event")
	}
}

// recordGuess applies a verdict for the local player. The row comes from the
// server's guess count, never from the local grid.
func (r *Reconciler) recordGuess(e protocol.GuessResult) bool {
	row := e.GuessCount - 1
	if row < 0 || row >= wordle.MaxGuesses {
		log.Debug().Int("guess_count", e.GuessCount).Msg("guess result outside the grid")
		return false
	}
	n := utf8.RuneCountInString(e.Guess)
	applied := r.store.RecordGuessResult(session.GuessResult{
		Row:       row,
		Guess:     e.Guess,
		Feedback:  e.Feedback,
		IsCorrect: e.IsCorrect,
		Reveal:    RevealDuration(n),
	})
	if !applied {
		return false
	}
	if !e.IsCorrect && e.GuessCount >= wordle.MaxGuesses {
		r.notify.Notify(Notification{Key: NoteNoMoreGuesses, Level: LevelWarning})
		if e.CorrectWord != "" {
			r.store.StashCorrectWord(e.CorrectWord)
			r.notify.Notify(Notification{Key: NoteCorrectWordWas, Level: LevelInfo, Args: map[string]string{"word": e.CorrectWord}})
		}
	}
	return true
}

// RevealDuration is how long a row of n letters stays in its reveal window.
func RevealDuration(n int) time.Duration {
	return time.Duration(n*100+500) * time.Millisecond
}

func (r *Reconciler) onGameOver(e protocol.GameOver) {
	s := r.store.Snapshot()
	players := toPlayers(e.Players)
	winner := gameOverWinner(s, players, e)

	var outcome *session.RoundOutcome
	if e.CorrectWord != "" {
		o := session.RoundOutcome{CorrectWord: e.CorrectWord, ShowCorrectWord: true}
		if winner != nil {
			o.WinnerID = winner.ID
		}
		outcome = &o
	}
	if !r.store.EndGame(winner, players, outcome) {
		return
	}
	if e.WinByDisconnect && winner != nil && winner.ID == s.MyID {
		r.notify.Notify(Notification{Key: NoteOpponentLeftYouWin, Level: LevelSuccess, Message: e.Message})
	}
}

// gameOverWinner resolves the winner of a finished game. When the server
// reports a win by disconnect with a winner id nobody knows, the local
// player wins if they are the only participant left.
func gameOverWinner(s session.Session, players []session.Player, e protocol.GameOver) *session.Player {
	if e.Winner != nil {
		w := toPlayer(*e.Winner)
		if !e.WinByDisconnect {
			return &w
		}
		if known, ok := findPlayer(w.ID, players, s.Players); ok {
			return &known
		}
	}
	if !e.WinByDisconnect {
		return nil
	}

	remaining := e.RemainingPlayerID == s.MyID && s.MyID != ""
	if !remaining && s.MyID != "" {
		roster := players
		if roster == nil {
			roster = s.Players
		}
		remaining = len(roster) == 1 && roster[0].ID == s.MyID
	}
	if remaining {
		me := localPlayer(s, players)
		return &me
	}
	if e.Winner != nil {
		w := toPlayer(*e.Winner)
		return &w
	}
	return nil
}

func localPlayer(s session.Session, rosters ...[]session.Player) session.Player {
	all := append(rosters, s.Players)
	if p, ok := findPlayer(s.MyID, all...); ok {
		return p
	}
	return session.Player{ID: s.MyID, Name: s.PlayerName}
}

// onPlayerLeft infers a win for the local player when the opponent leaves a
// running game, by id or by name. The name still matches after a reconnect
// has changed the socket id.
func (r *Reconciler) onPlayerLeft(e protocol.PlayerLeft) {
	s := r.store.Snapshot()
	args := map[string]string{"name": e.DisconnectedPlayerName}

	won := (e.RemainingPlayerID != "" && e.RemainingPlayerID == s.MyID) ||
		(e.WinnerName != "" && e.WinnerName == s.PlayerName)
	inGame := s.GameState == session.Game || s.GameState == session.RoundResult
	if won && inGame {
		me := localPlayer(s)
		if r.store.EndGame(&me, nil, nil) {
			r.notify.Notify(Notification{Key: NoteOpponentLeftYouWin, Level: LevelSuccess, Args: args, Message: e.Message})
			return
		}
	}
	r.notify.Notify(Notification{Key: NotePlayerLeft, Level: LevelInfo, Args: args})
}

func (r *Reconciler) onConnected(ctx context.Context, e protocol.Connected) {
	r.store.SetMyID(e.ID)
	r.store.SetConnection(true, "")
	resumed := r.tryResume(ctx, e.ID)

	if !r.connectedYet {
		r.connectedYet = true
		if fn := r.afterConnect; fn != nil {
			r.afterConnect = nil
			fn(resumed)
		}
	}
}

// tryResume starts the resume handshake when the process has no live
// session. It reports whether an attempt was started.
func (r *Reconciler) tryResume(ctx context.Context, myID string) bool {
	if s := r.store.Snapshot(); s.GameState != session.Home {
		log.Debug().Stringer("state", s.GameState).Msg("live session, not resuming")
		return false
	}
	if r.snaps == nil {
		return false
	}
	hint, err := r.snaps.Load()
	if err != nil {
		if !errors.Is(err, session.ErrNoSnapshot) {
			log.Warn().Err(err).Msg("loading resume snapshot")
		}
		return false
	}

	r.attempt++
	attempt := r.attempt

	if hint.SinglePlayerMode {
		if hint.Score >= wordle.WinScore {
			log.Info().Int("score", hint.Score).Msg("discarding finished single-player snapshot")
			if err := r.snaps.Delete(); err != nil {
				log.Warn().Err(err).Msg("deleting resume snapshot")
			}
			return false
		}
		if !r.store.ResumeSinglePlayer(myID, *hint) {
			return false
		}
		r.clock.AfterFunc(r.resumeDelay, func() {
			r.post(ctx, func() { r.requestResumedRound(ctx, attempt, myID) })
		})
		return true
	}

	if hint.PlayerName != "" {
		r.store.SetPlayerName(hint.PlayerName)
	}
	if !r.store.BeginResume(hint.RoomCode) {
		return false
	}
	log.Info().Str("room", hint.RoomCode).Msg("rejoining room")
	var ack protocol.JoinRoomAck
	r.request(ctx, protocol.EmitJoinRoom, protocol.JoinRoomRequest{
		RoomCode:   hint.RoomCode,
		PlayerName: hint.PlayerName,
	}, &ack, func(err error) {
		r.finishRejoin(attempt, hint.RoomCode, myID, &ack, err)
	})
	return true
}

func (r *Reconciler) requestResumedRound(ctx context.Context, attempt uint64, myID string) {
	if attempt != r.attempt {
		return
	}
	s := r.store.Snapshot()
	if s.GameState != session.Game || !s.SinglePlayer || s.RoomCode != myID {
		log.Debug().Msg("single-player resume abandoned")
		return
	}
	var ack protocol.Ack
	r.request(ctx, protocol.EmitRequestNextSinglePlayerRound, protocol.RoomRequest{RoomCode: myID}, &ack, func(err error) {
		if attempt != r.attempt {
			return
		}
		if err == nil && ack.Success {
			return
		}
		if cur := r.store.Snapshot(); !cur.SinglePlayer || cur.RoomCode != myID {
			return
		}
		r.failResume(err, ack.Message)
	})
}

func (r *Reconciler) finishRejoin(attempt uint64, roomCode, myID string, ack *protocol.JoinRoomAck, err error) {
	if attempt != r.attempt {
		log.Debug().Uint64("attempt", attempt).Msg("superseded rejoin ack")
		return
	}
	if r.store.PendingResume() != roomCode {
		log.Debug().Str("room", roomCode).Msg("rejoin ack for abandoned resume")
		return
	}
	if err != nil || !ack.Success {
		r.failResume(err, ack.Message)
		return
	}

	code := ack.RoomCode
	if code == "" {
		code = roomCode
	}
	rj := session.Rejoin{
		RoomCode:   code,
		Players:    toPlayers(ack.Players),
		WordLength: ack.WordLength,
	}
	if gs := ack.GameState; gs != nil {
		switch {
		case gs.IsRoundActive:
			rj.Active = true
			rj.Round = gs.Round
			if gs.CurrentWord != nil {
				rj.WordLength = gs.CurrentWord.Length
			}
			rj.RoundEndTime = gs.RoundEndTime
			rj.InputActive = !slices.Contains(gs.PlayersFinished, myID)
		case gs.GameOver:
			rj.GameOver = true
			rj.Round = gs.Round
			if gs.Winner != nil {
				w := toPlayer(*gs.Winner)
				rj.Winner = &w
			}
		}
	}
	if r.store.ApplyRejoin(rj) {
		r.notify.Notify(Notification{Key: NoteRoomRejoined, Level: LevelSuccess, Args: map[string]string{"room": code}})
	}
}

// failResume drops the resume hint and falls back to Home.
func (r *Reconciler) failResume(err error, message string) {
	ev := log.Warn()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Str("message", message).Msg("resume failed")

	if r.snaps != nil {
		if err := r.snaps.Delete(); err != nil {
			log.Warn().Err(err).Msg("deleting resume snapshot")
		}
	}
	r.store.Reset(true)
	r.notify.Notify(Notification{Key: NoteResumeFailed, Level: LevelWarning, Message: message})
}
