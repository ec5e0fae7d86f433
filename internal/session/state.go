package session

import (
	"slices"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/fakeyudi/duelword/internal/wordle"
)

// transitions lists the GameState edges a normal operation may take. Reset
// reaches Home from anywhere; resume operations additionally leave Home for
// Lobby, Game or GameOver while a resume attempt is pending. GameMode -> Game
// is taken by single-player games only; multiplayer goes through Lobby.
var transitions = map[GameState][]GameState{
	Home:        {GameMode},
	GameMode:    {Lobby, Game},
	Lobby:       {Game},
	Game:        {Game, RoundResult, GameOver},
	RoundResult: {Game, GameOver},
	GameOver:    {GameMode, Lobby},
}

// CanTransition reports whether from -> to is a legal edge outside of the
// resume path and Reset.
func CanTransition(from, to GameState) bool {
	return slices.Contains(transitions[from], to)
}

// RoundStart carries a round-start event after conversion to domain types.
type RoundStart struct {
	Round        int
	WordLength   int
	RoundEndTime *int64
	Players      []Player
	Language     wordle.Language
	RoomCode     string
	SinglePlayer bool
	NewGame      bool
}

// GuessResult is a server verdict placed at Row in the guess grid.
type GuessResult struct {
	Row       int
	Guess     string
	Feedback  []wordle.Status
	IsCorrect bool
	Reveal    time.Duration
}

// RoundOutcome ends the current round.
type RoundOutcome struct {
	WinnerID        string
	CorrectWord     string
	TimedOut        bool
	ShowCorrectWord bool
	Players         []Player
	// AwardWinner adds a point to WinnerID's roster entry. Only honoured in
	// single-player mode, where the server sends no roster with the verdict.
	AwardWinner bool
}

// Rejoin is the server's answer to a multiplayer resume.
type Rejoin struct {
	RoomCode     string
	PlayerName   string
	Players      []Player
	Active       bool
	Round        int
	WordLength   int
	RoundEndTime *int64
	InputActive  bool
	GameOver     bool
	Winner       *Player
}

// Store is the single owner of the Session. All mutation goes through its
// methods, each of which is atomic with respect to the others; listeners run
// after the lock is released.
type Store struct {
	mu    sync.Mutex
	s     Session
	clock clockwork.Clock
	snaps SnapshotStore

	epoch         uint64
	reveals       []clockwork.Timer
	pendingResume string
	awaitingRound bool

	persisted *Snapshot
	deleted   bool

	listeners map[int]func()
	nextID    int
}

// NewStore returns a Store in the Home state. snaps may be nil to disable
// persistence; clock may be nil for the real clock.
func NewStore(snaps SnapshotStore, clock clockwork.Clock, lang wordle.Language) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if lang == "" {
		lang = wordle.DefaultLanguage
	}
	st := &Store{
		clock:     clock,
		snaps:     snaps,
		listeners: make(map[int]func()),
	}
	st.s = Session{
		GameState:   Home,
		WordLength:  wordle.DefaultWordLength,
		Language:    lang,
		Keyboard:    wordle.NewKeyboard(lang),
		InputActive: true,
	}
	return st
}

// Snapshot returns a deep copy of the current session.
func (st *Store) Snapshot() Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.Clone()
}

// Epoch is bumped whenever round-scoped state is discarded.
func (st *Store) Epoch() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.epoch
}

// Subscribe registers fn to run after every applied change. The returned
// func removes it.
func (st *Store) Subscribe(fn func()) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = fn
	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.listeners, id)
	}
}

// update runs fn under the lock. When fn reports a change the snapshot is
// reconciled (if persist is set) and listeners are notified.
func (st *Store) update(persist bool, fn func() bool) bool {
	st.mu.Lock()
	changed := fn()
	if changed && persist {
		st.persistLocked()
	}
	var fns []func()
	if changed {
		fns = make([]func(), 0, len(st.listeners))
		for _, l := range st.listeners {
			fns = append(fns, l)
		}
	}
	st.mu.Unlock()

	for _, l := range fns {
		l()
	}
	return changed
}

func (st *Store) persistLocked() {
	if st.snaps == nil {
		return
	}
	switch st.s.GameState {
	case Lobby, Game, RoundResult:
		snap := Snapshot{
			PlayerName:       st.s.PlayerName,
			RoomCode:         st.s.RoomCode,
			SinglePlayerMode: st.s.SinglePlayer,
			Score:            st.s.MyScore(),
			Round:            st.s.Round,
		}
		if st.persisted != nil && *st.persisted == snap {
			return
		}
		if err := st.snaps.Save(&snap); err != nil {
			log.Warn().Err(err).Msg("saving resume snapshot")
			return
		}
		st.persisted = &snap
		st.deleted = false
	case Home, GameOver:
		if st.deleted {
			return
		}
		if err := st.snaps.Delete(); err != nil {
			log.Warn().Err(err).Msg("deleting resume snapshot")
			return
		}
		st.persisted = nil
		st.deleted = true
	}
}

// clearRoundLocked drops everything scoped to the current round and
// invalidates pending reveal timers.
func (st *Store) clearRoundLocked() {
	st.epoch++
	for _, t := range st.reveals {
		t.Stop()
	}
	st.reveals = nil
	st.s.Guesses = nil
	st.s.CurrentGuess = ""
	st.s.Keyboard = wordle.NewKeyboard(st.s.Language)
	st.s.InputActive = true
	st.s.RoundEndTime = nil
	st.s.LastRoundResult = nil
}

func (st *Store) ignore(op string, args ...any) bool {
	ev := log.Debug().Str("op", op).Stringer("state", st.s.GameState)
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			ev = ev.Interface(k, args[i+1])
		}
	}
	ev.Msg("ignored")
	return false
}

// SelectMode moves to the mode screen for a fresh game.
func (st *Store) SelectMode(single bool) bool {
	return st.update(true, func() bool {
		if !CanTransition(st.s.GameState, GameMode) {
			return st.ignore("SelectMode")
		}
		st.clearRoundLocked()
		st.s.GameState = GameMode
		st.s.SinglePlayer = single
		st.s.Round = 0
		st.s.GameWinner = nil
		st.s.WordLength = wordle.DefaultWordLength
		if single {
			st.s.RoomCode = ""
			st.s.Players = nil
		}
		st.pendingResume = ""
		st.awaitingRound = false
		return true
	})
}

// EnterLobby shows the waiting room for roomCode.
func (st *Store) EnterLobby(roomCode string, players []Player, wordLength int) bool {
	return st.update(true, func() bool {
		if !CanTransition(st.s.GameState, Lobby) || st.s.SinglePlayer {
			return st.ignore("EnterLobby", "room", roomCode)
		}
		st.clearRoundLocked()
		st.s.GameState = Lobby
		st.s.RoomCode = roomCode
		if players != nil {
			st.s.Players = slices.Clone(players)
		}
		if wordle.ValidWordLength(wordLength) {
			st.s.WordLength = wordLength
		}
		st.s.Round = 0
		st.s.GameWinner = nil
		st.pendingResume = ""
		return true
	})
}

// StartRound applies a round-start event. A round number that does not
// advance is a duplicate and is ignored, unless the Store is waiting on the
// first round after a resume or the event starts a new game.
func (st *Store) StartRound(rs RoundStart) bool {
	return st.update(true, func() bool {
		if !wordle.ValidWordLength(rs.WordLength) || rs.Round < 1 {
			return st.ignore("StartRound", "round", rs.Round, "length", rs.WordLength)
		}
		switch st.s.GameState {
		case Home:
			if st.pendingResume == "" && !st.awaitingRound {
				return st.ignore("StartRound", "round", rs.Round)
			}
		case GameMode:
			if !rs.SinglePlayer {
				return st.ignore("StartRound", "round", rs.Round, "single", rs.SinglePlayer)
			}
		case Lobby:
		case Game, RoundResult:
			if rs.Round <= st.s.Round && !rs.NewGame && !st.awaitingRound {
				return st.ignore("StartRound", "round", rs.Round, "current", st.s.Round)
			}
		default:
			return st.ignore("StartRound", "round", rs.Round)
		}
		if st.s.GameState != Home && rs.SinglePlayer != st.s.SinglePlayer {
			return st.ignore("StartRound", "single", rs.SinglePlayer)
		}

		if rs.Language != "" {
			st.s.Language = rs.Language
		}
		st.clearRoundLocked()
		st.s.GameState = Game
		st.s.Round = rs.Round
		st.s.WordLength = rs.WordLength
		if rs.RoundEndTime != nil {
			v := *rs.RoundEndTime
			st.s.RoundEndTime = &v
		}
		if rs.Players != nil {
			st.s.Players = slices.Clone(rs.Players)
		}
		if rs.RoomCode != "" {
			st.s.RoomCode = rs.RoomCode
		}
		st.s.SinglePlayer = rs.SinglePlayer
		st.s.GameWinner = nil
		st.pendingResume = ""
		st.awaitingRound = false
		return true
	})
}

// AppendLetter adds r to the current guess.
func (st *Store) AppendLetter(r rune) bool {
	return st.update(false, func() bool {
		if st.s.GameState != Game || !st.s.InputActive || !unicode.IsLetter(r) {
			return false
		}
		if utf8.RuneCountInString(st.s.CurrentGuess) >= st.s.WordLength {
			return false
		}
		up := st.s.Language.Upper(string(r))
		if utf8.RuneCountInString(up) != 1 {
			return false
		}
		st.s.CurrentGuess += up
		return true
	})
}

// Backspace removes the last letter of the current guess.
func (st *Store) Backspace() bool {
	return st.update(false, func() bool {
		if st.s.GameState != Game || !st.s.InputActive || st.s.CurrentGuess == "" {
			return false
		}
		_, size := utf8.DecodeLastRuneInString(st.s.CurrentGuess)
		st.s.CurrentGuess = st.s.CurrentGuess[:len(st.s.CurrentGuess)-size]
		return true
	})
}

// RecordGuessResult places a verdict in the guess grid. Rows are written
// once: a repeat of an existing row is a no-op and a conflicting one is
// dropped, as is any result that would leave a gap.
func (st *Store) RecordGuessResult(gr GuessResult) bool {
	return st.update(true, func() bool {
		if st.s.GameState != Game && st.s.GameState != RoundResult {
			return st.ignore("RecordGuessResult", "row", gr.Row)
		}
		if gr.Row < 0 || gr.Row >= wordle.MaxGuesses {
			return st.ignore("RecordGuessResult", "row", gr.Row)
		}
		guess := st.s.Language.Upper(gr.Guess)
		if utf8.RuneCountInString(guess) != st.s.WordLength || len(gr.Feedback) != st.s.WordLength {
			return st.ignore("RecordGuessResult", "guess", guess)
		}

		if gr.Row < len(st.s.Guesses) {
			prev := st.s.Guesses[gr.Row]
			if prev.Guess != guess || !slices.Equal(prev.Feedback, gr.Feedback) {
				log.Warn().Int("row", gr.Row).Str("have", prev.Guess).Str("got", guess).
					Msg("conflicting guess result for settled row")
			}
			return false
		}
		if gr.Row > len(st.s.Guesses) {
			return st.ignore("RecordGuessResult", "row", gr.Row, "rows", len(st.s.Guesses))
		}

		feedback := slices.Clone(gr.Feedback)
		st.s.Guesses = append(st.s.Guesses, GuessRow{Guess: guess, Feedback: feedback, Revealing: true})
		st.s.CurrentGuess = ""
		st.s.Keyboard = st.s.Keyboard.Fold(guess, feedback)

		row, correct, epoch := gr.Row, gr.IsCorrect, st.epoch
		if gr.Reveal <= 0 {
			st.finishRevealLocked(epoch, row, correct)
			return true
		}
		t := st.clock.AfterFunc(gr.Reveal, func() {
			st.update(false, func() bool {
				return st.finishRevealLocked(epoch, row, correct)
			})
		})
		st.reveals = append(st.reveals, t)
		return true
	})
}

func (st *Store) finishRevealLocked(epoch uint64, row int, correct bool) bool {
	if epoch != st.epoch || row >= len(st.s.Guesses) {
		return false
	}
	st.s.Guesses[row].Revealing = false
	if correct || row+1 >= wordle.MaxGuesses {
		st.s.InputActive = false
	}
	return true
}

// EndRound moves from Game to RoundResult.
func (st *Store) EndRound(o RoundOutcome) bool {
	return st.update(true, func() bool {
		if !CanTransition(st.s.GameState, RoundResult) {
			return st.ignore("EndRound", "winner", o.WinnerID)
		}
		if o.Players != nil {
			st.s.Players = slices.Clone(o.Players)
		}
		if o.AwardWinner && st.s.SinglePlayer {
			st.awardLocked(o.WinnerID)
		}
		st.setOutcomeLocked(o)
		st.s.InputActive = false
		st.s.GameState = RoundResult
		return true
	})
}

func (st *Store) setOutcomeLocked(o RoundOutcome) {
	r := &RoundOutcomeInfo{
		WinnerID:        o.WinnerID,
		CorrectWord:     st.s.Language.Upper(o.CorrectWord),
		TimedOut:        o.TimedOut,
		ShowCorrectWord: o.ShowCorrectWord,
	}
	if r.CorrectWord == "" && st.s.LastRoundResult != nil {
		r.CorrectWord = st.s.LastRoundResult.CorrectWord
	}
	st.s.LastRoundResult = r
}

func (st *Store) awardLocked(id string) {
	for i := range st.s.Players {
		if st.s.Players[i].ID == id {
			st.s.Players[i].Score++
			return
		}
	}
}

// EndGame moves to GameOver. A nil winner means nobody won. outcome, when
// non-nil, records the final round's verdict alongside.
func (st *Store) EndGame(winner *Player, players []Player, outcome *RoundOutcome) bool {
	return st.update(true, func() bool {
		if !CanTransition(st.s.GameState, GameOver) {
			return st.ignore("EndGame")
		}
		if players != nil {
			st.s.Players = slices.Clone(players)
		}
		if outcome != nil {
			if outcome.AwardWinner && st.s.SinglePlayer {
				st.awardLocked(outcome.WinnerID)
			}
			st.setOutcomeLocked(*outcome)
		}
		if winner != nil {
			w := *winner
			st.s.GameWinner = &w
		} else {
			st.s.GameWinner = nil
		}
		st.s.InputActive = false
		st.s.GameState = GameOver
		st.awaitingRound = false
		return true
	})
}

// Reset discards round-scoped state. A full reset also leaves the room and
// returns to Home; the player's identity and connection are kept.
func (st *Store) Reset(full bool) {
	st.update(true, func() bool {
		st.clearRoundLocked()
		if full {
			st.s.GameState = Home
			st.s.RoomCode = ""
			st.s.Players = nil
			st.s.Round = 0
			st.s.WordLength = wordle.DefaultWordLength
			st.s.GameWinner = nil
			st.s.SinglePlayer = false
			st.pendingResume = ""
			st.awaitingRound = false
		}
		return true
	})
}

// ReplaceRoster installs the server's roster verbatim.
func (st *Store) ReplaceRoster(players []Player) bool {
	return st.update(true, func() bool {
		if st.s.GameState == Home || st.s.GameState == GameMode {
			return st.ignore("ReplaceRoster")
		}
		st.s.Players = slices.Clone(players)
		return true
	})
}

// StashCorrectWord remembers the answer revealed after the last guess so the
// round-result screen can show it.
func (st *Store) StashCorrectWord(word string) bool {
	return st.update(false, func() bool {
		switch st.s.GameState {
		case Game, RoundResult, GameOver:
		default:
			return false
		}
		if word == "" {
			return false
		}
		if st.s.LastRoundResult == nil {
			st.s.LastRoundResult = &RoundOutcomeInfo{}
		}
		st.s.LastRoundResult.CorrectWord = st.s.Language.Upper(word)
		st.s.LastRoundResult.ShowCorrectWord = true
		return true
	})
}

// SetConnection records transport state for display.
func (st *Store) SetConnection(connected bool, lastErr string) {
	st.update(false, func() bool {
		st.s.Connection = Connection{Connected: connected, LastError: lastErr}
		return true
	})
}

// SetMyID records the transport-assigned id of this client.
func (st *Store) SetMyID(id string) {
	st.update(false, func() bool {
		st.s.MyID = id
		return true
	})
}

// SetPlayerName sets the name sent with create/join requests.
func (st *Store) SetPlayerName(name string) {
	st.update(false, func() bool {
		st.s.PlayerName = name
		return true
	})
}

// SetLanguage changes the alphabet used for the keyboard and upper-casing.
func (st *Store) SetLanguage(l wordle.Language) {
	st.update(false, func() bool {
		if st.s.Language == l {
			return false
		}
		st.s.Language = l
		if len(st.s.Guesses) == 0 {
			st.s.Keyboard = wordle.NewKeyboard(l)
		}
		return true
	})
}

// BeginResume marks a multiplayer rejoin of roomCode as in flight.
func (st *Store) BeginResume(roomCode string) bool {
	return st.update(false, func() bool {
		if st.s.GameState != Home || roomCode == "" {
			return false
		}
		st.pendingResume = roomCode
		return true
	})
}

// PendingResume returns the room code of an in-flight resume, or "".
func (st *Store) PendingResume() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pendingResume
}

// CancelResume forgets any in-flight resume.
func (st *Store) CancelResume() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pendingResume = ""
}

// ResumeSinglePlayer restores a single-player game from snap under the new
// transport id and waits for the server's next round.
func (st *Store) ResumeSinglePlayer(myID string, snap Snapshot) bool {
	return st.update(true, func() bool {
		if st.s.GameState != Home {
			return st.ignore("ResumeSinglePlayer")
		}
		st.clearRoundLocked()
		st.s.MyID = myID
		st.s.SinglePlayer = true
		if snap.PlayerName != "" {
			st.s.PlayerName = snap.PlayerName
		}
		st.s.RoomCode = myID
		st.s.Players = []Player{{ID: myID, Name: st.s.PlayerName, Score: snap.Score}}
		st.s.Round = snap.Round
		st.s.GameState = Game
		st.awaitingRound = true
		return true
	})
}

// ApplyRejoin installs the server's view of a room after a successful
// multiplayer resume.
func (st *Store) ApplyRejoin(r Rejoin) bool {
	return st.update(true, func() bool {
		if st.s.GameState != Home || st.pendingResume == "" {
			return st.ignore("ApplyRejoin", "room", r.RoomCode)
		}
		st.clearRoundLocked()
		st.pendingResume = ""
		st.s.SinglePlayer = false
		st.s.RoomCode = r.RoomCode
		if r.PlayerName != "" {
			st.s.PlayerName = r.PlayerName
		}
		st.s.Players = slices.Clone(r.Players)
		st.s.GameWinner = nil

		switch {
		case r.Active:
			st.s.Round = r.Round
			if wordle.ValidWordLength(r.WordLength) {
				st.s.WordLength = r.WordLength
			}
			if r.RoundEndTime != nil {
				v := *r.RoundEndTime
				st.s.RoundEndTime = &v
			}
			st.s.InputActive = r.InputActive
			st.s.GameState = Game
		case r.GameOver:
			if r.Winner != nil {
				w := *r.Winner
				st.s.GameWinner = &w
			}
			st.s.Round = r.Round
			st.s.InputActive = false
			st.s.GameState = GameOver
		default:
			st.s.Round = 0
			if wordle.ValidWordLength(r.WordLength) {
				st.s.WordLength = r.WordLength
			}
			st.s.GameState = Lobby
		}
		return true
	})
}
