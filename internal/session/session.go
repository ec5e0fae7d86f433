package session

import "github.com/fakeyudi/duelword/internal/wordle"

// GameState is the screen-level phase of a session. Navigation in the UI is a
// function of this field plus LastRoundResult and GameWinner.
type GameState uint8

const (
	Home GameState = iota
	GameMode
	Lobby
	Game
	RoundResult
	GameOver
)

var gameStateNames = [...]string{"home", "gameMode", "lobby", "game", "roundResult", "gameOver"}

func (g GameState) String() string {
	if int(g) < len(gameStateNames) {
		return gameStateNames[g]
	}
	return "unknown"
}

// Player is a roster entry. Roster order is the server's order.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// GuessRow is one submitted guess and its verdict. Revealing is true while
// the reveal animation window for the row is open.
type GuessRow struct {
	Guess     string          `json:"guess"`
	Feedback  []wordle.Status `json:"feedback"`
	Revealing bool            `json:"revealing"`
}

// RoundOutcomeInfo describes how the last round ended.
type RoundOutcomeInfo struct {
	WinnerID        string `json:"winner_id,omitempty"`
	CorrectWord     string `json:"correct_word,omitempty"`
	TimedOut        bool   `json:"timed_out"`
	ShowCorrectWord bool   `json:"show_correct_word"`
}

// Connection mirrors the transport's state for display only.
type Connection struct {
	Connected bool   `json:"connected"`
	LastError string `json:"last_error,omitempty"`
}

// Session is the full client-side view of a game. Values handed out by the
// Store are deep copies; mutating them has no effect on the Store.
type Session struct {
	GameState       GameState         `json:"game_state"`
	PlayerName      string            `json:"player_name"`
	MyID            string            `json:"my_id"`
	RoomCode        string            `json:"room_code"`
	Players         []Player          `json:"players"`
	Round           int               `json:"round"`
	WordLength      int               `json:"word_length"`
	RoundEndTime    *int64            `json:"round_end_time,omitempty"`
	Language        wordle.Language   `json:"language"`
	Guesses         []GuessRow        `json:"guesses"`
	CurrentGuess    string            `json:"current_guess"`
	Keyboard        wordle.Keyboard   `json:"-"`
	InputActive     bool              `json:"input_active"`
	LastRoundResult *RoundOutcomeInfo `json:"last_round_result,omitempty"`
	GameWinner      *Player           `json:"game_winner,omitempty"`
	SinglePlayer    bool              `json:"single_player"`
	Connection      Connection        `json:"connection"`
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	c := s
	if s.Players != nil {
		c.Players = append([]Player(nil), s.Players...)
	}
	if s.RoundEndTime != nil {
		v := *s.RoundEndTime
		c.RoundEndTime = &v
	}
	if s.Guesses != nil {
		c.Guesses = make([]GuessRow, len(s.Guesses))
		for i, g := range s.Guesses {
			g.Feedback = append([]wordle.Status(nil), g.Feedback...)
			c.Guesses[i] = g
		}
	}
	if s.Keyboard != nil {
		c.Keyboard = s.Keyboard.Clone()
	}
	if s.LastRoundResult != nil {
		r := *s.LastRoundResult
		c.LastRoundResult = &r
	}
	if s.GameWinner != nil {
		w := *s.GameWinner
		c.GameWinner = &w
	}
	return c
}

// Me returns the local player's roster entry.
func (s Session) Me() (Player, bool) {
	return s.FindPlayer(s.MyID)
}

// FindPlayer looks up a roster entry by id.
func (s Session) FindPlayer(id string) (Player, bool) {
	if id == "" {
		return Player{}, false
	}
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// MyScore returns the local player's score, or 0 when not in the roster.
func (s Session) MyScore() int {
	p, _ := s.Me()
	return p.Score
}

// RowIndex is the index the next guess result will occupy.
func (s Session) RowIndex() int {
	return len(s.Guesses)
}
