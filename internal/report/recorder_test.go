package report

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/wordle"
)

func TestRecorderBuildsMatch(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	rec := NewRecorder(clock)

	me := session.Player{ID: "me", Name: "Ada"}
	them := session.Player{ID: "them", Name: "Bo"}
	base := session.Session{
		PlayerName: "Ada",
		MyID:       "me",
		RoomCode:   "AB12C",
		WordLength: 5,
		Language:   wordle.English,
		Players:    []session.Player{me, them},
	}

	lobby := base
	lobby.GameState = session.Lobby
	if rec.Observe(lobby) {
		t.Fatal("lobby should not finish a match")
	}
	if rec.Report() != nil {
		t.Fatal("report should not start before a round")
	}

	game := base
	game.GameState = session.Game
	game.Round = 1
	rec.Observe(game)

	result := game
	result.GameState = session.RoundResult
	result.Guesses = []session.GuessRow{{Guess: "CRANE"}, {Guess: "SLATE"}}
	result.LastRoundResult = &session.RoundOutcomeInfo{WinnerID: "me", CorrectWord: "SLATE"}
	rec.Observe(result)
	rec.Observe(result)

	clock.Advance(90 * time.Second)

	over := result
	over.GameState = session.GameOver
	over.Players = []session.Player{{ID: "me", Name: "Ada", Score: 5}, {ID: "them", Name: "Bo", Score: 2}}
	over.GameWinner = &over.Players[0]
	if !rec.Observe(over) {
		t.Fatal("game over should finish the match")
	}
	if rec.Observe(over) {
		t.Fatal("game over should finish the match only once")
	}

	r := rec.Report()
	if len(r.Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1", len(r.Rounds))
	}
	if got := r.Rounds[0]; got.CorrectWord != "SLATE" || len(got.Guesses) != 2 || got.WinnerID != "me" {
		t.Errorf("round = %+v", got)
	}
	if r.Match.Duration != "1m30s" {
		t.Errorf("duration = %q, want 1m30s", r.Match.Duration)
	}
	if r.Match.WinnerName != "Ada" || !r.Won() {
		t.Errorf("winner = %q, won = %v", r.Match.WinnerName, r.Won())
	}
	if r.Match.RoomCode != "AB12C" || r.Match.Language != "en" {
		t.Errorf("meta = %+v", r.Match)
	}
}

func TestRecorderStartsFreshAfterGameOver(t *testing.T) {
	rec := NewRecorder(clockwork.NewFakeClock())

	s := session.Session{GameState: session.Game, Round: 1, MyID: "me"}
	rec.Observe(s)
	s.GameState = session.GameOver
	rec.Observe(s)
	first := rec.Report().Match.ID

	s.GameState = session.Game
	rec.Observe(s)
	if rec.Report().Match.ID == first {
		t.Fatal("a new match should get a new report")
	}
	if len(rec.Report().Rounds) != 0 {
		t.Fatal("new report should have no rounds")
	}
}

func TestRecorderIgnoresGameOverWithoutMatch(t *testing.T) {
	rec := NewRecorder(clockwork.NewFakeClock())
	if rec.Observe(session.Session{GameState: session.GameOver}) {
		t.Fatal("game over without any round should not produce a report")
	}
}
