package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/fakeyudi/duelword/internal/countdown"
	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/wordle"
)

type fakeController struct {
	calls    []string
	typed    []rune
	joined   string
	length   int
	submitEr error
}

func (f *fakeController) Type(ch rune) bool {
	f.typed = append(f.typed, ch)
	return true
}
func (f *fakeController) Erase() bool {
	f.calls = append(f.calls, "erase")
	return true
}
func (f *fakeController) Submit(context.Context) error {
	f.calls = append(f.calls, "submit")
	return f.submitEr
}
func (f *fakeController) ChooseMode(single bool) error {
	if single {
		f.calls = append(f.calls, "mode:single")
	} else {
		f.calls = append(f.calls, "mode:multi")
	}
	return nil
}
func (f *fakeController) CreateRoom(context.Context) error {
	f.calls = append(f.calls, "create")
	return nil
}
func (f *fakeController) JoinRoom(_ context.Context, code string) error {
	f.calls = append(f.calls, "join")
	f.joined = code
	return nil
}
func (f *fakeController) StartGame(context.Context) error {
	f.calls = append(f.calls, "start")
	return nil
}
func (f *fakeController) StartSinglePlayer(_ context.Context, n int) error {
	f.calls = append(f.calls, "single")
	f.length = n
	return nil
}
func (f *fakeController) NextSinglePlayerRound(context.Context) error {
	f.calls = append(f.calls, "next")
	return nil
}
func (f *fakeController) PlayAgain(context.Context) error {
	f.calls = append(f.calls, "again")
	return nil
}
func (f *fakeController) LeaveRoom() { f.calls = append(f.calls, "leave") }

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newModel(t *testing.T, s session.Session) (Model, *fakeController, *countdown.Countdown) {
	t.Helper()
	ctl := &fakeController{}
	cd := countdown.New(clockwork.NewFakeClockAt(t0))
	return New(context.Background(), ctl, cd, s, 5), ctl, cd
}

func update(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func gameSession() session.Session {
	end := t0.Add(30 * time.Second).UnixMilli()
	return session.Session{
		GameState:    session.Game,
		MyID:         "me",
		RoomCode:     "AB12C",
		Round:        1,
		WordLength:   5,
		Language:     wordle.English,
		RoundEndTime: &end,
		InputActive:  true,
		Players:      []session.Player{{ID: "me", Name: "Ada"}, {ID: "them", Name: "Bo", Score: 2}},
	}
}

func TestGameKeysDriveController(t *testing.T) {
	m, ctl, _ := newModel(t, gameSession())

	update(m,
		runes("ab1c"),
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if string(ctl.typed) != "abc" {
		t.Errorf("typed = %q, want letters only", string(ctl.typed))
	}
	if strings.Join(ctl.calls, ",") != "erase,submit" {
		t.Errorf("calls = %v", ctl.calls)
	}
}

func TestSubmitErrorShown(t *testing.T) {
	m, ctl, _ := newModel(t, gameSession())
	ctl.submitEr = reconciler.ErrWrongLength

	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.View(), "Not enough letters") {
		t.Error("wrong-length error not rendered")
	}
}

func TestHomeChoosesMode(t *testing.T) {
	m, ctl, _ := newModel(t, session.Session{PlayerName: "Ada"})
	if !strings.Contains(m.View(), "Welcome, Ada") {
		t.Error("home screen should greet the player")
	}
	update(m, runes("s"), runes("m"))
	if strings.Join(ctl.calls, ",") != "mode:single,mode:multi" {
		t.Errorf("calls = %v", ctl.calls)
	}
}

func TestJoinAndCreateRoom(t *testing.T) {
	m, ctl, _ := newModel(t, session.Session{GameState: session.GameMode})

	update(m, runes("ab12c"), tea.KeyMsg{Type: tea.KeyEnter})
	if ctl.joined != "AB12C" {
		t.Errorf("joined = %q, want AB12C", ctl.joined)
	}

	m, ctl, _ = newModel(t, session.Session{GameState: session.GameMode})
	update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(ctl.calls) != 1 || ctl.calls[0] != "create" {
		t.Errorf("calls = %v, want create", ctl.calls)
	}
}

func TestSinglePlayerLengthPicker(t *testing.T) {
	m, ctl, _ := newModel(t, session.Session{GameState: session.GameMode, SinglePlayer: true})

	update(m, runes("4"), tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter})
	if ctl.length != 5 {
		t.Errorf("length = %d, want 5", ctl.length)
	}

	m, ctl, _ = newModel(t, session.Session{GameState: session.GameMode, SinglePlayer: true})
	update(m, runes("6"), tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter})
	if ctl.length != 6 {
		t.Errorf("length = %d, want 6 (clamped)", ctl.length)
	}
}

func TestCountdownShownForTimedRound(t *testing.T) {
	m, _, cd := newModel(t, gameSession())
	if !cd.Active() {
		t.Fatal("countdown should be active in a timed round")
	}
	if !strings.Contains(m.View(), "0:30") {
		t.Errorf("view missing countdown:\n%s", m.View())
	}

	m = update(m, TickMsg(12))
	if !strings.Contains(m.View(), "0:12") {
		t.Error("tick not rendered")
	}

	over := gameSession()
	over.GameState = session.RoundResult
	m = update(m, SessionMsg(over))
	if cd.Active() {
		t.Error("countdown should clear when the round ends")
	}
}

func TestSuspendAndResume(t *testing.T) {
	m, _, cd := newModel(t, gameSession())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlZ})
	if !cd.Suspended() {
		t.Fatal("ctrl+z should suspend the countdown")
	}
	if cmd == nil {
		t.Fatal("ctrl+z should return a command")
	}
	if _, ok := cmd().(tea.SuspendMsg); !ok {
		t.Error("ctrl+z should suspend the program")
	}

	update(next.(Model), tea.ResumeMsg{})
	if cd.Suspended() {
		t.Error("resume should restart the countdown")
	}
}

func TestNotesReplaceByKey(t *testing.T) {
	m, _, _ := newModel(t, gameSession())
	m = update(m,
		NoteMsg{Key: reconciler.NoteRoundStarted, Level: reconciler.LevelInfo, Args: map[string]string{"round": "1"}},
		NoteMsg{Key: reconciler.NoteRoundStarted, Level: reconciler.LevelInfo, Args: map[string]string{"round": "2"}},
	)
	if len(m.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(m.notes))
	}
	if !strings.Contains(m.View(), "Round 2 started") {
		t.Error("latest note not rendered")
	}

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		m = update(m, NoteMsg{Key: k})
	}
	if len(m.notes) != maxNotes {
		t.Errorf("notes = %d, want %d", len(m.notes), maxNotes)
	}
}

func TestBoardRendersGuesses(t *testing.T) {
	s := gameSession()
	s.Guesses = []session.GuessRow{{Guess: "CRANE", Feedback: []wordle.Status{wordle.Absent, wordle.Present, wordle.Absent, wordle.Absent, wordle.Correct}}}
	s.CurrentGuess = "SL"
	m, _, _ := newModel(t, s)

	view := m.View()
	for _, ch := range []string{"C", "R", "A", "N", "E", "S", "L"} {
		if !strings.Contains(view, ch) {
			t.Errorf("board missing %q", ch)
		}
	}
	if !strings.Contains(view, "Bo") {
		t.Error("roster missing opponent")
	}
}

func TestGameOverScreen(t *testing.T) {
	s := gameSession()
	s.GameState = session.GameOver
	s.GameWinner = &session.Player{ID: "me", Name: "Ada", Score: 5}
	m, ctl, _ := newModel(t, s)

	m = update(m, ReportMsg{Path: "/tmp/r.md"})
	view := m.View()
	if !strings.Contains(view, "You win!") || !strings.Contains(view, "/tmp/r.md") {
		t.Errorf("game over view:\n%s", view)
	}
	update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(ctl.calls) != 1 || ctl.calls[0] != "again" {
		t.Errorf("calls = %v, want again", ctl.calls)
	}
}

func TestDisconnectedQuits(t *testing.T) {
	m, _, _ := newModel(t, gameSession())
	gaveUp := errors.New("gave up")

	next, cmd := m.Update(DisconnectedMsg{Err: gaveUp})
	if next.(Model).Err() != gaveUp {
		t.Error("Err should carry the disconnect reason")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
