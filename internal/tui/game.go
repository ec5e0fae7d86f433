// Package tui provides the Bubble Tea terminal UI for playing duelword and
// for viewing saved match reports.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/duelword/internal/countdown"
	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/transport"
	"github.com/fakeyudi/duelword/internal/wordle"
)

const maxNotes = 4

// Controller is the set of player actions the UI can trigger.
// *reconciler.Reconciler implements it.
type Controller interface {
	Type(ch rune) bool
	Erase() bool
	Submit(ctx context.Context) error
	ChooseMode(single bool) error
	CreateRoom(ctx context.Context) error
	JoinRoom(ctx context.Context, code string) error
	StartGame(ctx context.Context) error
	StartSinglePlayer(ctx context.Context, n int) error
	NextSinglePlayerRound(ctx context.Context) error
	PlayAgain(ctx context.Context) error
	LeaveRoom()
}

// ── Messages ─────────────

// SessionMsg carries a fresh session snapshot.
type SessionMsg session.Session

// NoteMsg carries a notification from the reconciler.
type NoteMsg reconciler.Notification

// TickMsg carries the seconds left in the round.
type TickMsg int

// ReportMsg reports where the match report was written.
type ReportMsg struct {
	Path string
	Err  error
}

// DisconnectedMsg ends the program after the transport gave up.
type DisconnectedMsg struct{ Err error }

// ── Model ────────────────────

// Model is the root Bubble Tea model for a game.
type Model struct {
	ctx   context.Context
	ctl   Controller
	clock *countdown.Countdown

	s         session.Session
	remaining int
	deadline  int64
	round     int

	notes  []reconciler.Notification
	status string
	report string

	code    textinput.Model
	spinner spinner.Model
	length  int

	width int
	fatal error
}

// New creates a game model. length is the preselected single-player word length.
func New(ctx context.Context, ctl Controller, cd *countdown.Countdown, initial session.Session, length int) Model {
	if !wordle.ValidWordLength(length) {
		length = wordle.DefaultWordLength
	}
	ti := textinput.New()
	ti.Placeholder = "ROOM CODE"
	ti.CharLimit = 5
	ti.Width = 8

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		ctl:     ctl,
		clock:   cd,
		code:    ti,
		spinner: sp,
		length:  length,
	}
	m.applySession(initial)
	return m
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.fatal }

// Session returns the last snapshot the model rendered.
func (m Model) Session() session.Session { return m.s }

func (m Model) Init() tea.Cmd { return m.spinner.Tick }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SessionMsg:
		m.applySession(session.Session(msg))
		return m, nil

	case TickMsg:
		m.remaining = int(msg)
		return m, nil

	case NoteMsg:
		m.addNote(reconciler.Notification(msg))
		return m, nil

	case ReportMsg:
		if msg.Err != nil {
			m.status = "Could not save match report: " + msg.Err.Error()
		} else {
			m.report = msg.Path
		}
		return m, nil

	case DisconnectedMsg:
		m.fatal = msg.Err
		return m, tea.Quit

	case tea.ResumeMsg:
		m.clock.Resume()
		m.remaining = m.clock.Remaining()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applySession(s session.Session) {
	prev := m.s.GameState
	m.s = s

	if s.GameState == session.Game {
		var end int64
		if s.RoundEndTime != nil {
			end = *s.RoundEndTime
		}
		if s.Round != m.round || end != m.deadline {
			m.clock.SetDeadline(s.RoundEndTime, s.SinglePlayer)
			m.round, m.deadline = s.Round, end
		}
		m.remaining = m.clock.Remaining()
	} else {
		m.clock.Clear()
		m.round, m.deadline, m.remaining = 0, 0, 0
	}

	if s.GameState != prev {
		m.status = ""
		if s.GameState == session.GameMode && !s.SinglePlayer {
			m.code.SetValue("")
			m.code.Focus()
		} else {
			m.code.Blur()
		}
		if s.GameState != session.GameOver {
			m.report = ""
		}
	}
}

func (m *Model) addNote(n reconciler.Notification) {
	kept := make([]reconciler.Notification, 0, len(m.notes)+1)
	for _, old := range m.notes {
		if old.Key != n.Key {
			kept = append(kept, old)
		}
	}
	m.notes = append(kept, n)
	if len(m.notes) > maxNotes {
		m.notes = m.notes[len(m.notes)-maxNotes:]
	}
}

func (m *Model) fail(err error) {
	if err == nil {
		return
	}
	m.status = errorText(err)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, reconciler.ErrWrongLength):
		return "Not enough letters"
	case errors.Is(err, reconciler.ErrInvalidRoomCode):
		return "Room codes are 5 letters or digits"
	case errors.Is(err, reconciler.ErrSubmitPending):
		return "Waiting for the last guess"
	case errors.Is(err, transport.ErrNotConnected):
		return "Not connected"
	case errors.Is(err, reconciler.ErrInputInactive), errors.Is(err, reconciler.ErrNotAllowed):
		return "Not available right now"
	}
	return err.Error()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+z":
		m.clock.Suspend()
		return m, tea.Suspend
	}

	switch m.s.GameState {
	case session.Home:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "s", "1":
			m.fail(m.ctl.ChooseMode(true))
		case "m", "2":
			m.fail(m.ctl.ChooseMode(false))
		}

	case session.GameMode:
		if msg.String() == "esc" {
			m.ctl.LeaveRoom()
			return m, nil
		}
		if m.s.SinglePlayer {
			switch k := msg.String(); k {
			case "3", "4", "5", "6":
				m.length = int(k[0] - '0')
			case "left", "h":
				if m.length > wordle.AllowedWordLengths[0] {
					m.length--
				}
			case "right", "l":
				if m.length < wordle.AllowedWordLengths[len(wordle.AllowedWordLengths)-1] {
					m.length++
				}
			case "enter":
				m.fail(m.ctl.StartSinglePlayer(m.ctx, m.length))
			}
			return m, nil
		}
		if msg.String() == "enter" {
			if code := strings.TrimSpace(m.code.Value()); code != "" {
				m.fail(m.ctl.JoinRoom(m.ctx, code))
			} else {
				m.fail(m.ctl.CreateRoom(m.ctx))
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.code, cmd = m.code.Update(msg)
		m.code.SetValue(strings.ToUpper(m.code.Value()))
		return m, cmd

	case session.Lobby:
		switch msg.String() {
		case "enter", "s":
			m.fail(m.ctl.StartGame(m.ctx))
		case "esc", "q":
			m.ctl.LeaveRoom()
		}

	case session.Game:
		switch msg.Type {
		case tea.KeyEnter:
			m.status = ""
			m.fail(m.ctl.Submit(m.ctx))
		case tea.KeyBackspace:
			m.ctl.Erase()
		case tea.KeyEsc:
			m.ctl.LeaveRoom()
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				if unicode.IsLetter(r) {
					m.ctl.Type(r)
				}
			}
		}

	case session.RoundResult:
		switch msg.String() {
		case "enter", "n":
			if m.s.SinglePlayer {
				m.fail(m.ctl.NextSinglePlayerRound(m.ctx))
			}
		case "esc":
			m.ctl.LeaveRoom()
		}

	case session.GameOver:
		switch msg.String() {
		case "enter", "r":
			m.fail(m.ctl.PlayAgain(m.ctx))
		case "esc", "h":
			m.ctl.LeaveRoom()
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

// ── View ─────────────

func (m Model) View() string {
	parts := []string{m.renderTitle(), ""}
	parts = append(parts, m.renderBody())
	if notes := m.renderNotes(); notes != "" {
		parts = append(parts, "", notes)
	}
	parts = append(parts, "", m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTitle() string {
	conn := offlineStyle.Render("● offline")
	if m.s.Connection.Connected {
		conn = onlineStyle.Render("● online")
	}
	title := "  duelword"
	if m.s.RoomCode != "" && !m.s.SinglePlayer {
		title += "  room " + m.s.RoomCode
	}
	if m.s.Round > 0 {
		title += fmt.Sprintf("  round %d", m.s.Round)
	}
	bar := titleStyle.Render(title)
	if m.width > 0 {
		bar = titleStyle.Width(m.width - lipgloss.Width(conn) - 1).Render(title)
	}
	return bar + " " + conn
}

func (m Model) renderBody() string {
	s := m.s
	var sb strings.Builder
	switch s.GameState {
	case session.Home:
		name := s.PlayerName
		if name == "" {
			name = "player"
		}
		sb.WriteString(heading("Welcome, " + name))
		sb.WriteString(bullet("s  single player"))
		sb.WriteString(bullet("m  multiplayer"))

	case session.GameMode:
		if s.SinglePlayer {
			sb.WriteString(heading("Single player"))
			var opts []string
			for _, n := range wordle.AllowedWordLengths {
				label := fmt.Sprintf(" %d ", n)
				if n == m.length {
					opts = append(opts, activeTabStyle.Render(label))
				} else {
					opts = append(opts, inactiveTabStyle.Render(label))
				}
			}
			sb.WriteString("  Word length  " + lipgloss.JoinHorizontal(lipgloss.Top, opts...) + "\n")
		} else {
			sb.WriteString(heading("Multiplayer"))
			sb.WriteString("  Join room  " + m.code.View() + "\n")
			sb.WriteString(dimStyle.Render("  leave empty to create a new room") + "\n")
		}

	case session.Lobby:
		sb.WriteString(heading("Lobby " + s.RoomCode))
		sb.WriteString(renderRoster(s) + "\n")
		if len(s.Players) < 2 {
			sb.WriteString("\n  " + m.spinner.View() + " waiting for an opponent\n")
		}

	case session.Game:
		sb.WriteString(heading(m.gameHeading()))
		sb.WriteString(renderBoard(s) + "\n\n")
		sb.WriteString(renderKeyboard(s) + "\n")
		if !s.InputActive {
			sb.WriteString("\n  " + m.spinner.View() + " waiting for the round to end\n")
		}
		if !s.SinglePlayer {
			sb.WriteString(heading("Players"))
			sb.WriteString(renderRoster(s) + "\n")
		}

	case session.RoundResult:
		sb.WriteString(heading(fmt.Sprintf("Round %d", s.Round)))
		sb.WriteString(renderOutcome(s) + "\n\n")
		sb.WriteString(renderBoard(s) + "\n")
		sb.WriteString(heading("Scores"))
		sb.WriteString(renderRoster(s) + "\n")
		if !s.SinglePlayer {
			sb.WriteString("\n  " + m.spinner.View() + " next round starting soon\n")
		}

	case session.GameOver:
		sb.WriteString(heading("Game over"))
		switch {
		case s.GameWinner == nil:
			sb.WriteString("  " + bigStyle.Render("No winner.") + "\n")
		case s.GameWinner.ID == s.MyID:
			sb.WriteString("  " + bigStyle.Render("You win!") + "\n")
		default:
			sb.WriteString("  " + bigStyle.Render(s.GameWinner.Name+" wins.") + "\n")
		}
		if out := renderOutcome(s); out != "" {
			sb.WriteString(out + "\n")
		}
		sb.WriteString(heading("Final scores"))
		sb.WriteString(renderRoster(s) + "\n")
		if m.report != "" {
			sb.WriteString("\n" + dimStyle.Render("  report saved to "+m.report) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) gameHeading() string {
	h := fmt.Sprintf("Guess the %d-letter word", m.s.WordLength)
	if m.s.SinglePlayer {
		return h + fmt.Sprintf("  score %d/%d", m.s.MyScore(), wordle.WinScore)
	}
	if m.clock.Active() {
		h += "  " + timeStyle.Render(fmt.Sprintf("%d:%02d", m.remaining/60, m.remaining%60))
	}
	return h
}

func (m Model) renderNotes() string {
	var lines []string
	for _, n := range m.notes {
		style, ok := noteStyles[n.Level]
		if !ok {
			style = noteStyles[reconciler.LevelInfo]
		}
		lines = append(lines, "  "+style.Render(n.String()))
	}
	if m.status != "" {
		lines = append(lines, "  "+noteStyles[reconciler.LevelWarning].Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatusBar() string {
	var hint string
	switch m.s.GameState {
	case session.Home:
		hint = "s single  m multi  q quit"
	case session.GameMode:
		if m.s.SinglePlayer {
			hint = "3-6 or ←/→ length  enter start  esc back"
		} else {
			hint = "type code  enter join/create  esc back"
		}
	case session.Lobby:
		hint = "enter start  esc leave"
	case session.Game:
		hint = "type letters  enter submit  backspace erase  esc leave"
	case session.RoundResult:
		if m.s.SinglePlayer {
			hint = "enter next round  esc leave"
		} else {
			hint = "esc leave"
		}
	case session.GameOver:
		hint = "enter play again  h home  q quit"
	}
	hint = "  " + hint + "  ctrl+z suspend"
	if m.width > 0 {
		return statusBarStyle.Width(m.width).Render(hint)
	}
	return statusBarStyle.Render(hint)
}
