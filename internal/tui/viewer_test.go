package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/duelword/internal/report"
)

func sampleReport() *report.MatchReport {
	return &report.MatchReport{
		Match: report.MatchMeta{
			RoomCode:   "AB12C",
			Language:   "en",
			WordLength: 5,
			PlayerName: "Ada",
			EndTime:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Duration:   "3m0s",
			WinnerID:   "me",
			WinnerName: "Ada",
		},
		Players: []report.PlayerResult{{ID: "me", Name: "Ada", Score: 5, Me: true}, {ID: "them", Name: "Bo", Score: 3}},
		Rounds: []report.RoundRecord{
			{Number: 1, WinnerID: "them", CorrectWord: "CRANE", Guesses: []string{"SLATE", "CRANE"}},
		},
	}
}

func TestViewerTabs(t *testing.T) {
	var m tea.Model = NewViewer(sampleReport(), "/tmp/duelword-ab12c.md")
	if m.View() != "Loading…" {
		t.Fatal("viewer should wait for a window size")
	}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	view := m.View()
	if !strings.Contains(view, "Match Summary") || !strings.Contains(view, "duelword-ab12c.md") {
		t.Errorf("summary view:\n%s", view)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	view = m.View()
	if !strings.Contains(view, "CRANE") || !strings.Contains(view, "won by Bo") {
		t.Errorf("rounds view:\n%s", view)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "Match Summary") {
		t.Error("tab navigation should wrap to the summary")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
}
