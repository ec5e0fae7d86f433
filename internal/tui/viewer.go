package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/duelword/internal/report"
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabPlayers
	tabRounds
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Players", "Rounds"}

// Viewer is the Bubble Tea model for browsing a saved match report.
type Viewer struct {
	report    *report.MatchReport
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
}

// NewViewer creates a viewer for r loaded from filename.
func NewViewer(r *report.MatchReport, filename string) Viewer {
	return Viewer{report: r, filename: filepath.Base(filename)}
}

func (v Viewer) Init() tea.Cmd { return nil }

func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return v, tea.Quit
		case "tab", "l", "right":
			v.activeTab = (v.activeTab + 1) % tabCount
			return v, nil
		case "shift+tab", "h", "left":
			v.activeTab = (v.activeTab - 1 + tabCount) % tabCount
			return v, nil
		case "1", "2", "3":
			v.activeTab = tabID(msg.String()[0] - '1')
			return v, nil
		}
		if !v.ready {
			return v, nil
		}
		var cmd tea.Cmd
		v.viewports[v.activeTab], cmd = v.viewports[v.activeTab].Update(msg)
		return v, cmd

	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		v.initViewports()
		return v, nil
	}
	return v, nil
}

func (v Viewer) View() string {
	if !v.ready {
		return "Loading…"
	}

	title := titleStyle.Width(v.width).Render("  duelword  " + v.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == v.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(v.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := v.viewports[v.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-3 jump  q quit"
	pct := fmt.Sprintf("%3.0f%%", v.viewports[v.activeTab].ScrollPercent()*100)
	pad := v.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(v.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

func (v *Viewer) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	h := v.height - 3
	if h < 1 {
		h = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(v.width, h)
		vp.SetContent(v.renderTab(i))
		v.viewports[i] = vp
	}
}

func (v *Viewer) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return v.renderSummary()
	case tabPlayers:
		return v.renderPlayers()
	case tabRounds:
		return v.renderRounds()
	}
	return ""
}

func (v *Viewer) renderSummary() string {
	m := v.report.Match
	var sb strings.Builder
	sb.WriteString(heading("Match Summary"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	if m.SinglePlayer {
		row("Mode:", "single player")
	} else {
		row("Mode:", "multiplayer")
		row("Room:", m.RoomCode)
	}
	row("Player:", m.PlayerName)
	row("Language:", m.Language)
	row("Word length:", fmt.Sprintf("%d", m.WordLength))
	row("Started:", m.StartTime.Format("2006-01-02 15:04:05 MST"))
	row("Ended:", m.EndTime.Format("2006-01-02 15:04:05 MST"))
	row("Duration:", m.Duration)
	winner := "none"
	if m.WinnerName != "" {
		winner = m.WinnerName
	}
	row("Winner:", winner)
	row("Rounds:", fmt.Sprintf("%d", len(v.report.Rounds)))
	return sb.String()
}

func (v *Viewer) renderPlayers() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Players (%d)", len(v.report.Players))))
	if len(v.report.Players) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, p := range v.report.Players {
		name := p.Name
		if p.Me {
			name += dimStyle.Render(" (you)")
		}
		sb.WriteString(bullet(fmt.Sprintf("%s  %s", name, labelStyle.Render(fmt.Sprintf("%d", p.Score)))))
	}
	return sb.String()
}

func (v *Viewer) renderRounds() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Rounds (%d)", len(v.report.Rounds))))
	if len(v.report.Rounds) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, rd := range v.report.Rounds {
		result := "no winner"
		switch {
		case rd.TimedOut:
			result = "timed out"
		case rd.WinnerID != "":
			result = "won by " + v.playerName(rd.WinnerID)
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			timeStyle.Render(fmt.Sprintf("#%d", rd.Number)),
			labelStyle.Render(rd.CorrectWord),
			dimStyle.Render(result)))
		for i, g := range rd.Guesses {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("      %d.", i+1)) + " " + g + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (v *Viewer) playerName(id string) string {
	for _, p := range v.report.Players {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// RunViewer starts the report viewer.
func RunViewer(r *report.MatchReport, filename string) error {
	p := tea.NewProgram(NewViewer(r, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
