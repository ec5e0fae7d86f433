package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/wordle"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Active tab: bright
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// Inactive tab: muted
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	bigStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
)

// Board cells, one per feedback status.
var (
	cellBase = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("15"))

	cellStyles = map[wordle.Status]lipgloss.Style{
		wordle.Unused:  cellBase.Background(lipgloss.Color("237")),
		wordle.Absent:  cellBase.Background(lipgloss.Color("240")),
		wordle.Present: cellBase.Background(lipgloss.Color("178")),
		wordle.Correct: cellBase.Background(lipgloss.Color("28")),
	}

	// Submitted but not yet revealed
	cellPending = cellBase.Background(lipgloss.Color("62"))
	cellTyping  = cellBase.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("235"))
	cellEmpty   = cellBase.Foreground(lipgloss.Color("238")).Background(lipgloss.Color("233"))
)

var noteStyles = map[reconciler.Level]lipgloss.Style{
	reconciler.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	reconciler.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
	reconciler.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	reconciler.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}
