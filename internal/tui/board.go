package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/wordle"
)

const keyboardRowWidth = 10

// renderBoard draws the MaxGuesses x WordLength grid.
func renderBoard(s session.Session) string {
	n := s.WordLength
	if n <= 0 {
		n = wordle.DefaultWordLength
	}
	rows := make([]string, 0, wordle.MaxGuesses)
	for i := 0; i < wordle.MaxGuesses; i++ {
		switch {
		case i < len(s.Guesses):
			rows = append(rows, renderGuessRow(s.Guesses[i], n))
		case i == len(s.Guesses) && s.InputActive:
			rows = append(rows, renderTypingRow(s.CurrentGuess, n))
		default:
			rows = append(rows, renderEmptyRow(n))
		}
	}
	return strings.Join(rows, "\n")
}

func renderGuessRow(g session.GuessRow, n int) string {
	letters := []rune(g.Guess)
	cells := make([]string, n)
	for i := range cells {
		ch := " "
		if i < len(letters) {
			ch = string(letters[i])
		}
		switch {
		case g.Revealing || i >= len(g.Feedback):
			cells[i] = cellPending.Render(ch)
		default:
			cells[i] = cellStyles[g.Feedback[i]].Render(ch)
		}
	}
	return "  " + lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func renderTypingRow(guess string, n int) string {
	letters := []rune(guess)
	cells := make([]string, n)
	for i := range cells {
		if i < len(letters) {
			cells[i] = cellTyping.Render(string(letters[i]))
		} else {
			cells[i] = cellTyping.Render("_")
		}
	}
	return "  " + lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func renderEmptyRow(n int) string {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = cellEmpty.Render("·")
	}
	return "  " + lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// renderKeyboard draws the language's alphabet coloured by best-known status.
func renderKeyboard(s session.Session) string {
	lang := s.Language
	if lang == "" {
		lang = wordle.DefaultLanguage
	}
	var lines []string
	var row []string
	for _, r := range lang.Alphabet() {
		row = append(row, cellStyles[s.Keyboard.Get(r)].Render(string(r)))
		if len(row) == keyboardRowWidth {
			lines = append(lines, "  "+strings.Join(row, ""))
			row = nil
		}
	}
	if len(row) > 0 {
		lines = append(lines, "  "+strings.Join(row, ""))
	}
	return strings.Join(lines, "\n")
}

// renderRoster lists players with scores, marking the local player.
func renderRoster(s session.Session) string {
	if len(s.Players) == 0 {
		return dimStyle.Render("  (no players)")
	}
	var sb strings.Builder
	for _, p := range s.Players {
		name := p.Name
		if p.ID == s.MyID {
			name += dimStyle.Render(" (you)")
		}
		sb.WriteString(bullet(fmt.Sprintf("%s  %s", name, labelStyle.Render(fmt.Sprintf("%d/%d", p.Score, wordle.WinScore)))))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderOutcome describes the last round result.
func renderOutcome(s session.Session) string {
	o := s.LastRoundResult
	if o == nil {
		return ""
	}
	var line string
	switch {
	case o.TimedOut:
		line = "Time's up."
	case o.WinnerID == "":
		line = "Nobody found the word."
	case o.WinnerID == s.MyID:
		line = "You found the word!"
	default:
		name := o.WinnerID
		if p, ok := s.FindPlayer(o.WinnerID); ok {
			name = p.Name
		}
		line = name + " found the word."
	}
	out := "  " + bigStyle.Render(line)
	if o.ShowCorrectWord && o.CorrectWord != "" {
		out += "\n  The word was " + labelStyle.Render(o.CorrectWord)
	}
	return out
}
