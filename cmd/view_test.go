package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/duelword/internal/report"
)

func generateViewReport(t *rapid.T) *report.MatchReport {
	sec := rapid.Int64Range(1_000_000_000, 1_700_000_000).Draw(t, "unix_sec")
	ts := time.Unix(sec, 0).UTC()

	r := &report.MatchReport{
		Match: report.MatchMeta{
			ID:           rapid.StringN(1, 36, -1).Draw(t, "id"),
			SinglePlayer: rapid.Bool().Draw(t, "single"),
			RoomCode:     rapid.StringMatching(`[A-Z0-9]{5}`).Draw(t, "room"),
			Language:     "en",
			WordLength:   5,
			PlayerName:   rapid.StringN(1, 20, -1).Draw(t, "player"),
			StartTime:    ts,
			EndTime:      ts,
			Duration:     "0s",
		},
	}
	for i := range rapid.IntRange(1, 3).Draw(t, "num_players") {
		r.Players = append(r.Players, report.PlayerResult{
			ID:    rapid.StringN(1, 10, -1).Draw(t, "pid"),
			Name:  rapid.StringN(1, 20, -1).Draw(t, "pname"),
			Score: rapid.IntRange(0, 5).Draw(t, "score"),
			Me:    i == 0,
		})
	}
	for i := range rapid.IntRange(1, 5).Draw(t, "num_rounds") {
		r.Rounds = append(r.Rounds, report.RoundRecord{
			Number:      i + 1,
			CorrectWord: rapid.StringMatching(`[A-Z]{5}`).Draw(t, "word"),
			Guesses:     rapid.SliceOfN(rapid.StringMatching(`[A-Z]{5}`), 1, 6).Draw(t, "guesses"),
		})
	}
	return r
}

// Feature: duelword, Property 13: Plain report view section order
func TestPrintReportSectionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := generateViewReport(t)
		var buf bytes.Buffer
		printReport(&buf, r)
		out := buf.String()

		last := -1
		for _, section := range []string{"## Summary", "## Players", "## Rounds"} {
			idx := strings.Index(out, section)
			if idx == -1 {
				t.Fatalf("output missing %q", section)
			}
			if idx <= last {
				t.Fatalf("section %q out of order", section)
			}
			last = idx
		}
		for _, rd := range r.Rounds {
			if !strings.Contains(out, rd.CorrectWord) {
				t.Errorf("output missing word %q", rd.CorrectWord)
			}
		}
	})
}

func TestViewPlainReadsBothFormats(t *testing.T) {
	tmp := isolate(t)
	r := &report.MatchReport{
		Match: report.MatchMeta{
			RoomCode:   "AB12C",
			PlayerName: "Ada",
			WinnerName: "Ada",
			EndTime:    time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		},
		Players: []report.PlayerResult{{ID: "me", Name: "Ada", Score: 5, Me: true}},
		Rounds:  []report.RoundRecord{{Number: 1, CorrectWord: "CRANE", Guesses: []string{"CRANE"}}},
	}

	for _, format := range []string{"markdown", "json"} {
		path, err := report.Write(filepath.Join(tmp, format), format, r)
		if err != nil {
			t.Fatalf("Write %s: %v", format, err)
		}
		out, err := executeCommand(rootCmd, "view", "--plain", path)
		if err != nil {
			t.Fatalf("view %s: %v", format, err)
		}
		if !strings.Contains(out, "Room:      AB12C") || !strings.Contains(out, "Ada (you)  5") || !strings.Contains(out, "1. CRANE") {
			t.Errorf("%s output:\n%s", format, out)
		}
	}
}

func TestViewMissingFile(t *testing.T) {
	tmp := isolate(t)
	_, err := executeCommand(rootCmd, "view", "--plain", filepath.Join(tmp, "nope.md"))
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Fatalf("err = %v, want file not found", err)
	}
}

func TestViewRejectsForeignFile(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "notes.md")
	if err := os.WriteFile(path, []byte("# just notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCommand(rootCmd, "view", "--plain", path); err == nil {
		t.Fatal("expected parse error for a file that is not a report")
	}
}
