package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/duelword/internal/report"
	"github.com/fakeyudi/duelword/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <report>",
	Short: "View a saved match report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		r, err := report.Parse(data)
		if err != nil {
			return err
		}

		if plainOutput {
			printReport(cmd.OutOrStdout(), r)
			return nil
		}
		return tui.RunViewer(r, path)
	},
}

// printReport writes a plain-text summary to w.
func printReport(w io.Writer, r *report.MatchReport) {
	m := r.Match
	fmt.Fprintln(w, "## Summary")
	if m.SinglePlayer {
		fmt.Fprintln(w, "  Mode:      single player")
	} else {
		fmt.Fprintln(w, "  Mode:      multiplayer")
		fmt.Fprintf(w, "  Room:      %s\n", m.RoomCode)
	}
	fmt.Fprintf(w, "  Player:    %s\n", m.PlayerName)
	fmt.Fprintf(w, "  Language:  %s\n", m.Language)
	fmt.Fprintf(w, "  Started:   %s\n", m.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Ended:     %s\n", m.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Duration:  %s\n", m.Duration)
	if m.WinnerName != "" {
		fmt.Fprintf(w, "  Winner:    %s\n", m.WinnerName)
	} else {
		fmt.Fprintln(w, "  Winner:    none")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Players")
	if len(r.Players) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, p := range r.Players {
			you := ""
			if p.Me {
				you = " (you)"
			}
			fmt.Fprintf(w, "  %s%s  %d\n", p.Name, you, p.Score)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Rounds")
	if len(r.Rounds) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, rd := range r.Rounds {
			status := ""
			if rd.TimedOut {
				status = " (timed out)"
			}
			fmt.Fprintf(w, "  %d. %s%s\n", rd.Number, rd.CorrectWord, status)
			for _, g := range rd.Guesses {
				fmt.Fprintf(w, "     %s\n", g)
			}
		}
	}
	fmt.Fprintln(w)
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
