package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	versionSentinel = "<!-- duelword-report-version: 1 -->"
	dataPrefix      = "<!-- duelword-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a MatchReport to bytes.
type Renderer interface {
	Render(r *MatchReport) ([]byte, error)
}

// JSONRenderer renders a MatchReport as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(r *MatchReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// MarkdownRenderer renders a MatchReport as human-readable Markdown with
// an embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(r *MatchReport) ([]byte, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	title := "Single player"
	if r.Match.RoomCode != "" && !r.Match.SinglePlayer {
		title = "Room " + r.Match.RoomCode
	}
	fmt.Fprintf(&sb, "# duelword: %s, %s\n\n", title, r.Match.EndTime.Format("2006-01-02 15:04:05 MST"))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Player: %s\n", r.Match.PlayerName)
	fmt.Fprintf(&sb, "- Language: %s\n", r.Match.Language)
	fmt.Fprintf(&sb, "- Word length: %d\n", r.Match.WordLength)
	fmt.Fprintf(&sb, "- Duration: %s\n", r.Match.Duration)
	if r.Match.WinnerName != "" {
		fmt.Fprintf(&sb, "- Winner: %s\n", r.Match.WinnerName)
	} else {
		sb.WriteString("- Winner: none\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Players\n\n")
	if len(r.Players) == 0 {
		sb.WriteString("_No players recorded._\n")
	} else {
		sb.WriteString("| Player | Score |\n")
		sb.WriteString("|--------|-------|\n")
		for _, p := range r.Players {
			name := p.Name
			if p.Me {
				name += " (you)"
			}
			fmt.Fprintf(&sb, "| %s | %d |\n", name, p.Score)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Rounds\n\n")
	if len(r.Rounds) == 0 {
		sb.WriteString("_No rounds recorded._\n")
	} else {
		for _, rd := range r.Rounds {
			result := "no winner"
			switch {
			case rd.TimedOut:
				result = "timed out"
			case rd.WinnerID != "":
				result = "won by " + r.playerName(rd.WinnerID)
			}
			fmt.Fprintf(&sb, "### Round %d (%s)\n\n", rd.Number, result)
			if rd.CorrectWord != "" {
				fmt.Fprintf(&sb, "Word: `%s`\n\n", rd.CorrectWord)
			}
			if len(rd.Guesses) == 0 {
				sb.WriteString("_No guesses._\n")
			} else {
				for i, g := range rd.Guesses {
					fmt.Fprintf(&sb, "%d. `%s`\n", i+1, g)
				}
			}
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

func (r *MatchReport) playerName(id string) string {
	for _, p := range r.Players {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// RendererFor returns the renderer for format ("markdown" or "json").
func RendererFor(format string) (Renderer, error) {
	switch format {
	case "markdown", "md":
		return MarkdownRenderer{}, nil
	case "json":
		return JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}
