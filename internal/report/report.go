// Package report builds, renders and parses match reports written at game over.
package report

import (
	"time"
)

// MatchReport is the complete, renderable record of one finished match.
type MatchReport struct {
	Match   MatchMeta      `json:"match"`
	Players []PlayerResult `json:"players"`
	Rounds  []RoundRecord  `json:"rounds"`
}

// MatchMeta holds summary metadata about the match.
type MatchMeta struct {
	ID           string    `json:"id"`
	RoomCode     string    `json:"room_code,omitempty"`
	SinglePlayer bool      `json:"single_player"`
	Language     string    `json:"language"`
	WordLength   int       `json:"word_length"`
	PlayerName   string    `json:"player_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     string    `json:"duration"` // human-readable, e.g. "4m12s"
	WinnerID     string    `json:"winner_id,omitempty"`
	WinnerName   string    `json:"winner_name,omitempty"`
}

// PlayerResult is a player's final standing.
type PlayerResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Me    bool   `json:"me,omitempty"`
}

// RoundRecord summarises one finished round.
type RoundRecord struct {
	Number      int      `json:"number"`
	WinnerID    string   `json:"winner_id,omitempty"`
	CorrectWord string   `json:"correct_word,omitempty"`
	TimedOut    bool     `json:"timed_out"`
	Guesses     []string `json:"guesses"`
}

// Won reports whether the local player won the match.
func (r *MatchReport) Won() bool {
	for _, p := range r.Players {
		if p.Me {
			return p.ID != "" && p.ID == r.Match.WinnerID
		}
	}
	return false
}
