package report

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/fakeyudi/duelword/internal/session"
)

// Recorder accumulates a MatchReport from successive session snapshots.
// Feed it every snapshot published by the session store; Observe returns
// true exactly once per match, on the snapshot that reaches game over.
type Recorder struct {
	clock clockwork.Clock

	mu        sync.Mutex
	report    *MatchReport
	lastRound int
	done      bool
}

// NewRecorder returns a Recorder stamping times from clock.
func NewRecorder(clock clockwork.Clock) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Recorder{clock: clock}
}

// Observe folds s into the current report.
func (r *Recorder) Observe(s session.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch s.GameState {
	case session.Game:
		if r.report == nil || r.done {
			r.begin(s)
		}
	case session.RoundResult:
		if r.report == nil || r.done {
			r.begin(s)
		}
		r.recordRound(s)
	case session.GameOver:
		if r.report == nil || r.done {
			return false
		}
		r.recordRound(s)
		r.finish(s)
		return true
	}
	return false
}

// Report returns a copy of the most recent report, or nil before any round.
func (r *Recorder) Report() *MatchReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.report == nil {
		return nil
	}
	cp := *r.report
	cp.Players = append([]PlayerResult(nil), r.report.Players...)
	cp.Rounds = append([]RoundRecord(nil), r.report.Rounds...)
	return &cp
}

func (r *Recorder) begin(s session.Session) {
	r.report = &MatchReport{
		Match: MatchMeta{
			ID:           uuid.NewString(),
			RoomCode:     s.RoomCode,
			SinglePlayer: s.SinglePlayer,
			Language:     string(s.Language),
			WordLength:   s.WordLength,
			PlayerName:   s.PlayerName,
			StartTime:    r.clock.Now().UTC().Truncate(time.Second),
		},
		Rounds: []RoundRecord{},
	}
	r.lastRound = 0
	r.done = false
}

func (r *Recorder) recordRound(s session.Session) {
	if s.LastRoundResult == nil || s.Round == 0 || s.Round == r.lastRound {
		return
	}
	rec := RoundRecord{
		Number:      s.Round,
		WinnerID:    s.LastRoundResult.WinnerID,
		CorrectWord: s.LastRoundResult.CorrectWord,
		TimedOut:    s.LastRoundResult.TimedOut,
		Guesses:     make([]string, 0, len(s.Guesses)),
	}
	for _, g := range s.Guesses {
		rec.Guesses = append(rec.Guesses, g.Guess)
	}
	r.report.Rounds = append(r.report.Rounds, rec)
	r.lastRound = s.Round
}

func (r *Recorder) finish(s session.Session) {
	m := &r.report.Match
	m.EndTime = r.clock.Now().UTC().Truncate(time.Second)
	m.Duration = m.EndTime.Sub(m.StartTime).String()
	if s.RoomCode != "" {
		m.RoomCode = s.RoomCode
	}
	if s.GameWinner != nil {
		m.WinnerID = s.GameWinner.ID
		m.WinnerName = s.GameWinner.Name
	}
	r.report.Players = make([]PlayerResult, 0, len(s.Players))
	for _, p := range s.Players {
		r.report.Players = append(r.report.Players, PlayerResult{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
			Me:    p.ID != "" && p.ID == s.MyID,
		})
	}
	r.done = true
}
