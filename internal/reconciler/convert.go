package reconciler

import (
	"github.com/fakeyudi/duelword/internal/protocol"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/wordle"
)

func toPlayer(p protocol.Player) session.Player {
	return session.Player{ID: p.ID, Name: p.Name, Score: p.Score}
}

// toPlayers returns nil for an empty roster so the Store keeps its own.
func toPlayers(ps []protocol.Player) []session.Player {
	if len(ps) == 0 {
		return nil
	}
	out := make([]session.Player, len(ps))
	for i, p := range ps {
		out[i] = toPlayer(p)
	}
	return out
}

func toLanguage(code string) wordle.Language {
	if code == "" {
		return ""
	}
	l, err := wordle.ParseLanguage(code)
	if err != nil {
		return ""
	}
	return l
}

func findPlayer(id string, rosters ...[]session.Player) (session.Player, bool) {
	if id == "" {
		return session.Player{}, false
	}
	for _, roster := range rosters {
		for _, p := range roster {
			if p.ID == id {
				return p, true
			}
		}
	}
	return session.Player{}, false
}
