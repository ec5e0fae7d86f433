package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/session"
)

// Sender is the part of *tea.Program the feed needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Feed forwards store changes and notifications to a running program
// without ever blocking the caller. Store changes coalesce: the program
// always receives the latest snapshot.
type Feed struct {
	changed chan struct{}
	notes   chan reconciler.Notification
}

// NewFeed returns an idle Feed. Call Pump to start forwarding.
func NewFeed() *Feed {
	return &Feed{
		changed: make(chan struct{}, 1),
		notes:   make(chan reconciler.Notification, 32),
	}
}

// Changed marks the session as changed. Suitable for Store.Subscribe.
func (f *Feed) Changed() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

// Notify queues n. Notifications beyond the buffer are dropped and logged.
func (f *Feed) Notify(n reconciler.Notification) {
	select {
	case f.notes <- n:
	default:
		log.Warn().Str("key", n.Key).Msg("notification dropped")
	}
}

// Pump forwards until ctx is done.
func (f *Feed) Pump(ctx context.Context, p Sender, snapshot func() session.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.changed:
			p.Send(SessionMsg(snapshot()))
		case n := <-f.notes:
			p.Send(NoteMsg(n))
		}
	}
}
