package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/session"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) snapshot() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tea.Msg(nil), r.msgs...)
}

func TestFeedCoalescesAndForwards(t *testing.T) {
	f := NewFeed()
	// Queued before the pump starts: three changes collapse into one.
	f.Changed()
	f.Changed()
	f.Changed()
	f.Notify(reconciler.Notification{Key: reconciler.NoteRoundStarted})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &recordingSender{}
	go f.Pump(ctx, sender, func() session.Session { return session.Session{Round: 7} })

	deadline := time.Now().Add(2 * time.Second)
	for len(sender.snapshot()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d messages forwarded", len(sender.snapshot()))
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	var sessions, notes int
	for _, msg := range sender.snapshot() {
		switch m := msg.(type) {
		case SessionMsg:
			sessions++
			if m.Round != 7 {
				t.Errorf("round = %d, want 7", m.Round)
			}
		case NoteMsg:
			notes++
		}
	}
	if sessions != 1 || notes != 1 {
		t.Errorf("sessions = %d, notes = %d, want 1 and 1", sessions, notes)
	}
}

func TestFeedNotifyNeverBlocks(t *testing.T) {
	f := NewFeed()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			f.Notify(reconciler.Notification{Key: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked without a pump")
	}
}
