package reconciler_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fakeyudi/duelword/internal/protocol"
	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/transport"
)

type sent struct {
	event string
	data  json.RawMessage
}

// fakeChannel is an in-memory transport.Channel. Requests are answered by
// the handler registered for their event name; unanswered requests time out
// immediately.
type fakeChannel struct {
	events chan protocol.Event

	mu        sync.Mutex
	connected bool
	id        string
	sent      []sent
	handlers  map[string]func(data json.RawMessage) (any, error)
}

var _ transport.Channel = (*fakeChannel)(nil)

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		events:   make(chan protocol.Event, 16),
		handlers: make(map[string]func(json.RawMessage) (any, error)),
	}
}

func (f *fakeChannel) Events() <-chan protocol.Event { return f.events }

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) ID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *fakeChannel) on(event string, h func(data json.RawMessage) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = h
}

// reply registers a fixed acknowledgement for event.
func (f *fakeChannel) reply(event string, ack any) {
	f.on(event, func(json.RawMessage) (any, error) { return ack, nil })
}

func (f *fakeChannel) record(event string, data any) json.RawMessage {
	raw, _ := json.Marshal(data)
	f.mu.Lock()
	f.sent = append(f.sent, sent{event: event, data: raw})
	f.mu.Unlock()
	return raw
}

func (f *fakeChannel) Emit(event string, data any) error {
	if !f.Connected() {
		return transport.ErrNotConnected
	}
	f.record(event, data)
	return nil
}

func (f *fakeChannel) Request(ctx context.Context, event string, data any, reply any) error {
	if !f.Connected() {
		return transport.ErrNotConnected
	}
	raw := f.record(event, data)
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h == nil {
		return transport.ErrAckTimeout
	}
	ack, err := h(raw)
	if err != nil {
		return err
	}
	b, _ := json.Marshal(ack)
	return json.Unmarshal(b, reply)
}

// connect marks the channel live and delivers the connect event.
func (f *fakeChannel) connect(id string) {
	f.mu.Lock()
	f.connected = true
	f.id = id
	f.mu.Unlock()
	f.events <- protocol.Connected{ID: id}
}

func (f *fakeChannel) sentEvents(name string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []json.RawMessage
	for _, s := range f.sent {
		if s.event == name {
			out = append(out, s.data)
		}
	}
	return out
}

// notes collects notifications.
type notes struct {
	mu  sync.Mutex
	got []reconciler.Notification
}

func (n *notes) Notify(x reconciler.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, x)
}

func (n *notes) has(key string) (reconciler.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, x := range n.got {
		if x.Key == key {
			return x, true
		}
	}
	return reconciler.Notification{}, false
}

// memSnapshots is an in-memory session.SnapshotStore.
type memSnapshots struct {
	mu   sync.Mutex
	snap *session.Snapshot
}

func (m *memSnapshots) Save(s *session.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	m.snap = &c
	return nil
}

func (m *memSnapshots) Load() (*session.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, session.ErrNoSnapshot
	}
	c := *m.snap
	return &c, nil
}

func (m *memSnapshots) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}

func (m *memSnapshots) Path() string { return "" }
func (m *memSnapshots) Close() error { return nil }

func (m *memSnapshots) get() *session.Snapshot {
	s, _ := m.Load()
	return s
}
