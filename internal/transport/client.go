// Package transport maintains the websocket connection to the game server:
// dialing with capped exponential backoff, keepalive pings, request/ack
// correlation, and decoding inbound frames into protocol events.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/fakeyudi/duelword/internal/protocol"
)

var (
	// ErrNotConnected is returned when a frame is sent without a live,
	// identified connection.
	ErrNotConnected = errors.New("not connected to server")
	// ErrAckTimeout is returned when the server does not acknowledge a
	// request in time.
	ErrAckTimeout = errors.New("server did not acknowledge request")
	// ErrGaveUp is returned by Run after the last reconnection attempt fails.
	ErrGaveUp = errors.New("gave up reconnecting to server")
)

// Channel is what the rest of the client needs from a connection.
type Channel interface {
	// Events yields decoded server events and connection changes. It is
	// closed when the transport stops.
	Events() <-chan protocol.Event
	// Emit sends a fire-and-forget event.
	Emit(event string, data any) error
	// Request sends an event and waits for its acknowledgement, decoding the
	// ack payload into reply when reply is non-nil.
	Request(ctx context.Context, event string, data any, reply any) error
	Connected() bool
	ID() string
}

// Config holds connection settings. Zero fields take the defaults below.
type Config struct {
	URL               string
	AckTimeout        time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxMessageSize    int64
	Clock             clockwork.Clock
	Dialer            *websocket.Dialer
}

func (c Config) withDefaults() Config {
	if c.AckTimeout <= 0 {
		c.AckTimeout = 10 * time.Second
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = 10
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = time.Second
	}
	if c.ReconnectDelayMax <= 0 {
		c.ReconnectDelayMax = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	return c
}

// Client is a reconnecting websocket Channel.
type Client struct {
	cfg    Config
	events chan protocol.Event

	mu      sync.Mutex
	send    chan []byte
	id      string
	pending map[string]chan protocol.Envelope
}

var _ Channel = (*Client)(nil)

// New returns a Client for cfg. Nothing is dialed until Run.
func New(cfg Config) *Client {
	return &Client{
		cfg:     cfg.withDefaults(),
		events:  make(chan protocol.Event, 64),
		pending: make(map[string]chan protocol.Envelope),
	}
}

func (c *Client) Events() <-chan protocol.Event { return c.events }

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send != nil && c.id != ""
}

func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Run dials and serves connections until ctx is cancelled or reconnection
// is exhausted. The events channel is closed when Run returns.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.ReconnectDelay
	b.MaxInterval = c.cfg.ReconnectDelayMax
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.Reset()

	failures := 0
	for {
		ws, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			log.Warn().Err(err).Int("attempt", failures).Str("url", c.cfg.URL).Msg("connect failed")
			c.emit(ctx, protocol.ConnectError{Message: err.Error(), Attempt: failures})
			if failures >= c.cfg.ReconnectAttempts {
				c.emit(ctx, protocol.Disconnected{Reason: err.Error(), Terminal: true})
				return fmt.Errorf("%w after %d attempts: %v", ErrGaveUp, failures, err)
			}
			if !c.wait(ctx, b.NextBackOff()) {
				return ctx.Err()
			}
			continue
		}

		failures = 0
		b.Reset()
		log.Info().Str("url", c.cfg.URL).Msg("websocket connected")

		reason := c.serve(ctx, ws)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Str("reason", reason).Msg("websocket disconnected")
		c.emit(ctx, protocol.Disconnected{Reason: reason})
		if !c.wait(ctx, b.NextBackOff()) {
			return ctx.Err()
		}
	}
}

func (c *Client) wait(ctx context.Context, d time.Duration) bool {
	t := c.cfg.Clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.Chan():
		return true
	}
}

func (c *Client) emit(ctx context.Context, ev protocol.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// serve runs one connection to completion and returns why it ended.
func (c *Client) serve(ctx context.Context, ws *websocket.Conn) string {
	connCtx, cancel := context.WithCancel(ctx)
	send := make(chan []byte, 64)

	c.mu.Lock()
	c.send = send
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(connCtx, ws, send)
	}()

	err := c.readPump(connCtx, ws)
	cancel()
	<-done

	c.mu.Lock()
	c.send = nil
	c.id = ""
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if err == nil {
		return "closed"
	}
	return err.Error()
}

// writePump owns all writes to ws, including keepalive pings. It closes ws
// on exit, which unblocks readPump.
func (c *Client) writePump(ctx context.Context, ws *websocket.Conn, send <-chan []byte) {
	ticker := c.cfg.Clock.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			ws.SetWriteDeadline(deadline(c.cfg.WriteTimeout))
			ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-send:
			ws.SetWriteDeadline(deadline(c.cfg.WriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("failed to write message to websocket")
				return
			}

		case <-ticker.Chan():
			ws.SetWriteDeadline(deadline(c.cfg.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}

// deadline is d from now on the wall clock. Socket deadlines are enforced by
// the network stack, so they cannot follow an injected clock.
func deadline(d time.Duration) time.Time {
	return time.Now().Add(d)
}

// readPump decodes frames until the connection fails.
func (c *Client) readPump(ctx context.Context, ws *websocket.Conn) error {
	ws.SetReadLimit(c.cfg.MaxMessageSize)
	ws.SetReadDeadline(deadline(c.cfg.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(deadline(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ws.SetReadDeadline(deadline(c.cfg.ReadTimeout))

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Msg("dropping unparseable frame")
			continue
		}
		if env.Ack != "" {
			c.resolve(env)
			continue
		}

		ev, err := protocol.Decode(env)
		if err != nil {
			log.Warn().Err(err).Str("event", env.Event).Msg("dropping malformed event")
			continue
		}
		if conn, ok := ev.(protocol.Connected); ok {
			c.mu.Lock()
			c.id = conn.ID
			c.mu.Unlock()
		}
		if !c.emit(ctx, ev) {
			return nil
		}
	}
}

func (c *Client) resolve(env protocol.Envelope) {
	c.mu.Lock()
	ch, ok := c.pending[env.Ack]
	delete(c.pending, env.Ack)
	c.mu.Unlock()
	if !ok {
		log.Debug().Str("ack", env.Ack).Msg("ack for unknown request")
		return
	}
	ch <- env
}

func (c *Client) write(env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", env.Event, err)
	}
	c.mu.Lock()
	send, id := c.send, c.id
	c.mu.Unlock()
	if send == nil || id == "" {
		return ErrNotConnected
	}
	select {
	case send <- data:
		return nil
	default:
		return fmt.Errorf("send %s: outbound buffer full", env.Event)
	}
}

func (c *Client) Emit(event string, data any) error {
	env, err := protocol.NewEnvelope(event, "", data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Client) Request(ctx context.Context, event string, data any, reply any) error {
	id := uuid.NewString()
	env, err := protocol.NewEnvelope(event, id, data)
	if err != nil {
		return err
	}

	ch := make(chan protocol.Envelope, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(env); err != nil {
		return err
	}

	timer := c.cfg.Clock.NewTimer(c.cfg.AckTimeout)
	defer timer.Stop()

	select {
	case ack, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if reply == nil || len(ack.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(ack.Data, reply); err != nil {
			return fmt.Errorf("decode %s ack: %w", event, err)
		}
		return nil
	case <-timer.Chan():
		return fmt.Errorf("%s: %w", event, ErrAckTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
