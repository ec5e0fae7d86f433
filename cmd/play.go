package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/duelword/internal/config"
	"github.com/fakeyudi/duelword/internal/countdown"
	"github.com/fakeyudi/duelword/internal/logging"
	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/report"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/transport"
	"github.com/fakeyudi/duelword/internal/tui"
	"github.com/fakeyudi/duelword/internal/wordle"
)

type playOptions struct {
	single bool
	length int
	create bool
	join   string
	name   string
	plain  bool
	server string
}

var playOpts playOptions

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Connect to the game server and play",
	Long: `Connect to the game server and play.

An interrupted game is resumed automatically on the next run. Otherwise
--single, --create or --join pick what to do once connected; without them
the terminal UI starts on the home screen.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, playOpts)
	},
}

func (o playOptions) validate() error {
	n := 0
	for _, set := range []bool{o.single, o.create, o.join != ""} {
		if set {
			n++
		}
	}
	if n > 1 {
		return errors.New("choose only one of --single, --create or --join")
	}
	if o.length != 0 {
		if !o.single {
			return errors.New("--length only applies to --single")
		}
		if !wordle.ValidWordLength(o.length) {
			return fmt.Errorf("word length must be one of %v", wordle.AllowedWordLengths)
		}
	}
	if o.join != "" {
		if _, err := reconciler.NormalizeRoomCode(o.join); err != nil {
			return err
		}
	}
	if o.plain && n == 0 {
		return errors.New("--plain needs one of --single, --create or --join")
	}
	return nil
}

// applyIntent starts what the flags asked for. It runs only when nothing
// was resumed on connect.
func applyIntent(ctx context.Context, rec *reconciler.Reconciler, o playOptions, length int) error {
	switch {
	case o.single:
		return rec.StartSinglePlayer(ctx, length)
	case o.create:
		if err := rec.ChooseMode(false); err != nil {
			return err
		}
		return rec.CreateRoom(ctx)
	case o.join != "":
		if err := rec.ChooseMode(false); err != nil {
			return err
		}
		return rec.JoinRoom(ctx, o.join)
	}
	return nil
}

// game holds everything a play session wires together.
type game struct {
	cfg      config.Config
	clock    clockwork.Clock
	snaps    session.SnapshotStore
	store    *session.Store
	client   *transport.Client
	rec      *reconciler.Reconciler
	recorder *report.Recorder

	listenMu sync.Mutex
}

func newGame(c config.Config, name string, notifier reconciler.Notifier) (*game, error) {
	lang, err := wordle.ParseLanguage(c.Language)
	if err != nil {
		return nil, err
	}
	snaps, err := session.OpenSnapshotStore(c.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	clock := clockwork.NewRealClock()
	store := session.NewStore(snaps, clock, lang)
	store.SetPlayerName(name)

	initial, maxDelay := c.ReconnectDelays()
	client := transport.New(transport.Config{
		URL:               c.ServerURL,
		AckTimeout:        c.AckTimeout(),
		ReconnectAttempts: c.ReconnectAttempts,
		ReconnectDelay:    initial,
		ReconnectDelayMax: maxDelay,
		Clock:             clock,
	})

	rec := reconciler.New(store, client, reconciler.Options{
		Clock:     clock,
		Notifier:  notifier,
		Snapshots: snaps,
	})

	return &game{
		cfg:      c,
		clock:    clock,
		snaps:    snaps,
		store:    store,
		client:   client,
		rec:      rec,
		recorder: report.NewRecorder(clock),
	}, nil
}

// subscribe runs fn with a fresh snapshot after every store change. Calls
// are serialized and each snapshot is taken inside the critical section, so
// fn never sees the session go backwards.
func (g *game) subscribe(fn func(s session.Session)) func() {
	return g.store.Subscribe(func() {
		g.listenMu.Lock()
		defer g.listenMu.Unlock()
		fn(g.store.Snapshot())
	})
}

// observe feeds s to the recorder and writes the report when a match ends.
// done receives the outcome of the write on another goroutine.
func (g *game) observe(s session.Session, done func(path string, err error)) {
	if !g.recorder.Observe(s) {
		return
	}
	r := g.recorder.Report()
	go func() {
		path, err := report.Write(g.cfg.OutputDir, g.cfg.DefaultFormat, r)
		if err != nil {
			log.Error().Err(err).Msg("write match report")
		} else {
			log.Info().Str("path", path).Msg("match report written")
		}
		done(path, err)
	}()
}

// start runs the transport and the reconciler until ctx is done. The
// returned channel yields the transport's exit error.
func (g *game) start(ctx context.Context, wg *sync.WaitGroup) <-chan error {
	runErr := make(chan error, 1)
	wg.Add(2)
	go func() {
		defer wg.Done()
		runErr <- g.client.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := g.rec.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("reconciler stopped")
		}
	}()
	return runErr
}

func runPlay(cmd *cobra.Command, o playOptions) error {
	if err := o.validate(); err != nil {
		return err
	}

	c := GetConfig()
	if o.server != "" {
		c.ServerURL = o.server
		if err := c.Validate(); err != nil {
			return err
		}
	}

	prof := GetProfile()
	name := o.name
	if name == "" && prof != nil {
		name = prof.Name
	}
	if name == "" {
		return errors.New("no player name: pass --name or run 'duelword setup'")
	}
	length := o.length
	if length == 0 {
		length = prof.WordLength()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.plain {
		return playPlain(ctx, cmd, c, name, o, length)
	}
	return playTUI(ctx, c, name, o, length)
}

func playTUI(ctx context.Context, c config.Config, name string, o playOptions, length int) error {
	// The UI owns the terminal; logs go to a file.
	f, err := logging.OpenFile(c.LogFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := logging.Setup(c.LogLevel, f); err != nil {
		return err
	}

	feed := tui.NewFeed()
	g, err := newGame(c, name, feed)
	if err != nil {
		return err
	}
	defer g.snaps.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.rec.AfterConnect(func(resumed bool) {
		if resumed {
			return
		}
		if err := applyIntent(ctx, g.rec, o, length); err != nil {
			log.Warn().Err(err).Msg("apply start intent")
		}
	})

	cd := countdown.New(g.clock)
	model := tui.New(ctx, g.rec, cd, g.store.Snapshot(), length)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := g.subscribe(func(s session.Session) {
		feed.Changed()
		g.observe(s, func(path string, err error) {
			p.Send(tui.ReportMsg{Path: path, Err: err})
		})
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	runErr := g.start(ctx, &wg)
	wg.Add(3)
	go func() {
		defer wg.Done()
		feed.Pump(ctx, p, g.store.Snapshot)
	}()
	go func() {
		defer wg.Done()
		cd.Run(ctx, time.Second, func(remaining int) { p.Send(tui.TickMsg(remaining)) })
	}()
	go func() {
		defer wg.Done()
		select {
		case err := <-runErr:
			if errors.Is(err, transport.ErrGaveUp) {
				p.Send(tui.DisconnectedMsg{Err: err})
			}
		case <-ctx.Done():
		}
	}()

	final, err := p.Run()
	cancel()
	wg.Wait()

	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func init() {
	f := playCmd.Flags()
	f.BoolVar(&playOpts.single, "single", false, "start a single-player game")
	f.IntVar(&playOpts.length, "length", 0, "single-player word length (3-6)")
	f.BoolVar(&playOpts.create, "create", false, "create a multiplayer room")
	f.StringVar(&playOpts.join, "join", "", "join the multiplayer room with this code")
	f.StringVar(&playOpts.name, "name", "", "player name (defaults to the profile name)")
	f.BoolVar(&playOpts.plain, "plain", false, "line-based play without the terminal UI")
	f.StringVar(&playOpts.server, "server", "", "game server websocket URL")
	rootCmd.AddCommand(playCmd)
}
