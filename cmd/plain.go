package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/duelword/internal/config"
	"github.com/fakeyudi/duelword/internal/reconciler"
	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/wordle"
)

var feedbackMarks = map[wordle.Status]rune{
	wordle.Unused:  '?',
	wordle.Absent:  '.',
	wordle.Present: '+',
	wordle.Correct: '=',
}

// plainPrinter writes a line for every transition worth telling the player.
type plainPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last session.Session
}

func (p *plainPrinter) println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, a...)
}

func (p *plainPrinter) notify(n reconciler.Notification) {
	p.println("»", n.String())
}

func (p *plainPrinter) changed(s session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.last
	p.last = s

	if s.Round != prev.Round {
		prev.Guesses = nil
	}
	for i, g := range s.Guesses {
		if g.Revealing || len(g.Feedback) == 0 {
			continue
		}
		if i < len(prev.Guesses) && !prev.Guesses[i].Revealing && len(prev.Guesses[i].Feedback) > 0 {
			continue
		}
		marks := make([]rune, len(g.Feedback))
		for j, st := range g.Feedback {
			marks[j] = feedbackMarks[st]
		}
		fmt.Fprintf(p.out, "  %d. %s  %s\n", i+1, g.Guess, string(marks))
	}

	if s.GameState == prev.GameState && s.Round == prev.Round {
		return
	}
	switch s.GameState {
	case session.Lobby:
		fmt.Fprintf(p.out, "lobby %s: %s\n", s.RoomCode, rosterLine(s))
	case session.Game:
		fmt.Fprintf(p.out, "round %d: guess the %d-letter word\n", s.Round, s.WordLength)
	case session.RoundResult:
		fmt.Fprintf(p.out, "round %d over: %s\n", s.Round, outcomeLine(s))
		if s.SinglePlayer {
			fmt.Fprintln(p.out, "type /next for the next round")
		}
	case session.GameOver:
		switch {
		case s.GameWinner == nil:
			fmt.Fprintln(p.out, "game over: no winner")
		case s.GameWinner.ID == s.MyID:
			fmt.Fprintln(p.out, "game over: you win!")
		default:
			fmt.Fprintf(p.out, "game over: %s wins\n", s.GameWinner.Name)
		}
		fmt.Fprintf(p.out, "final scores: %s\n", rosterLine(s))
	case session.Home:
		if prev.GameState != session.Home {
			fmt.Fprintln(p.out, "back at home")
		}
	}
}

func rosterLine(s session.Session) string {
	parts := make([]string, 0, len(s.Players))
	for _, pl := range s.Players {
		name := pl.Name
		if pl.ID == s.MyID {
			name += " (you)"
		}
		parts = append(parts, fmt.Sprintf("%s %d", name, pl.Score))
	}
	if len(parts) == 0 {
		return "(no players)"
	}
	return strings.Join(parts, ", ")
}

func outcomeLine(s session.Session) string {
	o := s.LastRoundResult
	if o == nil {
		return "no result"
	}
	var line string
	switch {
	case o.TimedOut:
		line = "time's up"
	case o.WinnerID == "":
		line = "nobody found the word"
	case o.WinnerID == s.MyID:
		line = "you found the word"
	default:
		name := o.WinnerID
		if pl, ok := s.FindPlayer(o.WinnerID); ok {
			name = pl.Name
		}
		line = name + " found the word"
	}
	if o.ShowCorrectWord && o.CorrectWord != "" {
		line += ", it was " + o.CorrectWord
	}
	return line
}

// lineQueue feeds stdin lines to the game. Guesses wait until the board
// accepts input; slash commands run at once.
type lineQueue struct {
	rec     *reconciler.Reconciler
	store   *session.Store
	printer *plainPrinter
	pending []string
}

// drain handles queued lines until one has to wait. It reports whether the
// player asked to quit.
func (q *lineQueue) drain(ctx context.Context) bool {
	for len(q.pending) > 0 {
		line := q.pending[0]
		if strings.HasPrefix(line, "/") {
			q.pending = q.pending[1:]
			if q.command(ctx, line) {
				return true
			}
			continue
		}

		s := q.store.Snapshot()
		if s.GameState != session.Game || !s.InputActive {
			return false
		}
		for q.rec.Erase() {
		}
		for _, r := range line {
			q.rec.Type(r)
		}
		err := q.rec.Submit(ctx)
		if errors.Is(err, reconciler.ErrSubmitPending) {
			return false
		}
		q.pending = q.pending[1:]
		if err != nil {
			q.printer.println("»", line+":", err)
		}
	}
	return false
}

func (q *lineQueue) command(ctx context.Context, line string) bool {
	var err error
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "/quit":
		return true
	case "/leave":
		q.rec.LeaveRoom()
		return true
	case "/start":
		err = q.rec.StartGame(ctx)
	case "/next":
		err = q.rec.NextSinglePlayerRound(ctx)
	case "/again":
		err = q.rec.PlayAgain(ctx)
	default:
		err = fmt.Errorf("unknown command %s (try /start, /next, /again, /leave, /quit)", line)
	}
	if err != nil {
		q.printer.println("»", err)
	}
	return false
}

func readLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn().Err(err).Msg("read input")
	}
}

// playPlain runs a game driven by stdin lines until it is over, the player
// quits or the transport gives up.
func playPlain(ctx context.Context, cmd *cobra.Command, c config.Config, name string, o playOptions, length int) error {
	printer := &plainPrinter{out: cmd.OutOrStdout()}
	g, err := newGame(c, name, reconciler.NotifierFunc(printer.notify))
	if err != nil {
		return err
	}
	defer g.snaps.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.rec.AfterConnect(func(resumed bool) {
		if resumed {
			printer.println("resuming your previous game")
			return
		}
		if err := applyIntent(ctx, g.rec, o, length); err != nil {
			printer.println("»", err)
		}
	})

	changed := make(chan struct{}, 1)
	finished := make(chan struct{})
	var finishOnce sync.Once
	unsubscribe := g.subscribe(func(s session.Session) {
		printer.changed(s)
		select {
		case changed <- struct{}{}:
		default:
		}
		g.observe(s, func(path string, err error) {
			if err == nil {
				printer.println("report saved to", path)
			}
			finishOnce.Do(func() { close(finished) })
		})
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	runErr := g.start(ctx, &wg)

	lines := make(chan string)
	go readLines(ctx, cmd.InOrStdin(), lines)

	q := &lineQueue{rec: g.rec, store: g.store, printer: printer}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-finished:
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			q.pending = append(q.pending, line)
		case <-changed:
		}
		if q.drain(ctx) {
			return nil
		}
	}
}
