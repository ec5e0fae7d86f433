package reconciler

import (
	"fmt"
	"sort"
	"strings"
)

// Level ranks a notification for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification keys. A UI shows at most one notification per key at a time.
const (
	NoteRoundStarted         = "roundStarted"
	NoteOpponentCorrect      = "opponentGuessedCorrectly"
	NoteOpponentOutOfGuesses = "opponentNoMoreGuesses"
	NoteCorrectWordWas       = "correctWordWas"
	NoteNoMoreGuesses        = "noMoreGuesses"
	NoteRoomRejoined         = "roomRejoined"
	NoteResumeFailed         = "couldNotResume"
	NoteGuessNotSent         = "guessNotSent"
	NoteRequestFailed        = "requestFailed"
	NoteServerError          = "serverError"
	NotePlayerLeft           = "playerLeft"
	NoteOpponentLeftYouWin   = "opponentLeftYouWin"
	NoteConnectionLost       = "connectionLost"
	NoteReconnecting         = "reconnecting"
	NoteGaveUp               = "connectionGaveUp"
)

var noteText = map[string]string{
	NoteRoundStarted:         "Round {round} started",
	NoteOpponentCorrect:      "{name} guessed the word",
	NoteOpponentOutOfGuesses: "{name} ran out of guesses",
	NoteCorrectWordWas:       "The word was {word}",
	NoteNoMoreGuesses:        "No more guesses",
	NoteRoomRejoined:         "Rejoined room {room}",
	NoteResumeFailed:         "Could not resume your previous game",
	NoteGuessNotSent:         "Guess not sent",
	NoteRequestFailed:        "{action} failed",
	NoteServerError:          "Server error",
	NotePlayerLeft:           "{name} left the game",
	NoteOpponentLeftYouWin:   "{name} left, you win",
	NoteConnectionLost:       "Connection lost, reconnecting",
	NoteReconnecting:         "Reconnecting (attempt {attempt})",
	NoteGaveUp:               "Could not reach the server",
}

// Notification is a user-visible message. Message carries the server's own
// wording when there is one.
type Notification struct {
	Key       string
	Level     Level
	Args      map[string]string
	Message   string
	Retryable bool
}

// String renders n in English.
func (n Notification) String() string {
	text, ok := noteText[n.Key]
	if !ok {
		text = n.Key
	}
	if len(n.Args) > 0 {
		keys := make([]string, 0, len(n.Args))
		for k := range n.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			pairs = append(pairs, "{"+k+"}", n.Args[k])
		}
		text = strings.NewReplacer(pairs...).Replace(text)
	}
	if n.Message != "" {
		text = fmt.Sprintf("%s: %s", text, n.Message)
	}
	if n.Retryable {
		text += " (try again)"
	}
	return text
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discard struct{}

func (discard) Notify(Notification) {}
