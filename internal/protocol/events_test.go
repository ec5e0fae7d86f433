package protocol

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fakeyudi/duelword/internal/wordle"
)

func envelope(event, data string) Envelope {
	return Envelope{Event: event, Data: []byte(data)}
}

func TestDecodeGuessResult(t *testing.T) {
	ev, err := Decode(envelope(EventGuessResult,
		`{"guess":"CRANE","feedback":["absent","present","correct","absent","absent"],"isCorrect":false,"guessCount":1}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	gr, ok := ev.(GuessResult)
	if !ok {
		t.Fatalf("got %T, want GuessResult", ev)
	}
	want := []wordle.Status{wordle.Absent, wordle.Present, wordle.Correct, wordle.Absent, wordle.Absent}
	if !reflect.DeepEqual(gr.Feedback, want) {
		t.Errorf("feedback = %v, want %v", gr.Feedback, want)
	}
	if gr.GuessCount != 1 || gr.Guess != "CRANE" {
		t.Errorf("unexpected payload %+v", gr)
	}
}

func TestDecodeSinglePlayerGuessResultEmbedsGuess(t *testing.T) {
	ev, err := Decode(envelope(EventSinglePlayerGuessResult,
		`{"guess":"CAT","feedback":["correct","correct","correct"],"isCorrect":true,"guessCount":2,"roundOver":true,"gameOver":true,"gameWinner":{"id":"p1","name":"Ada","score":5}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sp := ev.(SinglePlayerGuessResult)
	if !sp.IsCorrect || sp.GuessCount != 2 || !sp.RoundOver || !sp.GameOver {
		t.Errorf("unexpected payload %+v", sp)
	}
	if sp.GameWinner == nil || sp.GameWinner.Score != 5 {
		t.Errorf("winner = %+v", sp.GameWinner)
	}
	if sp.EventName() != EventSinglePlayerGuessResult {
		t.Errorf("EventName = %q", sp.EventName())
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
	}{
		{"feedback length", envelope(EventGuessResult, `{"guess":"CRANE","feedback":["absent"],"guessCount":1}`)},
		{"unused in feedback", envelope(EventGuessResult, `{"guess":"CAT","feedback":["unused","absent","absent"],"guessCount":1}`)},
		{"unknown status", envelope(EventGuessResult, `{"guess":"CAT","feedback":["green","absent","absent"],"guessCount":1}`)},
		{"bad word length", envelope(EventNewRound, `{"round":1,"wordLength":9}`)},
		{"zero round", envelope(EventSinglePlayerRoundStart, `{"round":0,"wordLength":5}`)},
		{"connect without id", envelope(EventConnect, `{}`)},
		{"empty payload", Envelope{Event: EventRoundEnd}},
		{"not json", envelope(EventRoomUpdate, `{"players":`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ev, err := Decode(tt.env); err == nil {
				t.Errorf("expected error, got %#v", ev)
			}
		})
	}
}

func TestDecodeNewRoundDefaultsWordLength(t *testing.T) {
	ev, err := Decode(envelope(EventNewRound, `{"round":2,"roundEndTime":1700000000000,"players":[{"id":"a","name":"A","score":1}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	nr := ev.(NewRound)
	if nr.WordLength != wordle.DefaultWordLength {
		t.Errorf("word length = %d, want %d", nr.WordLength, wordle.DefaultWordLength)
	}
	if nr.RoundEndTime == nil || *nr.RoundEndTime != 1700000000000 {
		t.Errorf("round end time = %v", nr.RoundEndTime)
	}
}

func TestDecodeErrorAliases(t *testing.T) {
	for _, name := range []string{EventServerError, EventError} {
		ev, err := Decode(envelope(name, `{"message":"boom"}`))
		if err != nil {
			t.Fatalf("Decode(%s): %v", name, err)
		}
		if se := ev.(ServerError); se.Message != "boom" {
			t.Errorf("message = %q", se.Message)
		}
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := Decode(envelope("game-invite-received", `{}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}
