// Package wordle holds the pure game rules shared by the client: letter
// feedback, keyboard hints, alphabets and the fixed limits of a round.
package wordle

import "fmt"

const (
	MaxGuesses        = 6
	WinScore          = 5
	DefaultWordLength = 5
)

// AllowedWordLengths lists every word length a round may use.
var AllowedWordLengths = []int{3, 4, 5, 6}

// ValidWordLength reports whether n is one of AllowedWordLengths.
func ValidWordLength(n int) bool {
	for _, l := range AllowedWordLengths {
		if l == n {
			return true
		}
	}
	return false
}

// Status is the verdict for a single letter. The numeric order is the
// keyboard priority order: Unused < Absent < Present < Correct.
type Status uint8

const (
	Unused Status = iota
	Absent
	Present
	Correct
)

var statusNames = [...]string{"unused", "absent", "present", "correct"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// ParseStatus converts a wire name into a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return Unused, fmt.Errorf("unknown letter status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("invalid letter status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IsFeedback reports whether s can appear in a guess verdict (unused cannot).
func (s Status) IsFeedback() bool {
	return s == Absent || s == Present || s == Correct
}
