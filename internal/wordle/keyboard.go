package wordle

// Keyboard maps each letter to the best Status seen for it during a round.
// A Keyboard is never mutated after construction; Fold returns a new one.
type Keyboard map[rune]Status

// NewKeyboard returns a keyboard with every letter of l's alphabet unused.
func NewKeyboard(l Language) Keyboard {
	alphabet := l.Alphabet()
	k := make(Keyboard, len(alphabet))
	for _, r := range alphabet {
		k[r] = Unused
	}
	return k
}

// Get returns the status of r; letters missing from the map are unused.
func (k Keyboard) Get(r rune) Status {
	return k[r]
}

// Fold applies one guess and its feedback and returns the resulting keyboard.
// A letter only moves up the order unused < absent < present < correct, so
// folding the same guess twice gives the same keyboard as folding it once.
func (k Keyboard) Fold(guess string, feedback []Status) Keyboard {
	next := make(Keyboard, len(k))
	for r, s := range k {
		next[r] = s
	}
	for i, r := range []rune(guess) {
		if i >= len(feedback) {
			break
		}
		cand, cur := feedback[i], next[r]
		if cand == Correct ||
			(cand == Present && cur != Correct) ||
			(cand == Absent && cur == Unused) {
			next[r] = cand
		}
	}
	return next
}

// Clone returns an independent copy of k.
func (k Keyboard) Clone() Keyboard {
	c := make(Keyboard, len(k))
	for r, s := range k {
		c[r] = s
	}
	return c
}
