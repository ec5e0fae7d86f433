package wordle

// Evaluate compares guess against secret letter by letter and returns one
// Status per position. Both words are uppercased before comparison. Repeated
// letters are matched against the secret's letter counts: exact positions are
// claimed first, then remaining letters are matched left to right.
//
// Evaluate returns nil when the words differ in length.
func Evaluate(guess, secret string) []Status {
	return EvaluateIn(Language(""), guess, secret)
}

// EvaluateIn is Evaluate with l's casing rules.
func EvaluateIn(l Language, guess, secret string) []Status {
	g := []rune(l.Upper(guess))
	pool := []rune(l.Upper(secret))
	if len(g) != len(pool) {
		return nil
	}

	const taken = rune(-1)
	out := make([]Status, len(g))
	for i := range out {
		out[i] = Absent
	}

	for i, r := range g {
		if r == pool[i] {
			out[i] = Correct
			pool[i] = taken
		}
	}

	for i, r := range g {
		if out[i] != Absent {
			continue
		}
		for j, p := range pool {
			if p == r {
				out[i] = Present
				pool[j] = taken
				break
			}
		}
	}
	return out
}
