package wordle

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Language selects the alphabet and casing rules of a round.
type Language string

const (
	English Language = "en"
	Turkish Language = "tr"
)

// DefaultLanguage is used when neither the server nor the config names one.
const DefaultLanguage = Turkish

var alphabets = map[Language]string{
	English: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	Turkish: "ABCÇDEFGĞHIİJKLMNOÖPRSŞTUÜVYZ",
}

// ParseLanguage validates a language code.
func ParseLanguage(code string) (Language, error) {
	l := Language(code)
	if _, ok := alphabets[l]; !ok {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return l, nil
}

// Alphabet returns the keyboard letters for l, falling back to the default
// language for unknown codes.
func (l Language) Alphabet() []rune {
	a, ok := alphabets[l]
	if !ok {
		a = alphabets[DefaultLanguage]
	}
	return []rune(a)
}

// Upper uppercases s with l's casing rules, so Turkish "i" becomes "İ".
func (l Language) Upper(s string) string {
	tag := language.Und
	switch l {
	case Turkish:
		tag = language.Turkish
	case English:
		tag = language.English
	}
	return cases.Upper(tag).String(s)
}
