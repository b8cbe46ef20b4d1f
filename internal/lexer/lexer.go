// Package lexer splits extracted text into raw lexical tokens.
//
// A token is a maximal run of digits, a maximal run of alphanumerics
// starting with a letter, or a single non-whitespace character that is
// neither. Whitespace separates tokens and is never emitted. Tokens are
// returned as-is; case folding is the index's concern, not the lexer's.
package lexer

import (
	"unicode"
)

// Lexer is a restartable token stream over a fixed piece of text.
// The zero value is not usable; construct with New.
type Lexer struct {
	content  []rune
	position int
}

// New creates a Lexer over text.
func New(text string) *Lexer {
	return &Lexer{content: []rune(text)}
}

// Reset rewinds the lexer to the beginning of its text.
func (l *Lexer) Reset() {
	l.position = 0
}

// Next returns the next token and true, or "" and false when the text
// is exhausted.
func (l *Lexer) Next() (string, bool) {
	l.trimLeft()
	if l.position >= len(l.content) {
		return "", false
	}

	c := l.content[l.position]

	if unicode.IsDigit(c) {
		return string(l.chopWhile(unicode.IsDigit)), true
	}

	if unicode.IsLetter(c) {
		run := l.chopWhile(func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
		return string(run), true
	}

	return string(l.chop(1)), true
}

// All drains the lexer and returns the remaining tokens.
// Mostly a convenience for callers that do not need laziness.
func (l *Lexer) All() []string {
	var tokens []string
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) trimLeft() {
	for l.position < len(l.content) && unicode.IsSpace(l.content[l.position]) {
		l.position++
	}
}

func (l *Lexer) chop(n int) []rune {
	token := l.content[l.position : l.position+n]
	l.position += n
	return token
}

func (l *Lexer) chopWhile(predicate func(rune) bool) []rune {
	start := l.position
	for l.position < len(l.content) && predicate(l.content[l.position]) {
		l.position++
	}
	return l.content[start:l.position]
}
