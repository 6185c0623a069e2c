package dub

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError is returned by Parse when a line cannot be lexed or parsed.
type SyntaxError struct {
	Pos int // byte offset of the offending input
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

type tokenType int

const (
	typeInt tokenType = iota
	typeFloat
	typeIdentifier
	typeString
	typeQuote
	typeComma
	typeColon
	typeSlash
	typeAsterisk
	typeSemicolon
	typeLBracket
	typeRBracket
	typeLParen
	typeRParen
	typeEOF
)

const (
	eof     = -1
	comment = '#'
)

var punctuation = map[rune]tokenType{
	'\'': typeQuote,
	',':  typeComma,
	':':  typeColon,
	'/':  typeSlash,
	'*':  typeAsterisk,
	';':  typeSemicolon,
	'[':  typeLBracket,
	']':  typeRBracket,
	'(':  typeLParen,
	')':  typeRParen,
}

type token struct {
	typ  tokenType
	pos  int // offset of the first byte
	text string
}

// lex splits a line into tokens. Everything after a # is ignored. The last
// token is always typeEOF.
func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	for l.err == nil {
		r := l.next()
		switch {
		case r == eof || r == comment:
			l.start, l.pos = len(l.input), len(l.input)
			l.emit(typeEOF)
			return l.tokens, nil
		case r == ' ' || r == '\t':
			l.skipSpace()
		case r == '"':
			l.lexString()
		case unicode.IsLetter(r):
			l.lexIdentifier()
		case l.startsNumber(r):
			l.lexNumber()
		default:
			typ, ok := punctuation[r]
			if !ok {
				l.invalid(r)
				break
			}
			l.emit(typ)
		}
	}
	return l.tokens, l.err
}

type lexer struct {
	input      string
	start, pos int
	width      int
	tokens     []token
	err        error
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *lexer) backup() { l.pos -= l.width }

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) emit(t tokenType) {
	l.tokens = append(l.tokens, token{typ: t, pos: l.start, text: l.input[l.start:l.pos]})
	l.start = l.pos
	l.width = 0
}

func (l *lexer) fail(pos int, format string, args ...interface{}) {
	l.err = &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// invalid reports r, which has just been read.
func (l *lexer) invalid(r rune) {
	l.fail(l.pos-l.width, "unexpected character %#U", r)
}

func (l *lexer) skipSpace() {
	for r := l.peek(); r == ' ' || r == '\t'; r = l.peek() {
		l.next()
	}
	l.start = l.pos
}

// acceptRun consumes runes from set and reports how many it took.
func (l *lexer) acceptRun(set string) int {
	n := 0
	for strings.ContainsRune(set, l.next()) {
		n++
	}
	l.backup()
	return n
}

func (l *lexer) accept(set string) bool {
	if strings.ContainsRune(set, l.next()) {
		return true
	}
	l.backup()
	return false
}

// endToken emits a token of type t if the next rune may follow it, in which
// case extra lists runes allowed besides the usual delimiters.
func (l *lexer) endToken(t tokenType, extra string) {
	r := l.peek()
	if !isDelimiter(r) && !strings.ContainsRune(extra, r) {
		l.next()
		l.invalid(r)
		return
	}
	l.emit(t)
}

// lexIdentifier reads names like env.attack or load-sound. The first letter has
// already been read.
func (l *lexer) lexIdentifier() {
	for {
		r := l.next()
		if unicode.IsLetter(r) || isDigit(r) || r == '_' || r == '-' || r == '.' {
			continue
		}
		l.backup()
		l.endToken(typeIdentifier, "")
		return
	}
}

func (l *lexer) lexString() {
	for {
		switch l.next() {
		case '"':
			l.emit(typeString)
			return
		case eof:
			l.fail(l.start, "unterminated string")
			return
		}
	}
}

const digits = "0123456789"

// lexNumber reads an int or a float. startsNumber has already accepted the
// first rune.
func (l *lexer) lexNumber() {
	l.backup()
	l.accept("-")
	l.acceptRun(digits)
	isFloat := l.accept(".")
	l.acceptRun(digits)
	typ := typeInt
	if isFloat {
		typ = typeFloat
	}
	// numbers also appear inside match expressions such as '1,2/3:4
	l.endToken(typ, "/:,")
}

// startsNumber reports whether r, already read, begins a number: a digit, or
// a sign or decimal point followed by one.
func (l *lexer) startsNumber(r rune) bool {
	if isDigit(r) {
		return true
	}
	rest := l.input[l.pos:]
	switch r {
	case '-':
		return strings.HasPrefix(rest, ".") && len(rest) > 1 && isDigit(rune(rest[1])) ||
			len(rest) > 0 && isDigit(rune(rest[0]))
	case '.':
		return len(rest) > 0 && isDigit(rune(rest[0]))
	}
	return false
}

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', ']', ')', ';', comment, eof:
		return true
	}
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
