package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Number) isNode()     {}
func (String) isNode()     {}
func (Array) isNode()      {}
func (Tuple) isNode()      {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Number float64
type String string

// Array is a bracketed list: [1 2 3].
type Array []Node

// Tuple is a parenthesized list: (1 2 3).
type Tuple []Node

// MatchExpr selects steps of a bar, level by level: '2,4/* is every eighth
// note of beats two and four. It has to be the last argument of a command.
type MatchExpr struct {
	matchers []matchItem
}

// Parse parses a line holding exactly one command.
func Parse(input string) (Command, error) {
	cmds, err := ParseAll(input)
	if err != nil {
		return Command{}, err
	}
	if len(cmds) != 1 {
		return Command{}, &SyntaxError{Msg: fmt.Sprintf("want one command, got %d", len(cmds))}
	}
	return cmds[0], nil
}

// ParseAll parses a line of commands separated by semicolons. Empty commands
// and comments yield nothing.
func ParseAll(input string) ([]Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	var cmds []Command
	for p.peek().typ != typeEOF {
		if p.peek().typ == typeSemicolon {
			p.next()
			continue
		}
		cmd, err := p.command()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

type parser struct {
	tokens []token
	pos    int
}

// next returns the current token and advances, except past the final EOF.
func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) atEnd() bool {
	typ := p.peek().typ
	return typ == typeEOF || typ == typeSemicolon
}

func (p *parser) command() (Command, error) {
	var cmd Command
	name := p.next()
	if name.typ != typeIdentifier {
		return cmd, unexpected(name)
	}
	cmd.Name = Identifier(name.text)
	for !p.atEnd() {
		arg, err := p.value(p.next())
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) value(t token) (Node, error) {
	switch t.typ {
	case typeIdentifier:
		return Identifier(t.text), nil
	case typeString:
		return String(t.text[1 : len(t.text)-1]), nil
	case typeFloat, typeInt:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.pos, Msg: err.Error()}
		}
		return Number(f), nil
	case typeLBracket:
		items, err := p.list(typeRBracket)
		return Array(items), err
	case typeLParen:
		items, err := p.list(typeRParen)
		return Tuple(items), err
	case typeQuote:
		expr, err := p.matchExpr()
		if err != nil {
			return nil, err
		}
		if !p.atEnd() {
			return nil, unexpected(p.peek())
		}
		return expr, nil
	default:
		return nil, unexpected(t)
	}
}

// list parses values up to and including the closing token.
func (p *parser) list(closing tokenType) ([]Node, error) {
	items := []Node{}
	for {
		t := p.next()
		switch t.typ {
		case closing:
			return items, nil
		case typeEOF:
			return nil, unexpected(t)
		}
		item, err := p.value(t)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

// matchExpr parses the levels of a match expression after its quote. Every
// slash between two matchers goes one level deeper.
func (p *parser) matchExpr() (MatchExpr, error) {
	var expr MatchExpr
	level := 0
	for {
		m, err := p.matcher()
		if err != nil {
			return expr, err
		}
		expr.matchers = append(expr.matchers, matchItem{level: level, matcher: m})
		if p.peek().typ != typeSlash {
			return expr, nil
		}
		for p.peek().typ == typeSlash {
			p.next()
			level++
		}
	}
}

// matcher parses *, a list like 1,3 or a range like 2:4.
func (p *parser) matcher() (matcher, error) {
	t := p.next()
	switch t.typ {
	case typeAsterisk:
		return matchAll, nil
	case typeInt:
	default:
		return nil, unexpected(t)
	}
	first, err := p.integer(t)
	if err != nil {
		return nil, err
	}
	if p.peek().typ == typeColon {
		p.next()
		end, err := p.integer(p.next())
		if err != nil {
			return nil, err
		}
		return rangeMatch{start: first, end: end}, nil
	}
	list := listMatch{first}
	for p.peek().typ == typeComma {
		p.next()
		n, err := p.integer(p.next())
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

func (p *parser) integer(t token) (int, error) {
	if t.typ != typeInt {
		return 0, unexpected(t)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, &SyntaxError{Pos: t.pos, Msg: err.Error()}
	}
	return n, nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return &SyntaxError{Pos: t.pos, Msg: "unexpected end of input"}
	}
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}
