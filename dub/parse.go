package dub

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrEmpty is returned by Parse for input that holds no command, such as a
// blank line or a comment.
var ErrEmpty = errors.New("empty command")

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string
type MatchExpr struct {
	matchers []matchItem
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) backup() {
	p.pos--
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ == typeEOF {
		return cmd, ErrEmpty
	}
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		case typeQuote:
			matchExpr, err := p.matchExpr(p.next())
			if err != nil {
				return cmd, err
			}
			arg = matchExpr
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) matchExpr(start token) (MatchExpr, error) {
	match := MatchExpr{}
	current := matchItem{}

	for token := start; token.typ != typeEOF; token = p.next() {
		switch token.typ {
		case typeInt:
			switch next := p.peek(); next.typ {
			case typeComma, typeSlash, typeEOF:
				list, err := p.listMatch(token)
				if err != nil {
					return match, err
				}
				current.matcher = list
			case typeColon:
				p.next()
				start, err := strconv.Atoi(token.text)
				if err != nil {
					return match, err
				}
				t := p.next()
				if t.typ != typeInt {
					return match, unexpected(token)
				}
				end, err := strconv.Atoi(t.text)
				if err != nil {
					return match, err
				}
				current.matcher = rangeMatch{start: start, end: end}
			default:
				return match, unexpected(token)
			}
		case typeAsterisk:
			current.matcher = matchAll
		default:
			return match, unexpected(token)
		}

		if p.peek().typ == typeSlash {
			match.matchers = append(match.matchers, current)
			current = matchItem{level: current.level + 1}
			p.next()
		}
		for p.peek().typ == typeSlash {
			p.next()
			current.level++
		}
	}

	p.backup()
	match.matchers = append(match.matchers, current)
	return match, nil
}

func (p *parser) listMatch(start token) (listMatch, error) {
	var list listMatch
	current := start
	for {
		switch current.typ {
		case typeInt:
			n, err := strconv.Atoi(current.text)
			if err != nil {
				return list, err
			}
			list = append(list, n)
		case typeComma: // ignore
		default:
			p.backup()
			if current.typ != typeEOF && current.typ != typeSlash {
				return list, unexpected(current)
			}
			return list, nil
		}
		current = p.next()
	}
}

func unexpected(t token) error {
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}

// Scan copies the arguments of c into dst, which must hold one pointer per
// argument. Identifiers and strings scan into *string, numbers into *int or
// *float64, match expressions into *MatchExpr, and anything into *Node.
func (c Command) Scan(dst ...interface{}) error {
	if len(c.Args) != len(dst) {
		return fmt.Errorf("wrong number of arguments: want %d, got %d", len(dst), len(c.Args))
	}
	for n, arg := range c.Args {
		if err := scan(arg, dst[n]); err != nil {
			return fmt.Errorf("argument %d: %w", n+1, err)
		}
	}
	return nil
}

func scan(arg Node, dst interface{}) error {
	switch p := dst.(type) {
	case *string:
		switch s := arg.(type) {
		case String:
			*p = string(s)
		case Identifier:
			*p = string(s)
		default:
			return fmt.Errorf("expected a string or identifier, got %v", arg)
		}
	case *int:
		n, ok := arg.(Int)
		if !ok {
			return fmt.Errorf("expected an integer, got %v", arg)
		}
		*p = int(n)
	case *float64:
		switch n := arg.(type) {
		case Int:
			*p = float64(n)
		case Float:
			*p = float64(n)
		default:
			return fmt.Errorf("expected a number, got %v", arg)
		}
	case *MatchExpr:
		m, ok := arg.(MatchExpr)
		if !ok {
			return fmt.Errorf("expected a match expression, got %v", arg)
		}
		*p = m
	case *Node:
		*p = arg
	default:
		panic(fmt.Sprintf("dub: unsupported scan destination %T", dst))
	}
	return nil
}
