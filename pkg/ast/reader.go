package ast

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseError reports a malformed tree file.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Incomplete reports whether err was caused by input ending inside an open
// list, which an interactive reader can fix by asking for more lines.
func Incomplete(err error) bool {
	pe, ok := err.(*ParseError)
	return ok && pe.Msg == msgUnclosed
}

const msgUnclosed = "unclosed '('"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOpen
	tokClose
	tokAtom
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// reader holds all mutable state for a single pass over src.
type reader struct {
	src  []rune
	pos  int
	line int
	col  int

	tok token
}

func newReader(src string) *reader {
	r := &reader{src: []rune(src), line: 1, col: 1}
	r.next()
	return r
}

func (r *reader) peek() rune {
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

func (r *reader) advance() rune {
	if r.pos >= len(r.src) {
		return 0
	}
	c := r.src[r.pos]
	r.pos++
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return c
}

// skipSpace discards whitespace and '#' line comments.
func (r *reader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.peek()
		switch {
		case unicode.IsSpace(c):
			r.advance()
		case c == '#':
			for r.pos < len(r.src) && r.peek() != '\n' {
				r.advance()
			}
		default:
			return
		}
	}
}

func (r *reader) next() {
	r.skipSpace()
	t := token{line: r.line, col: r.col}
	switch c := r.peek(); {
	case r.pos >= len(r.src):
		t.kind = tokEOF
	case c == '(':
		r.advance()
		t.kind = tokOpen
	case c == ')':
		r.advance()
		t.kind = tokClose
	default:
		start := r.pos
		for r.pos < len(r.src) {
			c := r.peek()
			if unicode.IsSpace(c) || c == '(' || c == ')' || c == '#' {
				break
			}
			r.advance()
		}
		t.kind = tokAtom
		t.text = string(r.src[start:r.pos])
	}
	r.tok = t
}

func (r *reader) errorf(t token, format string, args ...any) error {
	return &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

// Parse reads a tree file. Several top-level forms are joined into one
// sequence; an empty file yields an empty sequence.
func Parse(src string) (*Node, error) {
	r := newReader(src)
	var forms []*Node
	for r.tok.kind != tokEOF {
		if r.tok.kind == tokClose {
			return nil, r.errorf(r.tok, "unexpected ')'")
		}
		n, err := r.form()
		if err != nil {
			return nil, err
		}
		if n != nil {
			forms = append(forms, n)
		}
	}
	if len(forms) == 1 {
		return forms[0], nil
	}
	return Seq(forms...), nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Node {
	n, err := Parse(src)
	if err != nil {
		panic("ast: " + err.Error())
	}
	return n
}

func (r *reader) form() (*Node, error) {
	t := r.tok
	switch t.kind {
	case tokAtom:
		r.next()
		return atom(t)
	case tokOpen:
		r.next()
		return r.list(t)
	case tokClose:
		return nil, r.errorf(t, "unexpected ')'")
	default:
		return nil, r.errorf(t, "unexpected end of input")
	}
}

func isNumber(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	return s != "" && unicode.IsDigit(rune(s[0]))
}

func atom(t token) (*Node, error) {
	if isNumber(t.text) {
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("bad number %q", t.text)}
		}
		return Num(v), nil
	}
	return Ident(t.text), nil
}

// items reads forms up to the closing parenthesis of the list opened at open.
func (r *reader) items(open token) ([]*Node, error) {
	var out []*Node
	for {
		switch r.tok.kind {
		case tokClose:
			r.next()
			return out, nil
		case tokEOF:
			return nil, r.errorf(open, msgUnclosed)
		}
		n, err := r.form()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
}

func (r *reader) name(what string) (string, error) {
	t := r.tok
	if t.kind != tokAtom || isNumber(t.text) {
		if t.kind == tokEOF {
			return "", r.errorf(t, "unexpected end of input")
		}
		return "", r.errorf(t, "expected %s name", what)
	}
	r.next()
	return t.text, nil
}

func body(forms []*Node) *Node {
	switch len(forms) {
	case 0:
		return nil
	case 1:
		return forms[0]
	default:
		return Seq(forms...)
	}
}

func (r *reader) list(open token) (*Node, error) {
	if r.tok.kind == tokClose {
		r.next()
		return nil, nil
	}
	if r.tok.kind != tokAtom {
		if r.tok.kind == tokEOF {
			return nil, r.errorf(open, msgUnclosed)
		}
		return nil, r.errorf(r.tok, "list must start with an operator")
	}
	head := r.tok.text
	headTok := r.tok
	r.next()

	switch head {
	case "def":
		name, err := r.name("function")
		if err != nil {
			return nil, err
		}
		params, err := r.params()
		if err != nil {
			return nil, err
		}
		forms, err := r.items(open)
		if err != nil {
			return nil, err
		}
		return Def(name, params, body(forms)), nil

	case "call":
		name, err := r.name("function")
		if err != nil {
			return nil, err
		}
		args, err := r.items(open)
		if err != nil {
			return nil, err
		}
		for i, a := range args {
			if a == nil {
				return nil, r.errorf(headTok, "empty argument %d to %s", i+1, name)
			}
			if !a.IsLeaf() && i != len(args)-1 {
				return nil, r.errorf(headTok, "argument %d to %s must be a name or number; only the last argument may be an expression", i+1, name)
			}
		}
		return CallOf(name, args...), nil
	}

	forms, err := r.items(open)
	if err != nil {
		return nil, err
	}
	switch head {
	case ";":
		var stmts []*Node
		for _, f := range forms {
			if f != nil {
				stmts = append(stmts, f)
			}
		}
		return Seq(stmts...), nil
	case "if", "while":
		if len(forms) == 0 || forms[0] == nil {
			return nil, r.errorf(headTok, "%s needs a condition", head)
		}
		return Op(head, forms[0], body(forms[1:])), nil
	}
	if isNumber(head) {
		return nil, r.errorf(headTok, "list must start with an operator")
	}
	if len(forms) > 2 {
		return nil, r.errorf(headTok, "%s takes at most two operands, got %d", head, len(forms))
	}
	var left, right *Node
	if len(forms) > 0 {
		left = forms[0]
	}
	if len(forms) > 1 {
		right = forms[1]
	}
	return Op(head, left, right), nil
}

func (r *reader) params() ([]string, error) {
	open := r.tok
	if open.kind != tokOpen {
		return nil, r.errorf(open, "expected parameter list")
	}
	r.next()
	var out []string
	for r.tok.kind != tokClose {
		if r.tok.kind == tokEOF {
			return nil, r.errorf(open, msgUnclosed)
		}
		p, err := r.name("parameter")
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	r.next()
	return out, nil
}
