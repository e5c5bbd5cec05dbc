package ast

import (
	"strings"
	"testing"
)

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, n *Node)
	}{
		{
			name:  "number",
			input: "42",
			check: func(t *testing.T, n *Node) {
				if n.Kind != Number || n.Text != "42" {
					t.Errorf("got %v %q", n.Kind, n.Text)
				}
			},
		},
		{
			name:  "negative number",
			input: "-7",
			check: func(t *testing.T, n *Node) {
				if n.Kind != Number || n.Text != "-7" {
					t.Errorf("got %v %q", n.Kind, n.Text)
				}
			},
		},
		{
			name:  "binary operation",
			input: "(+ a 1)",
			check: func(t *testing.T, n *Node) {
				if n.Kind != Operation || n.Text != "+" {
					t.Fatalf("got %v %q", n.Kind, n.Text)
				}
				if n.Left.Kind != Identifier || n.Left.Text != "a" {
					t.Errorf("left: got %v %q", n.Left.Kind, n.Left.Text)
				}
				if n.Right.Kind != Number || n.Right.Text != "1" {
					t.Errorf("right: got %v %q", n.Right.Kind, n.Right.Text)
				}
			},
		},
		{
			name:  "sequence nests right",
			input: "(; (print 1) (print 2) (print 3))",
			check: func(t *testing.T, n *Node) {
				stmts := Statements(n)
				if len(stmts) != 3 {
					t.Fatalf("expected 3 statements, got %d", len(stmts))
				}
				if n.Right == nil || n.Right.Text != ";" {
					t.Errorf("expected right child to be a sequence, got %v", n.Right)
				}
			},
		},
		{
			name:  "definition chains params",
			input: "(def add (a b c) (return (+ a b)))",
			check: func(t *testing.T, n *Node) {
				if n.Kind != FunctionDefinition || n.Text != "add" {
					t.Fatalf("got %v %q", n.Kind, n.Text)
				}
				var names []string
				for _, p := range Chain(n.Left) {
					names = append(names, p.Text)
				}
				if strings.Join(names, ",") != "a,b,c" {
					t.Errorf("params: got %v", names)
				}
				if n.Right.Text != "return" {
					t.Errorf("body: got %q", n.Right.Text)
				}
			},
		},
		{
			name:  "call with trailing expression",
			input: "(call f x 2 (- n 1))",
			check: func(t *testing.T, n *Node) {
				args := Chain(n.Left)
				if len(args) != 3 {
					t.Fatalf("expected 3 args, got %d", len(args))
				}
				if args[2].Text != "-" || args[2].Left.Text != "n" {
					t.Errorf("last arg: got %v", args[2])
				}
			},
		},
		{
			name:  "if with several body statements",
			input: "(if (< x 3) (print x) (= x 0))",
			check: func(t *testing.T, n *Node) {
				if n.Text != "if" || n.Left.Text != "<" {
					t.Fatalf("got %v", n)
				}
				if len(Statements(n.Right)) != 2 {
					t.Errorf("expected 2 body statements, got %v", n.Right)
				}
			},
		},
		{
			name:  "top level forms become a sequence",
			input: "(= x 5)\n# comment\n(print x)",
			check: func(t *testing.T, n *Node) {
				if len(Statements(n)) != 2 {
					t.Errorf("got %v", n)
				}
			},
		},
		{
			name:  "bare return",
			input: "(return)",
			check: func(t *testing.T, n *Node) {
				if n.Left != nil || n.Right != nil {
					t.Errorf("expected no operands, got %v", n)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			tt.check(t, n)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		col   int
		msg   string
	}{
		{"unclosed", "(; (print 1)\n", 1, 1, "unclosed"},
		{"stray close", "(print 1))", 1, 10, "unexpected ')'"},
		{"too many operands", "\n  (+ 1 2 3)", 2, 4, "at most two"},
		{"non-leaf in middle", "(call f (+ 1 2) 3)", 1, 2, "only the last argument"},
		{"bad number", "(print 99999999999999999999)", 1, 8, "bad number"},
		{"number head", "(1 2)", 1, 2, "must start with an operator"},
		{"missing params", "(def f x)", 1, 8, "expected parameter list"},
		{"numeric param", "(def f (1) x)", 1, 9, "expected parameter name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			pe, ok := err.(*ParseError)
			if !ok {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Line != tt.line || pe.Col != tt.col {
				t.Errorf("position: expected %d:%d, got %d:%d (%v)", tt.line, tt.col, pe.Line, pe.Col, err)
			}
			if !strings.Contains(pe.Msg, tt.msg) {
				t.Errorf("message: expected %q in %q", tt.msg, pe.Msg)
			}
		})
	}
}

func TestIncomplete(t *testing.T) {
	_, err := Parse("(def f (a)\n  (return a)")
	if !Incomplete(err) {
		t.Errorf("expected incomplete input, got %v", err)
	}
	_, err = Parse("(+ 1 2 3)")
	if Incomplete(err) {
		t.Errorf("did not expect incomplete for %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		"(; (= x 5) (print x))",
		"(def fib (n) (; (if (< n 2) (return n)) (return (+ (call fib (- n 1)) (call fib (- n 2))))))",
		"(while (< i 10) (; (print i) (= i (+ i 1))))",
		"(call f a 1 b)",
		"(return)",
		"(sqrt 16)",
	}
	for _, in := range inputs {
		n := MustParse(in)
		out := n.String()
		if out != in {
			t.Errorf("String():\n  got  %s\n  want %s", out, in)
		}
		again := MustParse(out)
		if again.String() != out {
			t.Errorf("second round trip differs: %s", again.String())
		}
	}
}

func FuzzParseNoPanic(f *testing.F) {
	seeds := []string{
		"",
		"(",
		")",
		"(; (= x 5) (print x))",
		"(def f (a b) (return (+ a b)))",
		"(call f 1 2 (call g 3))",
		"# only a comment",
		"(if)",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, src string) {
		n, err := Parse(src)
		if err != nil {
			return
		}
		_ = n.String()
	})
}
