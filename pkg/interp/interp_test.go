package interp

import (
	"errors"
	"strings"
	"testing"

	"stackc/pkg/ast"
	"stackc/pkg/compiler"
)

func runSource(t *testing.T, src string) (string, error) {
	t.Helper()
	var out strings.Builder
	it := New(&out)
	err := it.Run(ast.MustParse(src))
	return out.String(), err
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"print global", "(; (= x 5) (print x))", "5\n"},
		{"while loop", "(; (= x 0) (while (< x 3) (print x) (= x (+ x 1))))", "0\n1\n2\n"},
		{"function", "(; (def plus (a b) (return (+ a b))) (print (call plus 2 3)))", "5\n"},
		{"forward call", "(; (print (call later 4)) (def later (v) (return (* v v))))", "16\n"},
		{"recursion", "(; (def fib (k) (if (< k 2) (return k)) (return (+ (call fib (- k 1)) (call fib (- k 2))))) (print (call fib 10)))", "55\n"},
		{"shadowing", "(; (= x 1) (def f () (= x 5) (return x)) (print (call f)) (print x))", "5\n1\n"},
		{"globals readable in functions", "(; (= g 2) (def get () (return (+ g 1))) (print (call get)))", "3\n"},
		{"assignment in a function is local", "(; (= g 2) (def bump () (= g (+ g 1)) (return g)) (= h (call bump)) (print g) (print h))", "2\n1\n"},
		{"missing return yields zero", "(; (def f () (= t 1)) (print (call f)))", "0\n"},
		{"bare return", "(; (def f () (return) (print 9)) (print (call f)))", "0\n"},
		{"division truncates", "(print (/ -7 2))", "-3\n"},
		{"comparisons", "(; (print (== 1 1)) (print (!= 1 1)) (print (<= 2 1)) (print (>= 2 1)))", "1\n0\n0\n1\n"},
		{"math", "(; (print (sqrt 17)) (print (cos 0)) (print (sqrt -4)))", "4\n1\n-9223372036854775808\n"},
		{"block locals are fresh", "(; (= i 0) (while (< i 2) (= t (+ i 10)) (print t) (= i (+ i 1))))", "10\n11\n"},
		{"top-level return stops", "(; (print 1) (return) (print 2))", "1\n"},
		{"expression statement", "(; (def f () (print 7) (return 1)) (call f))", "7\n"},
		{"parameter reassigned", "(; (def f (p) (= p (* p 2)) (return p)) (print (call f 21)))", "42\n"},
		{"unknown operation calls", "(; (def twice (v) (return (* 2 v))) (print (twice 4)))", "8\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runSource(t, tt.src)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"use before assignment", "(; (print y) (= y 1))", "used before any declaration"},
		{"block local out of scope", "(; (if 1 (= t 1)) (print t))", "used before any declaration"},
		{"undefined function", "(print (call nope))", "undefined function"},
		{"arity", "(; (def f (a) (return a)) (print (call f 1 2)))", "called with 2 arguments"},
		{"call operation with two operands", "(; (def f (a) (return a)) (print (f 1 2)))", "outside its argument chain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runSource(t, tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRunSharesCompilerChecks(t *testing.T) {
	_, err := runSource(t, "(; (def f () (return 1)) (def f () (return 2)))")
	if !errors.Is(err, compiler.RedeclarationError) {
		t.Errorf("expected RedeclarationError, got %v", err)
	}
}

func TestDivideByZero(t *testing.T) {
	out, err := runSource(t, "(; (print 1) (print (/ 1 0)))")
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
	if out != "1\n" {
		t.Errorf("output before the failure must be kept, got %q", out)
	}
}

func TestLimits(t *testing.T) {
	var out strings.Builder
	it := New(&out)
	it.MaxDepth = 50
	err := it.Run(ast.MustParse("(; (def down (n) (return (call down (+ n 1)))) (print (call down 0)))"))
	if !errors.Is(err, ErrDepth) {
		t.Errorf("expected ErrDepth, got %v", err)
	}

	it = New(&out)
	it.MaxSteps = 1000
	err = it.Run(ast.MustParse("(while 1 (print 0))"))
	if err == nil || !strings.Contains(err.Error(), "step limit") {
		t.Errorf("expected a step limit error, got %v", err)
	}
}

func TestRunTwice(t *testing.T) {
	var out strings.Builder
	it := New(&out)
	root := ast.MustParse("(; (= n 1) (= n (+ n 1)) (print n))")
	for i := 0; i < 2; i++ {
		if err := it.Run(root); err != nil {
			t.Fatal(err)
		}
	}
	if out.String() != "2\n2\n" {
		t.Errorf("state must not leak between runs, got %q", out.String())
	}
}
