package main

import (
	"errors"
	"strings"
	"testing"

	"stackc/pkg/compiler"
)

func TestSessionEval(t *testing.T) {
	s := newSession(compiler.StackMachine{}, compiler.DefaultLimits, 1_000_000)

	steps := []struct {
		src  string
		want string
	}{
		{"(= x 5)", ""},
		{"(print x)", "5\n"},
		{"(def sq (v) (return (* v v)))", ""},
		{"(print (call sq x))", "25\n"},
		{"(= x (+ x 1)) (print x)", "6\n"},
	}
	for _, st := range steps {
		got, err := s.eval(st.src)
		if err != nil {
			t.Fatalf("eval(%s): %v", st.src, err)
		}
		if got != st.want {
			t.Errorf("eval(%s) = %q; want %q", st.src, got, st.want)
		}
	}
	if n := len(s.forms); n != 6 {
		t.Errorf("expected 6 accepted forms, got %d", n)
	}
}

func TestSessionRejectsBadInput(t *testing.T) {
	s := newSession(compiler.StackMachine{}, compiler.DefaultLimits, 1000)
	if _, err := s.eval("(= a 1)"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.eval("(print nope)"); !errors.Is(err, compiler.ResolutionError) {
		t.Errorf("expected ResolutionError, got %v", err)
	}
	if _, err := s.eval("(while 1 (print a))"); err == nil {
		t.Error("expected the step limit to stop an endless loop")
	}
	if _, err := s.eval("(print (/ a 0))"); err == nil {
		t.Error("expected division by zero")
	}
	if len(s.forms) != 1 {
		t.Errorf("failed input must not be kept, have %d forms", len(s.forms))
	}

	got, err := s.eval("(print a)")
	if err != nil || got != "1\n" {
		t.Errorf("session must keep working after errors: %q, %v", got, err)
	}
}

func TestSessionListing(t *testing.T) {
	s := newSession(compiler.NASM{}, compiler.DefaultLimits, 1000)
	if _, err := s.eval("(= y 2) (print y)"); err != nil {
		t.Fatal(err)
	}
	text, err := s.listing()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "$y dq 2") {
		t.Errorf("expected NASM listing, got:\n%s", text)
	}
	if s.tree() != "(= y 2)\n(print y)\n" {
		t.Errorf("tree: %q", s.tree())
	}

	s.reset()
	if s.tree() != "" || s.shown != 0 {
		t.Error("reset must clear the session")
	}
}

func TestCommand(t *testing.T) {
	s := newSession(compiler.StackMachine{}, compiler.DefaultLimits, 1000)
	var out strings.Builder

	if command(s, ":target nasm", &out); s.target.Name() != "nasm" {
		t.Errorf("target not switched: %s", s.target.Name())
	}
	out.Reset()
	command(s, ":target z80", &out)
	if !strings.Contains(out.String(), "unknown target") {
		t.Errorf("expected an error, got %q", out.String())
	}
	out.Reset()
	command(s, ":help", &out)
	if !strings.Contains(out.String(), "nasm, stack") {
		t.Errorf("help must list targets, got %q", out.String())
	}
	if !command(s, ":quit", &out) {
		t.Error(":quit must end the loop")
	}
	out.Reset()
	command(s, ":bogus", &out)
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("got %q", out.String())
	}
}
