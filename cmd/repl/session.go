package main

import (
	"slices"
	"strings"

	"stackc/pkg/asm"
	"stackc/pkg/ast"
	"stackc/pkg/compiler"
	"stackc/pkg/vm"
)

// session accumulates accepted forms. Every input is compiled together with
// everything before it and the whole program is replayed on the VM; only
// output past what was already shown is returned.
type session struct {
	forms  []*ast.Node
	target compiler.Target
	limits compiler.Limits
	steps  int
	shown  int
}

func newSession(target compiler.Target, limits compiler.Limits, steps int) *session {
	return &session{target: target, limits: limits, steps: steps}
}

func (s *session) program(extra ...*ast.Node) *ast.Node {
	return ast.Seq(append(slices.Clone(s.forms), extra...)...)
}

// eval runs src after the session so far. On any error the session is left
// unchanged.
func (s *session) eval(src string) (string, error) {
	root, err := ast.Parse(src)
	if err != nil {
		return "", err
	}
	added := ast.Statements(root)
	if len(added) == 0 {
		return "", nil
	}
	prog := s.program(added...)

	text, err := compiler.Generate(prog, compiler.StackMachine{}, compiler.NewScopeStack(vm.WordSize, s.limits))
	if err != nil {
		return "", err
	}
	p, err := asm.Assemble(text)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	m := vm.New(p)
	m.Output = &out
	m.MaxSteps = s.steps
	if err := m.Run(); err != nil {
		return "", err
	}

	s.forms = append(s.forms, added...)
	all := out.String()
	if len(all) < s.shown {
		s.shown = 0
	}
	fresh := all[s.shown:]
	s.shown = len(all)
	return fresh, nil
}

// listing compiles the session for the selected target.
func (s *session) listing() (string, error) {
	return compiler.Generate(s.program(), s.target, compiler.NewScopeStack(s.target.WordSize(), s.limits))
}

func (s *session) tree() string {
	var sb strings.Builder
	for _, f := range s.forms {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (s *session) reset() {
	s.forms = nil
	s.shown = 0
}
