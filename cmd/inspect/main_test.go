package main

import (
	"testing"

	"stackc/pkg/ast"
)

func TestDefinitions(t *testing.T) {
	root := ast.MustParse(`
(def a () (def b () (return 1)) (return (call b)))
(print (call a))
(if 1 (def c (x) (return x)))`)
	defs := definitions(root)
	var names []string
	for _, d := range defs {
		names = append(names, d.Text)
	}
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("expected [a b c], got %v", names)
	}

	if defs := definitions(ast.MustParse(testSource)); len(defs) != 1 || defs[0].Text != "add2" {
		t.Errorf("testSource: unexpected definitions %v", defs)
	}
}
