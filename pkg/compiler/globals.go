package compiler

import (
	"strconv"
	"strings"

	"stackc/pkg/ast"
)

// Global is one entry of the data section.
type Global struct {
	Name string
	Init int64
}

// Function records a definition found anywhere in the tree.
type Function struct {
	Name   string
	Params int
}

// Module is what the pre-pass learns before any code is emitted.
type Module struct {
	Globals   []Global
	Functions []Function
	funcs     map[string]int
}

// Arity returns the parameter count of a defined function.
func (m *Module) Arity(name string) (int, bool) {
	i, ok := m.funcs[name]
	if !ok {
		return 0, false
	}
	return m.Functions[i].Params, true
}

func (m *Module) isGlobal(name string) bool {
	for _, g := range m.Globals {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Collect walks root once. Globals are the targets of assignments at top
// level, outside any definition or block, in first-seen order; a literal
// right-hand side supplies the initial value. Functions are collected from
// the whole tree.
func Collect(root *ast.Node, target Target) (*Module, error) {
	m := &Module{funcs: make(map[string]int)}
	if err := m.collectGlobals(root); err != nil {
		return nil, err
	}
	if err := m.collectFunctions(root); err != nil {
		return nil, err
	}
	for _, g := range m.Globals {
		if err := checkModuleName(g.Name, target); err != nil {
			return nil, err
		}
		if _, ok := m.funcs[g.Name]; ok {
			return nil, newError(RedeclarationError, g.Name, "used both as a global and as a function")
		}
	}
	for _, f := range m.Functions {
		if err := checkModuleName(f.Name, target); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var generatedPrefixes = []string{"endif", "while", "endwhile", "cmptrue", "cmpend", "ret", "fnskip"}

// checkModuleName rejects global and function names that would collide
// with target symbols or generated labels, since both become labels.
func checkModuleName(name string, target Target) error {
	if !ValidName(name) {
		return newError(StructuralError, name, "not a valid name")
	}
	if target.Reserved(name) {
		return newError(StructuralError, name, "name is reserved by the %s target", target.Name())
	}
	for _, p := range generatedPrefixes {
		rest, ok := strings.CutPrefix(name, p+"_")
		if !ok || rest == "" {
			continue
		}
		if _, err := strconv.Atoi(rest); err == nil {
			return newError(StructuralError, name, "name clashes with generated labels")
		}
	}
	return nil
}

func (m *Module) collectGlobals(n *ast.Node) error {
	if n == nil || n.Kind != ast.Operation {
		return nil
	}
	switch Classify(n.Text) {
	case OpSeq:
		if err := m.collectGlobals(n.Left); err != nil {
			return err
		}
		return m.collectGlobals(n.Right)
	case OpAssign:
		if n.Left == nil || n.Left.Kind != ast.Identifier {
			return newError(StructuralError, "=", "assignment target is not an identifier")
		}
		name := n.Left.Text
		if m.isGlobal(name) {
			return nil
		}
		g := Global{Name: name}
		if n.Right != nil && n.Right.Kind == ast.Number {
			v, err := parseNumber(n.Right)
			if err != nil {
				return err
			}
			g.Init = v
		}
		m.Globals = append(m.Globals, g)
	}
	return nil
}

func (m *Module) collectFunctions(n *ast.Node) error {
	if n == nil {
		return nil
	}
	if n.Kind == ast.FunctionDefinition {
		if _, dup := m.funcs[n.Text]; dup {
			return newError(RedeclarationError, n.Text, "function defined twice")
		}
		m.funcs[n.Text] = len(m.Functions)
		m.Functions = append(m.Functions, Function{Name: n.Text, Params: len(ast.Chain(n.Left))})
		return m.collectFunctions(n.Right)
	}
	if n.Kind == ast.Call || (n.Kind == ast.Operation && Classify(n.Text) == OpCall) {
		// Arguments travel in the Left chain only.
		if n.Right != nil {
			return newError(StructuralError, n.Text, "call has an operand outside its argument chain")
		}
		for _, a := range ast.Chain(n.Left) {
			if !a.IsLeaf() {
				if err := m.collectFunctions(a); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := m.collectFunctions(n.Left); err != nil {
		return err
	}
	return m.collectFunctions(n.Right)
}

func parseNumber(n *ast.Node) (int64, error) {
	v, err := strconv.ParseInt(n.Text, 10, 64)
	if err != nil {
		return 0, newError(StructuralError, n.Text, "not a machine-word integer")
	}
	return v, nil
}
