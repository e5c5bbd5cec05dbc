// Package interp evaluates a syntax tree directly. It follows the same
// scoping rules and integer semantics as compiled code and serves as the
// reference that compiled programs are checked against.
package interp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"stackc/pkg/ast"
	"stackc/pkg/compiler"
	"stackc/pkg/vm"
)

var ErrDivideByZero = errors.New("division by zero")

// ErrDepth is returned when calls nest deeper than Interpreter.MaxDepth.
var ErrDepth = errors.New("call depth exceeded")

type Interpreter struct {
	Output   io.Writer
	MaxDepth int
	// MaxSteps bounds the number of evaluated nodes; zero means no limit.
	MaxSteps int

	globals  map[string]int64
	declared map[string]bool
	funcs    map[string]*ast.Node
	depth    int
	steps    int
}

func New(out io.Writer) *Interpreter {
	if out == nil {
		out = os.Stdout
	}
	return &Interpreter{Output: out, MaxDepth: 10000}
}

// env is the variable storage visible to the code being evaluated.
// Function frames hold every hoisted local; top-level blocks chain their
// own bindings to the enclosing block.
type env struct {
	vars   map[string]int64
	parent *env
	frame  bool
}

// returned unwinds evaluation up to the enclosing routine.
type returned struct {
	value int64
}

func (returned) Error() string { return "return outside a routine" }

// Run evaluates the whole tree as the body routine.
func (it *Interpreter) Run(root *ast.Node) error {
	mod, err := compiler.Collect(root, compiler.StackMachine{})
	if err != nil {
		return err
	}
	it.globals = make(map[string]int64, len(mod.Globals))
	for _, g := range mod.Globals {
		it.globals[g.Name] = g.Init
	}
	it.declared = make(map[string]bool)
	it.funcs = make(map[string]*ast.Node)
	collectFuncs(root, it.funcs)
	it.depth = 0
	it.steps = 0

	err = it.exec(root, nil)
	var r returned
	if errors.As(err, &r) {
		return nil
	}
	return err
}

func collectFuncs(n *ast.Node, out map[string]*ast.Node) {
	if n == nil {
		return
	}
	if n.Kind == ast.FunctionDefinition {
		out[n.Text] = n
		collectFuncs(n.Right, out)
		return
	}
	if n.IsLeaf() {
		return
	}
	if n.Kind == ast.Call || compiler.Classify(n.Text) == compiler.OpCall {
		for _, a := range ast.Chain(n.Left) {
			collectFuncs(a, out)
		}
		return
	}
	collectFuncs(n.Left, out)
	collectFuncs(n.Right, out)
}

// slot is an addressable variable.
type slot struct {
	m    map[string]int64
	name string
}

func (it *Interpreter) find(name string, e *env) (slot, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			return slot{cur.vars, name}, true
		}
		if cur.frame {
			if _, ok := it.globals[name]; ok {
				return slot{it.globals, name}, true
			}
			return slot{}, false
		}
	}
	if it.declared[name] {
		return slot{it.globals, name}, true
	}
	return slot{}, false
}

func (it *Interpreter) tick() error {
	it.steps++
	if it.MaxSteps > 0 && it.steps > it.MaxSteps {
		return fmt.Errorf("step limit exceeded")
	}
	return nil
}

func isStatement(n *ast.Node) bool {
	switch n.Kind {
	case ast.FunctionDefinition:
		return true
	case ast.Operation:
		return compiler.Classify(n.Text).IsStatement()
	}
	return false
}

func (it *Interpreter) exec(n *ast.Node, e *env) error {
	if n == nil {
		return nil
	}
	if err := it.tick(); err != nil {
		return err
	}
	if !isStatement(n) {
		_, err := it.eval(n, e)
		return err
	}
	if n.Kind == ast.FunctionDefinition {
		return nil
	}

	switch compiler.Classify(n.Text) {
	case compiler.OpSeq:
		if err := it.exec(n.Left, e); err != nil {
			return err
		}
		return it.exec(n.Right, e)

	case compiler.OpAssign:
		if n.Left == nil || n.Left.Kind != ast.Identifier {
			return fmt.Errorf("assignment target is not an identifier")
		}
		v, err := it.eval(n.Right, e)
		if err != nil {
			return err
		}
		name := n.Left.Text
		if s, ok := it.find(name, e); ok {
			s.m[s.name] = v
			return nil
		}
		if e == nil {
			it.declared[name] = true
			it.globals[name] = v
			return nil
		}
		e.vars[name] = v
		return nil

	case compiler.OpIf:
		c, err := it.eval(n.Left, e)
		if err != nil {
			return err
		}
		if c != 0 {
			return it.exec(n.Right, it.block(e))
		}
		return nil

	case compiler.OpWhile:
		for {
			c, err := it.eval(n.Left, e)
			if err != nil {
				return err
			}
			if c == 0 {
				return nil
			}
			if err := it.exec(n.Right, it.block(e)); err != nil {
				return err
			}
		}

	case compiler.OpPrint:
		v, err := it.eval(n.Left, e)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(it.Output, "%d\n", v)
		return err

	case compiler.OpReturn:
		var v int64
		if n.Left != nil {
			var err error
			if v, err = it.eval(n.Left, e); err != nil {
				return err
			}
		}
		return returned{v}
	}
	return fmt.Errorf("unexpected %q", n.Text)
}

// block opens bindings for an if or while body. Inside a function every
// local is already hoisted into the frame, so blocks share it.
func (it *Interpreter) block(e *env) *env {
	if inFunction(e) {
		return e
	}
	return &env{vars: make(map[string]int64), parent: e}
}

func inFunction(e *env) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.frame {
			return true
		}
	}
	return false
}

func (it *Interpreter) eval(n *ast.Node, e *env) (int64, error) {
	if n == nil {
		return 0, fmt.Errorf("missing operand")
	}
	if err := it.tick(); err != nil {
		return 0, err
	}
	switch n.Kind {
	case ast.Number:
		v, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", n.Text)
		}
		return v, nil
	case ast.Identifier:
		s, ok := it.find(n.Text, e)
		if !ok {
			return 0, fmt.Errorf("%q used before any declaration", n.Text)
		}
		return s.m[s.name], nil
	case ast.Call:
		return it.call(n.Text, n.Left, e)
	case ast.FunctionDefinition:
		return 0, fmt.Errorf("function definition used as a value")
	}

	op := compiler.Classify(n.Text)
	switch {
	case op == compiler.OpCall:
		return it.call(n.Text, n.Left, e)

	case op.IsArith() || op.IsCompare():
		a, err := it.eval(n.Left, e)
		if err != nil {
			return 0, err
		}
		b, err := it.eval(n.Right, e)
		if err != nil {
			return 0, err
		}
		return binary(op, a, b)

	case op.IsMath():
		v, err := it.eval(n.Left, e)
		if err != nil {
			return 0, err
		}
		x := float64(v)
		switch op {
		case compiler.OpSin:
			x = math.Sin(x)
		case compiler.OpCos:
			x = math.Cos(x)
		case compiler.OpSqrt:
			x = math.Sqrt(x)
		}
		return vm.Truncate(x), nil
	}
	return 0, fmt.Errorf("%s has no value", op)
}

func binary(op compiler.Op, a, b int64) (int64, error) {
	switch op {
	case compiler.OpAdd:
		return a + b, nil
	case compiler.OpSub:
		return a - b, nil
	case compiler.OpMul:
		return a * b, nil
	case compiler.OpDiv:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	}
	var r bool
	switch op {
	case compiler.OpEq:
		r = a == b
	case compiler.OpNe:
		r = a != b
	case compiler.OpLt:
		r = a < b
	case compiler.OpGt:
		r = a > b
	case compiler.OpLe:
		r = a <= b
	case compiler.OpGe:
		r = a >= b
	}
	if r {
		return 1, nil
	}
	return 0, nil
}

func (it *Interpreter) call(name string, chain *ast.Node, e *env) (int64, error) {
	def, ok := it.funcs[name]
	if !ok {
		return 0, fmt.Errorf("call to undefined function %q", name)
	}
	params := ast.Chain(def.Left)
	args := ast.Chain(chain)
	if len(args) != len(params) {
		return 0, fmt.Errorf("%s called with %d arguments, defined with %d", name, len(args), len(params))
	}

	frame := &env{vars: make(map[string]int64), frame: true}
	for i, a := range args {
		if a.IsLeaf() {
			a = &ast.Node{Kind: a.Kind, Text: a.Text}
		}
		v, err := it.eval(a, e)
		if err != nil {
			return 0, err
		}
		frame.vars[params[i].Text] = v
	}
	hoist(def.Right, frame.vars)

	if it.MaxDepth > 0 && it.depth >= it.MaxDepth {
		return 0, ErrDepth
	}
	it.depth++
	defer func() { it.depth-- }()

	err := it.exec(def.Right, frame)
	var r returned
	if errors.As(err, &r) {
		return r.value, nil
	}
	return 0, err
}

// hoist declares every assignment target in body, outside nested
// definitions, as a zeroed local unless it is already bound.
func hoist(n *ast.Node, vars map[string]int64) {
	if n == nil || n.Kind == ast.FunctionDefinition {
		return
	}
	if n.Kind == ast.Operation && compiler.Classify(n.Text) == compiler.OpAssign &&
		n.Left != nil && n.Left.Kind == ast.Identifier {
		if _, ok := vars[n.Left.Text]; !ok {
			vars[n.Left.Text] = 0
		}
	}
	hoist(n.Left, vars)
	hoist(n.Right, vars)
}
