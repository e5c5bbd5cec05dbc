package compiler

import (
	"stackc/pkg/ast"
)

// emitter lowers one tree through a Sink. It owns all per-run state, so a
// fresh emitter always produces the same labels for the same tree.
type emitter struct {
	sink    Sink
	syms    *ScopeStack
	mod     *Module
	labels  Labels
	returns []string // epilogue label of each routine being emitted
}

func newEmitter(sink Sink, syms *ScopeStack, mod *Module) *emitter {
	return &emitter{sink: sink, syms: syms, mod: mod}
}

func (e *emitter) op(n *ast.Node) Op {
	if n.Kind == ast.Call {
		return OpCall
	}
	return Classify(n.Text)
}

// producesValue reports whether lowering n leaves a word on the operand
// stack.
func (e *emitter) producesValue(n *ast.Node) bool {
	switch n.Kind {
	case ast.Number, ast.Identifier, ast.Call:
		return true
	case ast.Operation:
		return !Classify(n.Text).IsStatement()
	}
	return false
}

// genStmt lowers n in statement position: the operand stack is the same
// height afterwards. Expressions used as statements have their value
// discarded.
func (e *emitter) genStmt(n *ast.Node) error {
	if n == nil {
		return nil
	}
	if e.producesValue(n) {
		if err := e.genExpr(n); err != nil {
			return err
		}
		e.sink.Discard()
		return nil
	}

	if n.Kind == ast.FunctionDefinition {
		return e.genFunction(n)
	}

	switch op := Classify(n.Text); op {
	case OpSeq:
		if err := e.genStmt(n.Left); err != nil {
			return err
		}
		return e.genStmt(n.Right)

	case OpAssign:
		return e.genAssign(n)

	case OpIf:
		if n.Left == nil {
			return newError(StructuralError, "if", "missing condition")
		}
		end := label("endif", e.labels.Next(LabelIf))
		if err := e.genExpr(n.Left); err != nil {
			return err
		}
		e.sink.JumpIfZero(end)
		if err := e.genBlock(n.Right); err != nil {
			return err
		}
		e.sink.Label(end)
		return nil

	case OpWhile:
		if n.Left == nil {
			return newError(StructuralError, "while", "missing condition")
		}
		id := e.labels.Next(LabelWhile)
		start, end := label("while", id), label("endwhile", id)
		e.sink.Label(start)
		if err := e.genExpr(n.Left); err != nil {
			return err
		}
		e.sink.JumpIfZero(end)
		if err := e.genBlock(n.Right); err != nil {
			return err
		}
		e.sink.Jump(start)
		e.sink.Label(end)
		return nil

	case OpPrint:
		if n.Left == nil {
			return newError(StructuralError, "print", "missing operand")
		}
		if err := e.genExpr(n.Left); err != nil {
			return err
		}
		e.sink.Print()
		return nil

	case OpReturn:
		if len(e.returns) == 0 {
			return newError(StructuralError, "return", "outside any routine")
		}
		if n.Left != nil {
			if err := e.genExpr(n.Left); err != nil {
				return err
			}
		} else {
			e.sink.PushConst(0)
		}
		e.sink.PopReturn()
		e.sink.Jump(e.returns[len(e.returns)-1])
		return nil

	default:
		return newError(StructuralError, n.Text, "unexpected %s in statement position", op)
	}
}

// genBlock lowers an if or while body in its own scope.
func (e *emitter) genBlock(body *ast.Node) error {
	if err := e.syms.EnterScope(); err != nil {
		return err
	}
	if err := e.genStmt(body); err != nil {
		return err
	}
	return e.syms.ExitScope()
}

// genAssign evaluates the right-hand side before the target is resolved
// or declared, so the new name is not visible inside its own initializer.
func (e *emitter) genAssign(n *ast.Node) error {
	if n.Left == nil || n.Left.Kind != ast.Identifier {
		return newError(StructuralError, "=", "assignment target is not an identifier")
	}
	if n.Right == nil {
		return newError(StructuralError, n.Left.Text, "assignment has no value")
	}
	if err := e.genExpr(n.Right); err != nil {
		return err
	}
	name := n.Left.Text
	sym, ok := e.syms.Lookup(name)
	if !ok {
		var err error
		sym, err = e.syms.Declare(name, false)
		if err != nil {
			return err
		}
		if sym.Storage == StorageGlobal {
			e.setInit(sym)
		}
	}
	e.sink.PopStore(sym)
	return nil
}

func (e *emitter) setInit(sym *Symbol) {
	for _, g := range e.mod.Globals {
		if g.Name == sym.Name {
			sym.Init = g.Init
			return
		}
	}
}

// genExpr lowers n so that exactly one word is pushed.
func (e *emitter) genExpr(n *ast.Node) error {
	if n == nil {
		return newError(StructuralError, "", "missing operand")
	}
	switch n.Kind {
	case ast.Number:
		v, err := parseNumber(n)
		if err != nil {
			return err
		}
		e.sink.PushConst(v)
		return nil

	case ast.Identifier:
		sym, err := e.syms.Resolve(n.Text)
		if err != nil {
			return err
		}
		e.sink.PushLoad(sym)
		return nil

	case ast.Call:
		return e.genCall(n.Text, n.Left)

	case ast.FunctionDefinition:
		return newError(StructuralError, n.Text, "function definition used as a value")
	}

	switch op := Classify(n.Text); {
	case op == OpCall:
		return e.genCall(n.Text, n.Left)

	case op.IsArith():
		if err := e.genOperands(n); err != nil {
			return err
		}
		e.sink.BinaryOp(op)
		return nil

	case op.IsCompare():
		if err := e.genOperands(n); err != nil {
			return err
		}
		id := e.labels.Next(LabelCompare)
		e.sink.Compare(op, label("cmptrue", id), label("cmpend", id))
		return nil

	case op.IsMath():
		if n.Left == nil {
			return newError(StructuralError, n.Text, "missing operand")
		}
		if err := e.genExpr(n.Left); err != nil {
			return err
		}
		e.sink.UnaryMath(op)
		return nil

	default:
		return newError(StructuralError, n.Text, "%s is a statement and has no value", op)
	}
}

func (e *emitter) genOperands(n *ast.Node) error {
	if n.Left == nil || n.Right == nil {
		return newError(StructuralError, n.Text, "needs two operands")
	}
	if err := e.genExpr(n.Left); err != nil {
		return err
	}
	return e.genExpr(n.Right)
}

// genCall pushes arguments first to last, which puts parameter i of n at
// [fp + 2*word + word*(n-1-i)] in the callee.
func (e *emitter) genCall(name string, chain *ast.Node) error {
	want, ok := e.mod.Arity(name)
	if !ok {
		return newError(ResolutionError, name, "call to undefined function")
	}
	args := ast.Chain(chain)
	if len(args) != want {
		return newError(StructuralError, name, "called with %d arguments, defined with %d", len(args), want)
	}
	for _, a := range args {
		if err := e.genArg(a); err != nil {
			return err
		}
	}
	e.sink.Call(name, len(args))
	return nil
}

// genArg lowers one chain element. A leaf's Left link is the next argument,
// not an operand, so leaves are pushed directly.
func (e *emitter) genArg(a *ast.Node) error {
	if a.IsLeaf() {
		return e.genExpr(&ast.Node{Kind: a.Kind, Text: a.Text})
	}
	return e.genExpr(a)
}

// genRoutine emits the prologue, body and shared epilogue of a routine.
// Falling off the end returns 0.
func (e *emitter) genRoutine(frameSize int, body *ast.Node) error {
	ret := label("ret", e.labels.Next(LabelReturn))
	e.returns = append(e.returns, ret)
	e.sink.Prologue(frameSize)
	if err := e.genStmt(body); err != nil {
		return err
	}
	e.sink.PushConst(0)
	e.sink.PopReturn()
	e.sink.Label(ret)
	e.sink.Epilogue()
	e.returns = e.returns[:len(e.returns)-1]
	return nil
}

// genFunction emits a definition in place, jumped over by the code around
// it.
func (e *emitter) genFunction(def *ast.Node) error {
	skip := label("fnskip", e.labels.Next(LabelFunction))
	e.sink.Jump(skip)

	frame, err := PlanFunction(e.syms, def)
	if err != nil {
		return err
	}
	e.sink.Entry(def.Text)
	e.sink.Comment("%s: %d params, %d locals, frame %d", def.Text, len(frame.Params), len(frame.Locals), frame.Size)
	if err := e.genRoutine(frame.Size, def.Right); err != nil {
		return err
	}
	if err := e.syms.ExitScope(); err != nil {
		return err
	}
	e.sink.Label(skip)
	return nil
}
