package compiler

import "stackc/pkg/ast"

// StackAlign is the call alignment every frame size is rounded up to.
const StackAlign = 16

// Frame is the storage plan for one routine.
type Frame struct {
	Params []string
	Locals []string
	Size   int // bytes reserved by the prologue
}

func alignUp(n, to int) int {
	return (n + to - 1) / to * to
}

// FrameSize is count words rounded up to StackAlign.
func FrameSize(count, word int) int {
	return alignUp(count*word, StackAlign)
}

// PlanFunction opens the function's scope on s, binds its parameters and
// declares every assignment target in its body as a local. The scope stays
// open for the emitter; the caller closes it after the body is emitted.
// A parameter that is assigned to keeps its parameter slot.
func PlanFunction(s *ScopeStack, def *ast.Node) (Frame, error) {
	if err := s.EnterFunction(); err != nil {
		return Frame{}, err
	}
	var f Frame
	params := ast.Chain(def.Left)
	for i, p := range params {
		if p.Kind != ast.Identifier {
			return Frame{}, newError(StructuralError, def.Text, "parameter %d is not an identifier", i+1)
		}
		if _, err := s.DeclareParam(p.Text, i, len(params)); err != nil {
			return Frame{}, err
		}
		f.Params = append(f.Params, p.Text)
	}

	var walk func(n *ast.Node) error
	walk = func(n *ast.Node) error {
		if n == nil || n.Kind == ast.FunctionDefinition {
			return nil
		}
		if n.Kind == ast.Operation && Classify(n.Text) == OpAssign &&
			n.Left != nil && n.Left.Kind == ast.Identifier {
			name := n.Left.Text
			if !s.InnermostHas(name) {
				if _, err := s.Declare(name, false); err != nil {
					return err
				}
				f.Locals = append(f.Locals, name)
			}
		}
		if err := walk(n.Left); err != nil {
			return err
		}
		return walk(n.Right)
	}
	if err := walk(def.Right); err != nil {
		return Frame{}, err
	}
	f.Size = FrameSize(len(f.Locals), s.WordSize())
	return f, nil
}

// PlanBody sizes the frame of the routine that runs top-level code. Only
// assignments inside top-level if and while bodies can declare locals
// there. Globals are declared in emission order, so an assignment counts
// unless a top-level assignment to the same name came before its block.
// The count bounds the slots those blocks use.
func PlanBody(root *ast.Node, word int) Frame {
	globals := make(map[string]bool)
	count := 0
	var inBlock func(n *ast.Node)
	inBlock = func(n *ast.Node) {
		if n == nil || n.Kind == ast.FunctionDefinition {
			return
		}
		if n.Kind == ast.Operation && Classify(n.Text) == OpAssign {
			if n.Left == nil || !globals[n.Left.Text] {
				count++
			}
		}
		inBlock(n.Left)
		inBlock(n.Right)
	}
	var top func(n *ast.Node)
	top = func(n *ast.Node) {
		if n == nil || n.Kind != ast.Operation {
			return
		}
		switch Classify(n.Text) {
		case OpSeq:
			top(n.Left)
			top(n.Right)
		case OpAssign:
			if n.Left != nil && n.Left.Kind == ast.Identifier {
				globals[n.Left.Text] = true
			}
		case OpIf, OpWhile:
			inBlock(n.Right)
		}
	}
	top(root)
	return Frame{Size: FrameSize(count, word)}
}
