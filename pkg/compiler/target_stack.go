package compiler

import (
	"fmt"
	"strings"
)

// StackMachine emits text for the abstract stack machine run by pkg/vm.
// Operands are a literal, [name] for a global, [fp-8] style frame slots,
// or rv for the return register. Sizes are in bytes; a word is 8.
type StackMachine struct{}

func (StackMachine) Name() string  { return "stack" }
func (StackMachine) WordSize() int { return 8 }

var stackReserved = map[string]bool{
	"main": true, BodyRoutine: true, "fp": true, "rv": true,
}

func (StackMachine) Reserved(name string) bool { return stackReserved[name] }

func (StackMachine) NewSink(out *strings.Builder) Sink {
	return &stackSink{listing{out}}
}

type stackSink struct {
	listing
}

func (s *stackSink) Header() {
	s.raw(".entry main")
	s.raw(".extern out sin cos sqrt")
	s.raw("")
}

func (s *stackSink) Data(globals []Global) {
	s.raw(".data")
	for _, g := range globals {
		s.raw("%s: .word %d", g.Name, g.Init)
	}
	s.raw("")
}

func (s *stackSink) Startup(body string) {
	s.raw(".text")
	s.Label("main")
	s.line("call %s", body)
	s.line("hlt")
	s.raw("")
}

func (s *stackSink) Entry(name string) { s.Label(name) }

func stackOperand(sym *Symbol) string {
	if sym.Storage == StorageGlobal {
		return fmt.Sprintf("[%s]", sym.Label)
	}
	return fmt.Sprintf("[fp%+d]", sym.Offset)
}

func (s *stackSink) PushConst(v int64)    { s.line("push %d", v) }
func (s *stackSink) PushLoad(sym *Symbol) { s.line("push %s", stackOperand(sym)) }
func (s *stackSink) PopStore(sym *Symbol) { s.line("pop %s", stackOperand(sym)) }
func (s *stackSink) Discard()             { s.line("drop 8") }

var stackArith = map[Op]string{
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
}

func (s *stackSink) BinaryOp(op Op) { s.line("%s", stackArith[op]) }

func (s *stackSink) UnaryMath(op Op) { s.line("%s", op.String()) }

var stackJumps = map[Op]string{
	OpEq: "je",
	OpNe: "jne",
	OpLt: "jl",
	OpGt: "jg",
	OpLe: "jle",
	OpGe: "jge",
}

func (s *stackSink) Compare(op Op, trueLabel, endLabel string) {
	s.line("%s %s", stackJumps[op], trueLabel)
	s.line("push 0")
	s.line("jmp %s", endLabel)
	s.Label(trueLabel)
	s.line("push 1")
	s.Label(endLabel)
}

func (s *stackSink) JumpIfZero(label string) {
	s.line("push 0")
	s.line("je %s", label)
}

func (s *stackSink) Jump(label string) { s.line("jmp %s", label) }

func (s *stackSink) Call(name string, argc int) {
	s.line("call %s", name)
	if argc > 0 {
		s.line("drop %d", argc*8)
	}
	s.line("push rv")
}

func (s *stackSink) Print()     { s.line("out") }
func (s *stackSink) PopReturn() { s.line("pop rv") }

func (s *stackSink) Prologue(frameSize int) { s.line("enter %d", frameSize) }

func (s *stackSink) Epilogue() {
	s.line("leave")
	s.line("ret")
}
