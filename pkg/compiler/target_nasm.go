package compiler

import (
	"fmt"
	"math"
	"strings"
)

// NASM emits x86-64 assembly in NASM syntax for the System V ABI, linked
// against libc for printf, exit and the math routines.
type NASM struct{}

func (NASM) Name() string  { return "nasm" }
func (NASM) WordSize() int { return 8 }

// User symbols are written as $name, which NASM always reads as an
// identifier, so registers and mnemonics are usable names. Only the
// symbols the listing defines or links against are off limits.
var nasmReserved = map[string]bool{
	"main": true, BodyRoutine: true, "fmt": true,
	"printf": true, "exit": true, "sin": true, "cos": true, "sqrt": true,
}

func symbol(name string) string { return "$" + name }

func (NASM) Reserved(name string) bool { return nasmReserved[name] }

func (NASM) NewSink(out *strings.Builder) Sink {
	return &nasmSink{listing{out}}
}

type nasmSink struct {
	listing
}

func (s *nasmSink) Header() {
	s.raw("default rel")
	s.raw("global main")
	s.raw("extern printf, exit, sin, cos, sqrt")
	s.raw("")
}

func (s *nasmSink) Data(globals []Global) {
	s.raw("section .data")
	s.raw("fmt db \"%%ld\", 10, 0")
	for _, g := range globals {
		s.raw("%s dq %d", symbol(g.Name), g.Init)
	}
	s.raw("")
}

func (s *nasmSink) Startup(body string) {
	s.raw("section .text")
	s.Label("main")
	s.line("push rbp")
	s.line("mov rbp, rsp")
	s.line("call %s", body)
	s.line("xor edi, edi")
	s.line("and rsp, -16")
	s.line("call exit")
	s.raw("")
}

func operand(sym *Symbol) string {
	if sym.Storage == StorageGlobal {
		return fmt.Sprintf("[%s]", symbol(sym.Label))
	}
	return fmt.Sprintf("[rbp%+d]", sym.Offset)
}

func (s *nasmSink) PushConst(v int64) {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		s.line("push qword %d", v)
		return
	}
	s.line("mov rax, %d", v)
	s.line("push rax")
}

func (s *nasmSink) PushLoad(sym *Symbol) { s.line("push qword %s", operand(sym)) }

func (s *nasmSink) PopStore(sym *Symbol) { s.line("pop qword %s", operand(sym)) }

func (s *nasmSink) Discard() { s.line("add rsp, 8") }

func (s *nasmSink) BinaryOp(op Op) {
	s.line("pop rbx")
	s.line("pop rax")
	switch op {
	case OpAdd:
		s.line("add rax, rbx")
	case OpSub:
		s.line("sub rax, rbx")
	case OpMul:
		s.line("imul rax, rbx")
	case OpDiv:
		s.line("cqo")
		s.line("idiv rbx")
	}
	s.line("push rax")
}

// libcCall calls a C routine with rsp aligned to 16. rbx is callee-saved,
// so it carries the caller's rsp across the call.
func (s *nasmSink) libcCall(name string) {
	s.line("mov rbx, rsp")
	s.line("and rsp, -16")
	s.line("call %s", name)
	s.line("mov rsp, rbx")
}

func (s *nasmSink) UnaryMath(op Op) {
	s.line("pop rax")
	s.line("cvtsi2sd xmm0, rax")
	s.libcCall(op.String())
	s.line("cvttsd2si rax, xmm0")
	s.line("push rax")
}

var setcc = map[Op]string{
	OpEq: "sete",
	OpNe: "setne",
	OpLt: "setl",
	OpGt: "setg",
	OpLe: "setle",
	OpGe: "setge",
}

func (s *nasmSink) Compare(op Op, _, _ string) {
	s.line("pop rbx")
	s.line("pop rax")
	s.line("cmp rax, rbx")
	s.line("%s al", setcc[op])
	s.line("movzx rax, al")
	s.line("push rax")
}

func (s *nasmSink) JumpIfZero(label string) {
	s.line("pop rax")
	s.line("test rax, rax")
	s.line("jz %s", label)
}

func (s *nasmSink) Jump(label string) { s.line("jmp %s", label) }

func (s *nasmSink) Entry(name string) { s.Label(symbol(name)) }

func (s *nasmSink) Call(name string, argc int) {
	s.line("call %s", symbol(name))
	if argc > 0 {
		s.line("add rsp, %d", argc*8)
	}
	s.line("push rax")
}

func (s *nasmSink) Print() {
	s.line("pop rsi")
	s.line("lea rdi, [rel fmt]")
	s.line("xor eax, eax")
	s.libcCall("printf")
}

func (s *nasmSink) PopReturn() { s.line("pop rax") }

func (s *nasmSink) Prologue(frameSize int) {
	s.line("push rbp")
	s.line("mov rbp, rsp")
	if frameSize > 0 {
		s.line("sub rsp, %d", frameSize)
	}
	for off := 8; off <= frameSize; off += 8 {
		s.line("mov qword [rbp-%d], 0", off)
	}
}

func (s *nasmSink) Epilogue() {
	s.line("mov rsp, rbp")
	s.line("pop rbp")
	s.line("ret")
}
