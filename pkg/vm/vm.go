// Package vm executes programs for the abstract stack machine.
//
// The machine has one word-addressed stack shared by operands and frames,
// growing downward, plus the registers PC, SP, FP and RV. Frame operands
// are byte offsets from FP in multiples of the word size.
package vm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

type Opcode uint8

const (
	OpHLT Opcode = iota
	OpNOP
	OpPUSH
	OpPOP
	OpDROP
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpSIN
	OpCOS
	OpSQRT
	OpJMP
	OpJE
	OpJNE
	OpJL
	OpJG
	OpJLE
	OpJGE
	OpCALL
	OpRET
	OpENTER
	OpLEAVE
	OpOUT
)

var opNames = [...]string{
	OpHLT: "hlt", OpNOP: "nop", OpPUSH: "push", OpPOP: "pop", OpDROP: "drop",
	OpADD: "add", OpSUB: "sub", OpMUL: "mul", OpDIV: "div",
	OpSIN: "sin", OpCOS: "cos", OpSQRT: "sqrt",
	OpJMP: "jmp", OpJE: "je", OpJNE: "jne", OpJL: "jl", OpJG: "jg", OpJLE: "jle", OpJGE: "jge",
	OpCALL: "call", OpRET: "ret", OpENTER: "enter", OpLEAVE: "leave", OpOUT: "out",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// Mode says how an instruction's argument is interpreted.
type Mode uint8

const (
	ModeNone   Mode = iota
	ModeImm         // literal value, byte count or instruction index
	ModeGlobal      // index into Program.Globals
	ModeFrame       // byte offset from FP
	ModeRV          // the return register
)

type Instr struct {
	Op   Opcode
	Mode Mode
	Arg  int64
}

func (in Instr) String() string {
	switch in.Mode {
	case ModeImm:
		return fmt.Sprintf("%s %d", in.Op, in.Arg)
	case ModeGlobal:
		return fmt.Sprintf("%s [g%d]", in.Op, in.Arg)
	case ModeFrame:
		return fmt.Sprintf("%s [fp%+d]", in.Op, in.Arg)
	case ModeRV:
		return fmt.Sprintf("%s rv", in.Op)
	}
	return in.Op.String()
}

// Program is an assembled unit ready to load.
type Program struct {
	Code    []Instr
	Globals []int64 // initial values
	Names   []string
	Entry   int
	// SourceMap holds the source line of each instruction.
	SourceMap []int
}

const WordSize = 8

// DefaultStackWords is the stack size used by New.
const DefaultStackWords = 1 << 16

var (
	ErrStepLimit     = errors.New("step limit exceeded")
	ErrDivideByZero  = errors.New("division by zero")
	ErrStackOverflow = errors.New("stack overflow")
	ErrStackEmpty    = errors.New("stack underflow")
)

// RuntimeError locates a failure at an instruction.
type RuntimeError struct {
	PC   int
	Line int
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("pc %d (line %d): %v", e.PC, e.Line, e.Err)
	}
	return fmt.Sprintf("pc %d: %v", e.PC, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

type VM struct {
	Prog    *Program
	Stack   []int64
	Globals []int64

	PC int
	SP int
	FP int
	RV int64

	Halted bool
	Steps  int

	// MaxSteps stops Run with ErrStepLimit; zero means no limit.
	MaxSteps int

	// Output receives one decimal line per out instruction.
	// If nil, os.Stdout is used.
	Output io.Writer
}

func New(p *Program) *VM {
	return NewWithStack(p, DefaultStackWords)
}

func NewWithStack(p *Program, words int) *VM {
	m := &VM{
		Prog:    p,
		Stack:   make([]int64, words),
		Globals: make([]int64, len(p.Globals)),
	}
	m.Reset()
	return m
}

// Reset restores globals and registers to their load-time state.
func (m *VM) Reset() {
	copy(m.Globals, m.Prog.Globals)
	m.PC = m.Prog.Entry
	m.SP = len(m.Stack)
	m.FP = len(m.Stack)
	m.RV = 0
	m.Halted = false
	m.Steps = 0
}

func (m *VM) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

func (m *VM) push(v int64) error {
	if m.SP == 0 {
		return ErrStackOverflow
	}
	m.SP--
	m.Stack[m.SP] = v
	return nil
}

func (m *VM) pop() (int64, error) {
	if m.SP >= len(m.Stack) {
		return 0, ErrStackEmpty
	}
	v := m.Stack[m.SP]
	m.SP++
	return v, nil
}

func (m *VM) pop2() (a, b int64, err error) {
	if b, err = m.pop(); err != nil {
		return
	}
	a, err = m.pop()
	return
}

func (m *VM) frameSlot(off int64) (int, error) {
	if off%WordSize != 0 {
		return 0, fmt.Errorf("unaligned frame offset %d", off)
	}
	i := m.FP + int(off/WordSize)
	if i < 0 || i >= len(m.Stack) {
		return 0, fmt.Errorf("frame offset %d outside the stack", off)
	}
	return i, nil
}

func (m *VM) load(in Instr) (int64, error) {
	switch in.Mode {
	case ModeImm:
		return in.Arg, nil
	case ModeGlobal:
		return m.Globals[in.Arg], nil
	case ModeFrame:
		i, err := m.frameSlot(in.Arg)
		if err != nil {
			return 0, err
		}
		return m.Stack[i], nil
	case ModeRV:
		return m.RV, nil
	}
	return 0, fmt.Errorf("%s has no operand", in.Op)
}

func (m *VM) store(in Instr, v int64) error {
	switch in.Mode {
	case ModeGlobal:
		m.Globals[in.Arg] = v
	case ModeFrame:
		i, err := m.frameSlot(in.Arg)
		if err != nil {
			return err
		}
		m.Stack[i] = v
	case ModeRV:
		m.RV = v
	default:
		return fmt.Errorf("cannot pop into %s", in)
	}
	return nil
}

func (m *VM) jump(target int64) error {
	if target < 0 || int(target) >= len(m.Prog.Code) {
		return fmt.Errorf("jump target %d outside the program", target)
	}
	m.PC = int(target)
	return nil
}

func mathOp(op Opcode, v int64) int64 {
	x := float64(v)
	switch op {
	case OpSIN:
		x = math.Sin(x)
	case OpCOS:
		x = math.Cos(x)
	case OpSQRT:
		x = math.Sqrt(x)
	}
	return Truncate(x)
}

// Truncate converts a math result back to a word the way cvttsd2si does:
// NaN and out-of-range values become the minimum word.
func Truncate(x float64) int64 {
	if math.IsNaN(x) || x >= math.MaxInt64 || x < math.MinInt64 {
		return math.MinInt64
	}
	return int64(x)
}

func holds(op Opcode, a, b int64) bool {
	switch op {
	case OpJE:
		return a == b
	case OpJNE:
		return a != b
	case OpJL:
		return a < b
	case OpJG:
		return a > b
	case OpJLE:
		return a <= b
	case OpJGE:
		return a >= b
	}
	return false
}

// Step executes one instruction.
func (m *VM) Step() error {
	if m.Halted {
		return nil
	}
	if m.PC < 0 || m.PC >= len(m.Prog.Code) {
		return m.fail(fmt.Errorf("pc outside the program"))
	}
	pc := m.PC
	in := m.Prog.Code[pc]
	m.PC++
	m.Steps++
	if err := m.exec(in); err != nil {
		m.PC = pc
		return m.fail(err)
	}
	return nil
}

func (m *VM) fail(err error) error {
	line := 0
	if m.PC >= 0 && m.PC < len(m.Prog.SourceMap) {
		line = m.Prog.SourceMap[m.PC]
	}
	m.Halted = true
	return &RuntimeError{PC: m.PC, Line: line, Err: err}
}

func (m *VM) exec(in Instr) error {
	switch in.Op {
	case OpHLT:
		m.Halted = true
	case OpNOP:

	case OpPUSH:
		v, err := m.load(in)
		if err != nil {
			return err
		}
		return m.push(v)

	case OpPOP:
		v, err := m.pop()
		if err != nil {
			return err
		}
		return m.store(in, v)

	case OpDROP:
		n := int(in.Arg / WordSize)
		if m.SP+n > len(m.Stack) {
			return ErrStackEmpty
		}
		m.SP += n

	case OpADD, OpSUB, OpMUL, OpDIV:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		var r int64
		switch in.Op {
		case OpADD:
			r = a + b
		case OpSUB:
			r = a - b
		case OpMUL:
			r = a * b
		case OpDIV:
			if b == 0 {
				return ErrDivideByZero
			}
			r = a / b
		}
		return m.push(r)

	case OpSIN, OpCOS, OpSQRT:
		v, err := m.pop()
		if err != nil {
			return err
		}
		return m.push(mathOp(in.Op, v))

	case OpJMP:
		return m.jump(in.Arg)

	case OpJE, OpJNE, OpJL, OpJG, OpJLE, OpJGE:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		if holds(in.Op, a, b) {
			return m.jump(in.Arg)
		}

	case OpCALL:
		if err := m.push(int64(m.PC)); err != nil {
			return err
		}
		return m.jump(in.Arg)

	case OpRET:
		ret, err := m.pop()
		if err != nil {
			return err
		}
		return m.jump(ret)

	case OpENTER:
		if err := m.push(int64(m.FP)); err != nil {
			return err
		}
		m.FP = m.SP
		n := int(in.Arg / WordSize)
		if m.SP < n {
			return ErrStackOverflow
		}
		m.SP -= n
		clear(m.Stack[m.SP:m.FP])

	case OpLEAVE:
		m.SP = m.FP
		fp, err := m.pop()
		if err != nil {
			return err
		}
		m.FP = int(fp)

	case OpOUT:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(m.outputSink(), "%d\n", v); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown opcode %d", in.Op)
	}
	return nil
}

// Run steps until the program halts or fails.
func (m *VM) Run() error {
	for !m.Halted {
		if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
			return m.fail(ErrStepLimit)
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
