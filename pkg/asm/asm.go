// Package asm assembles stack-machine text into a vm.Program.
//
// Syntax, one statement per line, ';' starts a comment:
//
//	.entry main          entry label
//	.extern name ...     host routines (informational)
//	.data / .text        section switch
//	x: .word 5           global slot with its initial value
//	loop: push [fp-8]    labelled instruction
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"stackc/pkg/vm"
)

var zeroOperandOps = map[string]vm.Opcode{
	"hlt":   vm.OpHLT,
	"nop":   vm.OpNOP,
	"add":   vm.OpADD,
	"sub":   vm.OpSUB,
	"mul":   vm.OpMUL,
	"div":   vm.OpDIV,
	"sin":   vm.OpSIN,
	"cos":   vm.OpCOS,
	"sqrt":  vm.OpSQRT,
	"ret":   vm.OpRET,
	"leave": vm.OpLEAVE,
	"out":   vm.OpOUT,
}

// sizeOps take a non-negative byte count that is a whole number of words.
var sizeOps = map[string]vm.Opcode{
	"drop":  vm.OpDROP,
	"enter": vm.OpENTER,
}

var labelOps = map[string]vm.Opcode{
	"jmp":  vm.OpJMP,
	"je":   vm.OpJE,
	"jne":  vm.OpJNE,
	"jl":   vm.OpJL,
	"jg":   vm.OpJG,
	"jle":  vm.OpJLE,
	"jge":  vm.OpJGE,
	"call": vm.OpCALL,
}

type section int

const (
	sectionText section = iota
	sectionData
)

type Assembler struct {
	labels  map[string]int // instruction index
	globals map[string]int // slot index
	entry   string
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:  make(map[string]int),
		globals: make(map[string]int),
	}
}

func Assemble(code string) (*vm.Program, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*vm.Program, error) {
	lines := strings.Split(code, "\n")

	prog := &vm.Program{}
	if err := a.pass1(lines, prog); err != nil {
		return nil, err
	}
	if err := a.pass2(lines, prog); err != nil {
		return nil, err
	}
	return prog, nil
}

func (a *Assembler) defined(name string) bool {
	_, isLabel := a.labels[name]
	_, isGlobal := a.globals[name]
	return isLabel || isGlobal
}

// pass1 assigns instruction indices to labels and slots to globals.
func (a *Assembler) pass1(lines []string, prog *vm.Program) error {
	sec := sectionText
	count := 0

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		switch p.mnemonic {
		case ".text", ".data":
			if len(p.labels) > 0 {
				return fmt.Errorf("label on section directive on line %d", lineNo)
			}
			sec = sectionText
			if p.mnemonic == ".data" {
				sec = sectionData
			}
			continue
		case ".entry":
			if len(p.operands) != 1 {
				return fmt.Errorf(".entry expects exactly one label on line %d", lineNo)
			}
			a.entry = p.operands[0]
			continue
		case ".extern":
			continue
		}

		for _, lbl := range p.labels {
			if a.defined(lbl) {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
		}

		if sec == sectionData {
			if p.mnemonic == "" && len(p.labels) == 0 {
				continue
			}
			if p.mnemonic != ".word" || len(p.labels) != 1 || len(p.operands) != 1 {
				return fmt.Errorf("data lines must be 'name: .word value' on line %d", lineNo)
			}
			v, err := strconv.ParseInt(p.operands[0], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid .word value '%s' on line %d", p.operands[0], lineNo)
			}
			a.globals[p.labels[0]] = len(prog.Globals)
			prog.Globals = append(prog.Globals, v)
			prog.Names = append(prog.Names, p.labels[0])
			continue
		}

		for _, lbl := range p.labels {
			a.labels[lbl] = count
		}
		if p.mnemonic == "" {
			continue
		}
		if p.mnemonic == ".word" {
			return fmt.Errorf(".word outside .data on line %d", lineNo)
		}
		count++
	}

	if a.entry == "" {
		return fmt.Errorf("missing .entry directive")
	}
	entry, ok := a.labels[a.entry]
	if !ok {
		return fmt.Errorf("undefined entry label '%s'", a.entry)
	}
	prog.Entry = entry
	return nil
}

func (a *Assembler) pass2(lines []string, prog *vm.Program) error {
	sec := sectionText

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		switch p.mnemonic {
		case "":
			continue
		case ".text":
			sec = sectionText
			continue
		case ".data":
			sec = sectionData
			continue
		case ".entry", ".extern":
			continue
		}
		if sec == sectionData {
			continue
		}

		in, err := a.encode(p)
		if err != nil {
			return err
		}
		prog.Code = append(prog.Code, in)
		prog.SourceMap = append(prog.SourceMap, lineNo)
	}
	return nil
}

func (a *Assembler) encode(p parsedLine) (vm.Instr, error) {
	mnemonic, ops, lineNo := p.mnemonic, p.operands, p.lineNo

	if opcode, ok := zeroOperandOps[mnemonic]; ok {
		if len(ops) != 0 {
			return vm.Instr{}, fmt.Errorf("%s expects 0 operands on line %d", mnemonic, lineNo)
		}
		return vm.Instr{Op: opcode}, nil
	}

	if len(ops) != 1 {
		if _, known := instructionOperands(mnemonic); !known {
			return vm.Instr{}, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
		}
		return vm.Instr{}, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
	}
	op := ops[0]

	if opcode, ok := sizeOps[mnemonic]; ok {
		n, err := strconv.ParseInt(op, 0, 64)
		if err != nil || n < 0 || n%vm.WordSize != 0 {
			return vm.Instr{}, fmt.Errorf("%s expects a byte count in whole words on line %d: %s", mnemonic, lineNo, op)
		}
		return vm.Instr{Op: opcode, Mode: vm.ModeImm, Arg: n}, nil
	}

	if opcode, ok := labelOps[mnemonic]; ok {
		target, ok := a.labels[op]
		if !ok {
			if isIdentifier(op) {
				return vm.Instr{}, fmt.Errorf("undefined label '%s' on line %d", op, lineNo)
			}
			return vm.Instr{}, fmt.Errorf("invalid label '%s' on line %d", op, lineNo)
		}
		return vm.Instr{Op: opcode, Mode: vm.ModeImm, Arg: int64(target)}, nil
	}

	switch mnemonic {
	case "push":
		return a.parseOperand(vm.OpPUSH, op, lineNo, true)
	case "pop":
		return a.parseOperand(vm.OpPOP, op, lineNo, false)
	}
	return vm.Instr{}, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
}

// parseOperand decodes 123, rv, [name] or [fp-8]. Immediates are only
// valid for push.
func (a *Assembler) parseOperand(opcode vm.Opcode, op string, lineNo int, allowImm bool) (vm.Instr, error) {
	in := vm.Instr{Op: opcode}

	if op == "rv" {
		in.Mode = vm.ModeRV
		return in, nil
	}

	if strings.HasPrefix(op, "[") && strings.HasSuffix(op, "]") {
		inner := op[1 : len(op)-1]
		if len(inner) > 2 && inner[:2] == "fp" && (inner[2] == '+' || inner[2] == '-') {
			off, err := strconv.ParseInt(inner[2:], 10, 64)
			if err != nil || off == 0 || off%vm.WordSize != 0 {
				return in, fmt.Errorf("invalid frame operand '%s' on line %d", op, lineNo)
			}
			in.Mode = vm.ModeFrame
			in.Arg = off
			return in, nil
		}
		idx, ok := a.globals[inner]
		if !ok {
			return in, fmt.Errorf("undefined global '%s' on line %d", inner, lineNo)
		}
		in.Mode = vm.ModeGlobal
		in.Arg = int64(idx)
		return in, nil
	}

	if !allowImm {
		return in, fmt.Errorf("%s cannot store into '%s' on line %d", opcode, op, lineNo)
	}
	v, err := strconv.ParseInt(op, 0, 64)
	if err != nil {
		return in, fmt.Errorf("invalid immediate '%s' on line %d", op, lineNo)
	}
	in.Mode = vm.ModeImm
	in.Arg = v
	return in, nil
}

// instructionOperands returns how many operands a mnemonic takes.
func instructionOperands(mnemonic string) (int, bool) {
	if _, ok := zeroOperandOps[mnemonic]; ok {
		return 0, true
	}
	if _, ok := sizeOps[mnemonic]; ok {
		return 1, true
	}
	if _, ok := labelOps[mnemonic]; ok {
		return 1, true
	}
	if mnemonic == "push" || mnemonic == "pop" {
		return 1, true
	}
	return 0, false
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t[") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(line)
	p.mnemonic = strings.ToLower(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

func stripComments(line string) string {
	if cut := strings.IndexByte(line, ';'); cut >= 0 {
		return line[:cut]
	}
	return line
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
