package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Target produces instruction text for one execution model.
type Target interface {
	Name() string
	WordSize() int
	// Reserved reports names that would clash with symbols the target
	// defines or links against.
	Reserved(name string) bool
	NewSink(out *strings.Builder) Sink
}

// Sink is the instruction vocabulary the emitter lowers the tree into.
// Every value-producing call leaves one word on the operand stack; the
// consuming calls pop what they use.
type Sink interface {
	Header()
	Data(globals []Global)
	// Startup writes the entry routine, which calls body and then
	// terminates the process.
	Startup(body string)

	Comment(format string, args ...any)
	Label(name string)
	// Entry labels the first instruction of a user function.
	Entry(name string)

	PushConst(v int64)
	PushLoad(sym *Symbol)
	PopStore(sym *Symbol)
	Discard()

	BinaryOp(op Op)
	UnaryMath(op Op)
	// Compare pops two values and pushes 1 if the comparison holds, else 0.
	// Targets without condition-code materialization branch to trueLabel
	// and join at endLabel.
	Compare(op Op, trueLabel, endLabel string)

	JumpIfZero(label string)
	Jump(label string)

	// Call transfers to name with argc arguments already pushed, removes
	// them afterwards and pushes the returned value.
	Call(name string, argc int)
	Print()
	PopReturn()

	Prologue(frameSize int)
	Epilogue()
}

// listing is the line writer shared by the concrete sinks.
type listing struct {
	out *strings.Builder
}

func (l listing) line(format string, args ...any) {
	l.out.WriteString("    ")
	fmt.Fprintf(l.out, format, args...)
	l.out.WriteByte('\n')
}

func (l listing) raw(format string, args ...any) {
	fmt.Fprintf(l.out, format, args...)
	l.out.WriteByte('\n')
}

func (l listing) Label(name string) {
	l.raw("%s:", name)
}

func (l listing) Comment(format string, args ...any) {
	l.line("; "+format, args...)
}

var targets = map[string]Target{}

func register(t Target) {
	targets[t.Name()] = t
}

func init() {
	register(NASM{})
	register(StackMachine{})
}

// LookupTarget returns the target registered under name.
func LookupTarget(name string) (Target, error) {
	t, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (have %s)", name, strings.Join(Targets(), ", "))
	}
	return t, nil
}

// Targets lists the registered target names.
func Targets() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BodyRoutine is the label of the routine that runs top-level code.
const BodyRoutine = "main1"
