package compiler

import (
	"fmt"
	"strings"
	"unicode"
)

type StorageKind int

const (
	StorageGlobal StorageKind = iota
	StorageLocal
	StorageParam
)

func (k StorageKind) String() string {
	switch k {
	case StorageGlobal:
		return "global"
	case StorageLocal:
		return "local"
	case StorageParam:
		return "param"
	}
	return "?"
}

type Symbol struct {
	Name    string
	Storage StorageKind
	Label   string // data label for globals
	Offset  int    // frame-pointer relative bytes for locals and params
	Init    int64  // initial value for globals
}

// Limits caps the scope stack. A zero field means no cap.
type Limits struct {
	MaxScopes     int // tables including the global one
	MaxSymbols    int // symbols per table
	MaxNameLength int
}

// DefaultLimits matches the fixed-size tables of the reference compiler.
var DefaultLimits = Limits{MaxScopes: 16, MaxSymbols: 128, MaxNameLength: 32}

type table struct {
	syms  map[string]*Symbol
	order []string
	frame *frame
	fn    bool // function boundary
}

func newTable(f *frame, fn bool) *table {
	return &table{syms: make(map[string]*Symbol), frame: f, fn: fn}
}

// frame tracks local slot allocation for one routine activation. Slots are
// handed out downward from the saved frame pointer and never reused.
type frame struct {
	next int
}

// ScopeStack maps names to storage. Index 0 is the global table; local
// tables are pushed for function bodies and blocks.
// Locals get negative offsets from the frame pointer, params positive ones.
type ScopeStack struct {
	word   int
	limits Limits

	globals *table
	locals  []*table

	// body is the frame of the synthetic routine that runs top-level code.
	body *frame
}

func NewScopeStack(wordSize int, limits Limits) *ScopeStack {
	return &ScopeStack{
		word:    wordSize,
		limits:  limits,
		globals: newTable(nil, false),
		body:    &frame{},
	}
}

func (s *ScopeStack) WordSize() int { return s.word }

// Depth is the number of open local tables.
func (s *ScopeStack) Depth() int { return len(s.locals) }

func (s *ScopeStack) push(t *table) error {
	if s.limits.MaxScopes > 0 && len(s.locals)+1 >= s.limits.MaxScopes {
		return newError(CapacityError, "", "scope nesting exceeds %d", s.limits.MaxScopes)
	}
	s.locals = append(s.locals, t)
	return nil
}

func (s *ScopeStack) currentFrame() *frame {
	if len(s.locals) == 0 {
		return s.body
	}
	return s.locals[len(s.locals)-1].frame
}

// EnterFunction opens the table for a function body with a fresh frame.
// Lookups do not cross it into an enclosing function's locals.
func (s *ScopeStack) EnterFunction() error {
	return s.push(newTable(&frame{}, true))
}

// EnterScope opens a block table. It shares the enclosing frame, so its
// slots continue below those already handed out.
func (s *ScopeStack) EnterScope() error {
	return s.push(newTable(s.currentFrame(), false))
}

func (s *ScopeStack) ExitScope() error {
	if len(s.locals) == 0 {
		return newError(CapacityError, "", "scope underflow: no local scope is open")
	}
	s.locals = s.locals[:len(s.locals)-1]
	return nil
}

// ValidName reports whether name can be used as a symbol: a letter or
// underscore followed by letters, digits or underscores.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func (s *ScopeStack) check(t *table, name string) error {
	if !ValidName(name) {
		return newError(StructuralError, name, "not a valid name")
	}
	if _, ok := t.syms[name]; ok {
		return newError(RedeclarationError, name, "already declared in this scope")
	}
	if s.limits.MaxNameLength > 0 && len(name) > s.limits.MaxNameLength {
		return newError(CapacityError, name, "name longer than %d bytes", s.limits.MaxNameLength)
	}
	if s.limits.MaxSymbols > 0 && len(t.order) >= s.limits.MaxSymbols {
		return newError(CapacityError, name, "scope already holds %d symbols", s.limits.MaxSymbols)
	}
	return nil
}

func (t *table) add(sym *Symbol) {
	t.syms[sym.Name] = sym
	t.order = append(t.order, sym.Name)
}

// Declare adds name to the global table when isGlobal is set or no local
// scope is open, otherwise to the innermost local table.
func (s *ScopeStack) Declare(name string, isGlobal bool) (*Symbol, error) {
	if isGlobal || len(s.locals) == 0 {
		if err := s.check(s.globals, name); err != nil {
			return nil, err
		}
		sym := &Symbol{Name: name, Storage: StorageGlobal, Label: name}
		s.globals.add(sym)
		return sym, nil
	}

	t := s.locals[len(s.locals)-1]
	if err := s.check(t, name); err != nil {
		return nil, err
	}
	t.frame.next -= s.word
	sym := &Symbol{Name: name, Storage: StorageLocal, Offset: t.frame.next}
	t.add(sym)
	return sym, nil
}

// DeclareParam binds parameter index of count to its incoming stack slot.
// Arguments are pushed first to last, so the last one sits just above the
// return address.
func (s *ScopeStack) DeclareParam(name string, index, count int) (*Symbol, error) {
	if len(s.locals) == 0 {
		return nil, newError(StructuralError, name, "parameter outside a function")
	}
	t := s.locals[len(s.locals)-1]
	if err := s.check(t, name); err != nil {
		return nil, err
	}
	sym := &Symbol{
		Name:    name,
		Storage: StorageParam,
		Offset:  2*s.word + s.word*(count-1-index),
	}
	t.add(sym)
	return sym, nil
}

// Lookup searches local tables innermost first, stopping after the nearest
// function boundary, then the global table.
func (s *ScopeStack) Lookup(name string) (*Symbol, bool) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		t := s.locals[i]
		if sym, ok := t.syms[name]; ok {
			return sym, true
		}
		if t.fn {
			break
		}
	}
	sym, ok := s.globals.syms[name]
	return sym, ok
}

// Resolve is Lookup that fails with a ResolutionError.
func (s *ScopeStack) Resolve(name string) (*Symbol, error) {
	if sym, ok := s.Lookup(name); ok {
		return sym, nil
	}
	return nil, newError(ResolutionError, name, "used before any declaration")
}

// InnermostHas reports whether the innermost open table declares name.
func (s *ScopeStack) InnermostHas(name string) bool {
	t := s.globals
	if len(s.locals) > 0 {
		t = s.locals[len(s.locals)-1]
	}
	_, ok := t.syms[name]
	return ok
}

// FrameUsed is the number of bytes of local slots handed out so far in the
// current routine.
func (s *ScopeStack) FrameUsed() int {
	return -s.currentFrame().next
}

// Globals returns the declared globals in declaration order.
func (s *ScopeStack) Globals() []*Symbol {
	out := make([]*Symbol, 0, len(s.globals.order))
	for _, name := range s.globals.order {
		out = append(out, s.globals.syms[name])
	}
	return out
}

// String returns a dump of the table in declaration order.
func (s *ScopeStack) String() string {
	var sb strings.Builder
	if len(s.globals.order) > 0 {
		sb.WriteString("Globals:\n")
		for _, sym := range s.Globals() {
			fmt.Fprintf(&sb, "  %-20s  Label: %s (Init: %d)\n", sym.Name, sym.Label, sym.Init)
		}
	} else {
		sb.WriteString("Globals: (empty)\n")
	}

	if len(s.locals) > 0 {
		sb.WriteString("Locals (Active Stack):\n")
		for i, t := range s.locals {
			kind := "block"
			if t.fn {
				kind = "function"
			}
			fmt.Fprintf(&sb, "  Scope %d (%s):\n", i+1, kind)
			for _, name := range t.order {
				sym := t.syms[name]
				fmt.Fprintf(&sb, "    %-20s  Offset: %+d (%s)\n", name, sym.Offset, sym.Storage)
			}
		}
	}
	return sb.String()
}
