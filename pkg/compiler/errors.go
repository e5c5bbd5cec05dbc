package compiler

import "fmt"

// ErrorKind classifies a compilation failure. Every kind is fatal: a run
// that returns an error produces no output.
//
// Kinds are errors themselves so callers can test with errors.Is:
//
//	if errors.Is(err, compiler.RedeclarationError) { ... }
type ErrorKind int

const (
	// StructuralError: a malformed tree, such as an assignment whose target
	// is not an identifier or an operation missing an operand.
	StructuralError ErrorKind = iota + 1
	// ResolutionError: a name with no reachable declaration.
	ResolutionError
	// RedeclarationError: a name declared twice in the same scope.
	RedeclarationError
	// CapacityError: a scope or symbol limit was exceeded, or a scope was
	// closed that was never opened.
	CapacityError
)

func (k ErrorKind) String() string {
	switch k {
	case StructuralError:
		return "structural error"
	case ResolutionError:
		return "resolution error"
	case RedeclarationError:
		return "redeclaration error"
	case CapacityError:
		return "capacity error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) Error() string { return k.String() }

// Error is returned by every failing compiler operation.
type Error struct {
	Kind ErrorKind
	Name string // offending name or construct, if any
	Msg  string
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %q: %s", e.Kind, e.Name, e.Msg)
}

// Is lets errors.Is match an *Error against its ErrorKind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func newError(kind ErrorKind, name, format string, args ...any) *Error {
	return &Error{Kind: kind, Name: name, Msg: fmt.Sprintf(format, args...)}
}
