package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"stackc/pkg/ast"
)

// Generate compiles root for target. syms receives every declaration made
// during the run; pass a fresh ScopeStack for each run. On error no text is
// returned.
func Generate(root *ast.Node, target Target, syms *ScopeStack) (string, error) {
	if root == nil {
		return "", newError(StructuralError, "", "empty tree")
	}
	if syms == nil {
		syms = NewScopeStack(target.WordSize(), DefaultLimits)
	}

	var out strings.Builder
	sink := target.NewSink(&out)

	sink.Header()

	mod, err := Collect(root, target)
	if err != nil {
		return "", err
	}
	sink.Data(mod.Globals)
	sink.Startup(BodyRoutine)

	e := newEmitter(sink, syms, mod)
	body := PlanBody(root, target.WordSize())
	sink.Label(BodyRoutine)
	if err := e.genRoutine(body.Size, root); err != nil {
		return "", err
	}
	if syms.Depth() != 0 {
		return "", newError(CapacityError, "", "%d scopes left open", syms.Depth())
	}
	return out.String(), nil
}

// GenerateTo writes the compiled text to w only if compilation succeeds.
func GenerateTo(w io.Writer, root *ast.Node, target Target, syms *ScopeStack) error {
	text, err := Generate(root, target, syms)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// CompileFile compiles root into the file at path. The file is closed on
// every path and removed again if anything fails, so a failed run leaves
// no output behind.
func CompileFile(path string, root *ast.Node, target Target, syms *ScopeStack) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			err = errors.Join(err, removeIfExists(path))
		}
	}()
	return GenerateTo(f, root, target, syms)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing partial output: %w", err)
	}
	return nil
}

// Compile reads a tree file and compiles it, returning the tree alongside
// the text so callers can run or inspect it.
func Compile(src string, target Target, limits Limits) (*ast.Node, string, *ScopeStack, error) {
	root, err := ast.Parse(src)
	if err != nil {
		return nil, "", nil, fmt.Errorf("parse error: %w", err)
	}
	syms := NewScopeStack(target.WordSize(), limits)
	text, err := Generate(root, target, syms)
	if err != nil {
		return root, "", syms, err
	}
	return root, text, syms, nil
}
