// Command inspect prints every stage of a compilation: the tree, the
// module pre-pass, frame plans, the generated text and the symbol table.
package main

import (
	"flag"
	"fmt"
	"os"

	"stackc/pkg/ast"
	"stackc/pkg/compiler"
	"stackc/pkg/config"
	"stackc/pkg/utils"
)

const testSource = `(= x 10)
(= y 20)
(def add2 (a b) (= s (+ a b)) (return s))
(print (call add2 x y))
`

func main() {
	cfg := config.Load()
	targetName := flag.String("target", cfg.Target, "output target")
	flag.Parse()

	src := testSource
	if flag.NArg() > 0 {
		fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "path error:", err)
			os.Exit(1)
		}
		data, err := os.ReadFile(fullPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
		fmt.Printf("Source: %s\n\n", fullPath)
	}

	target, err := compiler.LookupTarget(*targetName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Parse
	root, err := ast.Parse(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}
	fmt.Println("Tree")
	for _, s := range ast.Statements(root) {
		fmt.Println(" ", s)
	}
	fmt.Println()

	// Module pre-pass
	mod, err := compiler.Collect(root, target)
	if err != nil {
		fmt.Fprintln(os.Stderr, "collect error:", err)
		os.Exit(1)
	}
	fmt.Println("Globals")
	for _, g := range mod.Globals {
		fmt.Printf("  %-20s init %d\n", g.Name, g.Init)
	}
	fmt.Println("Functions")
	for _, f := range mod.Functions {
		fmt.Printf("  %-20s %d params\n", f.Name, f.Params)
	}
	fmt.Println()

	// Frames
	fmt.Println("Frames")
	fmt.Printf("  %-20s %d bytes\n", compiler.BodyRoutine, compiler.PlanBody(root, target.WordSize()).Size)
	for _, def := range definitions(root) {
		syms := compiler.NewScopeStack(target.WordSize(), cfg.Limits)
		frame, err := compiler.PlanFunction(syms, def)
		if err != nil {
			fmt.Fprintln(os.Stderr, "layout error:", err)
			os.Exit(1)
		}
		fmt.Printf("  %-20s %d bytes  params %v  locals %v\n", def.Text, frame.Size, frame.Params, frame.Locals)
	}
	fmt.Println()

	// Code generation
	syms := compiler.NewScopeStack(target.WordSize(), cfg.Limits)
	text, err := compiler.Generate(root, target, syms)
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", target.Name())
	fmt.Print(text)
	fmt.Println()
	fmt.Print(syms)
}

// definitions lists every function definition in the tree in source order.
func definitions(n *ast.Node) []*ast.Node {
	if n == nil {
		return nil
	}
	var out []*ast.Node
	if n.Kind == ast.FunctionDefinition {
		out = append(out, n)
		return append(out, definitions(n.Right)...)
	}
	if n.IsLeaf() {
		return nil
	}
	if n.Kind == ast.Call || (n.Kind == ast.Operation && compiler.Classify(n.Text) == compiler.OpCall) {
		for _, a := range ast.Chain(n.Left) {
			if !a.IsLeaf() {
				out = append(out, definitions(a)...)
			}
		}
		return out
	}
	out = append(out, definitions(n.Left)...)
	return append(out, definitions(n.Right)...)
}
