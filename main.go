//go:build !js

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"stackc/pkg/asm"
	"stackc/pkg/ast"
	"stackc/pkg/build"
	"stackc/pkg/compiler"
	"stackc/pkg/config"
	"stackc/pkg/interp"
	"stackc/pkg/utils"
	"stackc/pkg/vm"
)

var exitFn = os.Exit

var extensions = map[string]string{
	"nasm":  ".asm",
	"stack": ".sasm",
}

func main() {
	exitFn(runCLI(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(fs *flag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintln(w, "Usage: stackc [flags] file.tree   (use - to read standard input)")
		fs.PrintDefaults()
	}
}

func runCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("stackc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, stderr)
	targetName := fs.String("target", cfg.Target, "output target: "+strings.Join(compiler.Targets(), ", "))
	outPath := fs.String("o", "", "output file (default: input with the target's extension, - for stdout)")
	runProgram := fs.Bool("run", false, "compile for the stack target and run the result on the VM")
	runInterp := fs.Bool("interp", false, "evaluate the tree with the reference interpreter")
	buildPath := fs.String("build", "", "assemble and link NASM output into this executable")
	verbose := fs.Bool("v", cfg.Verbose, "print the symbol table to stderr")
	steps := fs.Int("steps", cfg.StepLimit, "step limit for -run and -interp, 0 for none")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if *runProgram && *buildPath != "" {
		fmt.Fprintln(stderr, "use either -run or -build, not both")
		return 2
	}

	inPath := fs.Arg(0)
	src, err := readSource(inPath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input %q: %v\n", inPath, err)
		return 1
	}
	root, err := ast.Parse(src)
	if err != nil {
		fmt.Fprintf(stderr, "parse error: %v\n", err)
		return 1
	}

	if *runInterp {
		it := interp.New(stdout)
		it.MaxSteps = *steps
		if err := it.Run(root); err != nil {
			fmt.Fprintf(stderr, "runtime error: %v\n", err)
			return 1
		}
		return 0
	}

	switch {
	case *runProgram:
		*targetName = "stack"
	case *buildPath != "":
		*targetName = "nasm"
	}
	target, err := compiler.LookupTarget(*targetName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	syms := compiler.NewScopeStack(target.WordSize(), cfg.Limits)

	dest := *outPath
	if dest == "" && inPath != "-" {
		dest = utils.OutputPath(inPath, extensions[target.Name()])
	}
	if !*runProgram && *buildPath == "" && dest != "" && dest != "-" {
		if err := compiler.CompileFile(dest, root, target, syms); err != nil {
			fmt.Fprintf(stderr, "compile error: %v\n", err)
			return 1
		}
		if *verbose {
			fmt.Fprint(stderr, syms)
		}
		fmt.Fprintf(stdout, "compiled %s -> %s\n", inPath, dest)
		return 0
	}

	text, err := compiler.Generate(root, target, syms)
	if err != nil {
		fmt.Fprintf(stderr, "compile error: %v\n", err)
		return 1
	}
	if *verbose {
		fmt.Fprint(stderr, syms)
	}

	switch {
	case *runProgram:
		return runOnVM(text, *steps, stdout, stderr)
	case *buildPath != "":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := build.Executable(ctx, text, *buildPath); err != nil {
			fmt.Fprintf(stderr, "build error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "built %s\n", *buildPath)
		return 0
	}
	_, err = io.WriteString(stdout, text)
	if err != nil {
		return 1
	}
	return 0
}

func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func runOnVM(text string, steps int, stdout, stderr io.Writer) int {
	prog, err := asm.Assemble(text)
	if err != nil {
		fmt.Fprintf(stderr, "assembly failed: %v\n", err)
		return 1
	}
	m := vm.New(prog)
	m.Output = stdout
	m.MaxSteps = steps
	if err := m.Run(); err != nil {
		fmt.Fprintf(stderr, "runtime error: %v\n", err)
		return 1
	}
	return 0
}
