// Package build turns NASM output into a native executable with the host
// toolchain (nasm and gcc).
package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/oklog/ulid/v2"
)

var (
	Assembler = "nasm"
	Linker    = "gcc"
)

// Available reports whether the assembler and linker are on PATH.
func Available() bool {
	for _, tool := range []string{Assembler, Linker} {
		if _, err := exec.LookPath(tool); err != nil {
			return false
		}
	}
	return true
}

// Executable assembles asm and links it against libc into outputPath.
// Intermediate files live in a scratch directory that is always removed.
func Executable(ctx context.Context, asm string, outputPath string) error {
	tmpDir, err := os.MkdirTemp("", "stackc-build-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	id := ulid.Make().String()
	asmPath := filepath.Join(tmpDir, id+".asm")
	objPath := filepath.Join(tmpDir, id+".o")

	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("failed to write assembly: %w", err)
	}

	cmd := exec.CommandContext(ctx, Assembler, "-f", "elf64", asmPath, "-o", objPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembler failed: %w\n%s", err, output)
	}

	cmd = exec.CommandContext(ctx, Linker, "-no-pie", objPath, "-o", outputPath, "-lm")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("linker failed: %w\n%s", err, output)
	}
	return nil
}

// Run builds asm into a scratch executable, runs it and returns its
// standard output.
func Run(ctx context.Context, asm string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "stackc-run-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	exe := filepath.Join(tmpDir, ulid.Make().String())
	if err := Executable(ctx, asm, exe); err != nil {
		return nil, err
	}
	out, err := exec.CommandContext(ctx, exe).Output()
	if err != nil {
		return out, fmt.Errorf("program failed: %w", err)
	}
	return out, nil
}
