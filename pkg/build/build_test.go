package build

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// helloAsm prints 42 through printf and exits cleanly.
const helloAsm = `default rel
global main
extern printf, exit

section .data
fmt db "%ld", 10, 0

section .text
main:
    push rbp
    mov rbp, rsp
    mov rsi, 42
    lea rdi, [rel fmt]
    xor eax, eax
    call printf
    xor edi, edi
    call exit
`

func requireToolchain(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping native build in short mode")
	}
	if !Available() {
		t.Skipf("%s and %s are required", Assembler, Linker)
	}
}

func TestExecutable(t *testing.T) {
	requireToolchain(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exe := filepath.Join(t.TempDir(), "hello")
	if err := Executable(ctx, helloAsm, exe); err != nil {
		t.Fatalf("Executable: %v", err)
	}
	out, err := exec.CommandContext(ctx, exe).Output()
	if err != nil {
		t.Fatalf("running %s: %v", exe, err)
	}
	if string(out) != "42\n" {
		t.Errorf("expected 42, got %q", out)
	}
}

func TestRun(t *testing.T) {
	requireToolchain(t)
	out, err := Run(context.Background(), helloAsm)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "42\n" {
		t.Errorf("expected 42, got %q", out)
	}
}

func TestAssemblerErrorIncludesOutput(t *testing.T) {
	requireToolchain(t)
	exe := filepath.Join(t.TempDir(), "bad")
	err := Executable(context.Background(), "main:\n    frobnicate rax\n", exe)
	if err == nil || !strings.Contains(err.Error(), "assembler failed") {
		t.Fatalf("expected an assembler failure, got %v", err)
	}
	if _, statErr := os.Stat(exe); !os.IsNotExist(statErr) {
		t.Errorf("no executable may be produced: %v", statErr)
	}
}

func TestAvailableMissingTool(t *testing.T) {
	old := Assembler
	defer func() { Assembler = old }()
	Assembler = "stackc-no-such-assembler"
	if Available() {
		t.Error("Available must report a missing assembler")
	}
}
