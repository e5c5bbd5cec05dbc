package main

import (
	"strings"
	"testing"

	"stackc/pkg/asm"
	"stackc/pkg/compiler"
)

func newTestGame(t *testing.T, src string) *Game {
	t.Helper()
	_, code, _, err := compiler.Compile(src, compiler.StackMachine{}, compiler.DefaultLimits)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := asm.Assemble(code)
	if err != nil {
		t.Fatal(err)
	}
	return NewGame(prog, 100)
}

func TestGameRunsToHalt(t *testing.T) {
	g := newTestGame(t, "(; (= i 0) (while (< i 3) (print i) (= i (+ i 1))))")
	for frame := 0; frame < 100 && !g.vm.Halted; frame++ {
		g.advance(g.stepsPerFrame)
	}
	if !g.vm.Halted || g.err != nil {
		t.Fatalf("expected a clean halt, err=%v", g.err)
	}
	if got := strings.Join(g.screen.Lines()[:3], ","); got != "0,1,2" {
		t.Errorf("screen: %q", got)
	}
	if !strings.HasPrefix(g.status(), "halted") {
		t.Errorf("status: %q", g.status())
	}

	g.restart()
	if g.vm.Halted || g.screen.Lines()[0] != "" {
		t.Error("restart must reset the VM and clear the screen")
	}
}

func TestGameStopsOnError(t *testing.T) {
	g := newTestGame(t, "(print (/ 1 0))")
	g.advance(1000)
	if g.err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(g.status(), "division by zero") {
		t.Errorf("status: %q", g.status())
	}
}

func TestGameLayout(t *testing.T) {
	g := newTestGame(t, "(print 1)")
	w, h := g.Layout(0, 0)
	if w != cols*charWidth || h != rows*charHeight+statusH {
		t.Errorf("Layout = %dx%d", w, h)
	}
}
