package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"stackc/pkg/asm"
	"stackc/pkg/compiler"
	"stackc/pkg/config"
	"stackc/pkg/grid"
	"stackc/pkg/utils"
	"stackc/pkg/vm"
)

const (
	cols       = 64
	rows       = 24
	charWidth  = 7
	charHeight = 13
	statusH    = 16
)

// Game runs a compiled program on the VM a slice at a time and shows what
// it printed.
type Game struct {
	vm            *vm.VM
	screen        *grid.Screen
	face          text.Face
	stepsPerFrame int
	paused        bool
	err           error
}

func NewGame(prog *vm.Program, stepsPerFrame int) *Game {
	g := &Game{
		vm:            vm.New(prog),
		screen:        grid.NewScreen(cols, rows),
		face:          text.NewGoXFace(basicfont.Face7x13),
		stepsPerFrame: stepsPerFrame,
	}
	g.vm.Output = g.screen
	return g
}

// advance executes up to n instructions.
func (g *Game) advance(n int) {
	for i := 0; i < n; i++ {
		// Break early if the program finishes or fails
		if g.vm.Halted || g.err != nil {
			return
		}
		if err := g.vm.Step(); err != nil {
			g.err = err
		}
	}
}

func (g *Game) restart() {
	g.vm.Reset()
	g.screen.Clear()
	g.err = nil
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.restart()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) && g.paused {
		g.advance(1)
	}
	if !g.paused {
		g.advance(g.stepsPerFrame)
	}
	return nil
}

func (g *Game) status() string {
	switch {
	case g.err != nil:
		return "error: " + g.err.Error()
	case g.vm.Halted:
		return fmt.Sprintf("halted after %d steps  [R]estart", g.vm.Steps)
	case g.paused:
		return fmt.Sprintf("paused pc=%d sp=%d fp=%d  [Space] resume [.] step", g.vm.PC, g.vm.SP, g.vm.FP)
	}
	return fmt.Sprintf("running %d steps  [Space] pause", g.vm.Steps)
}

func (g *Game) Draw(screen *ebiten.Image) {
	for i, ch := range g.screen.Cells() {
		if ch == 0 {
			continue
		}
		x, y := grid.GetGridCoords(i, cols)
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(x*charWidth), float64(y*charHeight))
		op.ColorScale.ScaleWithColor(color.White)
		text.Draw(screen, string(ch), g.face, op)
	}
	ebitenutil.DebugPrintAt(screen, g.status(), 0, rows*charHeight)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cols * charWidth, rows*charHeight + statusH
}

func main() {
	cfg := config.Load()
	stepsPerFrame := flag.Int("speed", 10000, "VM instructions per frame")
	showAsm := flag.Bool("show-asm", false, "print the generated stack code")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [-speed N] [-show-asm] file.tree")
		os.Exit(2)
	}

	fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		log.Fatalf("Bad path: %v", err)
	}
	sourceBytes, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	_, code, _, err := compiler.Compile(string(sourceBytes), compiler.StackMachine{}, cfg.Limits)
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	if *showAsm {
		fmt.Print("Generated Assembly:\n", code, "\n")
	}
	prog, err := asm.Assemble(code)
	if err != nil {
		log.Fatalf("Assembly failed: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cols*charWidth*2, (rows*charHeight+statusH)*2)
	ebiten.SetWindowTitle("stackc - " + fullPath)

	game := NewGame(prog, *stepsPerFrame)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
