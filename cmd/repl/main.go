// Command repl reads tree forms interactively, compiles them together with
// the forms entered before and runs the result on the stack VM.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"stackc/pkg/ast"
	"stackc/pkg/compiler"
	"stackc/pkg/config"
)

const (
	promptMain = "stackc> "
	promptCont = "   ...> "
)

const help = `Enter tree forms, e.g. (= x 5) (print x). Commands:
  :asm            show the session compiled for the current target
  :target NAME    select the :asm target (` + "%s" + `)
  :tree           show the accepted forms
  :reset          forget all forms
  :quit           leave`

func main() {
	cfg := config.Load()
	target, err := compiler.LookupTarget(cfg.Target)
	if err != nil {
		log.Fatalf("STACKC_TARGET: %v", err)
	}
	s := newSession(target, cfg.Limits, cfg.StepLimit)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(cfg.History); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(cfg.History); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	fmt.Println("stackc repl, :help for commands")
	for {
		src, ok := readForm(ln)
		if !ok {
			fmt.Println()
			return
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if quit := command(s, trimmed, os.Stdout); quit {
				return
			}
			continue
		}

		out, err := s.eval(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Print(out)
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}
}

// readForm keeps prompting while the input ends inside an open list.
func readForm(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := ast.Parse(src); err != nil && ast.Incomplete(err) {
			continue
		}
		return src, true
	}
}

// command runs a ':' command and reports whether the loop should end.
func command(s *session, line string, w io.Writer) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintf(w, help+"\n", strings.Join(compiler.Targets(), ", "))
	case ":asm":
		text, err := s.listing()
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			break
		}
		fmt.Fprint(w, text)
	case ":target":
		if len(fields) != 2 {
			fmt.Fprintf(w, "current target: %s\n", s.target.Name())
			break
		}
		t, err := compiler.LookupTarget(fields[1])
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			break
		}
		s.target = t
	case ":tree":
		fmt.Fprint(w, s.tree())
	case ":reset":
		s.reset()
	default:
		fmt.Fprintln(w, "unknown command. Type :help for a list.")
	}
	return false
}
