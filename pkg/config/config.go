// Package config reads tool defaults from the environment. Command-line
// flags take precedence; they are registered with these values as their
// defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"

	"stackc/pkg/compiler"
)

type Config struct {
	Target    string
	Limits    compiler.Limits
	StepLimit int
	Verbose   bool
	History   string
}

// Load reads:
//
//	STACKC_TARGET       nasm or stack (default nasm)
//	STACKC_MAX_SCOPES   scope nesting cap, 0 disables (default 16)
//	STACKC_MAX_SYMBOLS  symbols per scope, 0 disables (default 128)
//	STACKC_MAX_NAME     name length cap, 0 disables (default 32)
//	STACKC_STEP_LIMIT   VM step limit, 0 disables (default 10000000)
//	STACKC_VERBOSE      dump symbols and frames to stderr
//	STACKC_HISTORY      REPL history file (default ~/.stackc_history)
//
// env caches the environment, so the cache is refreshed on every call.
func Load() Config {
	env.Load()
	d := compiler.DefaultLimits
	return Config{
		Target: env.Str("STACKC_TARGET", "nasm"),
		Limits: compiler.Limits{
			MaxScopes:     env.Int("STACKC_MAX_SCOPES", d.MaxScopes),
			MaxSymbols:    env.Int("STACKC_MAX_SYMBOLS", d.MaxSymbols),
			MaxNameLength: env.Int("STACKC_MAX_NAME", d.MaxNameLength),
		},
		StepLimit: env.Int("STACKC_STEP_LIMIT", 10_000_000),
		Verbose:   env.Bool("STACKC_VERBOSE"),
		History:   env.Str("STACKC_HISTORY", defaultHistory()),
	}
}

func defaultHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stackc_history"
	}
	return filepath.Join(home, ".stackc_history")
}
