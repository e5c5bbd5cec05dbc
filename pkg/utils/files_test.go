package utils

import (
	"path/filepath"
	"testing"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, ext, want string
	}{
		{"prog.tree", ".asm", "prog.asm"},
		{"dir/prog.tree", ".sasm", "dir/prog.sasm"},
		{"prog", ".asm", "prog.asm"},
		{"a.b.tree", ".asm", "a.b.asm"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in, tt.ext); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q; want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}

func TestGetPathInfo(t *testing.T) {
	full, dir, err := GetPathInfo("x/../prog.tree")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(full) || filepath.Base(full) != "prog.tree" {
		t.Errorf("fullPath = %q", full)
	}
	if dir != filepath.Dir(full) {
		t.Errorf("parentDir = %q, want %q", dir, filepath.Dir(full))
	}
}
