package grid

import (
	"fmt"
	"strings"
	"testing"
)

func TestGetGridCoords(t *testing.T) {
	tests := []struct {
		index int
		cols  int
		wantX int
		wantY int
	}{
		// 64 cols (Standard)
		{0, 64, 0, 0},
		{1, 64, 1, 0},
		{63, 64, 63, 0},
		{64, 64, 0, 1},
		{65, 64, 1, 1},
		{127, 64, 63, 1},
		{128, 64, 0, 2},
		{1023, 64, 63, 15},

		// 32 cols (Low Res)
		{0, 32, 0, 0},
		{31, 32, 31, 0},
		{32, 32, 0, 1},
		{63, 32, 31, 1},
		{1023, 32, 31, 31},
	}

	for _, tc := range tests {
		gotX, gotY := GetGridCoords(tc.index, tc.cols)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Errorf("GetGridCoords(%d, %d) = (%d, %d); want (%d, %d)", tc.index, tc.cols, gotX, gotY, tc.wantX, tc.wantY)
		}
	}
}

func TestScreenWrite(t *testing.T) {
	s := NewScreen(4, 3)
	fmt.Fprintf(s, "1\n22\n")
	got := strings.Join(s.Lines(), "|")
	if got != "1|22|" {
		t.Errorf("Lines() = %q; want %q", got, "1|22|")
	}
}

func TestScreenWraps(t *testing.T) {
	s := NewScreen(4, 3)
	s.Write([]byte("abcdef"))
	if got := strings.Join(s.Lines(), "|"); got != "abcd|ef|" {
		t.Errorf("Lines() = %q", got)
	}
}

func TestScreenScrolls(t *testing.T) {
	s := NewScreen(4, 3)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(s, "%d\n", i)
	}
	// The cursor sits on a fresh last row, so the last three lines shown
	// are 4, 5 and an empty row.
	if got := strings.Join(s.Lines(), "|"); got != "4|5|" {
		t.Errorf("Lines() = %q; want %q", got, "4|5|")
	}

	s.Clear()
	if got := strings.Join(s.Lines(), ""); got != "" {
		t.Errorf("Clear left %q", got)
	}
	for _, r := range s.Cells() {
		if r != 0 {
			t.Fatal("Clear must blank every cell")
		}
	}
}
