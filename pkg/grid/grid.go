// Package grid maps program output onto a fixed grid of character cells.
package grid

import "strings"

// GetGridCoords returns the column and row of cell index in a grid that is
// cols wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Screen is a cols×rows character buffer written like a terminal: text
// wraps at the right edge and the contents scroll up when the cursor
// passes the last row. A zero cell is blank.
type Screen struct {
	Cols, Rows int

	cells  []rune
	cursor int
}

func NewScreen(cols, rows int) *Screen {
	return &Screen{Cols: cols, Rows: rows, cells: make([]rune, cols*rows)}
}

// Write implements io.Writer so a Screen can receive VM output directly.
func (s *Screen) Write(p []byte) (int, error) {
	for _, r := range string(p) {
		s.put(r)
	}
	return len(p), nil
}

func (s *Screen) put(r rune) {
	if r == '\n' {
		_, y := GetGridCoords(s.cursor, s.Cols)
		s.cursor = (y + 1) * s.Cols
		s.scroll()
		return
	}
	s.scroll()
	s.cells[s.cursor] = r
	s.cursor++
}

// scroll moves everything up one row while the cursor is off the grid.
func (s *Screen) scroll() {
	for s.cursor >= len(s.cells) {
		copy(s.cells, s.cells[s.Cols:])
		clear(s.cells[len(s.cells)-s.Cols:])
		s.cursor -= s.Cols
	}
}

// Cells returns the buffer in row-major order. The slice is shared.
func (s *Screen) Cells() []rune { return s.cells }

func (s *Screen) Clear() {
	clear(s.cells)
	s.cursor = 0
}

// Lines returns each row with trailing blanks removed.
func (s *Screen) Lines() []string {
	out := make([]string, s.Rows)
	for row := range out {
		line := s.cells[row*s.Cols : (row+1)*s.Cols]
		out[row] = strings.TrimRight(strings.Map(func(r rune) rune {
			if r == 0 {
				return ' '
			}
			return r
		}, string(line)), " ")
	}
	return out
}
