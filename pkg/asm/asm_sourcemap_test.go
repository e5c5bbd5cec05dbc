package asm

import (
	"testing"
)

func TestAssembleSourceMap(t *testing.T) {
	code := `.entry main      ; Line 1: directive, no instruction
; Line 2: Comment
.data
x: .word 1        ; Line 4: data, no instruction

.text
main:             ; Line 7: Label
    push [x]      ; Line 8: instruction 0
                  ; Line 9: Empty
    out           ; Line 10: instruction 1
done: hlt         ; Line 11: instruction 2
`
	p, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	want := []int{8, 10, 11}
	if len(p.SourceMap) != len(p.Code) {
		t.Fatalf("SourceMap has %d entries for %d instructions", len(p.SourceMap), len(p.Code))
	}
	for pc, line := range want {
		if got := p.SourceMap[pc]; got != line {
			t.Errorf("SourceMap[%d] = %d; want %d", pc, got, line)
		}
	}
}
