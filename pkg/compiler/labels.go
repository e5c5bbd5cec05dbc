package compiler

import "fmt"

type LabelKind int

const (
	LabelIf LabelKind = iota
	LabelWhile
	LabelCompare
	LabelReturn
	LabelFunction
	numLabelKinds
)

// Labels hands out one increasing counter per construct kind. A zero
// Labels starts every counter at 0.
type Labels struct {
	next [numLabelKinds]int
}

func (l *Labels) Next(kind LabelKind) int {
	n := l.next[kind]
	l.next[kind]++
	return n
}

func label(prefix string, n int) string {
	return fmt.Sprintf("%s_%d", prefix, n)
}
