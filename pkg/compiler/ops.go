package compiler

// Op is the operation kind named by an operator or keyword spelling.
type Op int

const (
	OpCall Op = iota // no special meaning: an ordinary call
	OpSeq
	OpIf
	OpWhile
	OpAssign
	OpPrint
	OpReturn
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpSin
	OpCos
	OpSqrt
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
)

var spellings = map[string]Op{
	";":      OpSeq,
	"if":     OpIf,
	"while":  OpWhile,
	"=":      OpAssign,
	"print":  OpPrint,
	"return": OpReturn,
	"+":      OpAdd,
	"-":      OpSub,
	"*":      OpMul,
	"/":      OpDiv,
	"sin":    OpSin,
	"cos":    OpCos,
	"sqrt":   OpSqrt,
	"==":     OpEq,
	"!=":     OpNe,
	"<":      OpLt,
	">":      OpGt,
	"<=":     OpLe,
	">=":     OpGe,
}

var opNames = [...]string{
	OpCall:   "call",
	OpSeq:    ";",
	OpIf:     "if",
	OpWhile:  "while",
	OpAssign: "=",
	OpPrint:  "print",
	OpReturn: "return",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpSin:    "sin",
	OpCos:    "cos",
	OpSqrt:   "sqrt",
	OpEq:     "==",
	OpNe:     "!=",
	OpLt:     "<",
	OpGt:     ">",
	OpLe:     "<=",
	OpGe:     ">=",
}

// Classify maps a spelling to its operation kind. Unknown spellings are
// ordinary calls.
func Classify(spelling string) Op {
	if op, ok := spellings[spelling]; ok {
		return op
	}
	return OpCall
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

func (op Op) IsArith() bool { return op >= OpAdd && op <= OpDiv }

func (op Op) IsMath() bool { return op >= OpSin && op <= OpSqrt }

func (op Op) IsCompare() bool { return op >= OpEq && op <= OpGe }

// IsStatement reports whether op leaves nothing on the operand stack.
func (op Op) IsStatement() bool {
	switch op {
	case OpSeq, OpIf, OpWhile, OpAssign, OpPrint, OpReturn:
		return true
	}
	return false
}
