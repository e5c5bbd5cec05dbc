// Package ast defines the syntax tree consumed by the code generator and a
// reader for its textual S-expression form.
package ast

import (
	"strconv"
	"strings"
)

type Kind int

const (
	Number Kind = iota
	Identifier
	Operation
	FunctionDefinition
	Call
)

var kindNames = [...]string{
	Number:             "Number",
	Identifier:         "Identifier",
	Operation:          "Operation",
	FunctionDefinition: "FunctionDefinition",
	Call:               "Call",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is one vertex of the tree. Nodes are never modified after
// construction; the code generator only reads them.
//
// Argument and parameter lists are chained through Left: each leaf element
// (Number or Identifier) points at the next one. A non-leaf element keeps
// its own children and therefore always ends the chain.
type Node struct {
	Kind  Kind
	Text  string
	Left  *Node
	Right *Node
}

// IsLeaf reports whether n is a Number or an Identifier.
func (n *Node) IsLeaf() bool {
	return n != nil && (n.Kind == Number || n.Kind == Identifier)
}

// Chain returns the elements of an argument or parameter chain starting at n.
func Chain(n *Node) []*Node {
	var out []*Node
	for cur := n; cur != nil; cur = cur.Left {
		out = append(out, cur)
		if !cur.IsLeaf() {
			break
		}
	}
	return out
}

func Num(v int64) *Node {
	return &Node{Kind: Number, Text: strconv.FormatInt(v, 10)}
}

func Ident(name string) *Node {
	return &Node{Kind: Identifier, Text: name}
}

func Op(text string, left, right *Node) *Node {
	return &Node{Kind: Operation, Text: text, Left: left, Right: right}
}

// Seq nests statements to the right: Seq(a, b) is (; a (; b)).
// An empty Seq is a sequence node with no children.
func Seq(stmts ...*Node) *Node {
	if len(stmts) == 0 {
		return Op(";", nil, nil)
	}
	var rest *Node
	if len(stmts) > 1 {
		rest = Seq(stmts[1:]...)
	}
	return Op(";", stmts[0], rest)
}

func Def(name string, params []string, body *Node) *Node {
	var chain *Node
	for i := len(params) - 1; i >= 0; i-- {
		p := Ident(params[i])
		p.Left = chain
		chain = p
	}
	return &Node{Kind: FunctionDefinition, Text: name, Left: chain, Right: body}
}

// CallOf builds a call node. Leaf arguments are copied so they can be
// linked; a non-leaf argument anywhere but last panics.
func CallOf(name string, args ...*Node) *Node {
	return &Node{Kind: Call, Text: name, Left: link(args)}
}

func link(args []*Node) *Node {
	var chain *Node
	for i := len(args) - 1; i >= 0; i-- {
		a := args[i]
		if !a.IsLeaf() {
			if i != len(args)-1 {
				panic("ast: non-leaf argument must be the last in a chain")
			}
			chain = a
			continue
		}
		cp := *a
		cp.Left = chain
		chain = &cp
	}
	return chain
}

// String renders n in the form accepted by Parse.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n == nil {
		sb.WriteString("()")
		return
	}
	switch n.Kind {
	case Number, Identifier:
		sb.WriteString(n.Text)
	case Call:
		sb.WriteString("(call ")
		sb.WriteString(n.Text)
		for _, a := range Chain(n.Left) {
			sb.WriteByte(' ')
			writeElem(sb, a)
		}
		sb.WriteByte(')')
	case FunctionDefinition:
		sb.WriteString("(def ")
		sb.WriteString(n.Text)
		sb.WriteString(" (")
		for i, p := range Chain(n.Left) {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(p.Text)
		}
		sb.WriteString(") ")
		n.Right.write(sb)
		sb.WriteByte(')')
	case Operation:
		if n.Text == ";" {
			sb.WriteString("(;")
			for _, s := range Statements(n) {
				sb.WriteByte(' ')
				s.write(sb)
			}
			sb.WriteByte(')')
			return
		}
		sb.WriteByte('(')
		sb.WriteString(n.Text)
		if n.Left != nil {
			sb.WriteByte(' ')
			writeElem(sb, n.Left)
		}
		if n.Right != nil {
			if n.Left == nil {
				sb.WriteString(" ()")
			}
			sb.WriteByte(' ')
			n.Right.write(sb)
		}
		sb.WriteByte(')')
	}
}

// writeElem prints a node that may be the head of a chain without
// following its Left link.
func writeElem(sb *strings.Builder, n *Node) {
	if n.IsLeaf() {
		sb.WriteString(n.Text)
		return
	}
	n.write(sb)
}

// Statements flattens a sequence node into its statements, skipping empty
// slots. A node that is not a sequence is returned as the only statement.
func Statements(n *Node) []*Node {
	var out []*Node
	for cur := n; cur != nil; {
		if cur.Kind != Operation || cur.Text != ";" {
			out = append(out, cur)
			break
		}
		if cur.Left != nil {
			out = append(out, cur.Left)
		}
		cur = cur.Right
	}
	return out
}
