package types

import (
	"fmt"
	"math/big"
	"strings"
)

// Expr is a parsed arithmetic expression. Leaves are exact number literals,
// bare names (units, labels, classes, entities, bound variables) and
// Entity.Property references; interior nodes are the usual operators with ^
// binding tightest.
type Expr interface {
	Pos() Pos
	expr()
	String() string
}

// NumberLit is an exact numeric literal. The parser converts the source text
// to a big.Rat so precision is never lost, however many digits were written.
// A literal spelled with a trailing "..." declares itself a truncation of an
// irrational constant; Trunc records that so evaluation can mark the value
// inexact.
type NumberLit struct {
	At    Pos
	Value *big.Rat
	Text  string // source spelling, kept for faithful rendering
	Trunc bool
}

// NameRef is a bare identifier. What it denotes (unit, label, unit class,
// entity, bound variable) is decided by the evaluator, not the parser.
type NameRef struct {
	At   Pos
	Name string
}

// PropRef is an Entity.Property reference. Entity may also be a bound
// variable name inside rule and law bodies.
type PropRef struct {
	At       Pos
	Entity   string
	Property string
}

// UnaryOp is the operator of a Unary node.
type UnaryOp int

// UnaryNeg is arithmetic negation, the only unary operator.
const UnaryNeg UnaryOp = iota

// Unary is a prefix operator application.
type Unary struct {
	At Pos
	Op UnaryOp
	X  Expr
}

// BinaryOp is the operator of a Binary node.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "^"
	}
}

// Binary is an infix operator application.
type Binary struct {
	At   Pos
	Op   BinaryOp
	X, Y Expr
}

func (e NumberLit) Pos() Pos { return e.At }
func (e NameRef) Pos() Pos   { return e.At }
func (e PropRef) Pos() Pos   { return e.At }
func (e Unary) Pos() Pos     { return e.At }
func (e Binary) Pos() Pos    { return e.At }

func (NumberLit) expr() {}
func (NameRef) expr()   {}
func (PropRef) expr()   {}
func (Unary) expr()     {}
func (Binary) expr()    {}

func (e NumberLit) String() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Value.RatString()
}

func (e NameRef) String() string { return e.Name }

func (e PropRef) String() string { return e.Entity + "." + e.Property }

func (e Unary) String() string {
	return "-" + parenthesize(e.X, precUnary)
}

func (e Binary) String() string {
	p := precOf(e.Op)
	left := parenthesize(e.X, p)
	// right operand of a left-associative operator needs parens at equal
	// precedence; ^ is right-associative so it is the other way around
	rightFloor := p + 1
	if e.Op == OpPow {
		left = parenthesize(e.X, p+1)
		rightFloor = p
	}
	right := parenthesize(e.Y, rightFloor)
	return fmt.Sprintf("%s %s %s", left, e.Op, right)
}

const (
	precAdd = iota + 1
	precMul
	precUnary
	precPow
	precAtom
)

func precOf(op BinaryOp) int {
	switch op {
	case OpAdd, OpSub:
		return precAdd
	case OpMul, OpDiv:
		return precMul
	default:
		return precPow
	}
}

func exprPrec(e Expr) int {
	switch x := e.(type) {
	case Binary:
		return precOf(x.Op)
	case Unary:
		return precUnary
	default:
		return precAtom
	}
}

func parenthesize(e Expr, floor int) string {
	s := e.String()
	if exprPrec(e) < floor {
		return "(" + s + ")"
	}
	return s
}

// String renders the predicate the way a script would write it.
func (p Predicate) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", p.Left, p.Kind, p.Right))
}
