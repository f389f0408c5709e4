package kernel

import (
	"fmt"
	"strings"
)

// Term is one argument of an atom: either a string constant or a Datalog
// variable. Every identifier this engine reasons about (entity names,
// property names, dimension keys) travels as a quoted string constant, which
// sidesteps Mangle's name-constant charset entirely.
type Term struct {
	IsVar bool
	Value string
}

// Str returns a string-constant term.
func Str(s string) Term { return Term{Value: s} }

// Var returns a variable term. Mangle requires variables to start with an
// upper-case letter; "_" is the wildcard.
func Var(name string) Term { return Term{IsVar: true, Value: name} }

// Wildcard is the anonymous variable.
var Wildcard = Term{IsVar: true, Value: "_"}

func (t Term) String() string {
	if t.IsVar {
		return t.Value
	}
	return fmt.Sprintf("%q", t.Value)
}

// Atom is a predicate applied to terms.
type Atom struct {
	Pred string
	Args []Term
}

// NewAtom builds an atom over string constants only, the common case for
// extensional facts.
func NewAtom(pred string, args ...string) Atom {
	terms := make([]Term, len(args))
	for i, a := range args {
		terms[i] = Str(a)
	}
	return Atom{Pred: pred, Args: terms}
}

func (a Atom) String() string {
	parts := make([]string, len(a.Args))
	for i, t := range a.Args {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s(%s)", a.Pred, strings.Join(parts, ", "))
}

// Clause is a Datalog clause: a bare head is a fact, a head with a body is a
// rule.
type Clause struct {
	Head Atom
	Body []Atom
}

func (c Clause) String() string {
	if len(c.Body) == 0 {
		return c.Head.String() + "."
	}
	parts := make([]string, len(c.Body))
	for i, a := range c.Body {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s :- %s.", c.Head, strings.Join(parts, ", "))
}
