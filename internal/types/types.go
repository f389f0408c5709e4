// Package types defines the statement stream a session folds over and the
// expression trees shared by the script front-end, the law solver, and the
// evaluator. This package exists to break import cycles between the packages
// that produce statements and the packages that execute them, so everything
// here is a foundational data structure with no complex dependencies.
package types

import "fmt"

// Pos locates a statement or expression in its source script. Statements
// built programmatically carry a synthetic File such as "catalog:standard".
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// PrefixMode selects which metric prefix family a base unit registers.
type PrefixMode int

const (
	// PrefixNone registers only the unit itself.
	PrefixNone PrefixMode = iota
	// PrefixMetric registers the full family, Yotta down to Yocto.
	PrefixMetric
	// PrefixPartialMetric registers the magnitude-reducing prefixes only,
	// Deci down to Yocto. Seconds use this: nobody writes Kiloseconds,
	// everybody writes Milliseconds.
	PrefixPartialMetric
)

func (m PrefixMode) String() string {
	switch m {
	case PrefixMetric:
		return "metric"
	case PrefixPartialMetric:
		return "partial_metric"
	default:
		return "none"
	}
}

// Statement is one instruction in the stream a session executes in order.
type Statement interface {
	Pos() Pos
	statement()
}

// DeclareUnitClass introduces a dimension axis, e.g. Length.
type DeclareUnitClass struct {
	At   Pos
	Name string
}

// DeclareBaseUnit introduces the canonical unit of a class, scale 1 by
// definition. Names holds the primary name first, aliases after.
type DeclareBaseUnit struct {
	At       Pos
	Names    []string
	Class    string
	Symbol   string
	Prefixes PrefixMode
}

// DeclareDerivedUnit introduces a unit whose scale is the value of an
// expression over existing units, e.g. Foot = 0.3048 * Meters.
type DeclareDerivedUnit struct {
	At     Pos
	Names  []string
	Symbol string
	Value  Expr
}

// DeclareLabel names a dimensional expression (Velocity = Length / Time) or
// a numeric constant (Pi). Labels resolve lazily, so a label may reference
// labels declared later in the same script.
type DeclareLabel struct {
	At    Pos
	Name  string
	Value Expr
}

// DeclareEntityClass introduces a class of entities, e.g. Circle.
type DeclareEntityClass struct {
	At   Pos
	Name string
}

// DeclareRule introduces a forward-chaining rule: for any entity matching
// the binding and where-conditions, assert the conclusions.
type DeclareRule struct {
	At        Pos
	Name      string
	Binding   QuantifiedVar
	Wheres    []RuleCondition
	Concludes []Conclusion
}

// DeclareLaw introduces an equational law over the properties of a bound
// entity, e.g. Area = Pi * R^2 for any Circle.
type DeclareLaw struct {
	At       Pos
	Name     string
	Binding  QuantifiedVar
	Wheres   []LawBinding
	Equation Equation
}

// DeclareValue introduces an entity instance with initial property values.
type DeclareValue struct {
	At      Pos
	Name    string
	Classes []string
	Props   []PropertyInit
}

// Find requests the value of Target, optionally naming the law to apply and
// the entity bound to the law's quantified variable.
type Find struct {
	At       Pos
	Target   PropRef
	Law      string
	Bindings []FindBinding
}

// Check evaluates a predicate and records a pass/fail result.
type Check struct {
	At   Pos
	Pred Predicate
}

// Show evaluates an expression and renders it. When Against is non-nil the
// form was "show <expr> is <label>" and the rendering also reports whether
// the value's dimension matches.
type Show struct {
	At      Pos
	Expr    Expr
	Against Expr
}

func (s DeclareUnitClass) Pos() Pos   { return s.At }
func (s DeclareBaseUnit) Pos() Pos    { return s.At }
func (s DeclareDerivedUnit) Pos() Pos { return s.At }
func (s DeclareLabel) Pos() Pos       { return s.At }
func (s DeclareEntityClass) Pos() Pos { return s.At }
func (s DeclareRule) Pos() Pos        { return s.At }
func (s DeclareLaw) Pos() Pos         { return s.At }
func (s DeclareValue) Pos() Pos       { return s.At }
func (s Find) Pos() Pos               { return s.At }
func (s Check) Pos() Pos              { return s.At }
func (s Show) Pos() Pos               { return s.At }

func (DeclareUnitClass) statement()   {}
func (DeclareBaseUnit) statement()    {}
func (DeclareDerivedUnit) statement() {}
func (DeclareLabel) statement()       {}
func (DeclareEntityClass) statement() {}
func (DeclareRule) statement()        {}
func (DeclareLaw) statement()         {}
func (DeclareValue) statement()       {}
func (Find) statement()               {}
func (Check) statement()              {}
func (Show) statement()               {}

// QuantifiedVar is the "for any X" binding of a rule or law. When the script
// writes "for any Circle" the variable is named after its class and Class is
// set; "for any X" leaves Class empty until a where-condition supplies it.
type QuantifiedVar struct {
	Var   string
	Class string
}

// CondKind discriminates RuleCondition forms.
type CondKind int

const (
	// CondIsa is a membership test: Subject isa Class.
	CondIsa CondKind = iota
	// CondBind names a property of the quantified variable:
	// Subject is Var.Property.
	CondBind
)

// RuleCondition is one where-entry of a rule.
type RuleCondition struct {
	At      Pos
	Kind    CondKind
	Subject string
	Class   string  // CondIsa only
	Source  PropRef // CondBind only
}

// ConclusionKind discriminates Conclusion forms.
type ConclusionKind int

const (
	// ConcludeMembership asserts Subject is Class.
	ConcludeMembership ConclusionKind = iota
	// ConcludeType constrains the dimension of a property. Target names the
	// property directly (Circle.Diameter isa Length) unless Subject names a
	// where-binding instead (R isa Length).
	ConcludeType
)

// Conclusion is one conclude-entry of a rule.
type Conclusion struct {
	At      Pos
	Kind    ConclusionKind
	Subject string
	Class   string  // ConcludeMembership only
	Target  PropRef // ConcludeType, property form
	Dim     Expr    // ConcludeType: dimensional expression, usually a label or class name
}

// LawBinding names one property of the law's quantified variable so the
// equation can reference it, e.g. "R is Circle.Radius".
type LawBinding struct {
	At     Pos
	Name   string
	Source PropRef
}

// Equation is the two sides of a law.
type Equation struct {
	Left  Expr
	Right Expr
}

// PropertyInit is one "Name: expr" entry of a value declaration.
type PropertyInit struct {
	At    Pos
	Name  string
	Value Expr
}

// FindBinding maps a law variable to a concrete entity in a find statement.
type FindBinding struct {
	At     Pos
	Var    string
	Entity string
}

// PredKind discriminates predicate forms.
type PredKind int

const (
	// PredEqual compares two quantity or dimension expressions.
	PredEqual PredKind = iota
	// PredIs tests membership (entity is Class) or dimension match
	// (quantity is Label).
	PredIs
	// PredIsa is the isa spelling of PredIs.
	PredIsa
)

func (k PredKind) String() string {
	switch k {
	case PredEqual:
		return "="
	case PredIsa:
		return "isa"
	default:
		return "is"
	}
}

// Predicate is the body of a check statement.
type Predicate struct {
	Kind  PredKind
	Left  Expr
	Right Expr
}
