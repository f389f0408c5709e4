// Package session folds a statement stream into a reasoning state: a unit
// registry, a knowledge base, a Datalog kernel and a law store. Statements
// execute strictly in order; declarations mutate state and halt the stream
// on error, finds and checks record results and keep going.
package session

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/joshua-maros/ackulator/internal/kb"
	"github.com/joshua-maros/ackulator/internal/kernel"
	"github.com/joshua-maros/ackulator/internal/laws"
	"github.com/joshua-maros/ackulator/internal/logging"
	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
	"github.com/joshua-maros/ackulator/internal/units"
)

// Options tune a session's numeric and failure behavior.
type Options struct {
	// Epsilon is the relative tolerance used when comparing quantities and
	// either side is inexact. nil forces exact comparison everywhere.
	Epsilon *big.Rat
	// FatalCheckFailures escalates failing checks from recorded results to
	// statement errors.
	FatalCheckFailures bool
	// FactLimit bounds the kernel's extensional fact count. <= 0 means
	// unlimited.
	FactLimit int
	// Precision is the digit count used when rendering inexact quantities.
	Precision int
}

// DefaultOptions returns the options the CLI starts from: relative epsilon
// 1e-9, non-fatal check failures, unlimited facts.
func DefaultOptions() Options {
	return Options{
		Epsilon:   big.NewRat(1, 1_000_000_000),
		Precision: quantity.DefaultPrecision,
	}
}

// Session owns all reasoning state. Not safe for concurrent use; statements
// are a strictly ordered stream.
type Session struct {
	id   string
	opts Options

	reg  *units.Registry
	kb   *kb.Store
	kern *kernel.Kernel
	laws *laws.Store

	rules     map[string]types.DeclareRule
	ruleOrder []string

	results Results
}

// New returns an empty session.
func New(opts Options) *Session {
	if opts.Precision <= 0 {
		opts.Precision = quantity.DefaultPrecision
	}
	s := &Session{
		id:    uuid.NewString(),
		opts:  opts,
		reg:   units.NewRegistry(),
		kb:    kb.NewStore(),
		kern:  kernel.New(opts.FactLimit),
		laws:  laws.NewStore(),
		rules: make(map[string]types.DeclareRule),
	}
	logging.Session("session %s created", s.id)
	return s
}

// ID returns the session's correlation id.
func (s *Session) ID() string { return s.id }

// Results returns everything queries have produced so far.
func (s *Session) Results() Results { return s.results }

// Execute runs one statement. The returned error is fatal to the stream and
// carries the statement position; find failures and check failures are not
// errors, they land in the outcome and in Results.
func (s *Session) Execute(st types.Statement) (*Outcome, error) {
	var out *Outcome
	var err error
	switch stmt := st.(type) {
	case types.DeclareUnitClass:
		err = s.declareUnitClass(stmt)
	case types.DeclareBaseUnit:
		err = s.declareBaseUnit(stmt)
	case types.DeclareDerivedUnit:
		err = s.declareDerivedUnit(stmt)
	case types.DeclareLabel:
		err = s.declareLabel(stmt)
	case types.DeclareEntityClass:
		err = s.declareEntityClass(stmt)
	case types.DeclareRule:
		err = s.declareRule(stmt)
	case types.DeclareLaw:
		err = s.declareLaw(stmt)
	case types.DeclareValue:
		err = s.declareValue(stmt)
	case types.Find:
		out = s.find(stmt)
	case types.Check:
		out, err = s.check(stmt)
	case types.Show:
		out, err = s.show(stmt)
	default:
		err = fmt.Errorf("unsupported statement %T", st)
	}
	if err != nil {
		return nil, &StatementError{At: st.Pos(), Err: err}
	}
	if out == nil {
		out = &Outcome{}
	}
	return out, nil
}

// ExecuteAll runs statements in order, stopping at the first fatal error.
func (s *Session) ExecuteAll(stmts []types.Statement) error {
	for _, st := range stmts {
		if _, err := s.Execute(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) declareUnitClass(st types.DeclareUnitClass) error {
	if err := s.reg.DefineClass(st.Name); err != nil {
		return err
	}
	logging.Units("unit class %s", st.Name)
	return nil
}

func (s *Session) declareBaseUnit(st types.DeclareBaseUnit) error {
	if err := s.reg.DefineBaseUnit(st.Names, st.Class, st.Symbol, st.Prefixes); err != nil {
		return err
	}
	logging.Units("base unit %s [%s] prefixes=%s", st.Names[0], st.Class, st.Prefixes)
	return nil
}

func (s *Session) declareDerivedUnit(st types.DeclareDerivedUnit) error {
	q, err := s.reg.EvalQuantity(st.Value)
	if err != nil {
		return err
	}
	if err := s.reg.DefineDerivedUnit(st.Names, st.Symbol, q); err != nil {
		return err
	}
	logging.Units("derived unit %s = %s", st.Names[0], st.Value)
	return nil
}

func (s *Session) declareLabel(st types.DeclareLabel) error {
	// labels resolve lazily; forward references are checked at first use
	if err := s.reg.DefineLabel(st.Name, st.Value); err != nil {
		return err
	}
	logging.Units("label %s = %s", st.Name, st.Value)
	return nil
}

func (s *Session) declareEntityClass(st types.DeclareEntityClass) error {
	if err := s.kb.DeclareClass(st.Name); err != nil {
		return err
	}
	if _, err := s.kern.AddFact(kernel.NewAtom(kernel.PredClass, st.Name)); err != nil {
		return err
	}
	logging.Session("entity class %s", st.Name)
	return s.saturate()
}

func (s *Session) declareRule(st types.DeclareRule) error {
	if _, ok := s.rules[st.Name]; ok {
		return fmt.Errorf("%w: rule %s", kb.ErrDuplicateName, st.Name)
	}
	clauses, err := s.compileRule(st)
	if err != nil {
		return err
	}
	s.rules[st.Name] = st
	s.ruleOrder = append(s.ruleOrder, st.Name)
	for _, c := range clauses {
		s.kern.AddClause(c)
	}
	logging.Kernel("rule %s compiled to %d clauses", st.Name, len(clauses))
	return s.saturate()
}

// implicitClass resolves a quantifier's class. A parsed "for any Circle"
// arrives with only the variable set; when that name is a declared entity
// class it doubles as the membership constraint, otherwise the variable
// ranges free and conditions must narrow it.
func (s *Session) implicitClass(b types.QuantifiedVar) string {
	if b.Class != "" {
		return b.Class
	}
	if s.kb.HasClass(b.Var) {
		return b.Var
	}
	return ""
}

// compileRule lowers a rule to Datalog clauses, one per conclusion. The
// quantified variable becomes the single Datalog variable; conditions become
// isa/has_prop body atoms; type conclusions evaluate their dimension
// expression now and embed the canonical key as a constant.
func (s *Session) compileRule(st types.DeclareRule) ([]kernel.Clause, error) {
	v := st.Binding.Var
	if v == "" {
		return nil, fmt.Errorf("rule %s has no quantified variable", st.Name)
	}

	// entity(V) keeps the variable range restricted even for rules with no
	// conditions at all
	body := []kernel.Atom{{Pred: kernel.PredEntity, Args: []kernel.Term{kernel.Var(v)}}}
	class := s.implicitClass(st.Binding)
	if class != "" {
		if !s.kb.HasClass(class) {
			return nil, fmt.Errorf("%w: %s", kb.ErrUnknownEntityOrClass, class)
		}
		body = append(body, kernel.Atom{Pred: kernel.PredIsa,
			Args: []kernel.Term{kernel.Var(v), kernel.Str(class)}})
	}

	// local binding name -> property of the quantified variable
	bound := make(map[string]string)
	for _, c := range st.Wheres {
		switch c.Kind {
		case types.CondIsa:
			if c.Subject != v {
				return nil, fmt.Errorf("rule %s: condition subject %s is not the quantified %s",
					st.Name, c.Subject, v)
			}
			if !s.kb.HasClass(c.Class) {
				return nil, fmt.Errorf("%w: %s", kb.ErrUnknownEntityOrClass, c.Class)
			}
			body = append(body, kernel.Atom{Pred: kernel.PredIsa,
				Args: []kernel.Term{kernel.Var(v), kernel.Str(c.Class)}})
		case types.CondBind:
			if c.Source.Entity != v {
				return nil, fmt.Errorf("rule %s: %s binds %s.%s, which is not a property of %s",
					st.Name, c.Subject, c.Source.Entity, c.Source.Property, v)
			}
			bound[c.Subject] = c.Source.Property
			body = append(body, kernel.Atom{Pred: kernel.PredHasProp,
				Args: []kernel.Term{kernel.Var(v), kernel.Str(c.Source.Property)}})
		}
	}

	var out []kernel.Clause
	for _, con := range st.Concludes {
		switch con.Kind {
		case types.ConcludeMembership:
			if con.Subject != v {
				return nil, fmt.Errorf("rule %s: conclusion subject %s is not the quantified %s",
					st.Name, con.Subject, v)
			}
			if !s.kb.HasClass(con.Class) {
				return nil, fmt.Errorf("%w: %s", kb.ErrUnknownEntityOrClass, con.Class)
			}
			head := kernel.Atom{Pred: kernel.PredIsa,
				Args: []kernel.Term{kernel.Var(v), kernel.Str(con.Class)}}
			out = append(out, kernel.Clause{Head: head, Body: body})
		case types.ConcludeType:
			var prop string
			if con.Subject != "" {
				p, ok := bound[con.Subject]
				if !ok {
					return nil, fmt.Errorf("rule %s: %s is not bound by a where condition",
						st.Name, con.Subject)
				}
				prop = p
			} else {
				if con.Target.Entity != v {
					return nil, fmt.Errorf("rule %s: %s.%s is not a property of the quantified %s",
						st.Name, con.Target.Entity, con.Target.Property, v)
				}
				prop = con.Target.Property
			}
			dim, err := s.evalDim(con.Dim)
			if err != nil {
				return nil, err
			}
			head := kernel.Atom{Pred: kernel.PredPropDim,
				Args: []kernel.Term{kernel.Var(v), kernel.Str(prop), kernel.Str(dim.Key())}}
			out = append(out, kernel.Clause{Head: head, Body: body})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rule %s concludes nothing", st.Name)
	}
	return out, nil
}

func (s *Session) declareLaw(st types.DeclareLaw) error {
	class := s.implicitClass(st.Binding)
	if class == "" {
		return fmt.Errorf("law %s must quantify over a class", st.Name)
	}
	if !s.kb.HasClass(class) {
		return fmt.Errorf("%w: %s", kb.ErrUnknownEntityOrClass, class)
	}
	l := &laws.Law{
		Name:     st.Name,
		Var:      st.Binding.Var,
		Class:    class,
		Equation: st.Equation,
		At:       st.At,
	}
	for _, w := range st.Wheres {
		if w.Source.Entity != st.Binding.Var {
			return fmt.Errorf("law %s: %s binds %s.%s, which is not a property of %s",
				st.Name, w.Name, w.Source.Entity, w.Source.Property, st.Binding.Var)
		}
		l.Bindings = append(l.Bindings, laws.Binding{Name: w.Name, Property: w.Source.Property})
	}
	if err := s.laws.Add(l); err != nil {
		return err
	}
	logging.Laws("law %s for any %s", st.Name, l.Class)
	return nil
}

func (s *Session) declareValue(st types.DeclareValue) error {
	if len(st.Classes) == 0 {
		return fmt.Errorf("%w: value %s declares no class", kb.ErrUnknownEntityOrClass, st.Name)
	}
	if _, err := s.kb.DeclareEntity(st.Name, st.Classes); err != nil {
		return err
	}
	if _, err := s.kern.AddFact(kernel.NewAtom(kernel.PredEntity, st.Name)); err != nil {
		return err
	}
	for _, c := range st.Classes {
		if _, err := s.kern.AddFact(kernel.NewAtom(kernel.PredIsa, st.Name, c)); err != nil {
			return err
		}
	}
	for _, p := range st.Props {
		v, err := s.evalExpr(p.Value)
		if err != nil {
			return err
		}
		switch v.kind {
		case valQuantity:
			if err := s.kb.SetProperty(st.Name, p.Name, v.q); err != nil {
				return err
			}
			if err := s.assertPropFacts(st.Name, p.Name, v.q.Dim); err != nil {
				return err
			}
		case valEntity:
			if err := s.kb.SetPropertyRef(st.Name, p.Name, v.entity); err != nil {
				return err
			}
			if _, err := s.kern.AddFact(kernel.NewAtom(kernel.PredHasProp, st.Name, p.Name)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s.%s cannot hold a bare dimension", ErrInvalidExpression, st.Name, p.Name)
		}
	}
	logging.Session("value %s [%s]", st.Name, strings.Join(st.Classes, ", "))
	return s.saturate()
}

// assertPropFacts tells the kernel that entity.prop exists with the given
// dimension, so rules can match and chain on it.
func (s *Session) assertPropFacts(entity, prop string, dim quantity.Dim) error {
	if _, err := s.kern.AddFact(kernel.NewAtom(kernel.PredHasProp, entity, prop)); err != nil {
		return err
	}
	if _, err := s.kern.AddFact(kernel.NewAtom(kernel.PredPropDim, entity, prop, dim.Key())); err != nil {
		return err
	}
	return nil
}

// saturate runs the kernel to fixpoint and folds everything it derived back
// into the knowledge base. A no-op when nothing changed since the last run.
func (s *Session) saturate() error {
	t := logging.StartTimer(logging.CategoryKernel, "saturate")
	if err := s.kern.Saturate(); err != nil {
		return err
	}
	t.Stop()
	return s.applyDerived()
}

func (s *Session) applyDerived() error {
	isaRows, err := s.kern.Derived(kernel.PredIsa, 2)
	if err != nil {
		return err
	}
	for _, row := range isaRows {
		added, err := s.kb.AddMembership(row[0], row[1])
		if err != nil {
			return err
		}
		if added {
			logging.KernelDebug("derived isa(%s, %s)", row[0], row[1])
		}
	}

	dimRows, err := s.kern.Derived(kernel.PredPropDim, 3)
	if err != nil {
		return err
	}
	for _, row := range dimRows {
		dim, err := quantity.ParseDimKey(row[2])
		if err != nil {
			return fmt.Errorf("derived dimension %q: %w", row[2], err)
		}
		// a contradictory derived constraint surfaces here as a
		// TypeConstraintViolation
		if err := s.kb.ConstrainProperty(row[0], row[1], dim); err != nil {
			return err
		}
	}
	return nil
}
