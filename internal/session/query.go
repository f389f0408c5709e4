package session

import (
	"errors"
	"fmt"

	"github.com/joshua-maros/ackulator/internal/kb"
	"github.com/joshua-maros/ackulator/internal/laws"
	"github.com/joshua-maros/ackulator/internal/logging"
	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
)

// find resolves entity.property, solving a law when no value is stored yet.
// Failures are recorded per query, never fatal.
func (s *Session) find(stmt types.Find) *Outcome {
	res := FindResult{At: stmt.At, Entity: stmt.Target.Entity, Property: stmt.Target.Property}
	q, err := s.resolveFind(stmt)
	if err != nil {
		res.Err = err
		logging.Session("find %s.%s failed: %v", res.Entity, res.Property, err)
	} else {
		res.Value = q
		logging.Session("find %s.%s = %s", res.Entity, res.Property, q.Format(s.opts.Precision))
	}
	s.results.Finds = append(s.results.Finds, res)
	return &Outcome{Find: &res}
}

func (s *Session) resolveFind(stmt types.Find) (quantity.Quantity, error) {
	entity, prop := stmt.Target.Entity, stmt.Target.Property

	slot, err := s.kb.GetProperty(entity, prop)
	if err != nil {
		return quantity.Quantity{}, err
	}
	switch slot.Kind {
	case kb.SlotValue:
		// memoized: facts never retract, so a stored value is final
		return slot.Value, nil
	case kb.SlotRef:
		return quantity.Quantity{}, fmt.Errorf("%w: %s.%s references entity %s",
			ErrInvalidExpression, entity, prop, slot.Ref)
	}

	var l *laws.Law
	if stmt.Law != "" {
		var ok bool
		l, ok = s.laws.Get(stmt.Law)
		if !ok {
			return quantity.Quantity{}, fmt.Errorf("%w: no law named %s",
				laws.ErrNoApplicableLaw, stmt.Law)
		}
		isa, err := s.kb.IsA(entity, l.Class)
		if err != nil {
			return quantity.Quantity{}, err
		}
		if !isa {
			return quantity.Quantity{}, fmt.Errorf("%w: %s is not a %s, required by %s",
				laws.ErrNoApplicableLaw, entity, l.Class, l.Name)
		}
	} else {
		l, err = s.laws.Select(s.kb, entity, prop)
		if err != nil {
			return quantity.Quantity{}, err
		}
	}

	// the target entity is the binding; explicit bindings must agree
	for _, b := range stmt.Bindings {
		if b.Var != l.Var {
			return quantity.Quantity{}, fmt.Errorf("%w: %s is not the quantified variable of %s",
				laws.ErrAmbiguousBinding, b.Var, l.Name)
		}
		if b.Entity != entity {
			return quantity.Quantity{}, fmt.Errorf("%w: %s bound to %s but the target is %s",
				laws.ErrAmbiguousBinding, b.Var, b.Entity, entity)
		}
	}

	q, err := laws.Solve(s.reg, s.kb, l, entity, prop)
	if err != nil {
		return quantity.Quantity{}, err
	}
	if err := s.kb.SetProperty(entity, prop, q); err != nil {
		return quantity.Quantity{}, err
	}
	if err := s.assertPropFacts(entity, prop, q.Dim); err != nil {
		return quantity.Quantity{}, err
	}
	// the new value may satisfy rule conditions nothing matched before
	if err := s.saturate(); err != nil {
		return quantity.Quantity{}, err
	}
	logging.Laws("solved %s.%s via %s", entity, prop, l.Name)
	return q, nil
}

// check evaluates a predicate. A false result is recorded, not raised; only
// a malformed predicate is fatal.
func (s *Session) check(stmt types.Check) (*Outcome, error) {
	passed, reason, err := s.evalPredicate(stmt.Pred)
	if err != nil {
		return nil, err
	}
	res := CheckResult{At: stmt.At, Predicate: stmt.Pred.String(), Passed: passed, Reason: reason}
	s.results.Checks = append(s.results.Checks, res)
	logging.Session("check %s: %v", res.Predicate, passed)
	if !passed && s.opts.FatalCheckFailures {
		return &Outcome{Check: &res}, fmt.Errorf("%w: %s (%s)", ErrCheckFailed, res.Predicate, reason)
	}
	return &Outcome{Check: &res}, nil
}

func (s *Session) evalPredicate(p types.Predicate) (bool, string, error) {
	if p.Kind == types.PredEqual {
		return s.evalEquality(p)
	}
	return s.evalMembership(p)
}

func (s *Session) evalEquality(p types.Predicate) (bool, string, error) {
	lv, err := s.evalExpr(p.Left)
	if err != nil {
		return false, "", err
	}
	rv, err := s.evalExpr(p.Right)
	if err != nil {
		return false, "", err
	}
	switch {
	case lv.kind == valQuantity && rv.kind == valQuantity:
		eq, err := quantity.Equal(lv.q, rv.q, s.opts.Epsilon)
		if err != nil {
			if errors.Is(err, quantity.ErrDimensionMismatch) {
				// different dimensions are simply unequal
				return false, err.Error(), nil
			}
			return false, "", err
		}
		if !eq {
			return false, fmt.Sprintf("%s != %s",
				lv.q.Format(s.opts.Precision), rv.q.Format(s.opts.Precision)), nil
		}
		return true, "", nil

	case lv.kind == valDim && rv.kind == valDim:
		if !lv.dim.Equal(rv.dim) {
			return false, fmt.Sprintf("%s != %s", lv.dim, rv.dim), nil
		}
		return true, "", nil

	case lv.kind == valEntity && rv.kind == valEntity:
		if lv.entity != rv.entity {
			return false, fmt.Sprintf("%s != %s", lv.entity, rv.entity), nil
		}
		return true, "", nil

	default:
		return false, fmt.Sprintf("cannot compare %s with %s", lv.describe(), rv.describe()), nil
	}
}

func (s *Session) evalMembership(p types.Predicate) (bool, string, error) {
	rname, isName := p.Right.(types.NameRef)

	// entity isa entity-class
	if lname, ok := p.Left.(types.NameRef); ok && isName && s.kb.HasEntity(lname.Name) {
		if !s.kb.HasClass(rname.Name) {
			return false, "", fmt.Errorf("%w: %s", kb.ErrUnknownEntityOrClass, rname.Name)
		}
		isa, err := s.kb.IsA(lname.Name, rname.Name)
		if err != nil {
			return false, "", err
		}
		if !isa {
			return false, fmt.Sprintf("%s is not a %s", lname.Name, rname.Name), nil
		}
		return true, "", nil
	}

	// property slot against a dimension: a type constraint with no value
	// still answers
	if pref, ok := p.Left.(types.PropRef); ok {
		slot, err := s.kb.GetProperty(pref.Entity, pref.Property)
		if err != nil {
			return false, "", err
		}
		want, err := s.evalDim(p.Right)
		if err != nil {
			return false, "", err
		}
		dim, known := slot.DimOf()
		if !known {
			return false, fmt.Sprintf("%s.%s has no value or constraint", pref.Entity, pref.Property), nil
		}
		if !dim.Equal(want) {
			return false, fmt.Sprintf("%s.%s is %s, not %s", pref.Entity, pref.Property, dim, want), nil
		}
		return true, "", nil
	}

	// anything else is a dimension match on the evaluated left side
	lv, err := s.evalExpr(p.Left)
	if err != nil {
		return false, "", err
	}
	want, err := s.evalDim(p.Right)
	if err != nil {
		return false, "", err
	}
	var have quantity.Dim
	switch lv.kind {
	case valQuantity:
		have = lv.q.Dim
	case valDim:
		have = lv.dim
	default:
		return false, "", fmt.Errorf("%w: %s cannot be dimension-checked", ErrInvalidExpression, p.Left)
	}
	if !have.Equal(want) {
		return false, fmt.Sprintf("%s is %s, not %s", p.Left, have, want), nil
	}
	return true, "", nil
}

// show renders an expression, optionally reporting whether its dimension
// matches a named one.
func (s *Session) show(stmt types.Show) (*Outcome, error) {
	v, err := s.evalExpr(stmt.Expr)
	if err != nil {
		return nil, err
	}
	res := ShowResult{At: stmt.At, Expr: stmt.Expr.String(), Rendered: s.render(v)}
	if stmt.Against != nil {
		want, err := s.evalDim(stmt.Against)
		if err != nil {
			return nil, err
		}
		var have quantity.Dim
		switch v.kind {
		case valQuantity:
			have = v.q.Dim
		case valDim:
			have = v.dim
		default:
			return nil, fmt.Errorf("%w: %s has no dimension", ErrInvalidExpression, stmt.Expr)
		}
		m := have.Equal(want)
		res.Against = stmt.Against.String()
		res.Matches = &m
	}
	s.results.Shows = append(s.results.Shows, res)
	logging.Session("show %s = %s", res.Expr, res.Rendered)
	return &Outcome{Show: &res}, nil
}
