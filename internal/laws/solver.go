package laws

import (
	"fmt"
	"math/big"

	"github.com/joshua-maros/ackulator/internal/kb"
	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
	"github.com/joshua-maros/ackulator/internal/units"
)

// Solve applies a law to an entity to compute the target property. Every
// other bound property must already hold a value; the unknown must occur
// exactly once across the equation, and is isolated by inverting the
// operations along the path to it.
func Solve(reg *units.Registry, store *kb.Store, l *Law, entity, target string) (quantity.Quantity, error) {
	var unknown Binding
	found := false
	for _, b := range l.Bindings {
		if b.Property == target {
			unknown = b
			found = true
			break
		}
	}
	if !found {
		return quantity.Quantity{}, fmt.Errorf("%w: law %s does not mention %s",
			ErrUnsolvableEquation, l.Name, target)
	}

	e := &env{
		reg:     reg,
		store:   store,
		law:     l,
		entity:  entity,
		vars:    make(map[string]quantity.Quantity),
		unknown: unknown.Name,
		target:  target,
	}
	for _, b := range l.Bindings {
		if b.Property == target {
			continue
		}
		slot, err := store.GetProperty(entity, b.Property)
		if err != nil {
			return quantity.Quantity{}, err
		}
		if slot.Kind != kb.SlotValue {
			return quantity.Quantity{}, fmt.Errorf("%w: %s.%s has no value, needed by law %s",
				kb.ErrUnboundProperty, entity, b.Property, l.Name)
		}
		e.vars[b.Name] = slot.Value
	}

	total := e.count(l.Equation.Left) + e.count(l.Equation.Right)
	switch {
	case total == 0:
		return quantity.Quantity{}, fmt.Errorf("%w: %s does not appear in law %s",
			ErrUnsolvableEquation, target, l.Name)
	case total > 1:
		return quantity.Quantity{}, fmt.Errorf("%w: %s appears %d times in law %s",
			ErrUnsolvableEquation, target, total, l.Name)
	}

	if e.count(l.Equation.Left) == 1 {
		acc, err := e.eval(l.Equation.Right)
		if err != nil {
			return quantity.Quantity{}, err
		}
		return e.isolate(l.Equation.Left, acc)
	}
	acc, err := e.eval(l.Equation.Left)
	if err != nil {
		return quantity.Quantity{}, err
	}
	return e.isolate(l.Equation.Right, acc)
}

type env struct {
	reg     *units.Registry
	store   *kb.Store
	law     *Law
	entity  string
	vars    map[string]quantity.Quantity
	unknown string
	target  string
}

func (e *env) count(x types.Expr) int {
	return countInExpr(x, e.unknown, e.law.Var, e.target)
}

func countName(eq types.Equation, name, lawVar, prop string) int {
	return countInExpr(eq.Left, name, lawVar, prop) + countInExpr(eq.Right, name, lawVar, prop)
}

// countInExpr counts occurrences of the unknown, which may be written as its
// binding name or directly as Var.Property.
func countInExpr(e types.Expr, name, lawVar, prop string) int {
	switch x := e.(type) {
	case types.NameRef:
		if x.Name == name {
			return 1
		}
	case types.PropRef:
		if x.Entity == lawVar && x.Property == prop {
			return 1
		}
	case types.Unary:
		return countInExpr(x.X, name, lawVar, prop)
	case types.Binary:
		return countInExpr(x.X, name, lawVar, prop) + countInExpr(x.Y, name, lawVar, prop)
	}
	return 0
}

// eval evaluates an unknown-free subtree to a quantity. Names resolve to
// bound variables first, then units, then labels.
func (e *env) eval(x types.Expr) (quantity.Quantity, error) {
	switch v := x.(type) {
	case types.NumberLit:
		q := quantity.FromRat(v.Value)
		q.Exact = !v.Trunc
		return q, nil

	case types.NameRef:
		if q, ok := e.vars[v.Name]; ok {
			return q, nil
		}
		return e.resolveGlobal(v.Name)

	case types.PropRef:
		entity := v.Entity
		if entity == e.law.Var {
			entity = e.entity
		}
		slot, err := e.store.GetProperty(entity, v.Property)
		if err != nil {
			return quantity.Quantity{}, err
		}
		if slot.Kind != kb.SlotValue {
			return quantity.Quantity{}, fmt.Errorf("%w: %s.%s", kb.ErrUnboundProperty, entity, v.Property)
		}
		return slot.Value, nil

	case types.Unary:
		q, err := e.eval(v.X)
		if err != nil {
			return quantity.Quantity{}, err
		}
		return quantity.Neg(q), nil

	case types.Binary:
		return e.evalBinary(v)

	default:
		return quantity.Quantity{}, fmt.Errorf("%w: unsupported expression %T", ErrUnsolvableEquation, x)
	}
}

func (e *env) evalBinary(v types.Binary) (quantity.Quantity, error) {
	lq, err := e.eval(v.X)
	if err != nil {
		return quantity.Quantity{}, err
	}
	if v.Op == types.OpPow {
		expQ, err := e.eval(v.Y)
		if err != nil {
			return quantity.Quantity{}, err
		}
		r, err := quantity.ExponentOf(expQ)
		if err != nil {
			return quantity.Quantity{}, err
		}
		return quantity.Pow(lq, r)
	}
	rq, err := e.eval(v.Y)
	if err != nil {
		return quantity.Quantity{}, err
	}
	switch v.Op {
	case types.OpAdd:
		return quantity.Add(lq, rq)
	case types.OpSub:
		return quantity.Sub(lq, rq)
	case types.OpMul:
		return quantity.Mul(lq, rq), nil
	default:
		return quantity.Div(lq, rq)
	}
}

func (e *env) resolveGlobal(name string) (quantity.Quantity, error) {
	if u, err := e.reg.ResolveUnit(name); err == nil {
		return u.Quantity(), nil
	}
	if e.reg.HasLabel(name) {
		lv, err := e.reg.ResolveLabel(name)
		if err != nil {
			return quantity.Quantity{}, err
		}
		if lv.Kind != units.LabelQuantity {
			return quantity.Quantity{}, fmt.Errorf("%w: %s names a dimension, not a value",
				units.ErrInvalidLabel, name)
		}
		return lv.Quantity, nil
	}
	return quantity.Quantity{}, fmt.Errorf("%w: %s", units.ErrUnknownUnit, name)
}

// isolate walks toward the unknown, inverting each operation into acc.
func (e *env) isolate(x types.Expr, acc quantity.Quantity) (quantity.Quantity, error) {
	switch v := x.(type) {
	case types.NameRef, types.PropRef:
		return acc, nil

	case types.Unary:
		return e.isolate(v.X, quantity.Neg(acc))

	case types.Binary:
		inX := e.count(v.X) == 1
		switch v.Op {
		case types.OpAdd:
			// U + K = acc  =>  U = acc - K
			known := v.Y
			unknownSide := v.X
			if !inX {
				known, unknownSide = v.X, v.Y
			}
			k, err := e.eval(known)
			if err != nil {
				return quantity.Quantity{}, err
			}
			next, err := quantity.Sub(acc, k)
			if err != nil {
				return quantity.Quantity{}, err
			}
			return e.isolate(unknownSide, next)

		case types.OpSub:
			if inX {
				// U - K = acc  =>  U = acc + K
				k, err := e.eval(v.Y)
				if err != nil {
					return quantity.Quantity{}, err
				}
				next, err := quantity.Add(acc, k)
				if err != nil {
					return quantity.Quantity{}, err
				}
				return e.isolate(v.X, next)
			}
			// K - U = acc  =>  U = K - acc
			k, err := e.eval(v.X)
			if err != nil {
				return quantity.Quantity{}, err
			}
			next, err := quantity.Sub(k, acc)
			if err != nil {
				return quantity.Quantity{}, err
			}
			return e.isolate(v.Y, next)

		case types.OpMul:
			// U * K = acc  =>  U = acc / K
			known := v.Y
			unknownSide := v.X
			if !inX {
				known, unknownSide = v.X, v.Y
			}
			k, err := e.eval(known)
			if err != nil {
				return quantity.Quantity{}, err
			}
			next, err := quantity.Div(acc, k)
			if err != nil {
				return quantity.Quantity{}, err
			}
			return e.isolate(unknownSide, next)

		case types.OpDiv:
			if inX {
				// U / K = acc  =>  U = acc * K
				k, err := e.eval(v.Y)
				if err != nil {
					return quantity.Quantity{}, err
				}
				return e.isolate(v.X, quantity.Mul(acc, k))
			}
			// K / U = acc  =>  U = K / acc
			k, err := e.eval(v.X)
			if err != nil {
				return quantity.Quantity{}, err
			}
			next, err := quantity.Div(k, acc)
			if err != nil {
				return quantity.Quantity{}, err
			}
			return e.isolate(v.Y, next)

		case types.OpPow:
			if !inX {
				return quantity.Quantity{}, fmt.Errorf("%w: unknown appears in an exponent",
					ErrUnsolvableEquation)
			}
			// U ^ K = acc  =>  U = acc ^ (1/K)
			expQ, err := e.eval(v.Y)
			if err != nil {
				return quantity.Quantity{}, err
			}
			r, err := quantity.ExponentOf(expQ)
			if err != nil {
				return quantity.Quantity{}, err
			}
			if r.Sign() == 0 {
				return quantity.Quantity{}, fmt.Errorf("%w: zero exponent", ErrUnsolvableEquation)
			}
			inv := new(big.Rat).Inv(r)
			next, err := quantity.Pow(acc, inv)
			if err != nil {
				return quantity.Quantity{}, err
			}
			return e.isolate(v.X, next)
		}
	}
	return quantity.Quantity{}, fmt.Errorf("%w: cannot isolate through %s", ErrUnsolvableEquation, x)
}
