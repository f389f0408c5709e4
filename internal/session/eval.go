package session

import (
	"fmt"

	"github.com/joshua-maros/ackulator/internal/kb"
	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
	"github.com/joshua-maros/ackulator/internal/units"
)

type valueKind int

const (
	valQuantity valueKind = iota
	valDim
	valEntity
)

// value is the tagged result of evaluating an expression: a quantity, a
// pure dimension, or an entity reference.
type value struct {
	kind   valueKind
	q      quantity.Quantity
	dim    quantity.Dim
	entity string
}

func (v value) describe() string {
	switch v.kind {
	case valQuantity:
		return "value " + v.q.String()
	case valDim:
		return "dimension " + v.dim.String()
	default:
		return "entity " + v.entity
	}
}

func (s *Session) evalExpr(e types.Expr) (value, error) {
	switch x := e.(type) {
	case types.NumberLit:
		q := quantity.FromRat(x.Value)
		q.Exact = !x.Trunc
		return value{kind: valQuantity, q: q}, nil

	case types.NameRef:
		return s.resolveName(x.Name)

	case types.PropRef:
		slot, err := s.kb.GetProperty(x.Entity, x.Property)
		if err != nil {
			return value{}, err
		}
		switch slot.Kind {
		case kb.SlotValue:
			return value{kind: valQuantity, q: slot.Value}, nil
		case kb.SlotRef:
			return value{kind: valEntity, entity: slot.Ref}, nil
		default:
			return value{}, fmt.Errorf("%w: %s.%s", kb.ErrUnboundProperty, x.Entity, x.Property)
		}

	case types.Unary:
		v, err := s.evalExpr(x.X)
		if err != nil {
			return value{}, err
		}
		if v.kind != valQuantity {
			return value{}, fmt.Errorf("%w: cannot negate %s", ErrInvalidExpression, v.describe())
		}
		v.q = quantity.Neg(v.q)
		return v, nil

	case types.Binary:
		return s.evalBinaryExpr(x)

	default:
		return value{}, fmt.Errorf("%w: unsupported expression %T", ErrInvalidExpression, e)
	}
}

// resolveName decides what a bare identifier denotes. Entities shadow units,
// units shadow labels, labels shadow unit classes; the namespaces rarely
// collide in practice.
func (s *Session) resolveName(name string) (value, error) {
	if s.kb.HasEntity(name) {
		return value{kind: valEntity, entity: name}, nil
	}
	if u, err := s.reg.ResolveUnit(name); err == nil {
		return value{kind: valQuantity, q: u.Quantity()}, nil
	}
	if s.reg.HasLabel(name) {
		lv, err := s.reg.ResolveLabel(name)
		if err != nil {
			return value{}, err
		}
		if lv.Kind == units.LabelDim {
			return value{kind: valDim, dim: lv.Dim}, nil
		}
		return value{kind: valQuantity, q: lv.Quantity}, nil
	}
	if s.reg.HasClass(name) {
		return value{kind: valDim, dim: quantity.BaseDim(name)}, nil
	}
	return value{}, fmt.Errorf("%w: %s", units.ErrUnknownUnit, name)
}

func (s *Session) evalBinaryExpr(x types.Binary) (value, error) {
	lv, err := s.evalExpr(x.X)
	if err != nil {
		return value{}, err
	}
	rv, err := s.evalExpr(x.Y)
	if err != nil {
		return value{}, err
	}
	if lv.kind == valEntity || rv.kind == valEntity {
		return value{}, fmt.Errorf("%w: entities do not combine with %s", ErrInvalidExpression, x.Op)
	}

	if x.Op == types.OpPow {
		if rv.kind != valQuantity {
			return value{}, fmt.Errorf("%w: exponent is a dimension", ErrInvalidExpression)
		}
		exp, err := quantity.ExponentOf(rv.q)
		if err != nil {
			return value{}, err
		}
		if lv.kind == valDim {
			return value{kind: valDim, dim: lv.dim.Pow(exp)}, nil
		}
		q, err := quantity.Pow(lv.q, exp)
		if err != nil {
			return value{}, err
		}
		return value{kind: valQuantity, q: q}, nil
	}

	if lv.kind == valDim && rv.kind == valDim {
		switch x.Op {
		case types.OpMul:
			return value{kind: valDim, dim: lv.dim.Mul(rv.dim)}, nil
		case types.OpDiv:
			return value{kind: valDim, dim: lv.dim.Div(rv.dim)}, nil
		default:
			return value{}, fmt.Errorf("%w: dimensions only multiply and divide", ErrInvalidExpression)
		}
	}
	if lv.kind != rv.kind {
		return value{}, fmt.Errorf("%w: mixes %s with %s", ErrInvalidExpression, lv.describe(), rv.describe())
	}

	var q quantity.Quantity
	switch x.Op {
	case types.OpAdd:
		q, err = quantity.Add(lv.q, rv.q)
	case types.OpSub:
		q, err = quantity.Sub(lv.q, rv.q)
	case types.OpMul:
		q = quantity.Mul(lv.q, rv.q)
	case types.OpDiv:
		q, err = quantity.Div(lv.q, rv.q)
	}
	if err != nil {
		return value{}, err
	}
	return value{kind: valQuantity, q: q}, nil
}

// evalDim evaluates an expression expected to denote a dimension: a unit
// class, a dimensional label, or algebra over them. A quantity reads as its
// dimension, so "isa Meters" means "isa Length".
func (s *Session) evalDim(e types.Expr) (quantity.Dim, error) {
	v, err := s.evalExpr(e)
	if err != nil {
		return quantity.Dim{}, err
	}
	switch v.kind {
	case valDim:
		return v.dim, nil
	case valQuantity:
		return v.q.Dim, nil
	}
	return quantity.Dim{}, fmt.Errorf("%w: %s does not name a dimension", ErrInvalidExpression, e)
}

func (s *Session) render(v value) string {
	switch v.kind {
	case valQuantity:
		return v.q.Format(s.opts.Precision)
	case valDim:
		return v.dim.String()
	default:
		return v.entity
	}
}
