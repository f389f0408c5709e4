package units

import (
	"fmt"

	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
)

// LabelKind says what a label resolved to.
type LabelKind int

const (
	// LabelDim is a pure dimensional label like Velocity = Length / Time.
	LabelDim LabelKind = iota
	// LabelQuantity is a numeric constant, possibly dimensioned, like Pi
	// or SpeedOfLight = 299792458 * Meters / Seconds.
	LabelQuantity
)

// LabelValue is the resolved value of a label.
type LabelValue struct {
	Kind     LabelKind
	Dim      quantity.Dim
	Quantity quantity.Quantity
}

// DimOf returns the dimension a label constrains values to: the dimension
// itself for LabelDim, the quantity's dimension for LabelQuantity.
func (v LabelValue) DimOf() quantity.Dim {
	if v.Kind == LabelQuantity {
		return v.Quantity.Dim
	}
	return v.Dim
}

type labelState int

const (
	labelUnresolved labelState = iota
	labelResolving
	labelResolved
)

type labelEntry struct {
	name  string
	expr  types.Expr
	state labelState
	value LabelValue
}

// DefineLabel binds a name to an expression without evaluating it. Labels
// resolve lazily at first use, so forward references to units and labels
// declared later are fine.
func (r *Registry) DefineLabel(name string, expr types.Expr) error {
	if r.nameTaken(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.labels[name] = &labelEntry{name: name, expr: expr}
	r.labelOrder = append(r.labelOrder, name)
	return nil
}

// HasLabel reports whether name is a declared label.
func (r *Registry) HasLabel(name string) bool {
	_, ok := r.labels[name]
	return ok
}

// Labels returns declared label names in declaration order.
func (r *Registry) Labels() []string {
	out := make([]string, len(r.labelOrder))
	copy(out, r.labelOrder)
	return out
}

// ResolveLabel evaluates a label, memoizing success. Re-entering a label
// mid-resolution means its definition is cyclic. A failed resolution is not
// memoized: a label that referenced a missing unit starts working once the
// unit is declared.
func (r *Registry) ResolveLabel(name string) (LabelValue, error) {
	e, ok := r.labels[name]
	if !ok {
		return LabelValue{}, fmt.Errorf("%w: %s", ErrUnknownUnit, name)
	}
	switch e.state {
	case labelResolved:
		return e.value, nil
	case labelResolving:
		return LabelValue{}, fmt.Errorf("%w: %s", ErrCyclicDefinition, name)
	}
	e.state = labelResolving
	v, err := r.evalLabelExpr(e.expr)
	if err != nil {
		e.state = labelUnresolved
		return LabelValue{}, fmt.Errorf("label %s: %w", name, err)
	}
	e.state = labelResolved
	e.value = v
	return v, nil
}

// EvalQuantity evaluates an expression over numbers, units and labels to a
// quantity. This is the derived-unit declaration path; dimension-only
// results are rejected.
func (r *Registry) EvalQuantity(e types.Expr) (quantity.Quantity, error) {
	v, err := r.evalLabelExpr(e)
	if err != nil {
		return quantity.Quantity{}, err
	}
	if v.Kind != LabelQuantity {
		return quantity.Quantity{}, fmt.Errorf("%w: expression names a dimension, not a value", ErrInvalidLabel)
	}
	return v.Quantity, nil
}

// EvalValue evaluates an expression over numbers, units, unit classes and
// labels, yielding either a dimension or a quantity.
func (r *Registry) EvalValue(e types.Expr) (LabelValue, error) {
	return r.evalLabelExpr(e)
}

// evalLabelExpr evaluates the restricted expression language labels live in:
// numbers, units, unit classes and other labels combined with arithmetic.
// Entity property references have no meaning here.
func (r *Registry) evalLabelExpr(e types.Expr) (LabelValue, error) {
	switch x := e.(type) {
	case types.NumberLit:
		q := quantity.FromRat(x.Value)
		q.Exact = !x.Trunc
		return LabelValue{Kind: LabelQuantity, Quantity: q}, nil

	case types.NameRef:
		return r.resolveLabelName(x.Name)

	case types.PropRef:
		return LabelValue{}, fmt.Errorf("%w: %s references an entity property", ErrInvalidLabel, x)

	case types.Unary:
		v, err := r.evalLabelExpr(x.X)
		if err != nil {
			return LabelValue{}, err
		}
		if v.Kind != LabelQuantity {
			return LabelValue{}, fmt.Errorf("%w: cannot negate a dimension", ErrInvalidLabel)
		}
		v.Quantity = quantity.Neg(v.Quantity)
		return v, nil

	case types.Binary:
		return r.evalLabelBinary(x)

	default:
		return LabelValue{}, fmt.Errorf("%w: unsupported expression", ErrInvalidLabel)
	}
}

func (r *Registry) evalLabelBinary(x types.Binary) (LabelValue, error) {
	lv, err := r.evalLabelExpr(x.X)
	if err != nil {
		return LabelValue{}, err
	}
	rv, err := r.evalLabelExpr(x.Y)
	if err != nil {
		return LabelValue{}, err
	}

	if x.Op == types.OpPow {
		if rv.Kind != LabelQuantity {
			return LabelValue{}, fmt.Errorf("%w: exponent is a dimension", ErrInvalidLabel)
		}
		exp, err := quantity.ExponentOf(rv.Quantity)
		if err != nil {
			return LabelValue{}, err
		}
		if lv.Kind == LabelDim {
			return LabelValue{Kind: LabelDim, Dim: lv.Dim.Pow(exp)}, nil
		}
		q, err := quantity.Pow(lv.Quantity, exp)
		if err != nil {
			return LabelValue{}, err
		}
		return LabelValue{Kind: LabelQuantity, Quantity: q}, nil
	}

	if lv.Kind == LabelDim && rv.Kind == LabelDim {
		switch x.Op {
		case types.OpMul:
			return LabelValue{Kind: LabelDim, Dim: lv.Dim.Mul(rv.Dim)}, nil
		case types.OpDiv:
			return LabelValue{Kind: LabelDim, Dim: lv.Dim.Div(rv.Dim)}, nil
		default:
			return LabelValue{}, fmt.Errorf("%w: dimensions only multiply and divide", ErrInvalidLabel)
		}
	}
	if lv.Kind != rv.Kind {
		return LabelValue{}, fmt.Errorf("%w: mixes a dimension with a value", ErrInvalidLabel)
	}

	var q quantity.Quantity
	switch x.Op {
	case types.OpAdd:
		q, err = quantity.Add(lv.Quantity, rv.Quantity)
	case types.OpSub:
		q, err = quantity.Sub(lv.Quantity, rv.Quantity)
	case types.OpMul:
		q = quantity.Mul(lv.Quantity, rv.Quantity)
	case types.OpDiv:
		q, err = quantity.Div(lv.Quantity, rv.Quantity)
	}
	if err != nil {
		return LabelValue{}, err
	}
	return LabelValue{Kind: LabelQuantity, Quantity: q}, nil
}

func (r *Registry) resolveLabelName(name string) (LabelValue, error) {
	if r.classes[name] {
		return LabelValue{Kind: LabelDim, Dim: quantity.BaseDim(name)}, nil
	}
	if u, ok := r.units[name]; ok {
		return LabelValue{Kind: LabelQuantity, Quantity: u.Quantity()}, nil
	}
	if _, ok := r.labels[name]; ok {
		return r.ResolveLabel(name)
	}
	return LabelValue{}, fmt.Errorf("%w: %s", ErrUnresolvedUnit, name)
}
