package quantity

import (
	"fmt"
	"math/big"
)

// Quantity is a magnitude with a dimension. The magnitude is always stored
// in canonical form, i.e. in the base units of its dimension, as an exact
// big.Rat. Exact is cleared the moment an irrational root enters a value and
// stays cleared through every subsequent operation.
//
// Display remembers the unit composite the value was written or converted
// in, so "0.1 * Meters" renders back as meters even though it is stored
// canonically.
type Quantity struct {
	Mag     *big.Rat
	Dim     Dim
	Exact   bool
	Display Display
}

// DisplayPart is one unit factor of a display composite.
type DisplayPart struct {
	Unit   string // primary unit name
	Symbol string
	Exp    *big.Rat
}

// Display is the unit composite a quantity renders in. Scale is the product
// of the parts' unit scales raised to their exponents; nil Scale means the
// quantity has no display preference and renders canonically.
type Display struct {
	Parts []DisplayPart
	Scale *big.Rat
}

func (d Display) isSet() bool { return d.Scale != nil && len(d.Parts) > 0 }

func (d Display) clone() Display {
	if !d.isSet() {
		return Display{}
	}
	parts := make([]DisplayPart, len(d.Parts))
	for i, p := range d.Parts {
		parts[i] = DisplayPart{Unit: p.Unit, Symbol: p.Symbol, Exp: new(big.Rat).Set(p.Exp)}
	}
	return Display{Parts: parts, Scale: new(big.Rat).Set(d.Scale)}
}

// merge combines two display composites by adding exponents part-wise,
// matching parts by unit name. Either side may be unset, in which case the
// other side wins.
func (d Display) merge(o Display, negate bool) Display {
	if !d.isSet() && !o.isSet() {
		return Display{}
	}
	out := d.clone()
	if !out.isSet() {
		out = Display{Scale: big.NewRat(1, 1)}
	}
	if !o.isSet() {
		return out
	}
	index := make(map[string]int, len(out.Parts))
	for i, p := range out.Parts {
		index[p.Unit] = i
	}
	for _, p := range o.Parts {
		exp := new(big.Rat).Set(p.Exp)
		if negate {
			exp.Neg(exp)
		}
		if i, ok := index[p.Unit]; ok {
			out.Parts[i].Exp.Add(out.Parts[i].Exp, exp)
		} else {
			index[p.Unit] = len(out.Parts)
			out.Parts = append(out.Parts, DisplayPart{Unit: p.Unit, Symbol: p.Symbol, Exp: exp})
		}
	}
	oscale := o.Scale
	if negate {
		out.Scale.Quo(out.Scale, oscale)
	} else {
		out.Scale.Mul(out.Scale, oscale)
	}
	return out.compact()
}

// compact drops zero-exponent parts; a composite that cancels completely
// becomes unset so the value renders canonically.
func (d Display) compact() Display {
	if !d.isSet() {
		return Display{}
	}
	parts := d.Parts[:0]
	for _, p := range d.Parts {
		if p.Exp.Sign() != 0 {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return Display{}
	}
	d.Parts = parts
	return d
}

// UnitDisplay builds the display composite for a single named unit.
func UnitDisplay(unit, symbol string, scale *big.Rat) Display {
	return Display{
		Parts: []DisplayPart{{Unit: unit, Symbol: symbol, Exp: big.NewRat(1, 1)}},
		Scale: new(big.Rat).Set(scale),
	}
}

// FromRat returns an exact dimensionless quantity.
func FromRat(r *big.Rat) Quantity {
	return Quantity{Mag: new(big.Rat).Set(r), Dim: Scalar(), Exact: true}
}

// FromInt returns an exact dimensionless integer quantity.
func FromInt(n int64) Quantity {
	return Quantity{Mag: big.NewRat(n, 1), Dim: Scalar(), Exact: true}
}

// New returns an exact quantity with the given canonical magnitude and
// dimension.
func New(mag *big.Rat, d Dim) Quantity {
	return Quantity{Mag: new(big.Rat).Set(mag), Dim: d, Exact: true}
}

// IsZero reports whether the magnitude is exactly zero.
func (q Quantity) IsZero() bool { return q.Mag.Sign() == 0 }

func (q Quantity) clone() Quantity {
	return Quantity{
		Mag:     new(big.Rat).Set(q.Mag),
		Dim:     q.Dim,
		Exact:   q.Exact,
		Display: q.Display.clone(),
	}
}

// Add returns a+b. The dimensions must match exactly.
func Add(a, b Quantity) (Quantity, error) {
	if !a.Dim.Equal(b.Dim) {
		return Quantity{}, fmt.Errorf("%w: cannot add %s and %s", ErrDimensionMismatch, a.Dim, b.Dim)
	}
	out := a.clone()
	out.Mag.Add(out.Mag, b.Mag)
	out.Exact = a.Exact && b.Exact
	if !out.Display.isSet() {
		out.Display = b.Display.clone()
	}
	return out, nil
}

// Sub returns a-b. The dimensions must match exactly.
func Sub(a, b Quantity) (Quantity, error) {
	if !a.Dim.Equal(b.Dim) {
		return Quantity{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrDimensionMismatch, b.Dim, a.Dim)
	}
	out := a.clone()
	out.Mag.Sub(out.Mag, b.Mag)
	out.Exact = a.Exact && b.Exact
	if !out.Display.isSet() {
		out.Display = b.Display.clone()
	}
	return out, nil
}

// Neg returns -a.
func Neg(a Quantity) Quantity {
	out := a.clone()
	out.Mag.Neg(out.Mag)
	return out
}

// Mul returns a*b. Dimension exponents add.
func Mul(a, b Quantity) Quantity {
	out := Quantity{
		Mag:     new(big.Rat).Mul(a.Mag, b.Mag),
		Dim:     a.Dim.Mul(b.Dim),
		Exact:   a.Exact && b.Exact,
		Display: a.Display.merge(b.Display, false),
	}
	return out
}

// Div returns a/b. Dimension exponents subtract.
func Div(a, b Quantity) (Quantity, error) {
	if b.Mag.Sign() == 0 {
		return Quantity{}, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, a)
	}
	out := Quantity{
		Mag:     new(big.Rat).Quo(a.Mag, b.Mag),
		Dim:     a.Dim.Div(b.Dim),
		Exact:   a.Exact && b.Exact,
		Display: a.Display.merge(b.Display, true),
	}
	return out, nil
}

// ConvertTo re-expresses q in the display composite of unit, which is
// typically the result of evaluating a unit expression like "Feet" or
// "Meters / Second". The canonical value is unchanged; only rendering moves.
func ConvertTo(q, unit Quantity) (Quantity, error) {
	if !q.Dim.Equal(unit.Dim) {
		return Quantity{}, fmt.Errorf("%w: cannot express %s in %s", ErrDimensionMismatch, q.Dim, unit.Dim)
	}
	if !unit.Display.isSet() {
		return Quantity{}, fmt.Errorf("%w: conversion target carries no units", ErrDimensionMismatch)
	}
	out := q.clone()
	out.Display = unit.Display.clone()
	return out, nil
}
