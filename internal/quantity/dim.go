// Package quantity implements exact dimensioned arithmetic: dimension
// vectors with rational exponents and magnitudes held as big.Rat, so values
// survive any number of operations without rounding. Inexactness enters only
// through root extraction and is tracked per value.
package quantity

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Dim is a dimension vector: a map from unit-class name to a rational
// exponent. Velocity is {Length: 1, Time: -1}. The zero value is
// dimensionless. Dims are immutable; all operations return new values.
type Dim struct {
	axes map[string]*big.Rat
}

// Scalar returns the dimensionless Dim.
func Scalar() Dim { return Dim{} }

// BaseDim returns the Dim with a single axis raised to the first power.
func BaseDim(class string) Dim {
	return Dim{axes: map[string]*big.Rat{class: big.NewRat(1, 1)}}
}

// IsScalar reports whether d is dimensionless.
func (d Dim) IsScalar() bool { return len(d.axes) == 0 }

// Exponent returns a copy of the exponent of class, zero if absent.
func (d Dim) Exponent(class string) *big.Rat {
	if e, ok := d.axes[class]; ok {
		return new(big.Rat).Set(e)
	}
	return new(big.Rat)
}

// Axes returns the axis names with nonzero exponents, sorted.
func (d Dim) Axes() []string {
	names := make([]string, 0, len(d.axes))
	for name := range d.axes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mul returns the dimension of a product: exponents add.
func (d Dim) Mul(o Dim) Dim {
	out := make(map[string]*big.Rat, len(d.axes)+len(o.axes))
	for name, e := range d.axes {
		out[name] = new(big.Rat).Set(e)
	}
	for name, e := range o.axes {
		if cur, ok := out[name]; ok {
			cur.Add(cur, e)
			if cur.Sign() == 0 {
				delete(out, name)
			}
		} else {
			out[name] = new(big.Rat).Set(e)
		}
	}
	if len(out) == 0 {
		return Dim{}
	}
	return Dim{axes: out}
}

// Div returns the dimension of a quotient: exponents subtract.
func (d Dim) Div(o Dim) Dim {
	return d.Mul(o.Pow(big.NewRat(-1, 1)))
}

// Pow returns the dimension of a power: every exponent scales by exp.
func (d Dim) Pow(exp *big.Rat) Dim {
	if exp.Sign() == 0 || len(d.axes) == 0 {
		return Dim{}
	}
	out := make(map[string]*big.Rat, len(d.axes))
	for name, e := range d.axes {
		out[name] = new(big.Rat).Mul(e, exp)
	}
	return Dim{axes: out}
}

// Equal reports whether two dimension vectors are identical.
func (d Dim) Equal(o Dim) bool {
	if len(d.axes) != len(o.axes) {
		return false
	}
	for name, e := range d.axes {
		oe, ok := o.axes[name]
		if !ok || e.Cmp(oe) != 0 {
			return false
		}
	}
	return true
}

// Key returns the canonical encoding of d: axes sorted by name, joined with
// "*", exponents in big.Rat form. The dimensionless Dim encodes as "1".
// Keys are stable and parseable, so they double as fact arguments and map
// keys.
func (d Dim) Key() string {
	if len(d.axes) == 0 {
		return "1"
	}
	parts := make([]string, 0, len(d.axes))
	for _, name := range d.Axes() {
		parts = append(parts, name+"^"+d.axes[name].RatString())
	}
	return strings.Join(parts, "*")
}

// ParseDimKey is the inverse of Dim.Key.
func ParseDimKey(key string) (Dim, error) {
	if key == "1" {
		return Dim{}, nil
	}
	axes := make(map[string]*big.Rat)
	for _, part := range strings.Split(key, "*") {
		name, exp, ok := strings.Cut(part, "^")
		if !ok || name == "" {
			return Dim{}, fmt.Errorf("malformed dimension key %q", key)
		}
		r, ok := new(big.Rat).SetString(exp)
		if !ok {
			return Dim{}, fmt.Errorf("malformed exponent in dimension key %q", key)
		}
		if r.Sign() != 0 {
			axes[name] = r
		}
	}
	if len(axes) == 0 {
		return Dim{}, nil
	}
	return Dim{axes: axes}, nil
}

// String renders d for humans: positive exponents first, then a divisor
// group, e.g. "Length / Time^2". Dimensionless renders as "1".
func (d Dim) String() string {
	if len(d.axes) == 0 {
		return "1"
	}
	var num, den []string
	one := big.NewRat(1, 1)
	for _, name := range d.Axes() {
		e := d.axes[name]
		if e.Sign() > 0 {
			if e.Cmp(one) == 0 {
				num = append(num, name)
			} else {
				num = append(num, name+"^"+e.RatString())
			}
		} else {
			abs := new(big.Rat).Neg(e)
			if abs.Cmp(one) == 0 {
				den = append(den, name)
			} else {
				den = append(den, name+"^"+abs.RatString())
			}
		}
	}
	top := strings.Join(num, " * ")
	if top == "" {
		top = "1"
	}
	if len(den) == 0 {
		return top
	}
	bottom := strings.Join(den, " * ")
	if len(den) > 1 {
		bottom = "(" + bottom + ")"
	}
	return top + " / " + bottom
}
