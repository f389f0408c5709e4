package quantity

import (
	"math/big"
	"strings"
)

// DefaultPrecision is the significant-digit count used when rendering
// inexact magnitudes without an explicit precision.
const DefaultPrecision = 12

// maxFiniteDigits caps how many decimal places an exact magnitude may be
// expanded to before falling back to fraction form.
const maxFiniteDigits = 1000

// String renders q in its display composite when it has one, otherwise
// canonically with its dimension.
func (q Quantity) String() string { return q.Format(DefaultPrecision) }

// Format renders q with the given significant-digit precision for inexact
// magnitudes. Exact magnitudes always render exactly: as a finite decimal
// when the denominator allows it, as a fraction otherwise.
func (q Quantity) Format(prec int) string {
	if q.Display.isSet() {
		mag := new(big.Rat).Quo(q.Mag, q.Display.Scale)
		return formatRat(mag, q.Exact, prec) + " " + renderParts(q.Display.Parts)
	}
	mag := formatRat(q.Mag, q.Exact, prec)
	if q.Dim.IsScalar() {
		return mag
	}
	return mag + " [" + q.Dim.String() + "]"
}

func formatRat(r *big.Rat, exact bool, prec int) string {
	if exact {
		if s, ok := finiteDecimal(r); ok {
			return s
		}
		return r.RatString()
	}
	if prec <= 0 {
		prec = DefaultPrecision
	}
	f := new(big.Float).SetPrec(rootPrec).SetRat(r)
	return f.Text('g', prec)
}

// finiteDecimal renders r as an exact terminating decimal. Only possible
// when the reduced denominator is of the form 2^a * 5^b.
func finiteDecimal(r *big.Rat) (string, bool) {
	den := new(big.Int).Set(r.Denom())
	five := big.NewInt(5)
	a, b := 0, 0
	for den.Bit(0) == 0 {
		den.Rsh(den, 1)
		a++
	}
	for {
		q, rem := new(big.Int).QuoRem(den, five, new(big.Int))
		if rem.Sign() != 0 {
			break
		}
		den.Set(q)
		b++
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		return "", false
	}
	digits := a
	if b > digits {
		digits = b
	}
	if digits > maxFiniteDigits {
		return "", false
	}
	s := r.FloatString(digits)
	if digits > 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s, true
}

// renderParts joins display parts into a unit string like "m/s^2", using
// symbols and grouping negative exponents behind a single slash.
func renderParts(parts []DisplayPart) string {
	var num, den []string
	one := big.NewRat(1, 1)
	for _, p := range parts {
		sym := p.Symbol
		if sym == "" {
			sym = p.Unit
		}
		abs := new(big.Rat).Abs(p.Exp)
		var s string
		switch {
		case abs.Cmp(one) == 0:
			s = sym
		case abs.IsInt():
			s = sym + "^" + abs.RatString()
		default:
			s = sym + "^(" + abs.RatString() + ")"
		}
		if p.Exp.Sign() < 0 {
			den = append(den, s)
		} else {
			num = append(num, s)
		}
	}
	top := strings.Join(num, "*")
	if top == "" {
		top = "1"
	}
	if len(den) == 0 {
		return top
	}
	bottom := strings.Join(den, "*")
	if len(den) > 1 {
		bottom = "(" + bottom + ")"
	}
	return top + "/" + bottom
}
