package quantity

import (
	"fmt"
	"math"
	"math/big"
)

// rootPrec is the precision in bits carried through inexact root extraction.
const rootPrec = 200

// maxExp bounds power and root degrees so a script cannot ask for numbers
// with billions of digits.
const maxExp = 1 << 20

// Pow raises a to an exact rational exponent. Integer exponents stay exact.
// Fractional exponents extract roots: the result is exact when the magnitude
// has an exact rational root, otherwise it is approximated to rootPrec bits
// and flagged inexact. Even roots of negative magnitudes have no real
// result. Dimension exponents always scale exactly, so sqrt of an area is a
// length.
func Pow(a Quantity, exp *big.Rat) (Quantity, error) {
	if exp == nil {
		return Quantity{}, fmt.Errorf("%w: missing exponent", ErrInvalidExponent)
	}
	if !exp.Num().IsInt64() || !exp.Denom().IsInt64() ||
		exp.Num().Int64() > maxExp || exp.Num().Int64() < -maxExp || exp.Denom().Int64() > maxExp {
		return Quantity{}, fmt.Errorf("%w: %s is out of range", ErrInvalidExponent, exp.RatString())
	}
	if exp.Sign() == 0 {
		return FromInt(1), nil
	}
	p := exp.Num().Int64()
	q := exp.Denom().Int64()

	if a.Mag.Sign() == 0 {
		if exp.Sign() < 0 {
			return Quantity{}, fmt.Errorf("%w: zero to a negative power", ErrDivisionByZero)
		}
		return Quantity{Mag: new(big.Rat), Dim: a.Dim.Pow(exp), Exact: a.Exact}, nil
	}

	if q == 1 {
		mag, err := ratPowInt(a.Mag, p)
		if err != nil {
			return Quantity{}, err
		}
		return Quantity{
			Mag:     mag,
			Dim:     a.Dim.Pow(exp),
			Exact:   a.Exact,
			Display: displayPow(a.Display, p),
		}, nil
	}

	neg := a.Mag.Sign() < 0
	if neg && q%2 == 0 {
		return Quantity{}, fmt.Errorf("%w: even root of a negative quantity", ErrNoRealRoot)
	}
	abs := new(big.Rat).Abs(a.Mag)
	powed, err := ratPowInt(abs, p)
	if err != nil {
		return Quantity{}, err
	}

	out := Quantity{Dim: a.Dim.Pow(exp)}
	if root, ok := ratRootExact(powed, q); ok {
		out.Mag = root
		out.Exact = a.Exact
	} else {
		out.Mag = ratRootApprox(powed, q)
		out.Exact = false
	}
	if neg && p%2 != 0 {
		out.Mag.Neg(out.Mag)
	}
	return out, nil
}

// ExponentOf extracts an exponent from an evaluated quantity: it must be
// dimensionless and exact.
func ExponentOf(q Quantity) (*big.Rat, error) {
	if !q.Dim.IsScalar() {
		return nil, fmt.Errorf("%w: exponent has dimension %s", ErrInvalidExponent, q.Dim)
	}
	if !q.Exact {
		return nil, fmt.Errorf("%w: exponent must be exact", ErrInvalidExponent)
	}
	return new(big.Rat).Set(q.Mag), nil
}

// ratPowInt computes r^n exactly.
func ratPowInt(r *big.Rat, n int64) (*big.Rat, error) {
	if n == 0 {
		return big.NewRat(1, 1), nil
	}
	neg := n < 0
	if neg {
		if r.Sign() == 0 {
			return nil, fmt.Errorf("%w: zero to a negative power", ErrDivisionByZero)
		}
		n = -n
	}
	e := big.NewInt(n)
	num := new(big.Int).Exp(r.Num(), e, nil)
	den := new(big.Int).Exp(r.Denom(), e, nil)
	out := new(big.Rat).SetFrac(num, den)
	if neg {
		out.Inv(out)
	}
	return out, nil
}

// displayPow scales a display composite's exponents by an integer power.
func displayPow(d Display, n int64) Display {
	if !d.isSet() {
		return Display{}
	}
	out := d.clone()
	f := big.NewRat(n, 1)
	for i := range out.Parts {
		out.Parts[i].Exp.Mul(out.Parts[i].Exp, f)
	}
	scale, err := ratPowInt(out.Scale, n)
	if err != nil {
		return Display{}
	}
	out.Scale = scale
	return out.compact()
}

// ratRootExact attempts the exact q-th root of a positive rational. It
// succeeds only when numerator and denominator are both perfect q-th powers.
func ratRootExact(r *big.Rat, q int64) (*big.Rat, bool) {
	num, ok := intRoot(r.Num(), q)
	if !ok {
		return nil, false
	}
	den, ok := intRoot(r.Denom(), q)
	if !ok {
		return nil, false
	}
	return new(big.Rat).SetFrac(num, den), true
}

// intRoot returns the exact q-th root of a non-negative integer, or false if
// x is not a perfect q-th power. Floor root by Newton iteration, then an
// exactness check.
func intRoot(x *big.Int, q int64) (*big.Int, bool) {
	if q == 1 || x.Sign() == 0 {
		return new(big.Int).Set(x), true
	}
	n := big.NewInt(q)
	r := new(big.Int).Lsh(big.NewInt(1), uint((int64(x.BitLen())+q-1)/q))
	for {
		pow := new(big.Int).Exp(r, big.NewInt(q-1), nil)
		t := new(big.Int).Quo(x, pow)
		t.Add(t, new(big.Int).Mul(big.NewInt(q-1), r))
		t.Quo(t, n)
		if t.Cmp(r) >= 0 {
			break
		}
		r = t
	}
	check := new(big.Int).Exp(r, n, nil)
	if check.Cmp(x) == 0 {
		return r, true
	}
	return nil, false
}

// ratRootApprox computes the q-th root of a positive rational to rootPrec
// bits.
func ratRootApprox(r *big.Rat, q int64) *big.Rat {
	x := new(big.Float).SetPrec(rootPrec).SetRat(r)
	root := floatNthRoot(x, q)
	out, _ := root.Rat(nil)
	return out
}

// floatNthRoot computes the n-th root of a positive big.Float by Newton
// iteration, seeded from float64 when the value fits.
func floatNthRoot(x *big.Float, n int64) *big.Float {
	prec := x.Prec()
	if n == 2 {
		return new(big.Float).SetPrec(prec).Sqrt(x)
	}
	var y *big.Float
	if f, _ := x.Float64(); f > 0 && !math.IsInf(f, 1) {
		y = new(big.Float).SetPrec(prec).SetFloat64(math.Pow(f, 1/float64(n)))
	} else {
		exp := x.MantExp(nil)
		y = new(big.Float).SetPrec(prec).SetMantExp(big.NewFloat(1), exp/int(n))
	}
	nf := new(big.Float).SetPrec(prec).SetInt64(n)
	nm1 := new(big.Float).SetPrec(prec).SetInt64(n - 1)
	for i := 0; i < 64; i++ {
		// y' = ((n-1)*y + x/y^(n-1)) / n
		t := new(big.Float).SetPrec(prec).Quo(x, floatPowInt(y, n-1))
		next := new(big.Float).SetPrec(prec).Mul(nm1, y)
		next.Add(next, t)
		next.Quo(next, nf)
		if next.Cmp(y) == 0 {
			break
		}
		y = next
	}
	return y
}

// floatPowInt computes x^n for n >= 0 by square and multiply.
func floatPowInt(x *big.Float, n int64) *big.Float {
	prec := x.Prec()
	out := new(big.Float).SetPrec(prec).SetInt64(1)
	base := new(big.Float).SetPrec(prec).Set(x)
	for e := n; e > 0; e >>= 1 {
		if e&1 == 1 {
			out.Mul(out, base)
		}
		base.Mul(base, base)
	}
	return out
}
