package units

import (
	"math/big"
	"unicode"
	"unicode/utf8"
)

// Prefix is one metric prefix: Kilo multiplies by 10^3, Milli by 10^-3.
type Prefix struct {
	Name   string
	Symbol string
	Power  int // power of ten
}

// metricPrefixes lists the full SI family, largest first. The second half of
// the table, from Deci down, is the magnitude-reducing subset used by
// partial_metric units.
var metricPrefixes = []Prefix{
	{"Yotta", "Y", 24},
	{"Zetta", "Z", 21},
	{"Exa", "E", 18},
	{"Peta", "P", 15},
	{"Tera", "T", 12},
	{"Giga", "G", 9},
	{"Mega", "M", 6},
	{"Kilo", "k", 3},
	{"Hecto", "h", 2},
	{"Deka", "da", 1},
	{"Deci", "d", -1},
	{"Centi", "c", -2},
	{"Milli", "m", -3},
	{"Micro", "u", -6},
	{"Nano", "n", -9},
	{"Pico", "p", -12},
	{"Femto", "f", -15},
	{"Atto", "a", -18},
	{"Zepto", "z", -21},
	{"Yocto", "y", -24},
}

// smallPrefixesStart is the index of the first magnitude-reducing prefix.
const smallPrefixesStart = 10

// Factor returns the prefix's exact scale factor as a rational.
func (p Prefix) Factor() *big.Rat {
	ten := big.NewInt(10)
	if p.Power >= 0 {
		return new(big.Rat).SetInt(new(big.Int).Exp(ten, big.NewInt(int64(p.Power)), nil))
	}
	pow := new(big.Int).Exp(ten, big.NewInt(int64(-p.Power)), nil)
	return new(big.Rat).SetFrac(big.NewInt(1), pow)
}

// Apply forms the prefixed unit name: the unit's first letter is lowered and
// the prefix prepended, so Kilo + Meter is Kilometer.
func (p Prefix) Apply(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return p.Name + name
	}
	return p.Name + string(unicode.ToLower(r)) + name[size:]
}
