package units

import (
	"errors"
	"math/big"
	"testing"

	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
)

func rat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("bad rat literal " + s)
	}
	return r
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, class := range []string{"Length", "Mass", "Time"} {
		if err := r.DefineClass(class); err != nil {
			t.Fatalf("DefineClass(%s): %v", class, err)
		}
	}
	if err := r.DefineBaseUnit([]string{"Meter", "Meters"}, "Length", "m", types.PrefixMetric); err != nil {
		t.Fatalf("DefineBaseUnit(Meter): %v", err)
	}
	if err := r.DefineBaseUnit([]string{"Gram", "Grams"}, "Mass", "g", types.PrefixMetric); err != nil {
		t.Fatalf("DefineBaseUnit(Gram): %v", err)
	}
	if err := r.DefineBaseUnit([]string{"Second", "Seconds"}, "Time", "s", types.PrefixPartialMetric); err != nil {
		t.Fatalf("DefineBaseUnit(Second): %v", err)
	}
	return r
}

func TestBaseUnitScaleIsOne(t *testing.T) {
	r := newTestRegistry(t)
	m, err := r.ResolveUnit("Meter")
	if err != nil {
		t.Fatalf("ResolveUnit: %v", err)
	}
	if m.Scale.Cmp(rat("1")) != 0 {
		t.Errorf("Meter scale = %s", m.Scale.RatString())
	}
	if !m.Dim.Equal(quantity.BaseDim("Length")) {
		t.Errorf("Meter dim = %s", m.Dim.Key())
	}
}

func TestAliasesResolveToSameUnit(t *testing.T) {
	r := newTestRegistry(t)
	a, _ := r.ResolveUnit("Meter")
	b, err := r.ResolveUnit("Meters")
	if err != nil {
		t.Fatalf("ResolveUnit(Meters): %v", err)
	}
	if a != b {
		t.Error("Meter and Meters resolve to different units")
	}
}

func TestMetricPrefixExpansion(t *testing.T) {
	r := newTestRegistry(t)

	km, err := r.ResolveUnit("Kilometer")
	if err != nil {
		t.Fatalf("ResolveUnit(Kilometer): %v", err)
	}
	if km.Symbol != "km" {
		t.Errorf("Kilometer symbol = %q", km.Symbol)
	}
	if km.Scale.Cmp(rat("1000")) != 0 {
		t.Errorf("Kilometer scale = %s", km.Scale.RatString())
	}
	if !km.Prefixed {
		t.Error("Kilometer not marked prefixed")
	}

	// aliases are prefixed too
	if _, err := r.ResolveUnit("Kilometers"); err != nil {
		t.Errorf("ResolveUnit(Kilometers): %v", err)
	}

	// the extremes of the table are exact powers of ten
	ym, err := r.ResolveUnit("Yottameter")
	if err != nil {
		t.Fatalf("ResolveUnit(Yottameter): %v", err)
	}
	if ym.Scale.Cmp(rat("1000000000000000000000000")) != 0 {
		t.Errorf("Yottameter scale = %s", ym.Scale.RatString())
	}
	tiny, err := r.ResolveUnit("Yoctometer")
	if err != nil {
		t.Fatalf("ResolveUnit(Yoctometer): %v", err)
	}
	if tiny.Scale.Cmp(rat("1/1000000000000000000000000")) != 0 {
		t.Errorf("Yoctometer scale = %s", tiny.Scale.RatString())
	}
}

func TestKilogramIsExactlyThousandGrams(t *testing.T) {
	r := newTestRegistry(t)
	kg, err := r.ResolveUnit("Kilogram")
	if err != nil {
		t.Fatalf("ResolveUnit(Kilogram): %v", err)
	}
	g, _ := r.ResolveUnit("Gram")

	oneKg := kg.Quantity()
	thousandG := quantity.Mul(quantity.FromInt(1000), g.Quantity())
	eq, err := quantity.Equal(oneKg, thousandG, nil)
	if err != nil {
		t.Fatalf("Equal: %v", err)
	}
	if !eq {
		t.Errorf("1 Kilogram = %s, 1000 Grams = %s", oneKg.Mag.RatString(), thousandG.Mag.RatString())
	}
	if !oneKg.Exact || !thousandG.Exact {
		t.Error("prefix scaling lost exactness")
	}
}

func TestPartialMetricSkipsGrowingPrefixes(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.ResolveUnit("Millisecond"); err != nil {
		t.Errorf("ResolveUnit(Millisecond): %v", err)
	}
	if _, err := r.ResolveUnit("Kilosecond"); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("Kilosecond should not exist, got %v", err)
	}
	if _, err := r.ResolveUnit("Decisecond"); err != nil {
		t.Errorf("ResolveUnit(Decisecond): %v", err)
	}
}

func TestDuplicateDeclarationsRejected(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.DefineClass("Length"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate class err = %v", err)
	}
	// a second base unit for a class that has one
	if err := r.DefineBaseUnit([]string{"Yard"}, "Length", "yd", types.PrefixNone); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("second base unit err = %v", err)
	}
	// a derived unit may not shadow a prefixed variant
	if err := r.DefineDerivedUnit([]string{"Kilometer"}, "km2", quantity.New(rat("1000"), quantity.BaseDim("Length"))); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("shadowing derived unit err = %v", err)
	}
	// base units need a declared class
	if err := r.DefineBaseUnit([]string{"Ampere"}, "Current", "A", types.PrefixMetric); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("unknown class err = %v", err)
	}
}

func TestDerivedUnit(t *testing.T) {
	r := newTestRegistry(t)
	foot := quantity.New(rat("0.3048"), quantity.BaseDim("Length"))
	if err := r.DefineDerivedUnit([]string{"Foot", "Feet"}, "ft", foot); err != nil {
		t.Fatalf("DefineDerivedUnit: %v", err)
	}
	u, err := r.ResolveUnit("Feet")
	if err != nil {
		t.Fatalf("ResolveUnit(Feet): %v", err)
	}
	if u.Scale.Cmp(rat("0.3048")) != 0 || !u.Exact {
		t.Errorf("Foot scale = %s exact=%v", u.Scale.RatString(), u.Exact)
	}

	// zero or negative scales are meaningless
	zero := quantity.New(rat("0"), quantity.BaseDim("Length"))
	if err := r.DefineDerivedUnit([]string{"Nothing"}, "0", zero); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("zero scale err = %v", err)
	}
}

func name(n string) types.Expr { return types.NameRef{Name: n} }

func num(s string) types.Expr { return types.NumberLit{Value: rat(s), Text: s} }

func bin(op types.BinaryOp, x, y types.Expr) types.Expr {
	return types.Binary{Op: op, X: x, Y: y}
}

func TestLabelDimResolution(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.DefineLabel("Velocity", bin(types.OpDiv, name("Length"), name("Time"))); err != nil {
		t.Fatalf("DefineLabel: %v", err)
	}
	if err := r.DefineLabel("Acceleration", bin(types.OpDiv, name("Velocity"), name("Time"))); err != nil {
		t.Fatalf("DefineLabel: %v", err)
	}

	v, err := r.ResolveLabel("Acceleration")
	if err != nil {
		t.Fatalf("ResolveLabel: %v", err)
	}
	if v.Kind != LabelDim {
		t.Fatalf("Acceleration kind = %v", v.Kind)
	}
	want := quantity.BaseDim("Length").Div(quantity.BaseDim("Time").Pow(rat("2")))
	if !v.Dim.Equal(want) {
		t.Errorf("Acceleration dim = %s, want %s", v.Dim.Key(), want.Key())
	}
}

func TestLabelQuantityResolution(t *testing.T) {
	r := newTestRegistry(t)
	pi := "3.1415926535897932384626433832795028841971693993751058209749445923078164062862089986280348253421170679"
	if err := r.DefineLabel("Pi", num(pi)); err != nil {
		t.Fatalf("DefineLabel(Pi): %v", err)
	}
	v, err := r.ResolveLabel("Pi")
	if err != nil {
		t.Fatalf("ResolveLabel(Pi): %v", err)
	}
	if v.Kind != LabelQuantity || !v.Quantity.Exact {
		t.Fatalf("Pi resolved to %+v", v)
	}
	if v.Quantity.Mag.Cmp(rat(pi)) != 0 {
		t.Error("Pi lost digits")
	}

	// dimensioned constants work too
	c := bin(types.OpDiv, bin(types.OpMul, num("299792458"), name("Meters")), name("Seconds"))
	if err := r.DefineLabel("SpeedOfLight", c); err != nil {
		t.Fatalf("DefineLabel(SpeedOfLight): %v", err)
	}
	sv, err := r.ResolveLabel("SpeedOfLight")
	if err != nil {
		t.Fatalf("ResolveLabel(SpeedOfLight): %v", err)
	}
	wantDim := quantity.BaseDim("Length").Div(quantity.BaseDim("Time"))
	if !sv.Quantity.Dim.Equal(wantDim) {
		t.Errorf("SpeedOfLight dim = %s", sv.Quantity.Dim.Key())
	}
}

func TestLabelLazyForwardReference(t *testing.T) {
	r := newTestRegistry(t)
	// Momentum references Velocity before Velocity exists
	if err := r.DefineLabel("Momentum", bin(types.OpMul, name("Mass"), name("Velocity"))); err != nil {
		t.Fatalf("DefineLabel: %v", err)
	}
	if _, err := r.ResolveLabel("Momentum"); !errors.Is(err, ErrUnresolvedUnit) {
		t.Fatalf("early resolve err = %v", err)
	}
	// declaring Velocity repairs it
	if err := r.DefineLabel("Velocity", bin(types.OpDiv, name("Length"), name("Time"))); err != nil {
		t.Fatalf("DefineLabel: %v", err)
	}
	v, err := r.ResolveLabel("Momentum")
	if err != nil {
		t.Fatalf("late resolve: %v", err)
	}
	want := quantity.BaseDim("Mass").Mul(quantity.BaseDim("Length")).Div(quantity.BaseDim("Time"))
	if !v.Dim.Equal(want) {
		t.Errorf("Momentum dim = %s", v.Dim.Key())
	}
}

func TestLabelCycleDetected(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.DefineLabel("A", name("B")); err != nil {
		t.Fatal(err)
	}
	if err := r.DefineLabel("B", name("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ResolveLabel("A"); !errors.Is(err, ErrCyclicDefinition) {
		t.Errorf("cycle err = %v", err)
	}
}

func TestLabelRejectsMixedAlgebra(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.DefineLabel("Bad", bin(types.OpAdd, name("Length"), num("2"))); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ResolveLabel("Bad"); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("mixed algebra err = %v", err)
	}

	if err := r.DefineLabel("Area", bin(types.OpPow, name("Length"), num("2"))); err != nil {
		t.Fatal(err)
	}
	v, err := r.ResolveLabel("Area")
	if err != nil {
		t.Fatalf("ResolveLabel(Area): %v", err)
	}
	if !v.Dim.Equal(quantity.BaseDim("Length").Pow(rat("2"))) {
		t.Errorf("Area dim = %s", v.Dim.Key())
	}
}
