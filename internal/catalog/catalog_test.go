package catalog

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joshua-maros/ackulator/internal/session"
	"github.com/joshua-maros/ackulator/internal/types"
)

func TestStandardShape(t *testing.T) {
	stmts, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	var classes, bases, derived, labels int
	for _, st := range stmts {
		if st.Pos().File != SourceName {
			t.Errorf("statement %T has position %v, want file %s", st, st.Pos(), SourceName)
		}
		switch st.(type) {
		case types.DeclareUnitClass:
			classes++
		case types.DeclareBaseUnit:
			bases++
		case types.DeclareDerivedUnit:
			derived++
		case types.DeclareLabel:
			labels++
		default:
			t.Errorf("unexpected statement %T in catalog", st)
		}
	}
	if classes != 3 || bases != 3 || derived != 5 || labels != 5 {
		t.Errorf("got %d classes, %d base units, %d derived units, %d labels; want 3/3/5/5",
			classes, bases, derived, labels)
	}
	// Declarations come in dependency order: a derived unit may only
	// reference units already declared.
	lastClass, firstBase := -1, len(stmts)
	for i, st := range stmts {
		switch st.(type) {
		case types.DeclareUnitClass:
			lastClass = i
		case types.DeclareBaseUnit:
			if i < firstBase {
				firstBase = i
			}
		}
	}
	if lastClass > firstBase {
		t.Errorf("unit class at %d declared after base unit at %d", lastClass, firstBase)
	}

	var labelNames []string
	for _, st := range stmts {
		if l, ok := st.(types.DeclareLabel); ok {
			labelNames = append(labelNames, l.Name)
		}
	}
	// Velocity precedes Acceleration, which is defined in terms of it.
	wantLabels := []string{"Velocity", "Acceleration", "Pi", "EulersNumber", "GoldenRatio"}
	if diff := cmp.Diff(wantLabels, labelNames); diff != "" {
		t.Errorf("label order mismatch (-want +got):\n%s", diff)
	}
}

func TestStandardBaseUnits(t *testing.T) {
	stmts, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	byName := map[string]types.DeclareBaseUnit{}
	for _, st := range stmts {
		if b, ok := st.(types.DeclareBaseUnit); ok {
			byName[b.Names[0]] = b
		}
	}
	m, ok := byName["Meter"]
	if !ok {
		t.Fatal("no Meter declaration")
	}
	if m.Class != "Length" || m.Symbol != "m" || m.Prefixes != types.PrefixMetric {
		t.Errorf("Meter = %+v, want Length/m/metric", m)
	}
	if len(m.Names) != 2 || m.Names[1] != "Meters" {
		t.Errorf("Meter names = %v, want [Meter Meters]", m.Names)
	}
	s, ok := byName["Second"]
	if !ok {
		t.Fatal("no Second declaration")
	}
	if s.Prefixes != types.PrefixPartialMetric {
		t.Errorf("Second prefixes = %v, want partial_metric", s.Prefixes)
	}
}

func TestStandardConstantsAreTruncated(t *testing.T) {
	stmts, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	want := map[string]string{
		"Pi":           "3.1415926535897932384626433832795028",
		"EulersNumber": "2.7182818284590452353602874713526624",
		"GoldenRatio":  "1.6180339887498948482045868343656381",
	}
	seen := 0
	for _, st := range stmts {
		l, ok := st.(types.DeclareLabel)
		if !ok {
			continue
		}
		digits, ok := want[l.Name]
		if !ok {
			continue
		}
		seen++
		lit, ok := l.Value.(types.NumberLit)
		if !ok {
			t.Errorf("%s value is %T, want NumberLit", l.Name, l.Value)
			continue
		}
		if !lit.Trunc {
			t.Errorf("%s literal not marked truncated", l.Name)
		}
		exact := new(big.Rat)
		if _, ok := exact.SetString(digits); !ok {
			t.Fatalf("bad expectation %q", digits)
		}
		if lit.Value.Cmp(exact) != 0 {
			t.Errorf("%s = %s, want %s", l.Name, lit.Value.RatString(), exact.RatString())
		}
	}
	if seen != len(want) {
		t.Errorf("found %d constants, want %d", seen, len(want))
	}
}

// The catalog must execute cleanly on a fresh session, and the units it
// declares must agree with each other: an hour is exactly 3600 seconds, and
// a foot is exactly 0.3048 meters.
func TestStandardExecutes(t *testing.T) {
	stmts, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	s := session.New(session.DefaultOptions())
	if err := s.ExecuteAll(stmts); err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}

	at := types.Pos{File: "test"}
	num := func(a, b int64, text string) types.NumberLit {
		return types.NumberLit{At: at, Value: big.NewRat(a, b), Text: text}
	}
	name := func(n string) types.NameRef { return types.NameRef{At: at, Name: n} }
	mul := func(x, y types.Expr) types.Binary { return types.Binary{At: at, Op: types.OpMul, X: x, Y: y} }

	checks := []types.Statement{
		types.Check{At: at, Pred: types.Predicate{
			Kind:  types.PredEqual,
			Left:  mul(num(1, 1, "1"), name("Hour")),
			Right: mul(num(3600, 1, "3600"), name("Seconds")),
		}},
		types.Check{At: at, Pred: types.Predicate{
			Kind:  types.PredEqual,
			Left:  mul(num(1, 1, "1"), name("Foot")),
			Right: mul(num(3048, 10000, "0.3048"), name("Meters")),
		}},
		types.Check{At: at, Pred: types.Predicate{
			Kind:  types.PredIsa,
			Left:  name("Acceleration"),
			Right: types.Binary{At: at, Op: types.OpDiv, X: name("Velocity"), Y: name("Time")},
		}},
	}
	if err := s.ExecuteAll(checks); err != nil {
		t.Fatalf("checks: %v", err)
	}
	if n := s.Results().FailedChecks(); n != 0 {
		for _, c := range s.Results().Checks {
			if !c.Passed {
				t.Logf("failed: %s (%s)", c.Predicate, c.Reason)
			}
		}
		t.Fatalf("%d catalog consistency checks failed", n)
	}
}
