package kernel

import (
	"errors"
	"sort"
	"strings"
	"testing"
)

func mustAdd(t *testing.T, k *Kernel, a Atom) {
	t.Helper()
	added, err := k.AddFact(a)
	if err != nil {
		t.Fatalf("AddFact(%s): %v", a, err)
	}
	if !added {
		t.Fatalf("AddFact(%s): duplicate", a)
	}
}

func rows(t *testing.T, k *Kernel, pred string, arity int) [][]string {
	t.Helper()
	got, err := k.Derived(pred, arity)
	if err != nil {
		t.Fatalf("Derived(%s): %v", pred, err)
	}
	sort.Slice(got, func(i, j int) bool {
		return strings.Join(got[i], "\x00") < strings.Join(got[j], "\x00")
	})
	return got
}

func TestSaturationDerivesMemberships(t *testing.T) {
	k := New(0)
	mustAdd(t, k, NewAtom(PredClass, "Circle"))
	mustAdd(t, k, NewAtom(PredClass, "Round"))
	mustAdd(t, k, NewAtom(PredEntity, "MyPizza"))
	mustAdd(t, k, NewAtom(PredIsa, "MyPizza", "Circle"))

	// anything circular is round
	k.AddClause(Clause{
		Head: Atom{Pred: PredIsa, Args: []Term{Var("X"), Str("Round")}},
		Body: []Atom{{Pred: PredIsa, Args: []Term{Var("X"), Str("Circle")}}},
	})

	if err := k.Saturate(); err != nil {
		t.Fatalf("Saturate: %v", err)
	}
	got := rows(t, k, PredIsa, 2)
	want := [][]string{
		{"MyPizza", "Circle"},
		{"MyPizza", "Round"},
	}
	if len(got) != len(want) {
		t.Fatalf("isa rows = %v", got)
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Errorf("isa row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRulesChainThroughDerivedProperties(t *testing.T) {
	k := New(0)
	mustAdd(t, k, NewAtom(PredEntity, "MyPizza"))
	mustAdd(t, k, NewAtom(PredIsa, "MyPizza", "Circle"))
	mustAdd(t, k, NewAtom(PredHasProp, "MyPizza", "Radius"))

	// circles with a radius get a diameter dimension
	k.AddClause(Clause{
		Head: Atom{Pred: PredPropDim, Args: []Term{Var("X"), Str("Diameter"), Str("Length^1")}},
		Body: []Atom{
			{Pred: PredIsa, Args: []Term{Var("X"), Str("Circle")}},
			{Pred: PredHasProp, Args: []Term{Var("X"), Str("Radius")}},
		},
	})
	// and anything with a diameter is measurable: only reachable through
	// the structural has_prop <- prop_dim rule
	k.AddClause(Clause{
		Head: Atom{Pred: PredIsa, Args: []Term{Var("X"), Str("Measurable")}},
		Body: []Atom{{Pred: PredHasProp, Args: []Term{Var("X"), Str("Diameter")}}},
	})

	if err := k.Saturate(); err != nil {
		t.Fatalf("Saturate: %v", err)
	}

	dims := rows(t, k, PredPropDim, 3)
	if len(dims) != 1 || dims[0][1] != "Diameter" || dims[0][2] != "Length^1" {
		t.Errorf("prop_dim rows = %v", dims)
	}
	isa := rows(t, k, PredIsa, 2)
	foundMeasurable := false
	for _, r := range isa {
		if r[0] == "MyPizza" && r[1] == "Measurable" {
			foundMeasurable = true
		}
	}
	if !foundMeasurable {
		t.Errorf("chained membership missing, isa rows = %v", isa)
	}
}

func TestSaturationIsIdempotent(t *testing.T) {
	k := New(0)
	mustAdd(t, k, NewAtom(PredIsa, "A", "Circle"))
	k.AddClause(Clause{
		Head: Atom{Pred: PredIsa, Args: []Term{Var("X"), Str("Round")}},
		Body: []Atom{{Pred: PredIsa, Args: []Term{Var("X"), Str("Circle")}}},
	})
	if err := k.Saturate(); err != nil {
		t.Fatalf("Saturate: %v", err)
	}
	first := rows(t, k, PredIsa, 2)

	// no changes: the second run must not move anything
	if err := k.Saturate(); err != nil {
		t.Fatalf("second Saturate: %v", err)
	}
	second := rows(t, k, PredIsa, 2)
	if len(first) != len(second) {
		t.Fatalf("saturation not idempotent: %d then %d rows", len(first), len(second))
	}

	// re-adding a known fact is a no-op and does not dirty the kernel
	added, err := k.AddFact(NewAtom(PredIsa, "A", "Circle"))
	if err != nil || added {
		t.Errorf("re-add = %v, %v", added, err)
	}
	if k.dirty {
		t.Error("kernel dirty after duplicate add")
	}
}

func TestDuplicateClausesIgnored(t *testing.T) {
	k := New(0)
	c := Clause{
		Head: Atom{Pred: PredIsa, Args: []Term{Var("X"), Str("Round")}},
		Body: []Atom{{Pred: PredIsa, Args: []Term{Var("X"), Str("Circle")}}},
	}
	if !k.AddClause(c) {
		t.Fatal("first AddClause rejected")
	}
	if k.AddClause(c) {
		t.Error("duplicate AddClause accepted")
	}
}

func TestFactLimit(t *testing.T) {
	k := New(2)
	mustAdd(t, k, NewAtom(PredEntity, "A"))
	mustAdd(t, k, NewAtom(PredEntity, "B"))
	if _, err := k.AddFact(NewAtom(PredEntity, "C")); !errors.Is(err, ErrFactLimit) {
		t.Errorf("limit err = %v", err)
	}
}

func TestIdentifiersSurviveQuoting(t *testing.T) {
	// dimension keys contain ^, * and /, which must round-trip through the
	// program text as string constants
	k := New(0)
	mustAdd(t, k, NewAtom(PredPropDim, "MyPizza", "Area", "Length^2"))
	mustAdd(t, k, NewAtom(PredPropDim, "MyPizza", "Speed", "Length^1*Time^-1"))
	if err := k.Saturate(); err != nil {
		t.Fatalf("Saturate: %v", err)
	}
	got := rows(t, k, PredPropDim, 3)
	if len(got) != 2 {
		t.Fatalf("prop_dim rows = %v", got)
	}
	if got[0][2] != "Length^1*Time^-1" && got[1][2] != "Length^1*Time^-1" {
		t.Errorf("dimension key mangled: %v", got)
	}
}

func TestDerivedBeforeSaturateFails(t *testing.T) {
	k := New(0)
	if _, err := k.Derived(PredIsa, 2); err == nil {
		t.Error("Derived before Saturate succeeded")
	}
}
