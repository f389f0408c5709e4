package laws

import (
	"errors"
	"math/big"
	"testing"

	"github.com/joshua-maros/ackulator/internal/kb"
	"github.com/joshua-maros/ackulator/internal/types"
)

func num(t *testing.T, s string) types.NumberLit {
	t.Helper()
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		t.Fatalf("bad rational %q", s)
	}
	return types.NumberLit{Value: r, Text: s}
}

func name(s string) types.NameRef { return types.NameRef{Name: s} }

func bin(op types.BinaryOp, x, y types.Expr) types.Binary {
	return types.Binary{Op: op, X: x, Y: y}
}

// A = Pi * R^2 over circles.
func circleAreaLaw(t *testing.T) *Law {
	return &Law{
		Name:  "CircleArea",
		Var:   "C",
		Class: "Circle",
		Bindings: []Binding{
			{Name: "A", Property: "Area"},
			{Name: "R", Property: "Radius"},
		},
		Equation: types.Equation{
			Left:  name("A"),
			Right: bin(types.OpMul, name("Pi"), bin(types.OpPow, name("R"), num(t, "2"))),
		},
	}
}

// A = S^2 over squares.
func squareAreaLaw(t *testing.T) *Law {
	return &Law{
		Name:  "SquareArea",
		Var:   "Q",
		Class: "Square",
		Bindings: []Binding{
			{Name: "A", Property: "Area"},
			{Name: "S", Property: "Side"},
		},
		Equation: types.Equation{
			Left:  name("A"),
			Right: bin(types.OpPow, name("S"), num(t, "2")),
		},
	}
}

func newShapes(t *testing.T) *kb.Store {
	t.Helper()
	store := kb.NewStore()
	for _, c := range []string{"Circle", "Square"} {
		if err := store.DeclareClass(c); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.DeclareEntity("MyPizza", []string{"Circle"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.DeclareEntity("MyTile", []string{"Square"}); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestAddRejectsDuplicateNames(t *testing.T) {
	s := NewStore()
	if err := s.Add(circleAreaLaw(t)); err != nil {
		t.Fatal(err)
	}
	err := s.Add(circleAreaLaw(t))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
}

func TestNamesKeepDeclarationOrder(t *testing.T) {
	s := NewStore()
	if err := s.Add(squareAreaLaw(t)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(circleAreaLaw(t)); err != nil {
		t.Fatal(err)
	}
	got := s.Names()
	if len(got) != 2 || got[0] != "SquareArea" || got[1] != "CircleArea" {
		t.Fatalf("Names() = %v", got)
	}
	if _, ok := s.Get("CircleArea"); !ok {
		t.Fatal("Get(CircleArea) missed")
	}
}

func TestSelectMatchesClassAndProperty(t *testing.T) {
	store := newShapes(t)
	s := NewStore()
	if err := s.Add(circleAreaLaw(t)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(squareAreaLaw(t)); err != nil {
		t.Fatal(err)
	}

	l, err := s.Select(store, "MyPizza", "Area")
	if err != nil {
		t.Fatal(err)
	}
	if l.Name != "CircleArea" {
		t.Fatalf("selected %s, want CircleArea", l.Name)
	}

	l, err = s.Select(store, "MyTile", "Area")
	if err != nil {
		t.Fatal(err)
	}
	if l.Name != "SquareArea" {
		t.Fatalf("selected %s, want SquareArea", l.Name)
	}
}

func TestSelectNoApplicableLaw(t *testing.T) {
	store := newShapes(t)
	s := NewStore()
	if err := s.Add(circleAreaLaw(t)); err != nil {
		t.Fatal(err)
	}

	// MyTile is a Square; the only law covers circles.
	if _, err := s.Select(store, "MyTile", "Area"); !errors.Is(err, ErrNoApplicableLaw) {
		t.Fatalf("got %v, want ErrNoApplicableLaw", err)
	}
	// Right class, but no law involves Perimeter.
	if _, err := s.Select(store, "MyPizza", "Perimeter"); !errors.Is(err, ErrNoApplicableLaw) {
		t.Fatalf("got %v, want ErrNoApplicableLaw", err)
	}
}

func TestSelectAmbiguousLaw(t *testing.T) {
	store := newShapes(t)
	s := NewStore()
	if err := s.Add(circleAreaLaw(t)); err != nil {
		t.Fatal(err)
	}
	rival := circleAreaLaw(t)
	rival.Name = "CircleAreaRival"
	if err := s.Add(rival); err != nil {
		t.Fatal(err)
	}

	_, err := s.Select(store, "MyPizza", "Area")
	if !errors.Is(err, ErrAmbiguousLaw) {
		t.Fatalf("got %v, want ErrAmbiguousLaw", err)
	}
}

func TestSelectSeesDerivedMemberships(t *testing.T) {
	store := newShapes(t)
	if err := store.DeclareClass("Round"); err != nil {
		t.Fatal(err)
	}
	// Membership added after declaration, as rule saturation would.
	if _, err := store.AddMembership("MyPizza", "Round"); err != nil {
		t.Fatal(err)
	}

	roundLaw := circleAreaLaw(t)
	roundLaw.Name = "RoundArea"
	roundLaw.Class = "Round"
	s := NewStore()
	if err := s.Add(roundLaw); err != nil {
		t.Fatal(err)
	}

	l, err := s.Select(store, "MyPizza", "Area")
	if err != nil {
		t.Fatal(err)
	}
	if l.Name != "RoundArea" {
		t.Fatalf("selected %s, want RoundArea", l.Name)
	}
}
