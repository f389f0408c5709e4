package kb

import (
	"errors"
	"math/big"
	"testing"

	"github.com/joshua-maros/ackulator/internal/quantity"
)

func lengthQ(n int64) quantity.Quantity {
	return quantity.New(big.NewRat(n, 1), quantity.BaseDim("Length"))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	for _, c := range []string{"Circle", "Round", "Pizza"} {
		if err := s.DeclareClass(c); err != nil {
			t.Fatalf("DeclareClass(%s): %v", c, err)
		}
	}
	if _, err := s.DeclareEntity("MyPizza", []string{"Circle", "Pizza"}); err != nil {
		t.Fatalf("DeclareEntity: %v", err)
	}
	return s
}

func TestDeclareAndMembership(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.IsA("MyPizza", "Circle")
	if err != nil || !ok {
		t.Errorf("IsA(MyPizza, Circle) = %v, %v", ok, err)
	}
	ok, err = s.IsA("MyPizza", "Round")
	if err != nil || ok {
		t.Errorf("IsA(MyPizza, Round) = %v, %v", ok, err)
	}
	if _, err := s.IsA("Nobody", "Circle"); !errors.Is(err, ErrUnknownEntityOrClass) {
		t.Errorf("IsA unknown entity err = %v", err)
	}

	// derived membership
	added, err := s.AddMembership("MyPizza", "Round")
	if err != nil || !added {
		t.Fatalf("AddMembership = %v, %v", added, err)
	}
	// re-adding is a no-op, which keeps saturation idempotent
	added, err = s.AddMembership("MyPizza", "Round")
	if err != nil || added {
		t.Errorf("second AddMembership = %v, %v", added, err)
	}

	if got := s.EntitiesOf("Round"); len(got) != 1 || got[0] != "MyPizza" {
		t.Errorf("EntitiesOf(Round) = %v", got)
	}
}

func TestDeclareRejectsDuplicatesAndUnknowns(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.DeclareEntity("MyPizza", nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate entity err = %v", err)
	}
	if err := s.DeclareClass("Circle"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate class err = %v", err)
	}
	if _, err := s.DeclareEntity("Another", []string{"Square"}); !errors.Is(err, ErrUnknownEntityOrClass) {
		t.Errorf("unknown class err = %v", err)
	}
	// classes and entities share the namespace
	if err := s.DeclareClass("MyPizza"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("class shadowing entity err = %v", err)
	}
}

func TestPropertySlotStates(t *testing.T) {
	s := newTestStore(t)

	// absent property reads as an unset slot, not an error
	sl, err := s.GetProperty("MyPizza", "Radius")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if sl.Kind != SlotUnset {
		t.Errorf("absent slot kind = %v", sl.Kind)
	}

	if err := s.SetProperty("MyPizza", "Radius", lengthQ(2)); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	sl, _ = s.GetProperty("MyPizza", "Radius")
	if sl.Kind != SlotValue || sl.Value.Mag.Cmp(big.NewRat(2, 1)) != 0 {
		t.Errorf("Radius slot = %+v", sl)
	}
	d, ok := sl.DimOf()
	if !ok || !d.Equal(quantity.BaseDim("Length")) {
		t.Errorf("Radius DimOf = %s, %v", d, ok)
	}
}

func TestConstrainProperty(t *testing.T) {
	s := newTestStore(t)
	length := quantity.BaseDim("Length")
	timeDim := quantity.BaseDim("Time")

	// constraining a fresh property creates a typed-but-unset slot
	if err := s.ConstrainProperty("MyPizza", "Diameter", length); err != nil {
		t.Fatalf("ConstrainProperty: %v", err)
	}
	sl, _ := s.GetProperty("MyPizza", "Diameter")
	if sl.Kind != SlotTyped || !sl.Dim.Equal(length) {
		t.Errorf("Diameter slot = %+v", sl)
	}

	// the same constraint again is fine, a different one is a violation
	if err := s.ConstrainProperty("MyPizza", "Diameter", length); err != nil {
		t.Errorf("repeat constraint: %v", err)
	}
	if err := s.ConstrainProperty("MyPizza", "Diameter", timeDim); !errors.Is(err, ErrTypeConstraintViolation) {
		t.Errorf("conflicting constraint err = %v", err)
	}

	// a stored value must satisfy the constraint
	if err := s.SetProperty("MyPizza", "Diameter", lengthQ(4)); err != nil {
		t.Errorf("SetProperty into typed slot: %v", err)
	}
	wrong := quantity.New(big.NewRat(1, 1), timeDim)
	if err := s.SetProperty("MyPizza", "Weight", wrong); err != nil {
		t.Fatalf("SetProperty(Weight): %v", err)
	}
	if err := s.ConstrainProperty("MyPizza", "Weight", length); !errors.Is(err, ErrTypeConstraintViolation) {
		t.Errorf("constraint vs value err = %v", err)
	}
}

func TestSetPropertyValidatesAgainstConstraint(t *testing.T) {
	s := newTestStore(t)
	if err := s.ConstrainProperty("MyPizza", "Radius", quantity.BaseDim("Time")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProperty("MyPizza", "Radius", lengthQ(1)); !errors.Is(err, ErrTypeConstraintViolation) {
		t.Errorf("SetProperty vs constraint err = %v", err)
	}
}

func TestPropertyRefs(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.DeclareEntity("TheOven", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPropertyRef("MyPizza", "BakedIn", "TheOven"); err != nil {
		t.Fatalf("SetPropertyRef: %v", err)
	}
	sl, _ := s.GetProperty("MyPizza", "BakedIn")
	if sl.Kind != SlotRef || sl.Ref != "TheOven" {
		t.Errorf("BakedIn slot = %+v", sl)
	}
	if _, ok := sl.DimOf(); ok {
		t.Error("ref slot claims a dimension")
	}

	if err := s.SetPropertyRef("MyPizza", "BakedIn2", "Nowhere"); !errors.Is(err, ErrUnknownEntityOrClass) {
		t.Errorf("dangling ref err = %v", err)
	}
	// refs and quantities do not mix
	if err := s.SetProperty("MyPizza", "BakedIn", lengthQ(1)); !errors.Is(err, ErrTypeConstraintViolation) {
		t.Errorf("value into ref slot err = %v", err)
	}
	if err := s.ConstrainProperty("MyPizza", "BakedIn", quantity.BaseDim("Length")); !errors.Is(err, ErrTypeConstraintViolation) {
		t.Errorf("constrain ref slot err = %v", err)
	}
}

func TestOrderingIsDeterministic(t *testing.T) {
	s := NewStore()
	for _, c := range []string{"C", "A", "B"} {
		if err := s.DeclareClass(c); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.Classes(); got[0] != "C" || got[1] != "A" || got[2] != "B" {
		t.Errorf("Classes() = %v, want declaration order", got)
	}
}
