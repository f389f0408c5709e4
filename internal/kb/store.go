// Package kb is the knowledge base: entity classes, entity instances and
// their property slots. A property slot is always one of four explicit
// states, never a bare nil: unset, type-constrained but valueless, holding a
// quantity, or referencing another entity.
package kb

import (
	"fmt"

	"github.com/joshua-maros/ackulator/internal/quantity"
)

// SlotKind discriminates the states of a property slot.
type SlotKind int

const (
	// SlotUnset is a slot that exists in name only.
	SlotUnset SlotKind = iota
	// SlotTyped carries a dimension constraint but no value yet.
	SlotTyped
	// SlotValue holds a concrete quantity.
	SlotValue
	// SlotRef points at another entity.
	SlotRef
)

func (k SlotKind) String() string {
	switch k {
	case SlotTyped:
		return "typed"
	case SlotValue:
		return "value"
	case SlotRef:
		return "ref"
	default:
		return "unset"
	}
}

// Slot is one property slot of an entity.
type Slot struct {
	Kind  SlotKind
	Dim   quantity.Dim      // SlotTyped
	Value quantity.Quantity // SlotValue
	Ref   string            // SlotRef
}

// DimOf returns the dimension the slot is known to have: the constraint for
// SlotTyped, the value's dimension for SlotValue. The bool is false for
// slots with no known dimension.
func (s Slot) DimOf() (quantity.Dim, bool) {
	switch s.Kind {
	case SlotTyped:
		return s.Dim, true
	case SlotValue:
		return s.Value.Dim, true
	}
	return quantity.Dim{}, false
}

// Entity is one instance with class memberships and property slots.
type Entity struct {
	Name       string
	classes    map[string]bool
	classOrder []string
	props      map[string]*Slot
	propOrder  []string
}

// Classes returns the entity's memberships in assertion order.
func (e *Entity) Classes() []string {
	out := make([]string, len(e.classOrder))
	copy(out, e.classOrder)
	return out
}

// Properties returns the entity's property names in assertion order.
func (e *Entity) Properties() []string {
	out := make([]string, len(e.propOrder))
	copy(out, e.propOrder)
	return out
}

// Store is the knowledge base proper. Not safe for concurrent mutation; a
// session owns exactly one store.
type Store struct {
	classes     map[string]bool
	classOrder  []string
	entities    map[string]*Entity
	entityOrder []string
}

// NewStore returns an empty knowledge base.
func NewStore() *Store {
	return &Store{
		classes:  make(map[string]bool),
		entities: make(map[string]*Entity),
	}
}

// DeclareClass introduces an entity class.
func (s *Store) DeclareClass(name string) error {
	if s.classes[name] {
		return fmt.Errorf("%w: class %s", ErrDuplicateName, name)
	}
	if _, ok := s.entities[name]; ok {
		return fmt.Errorf("%w: %s is an entity", ErrDuplicateName, name)
	}
	s.classes[name] = true
	s.classOrder = append(s.classOrder, name)
	return nil
}

// HasClass reports whether name is a declared entity class.
func (s *Store) HasClass(name string) bool { return s.classes[name] }

// Classes returns declared entity classes in declaration order.
func (s *Store) Classes() []string {
	out := make([]string, len(s.classOrder))
	copy(out, s.classOrder)
	return out
}

// DeclareEntity introduces an entity belonging to the given classes, all of
// which must already be declared.
func (s *Store) DeclareEntity(name string, classes []string) (*Entity, error) {
	if _, ok := s.entities[name]; ok {
		return nil, fmt.Errorf("%w: entity %s", ErrDuplicateName, name)
	}
	if s.classes[name] {
		return nil, fmt.Errorf("%w: %s is a class", ErrDuplicateName, name)
	}
	for _, c := range classes {
		if !s.classes[c] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntityOrClass, c)
		}
	}
	e := &Entity{
		Name:    name,
		classes: make(map[string]bool),
		props:   make(map[string]*Slot),
	}
	for _, c := range classes {
		if !e.classes[c] {
			e.classes[c] = true
			e.classOrder = append(e.classOrder, c)
		}
	}
	s.entities[name] = e
	s.entityOrder = append(s.entityOrder, name)
	return e, nil
}

// Entity looks an entity up by name.
func (s *Store) Entity(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// HasEntity reports whether name is a declared entity.
func (s *Store) HasEntity(name string) bool {
	_, ok := s.entities[name]
	return ok
}

// Entities returns all entity names in declaration order.
func (s *Store) Entities() []string {
	out := make([]string, len(s.entityOrder))
	copy(out, s.entityOrder)
	return out
}

// EntitiesOf returns the entities that are members of class, declaration
// order.
func (s *Store) EntitiesOf(class string) []string {
	var out []string
	for _, name := range s.entityOrder {
		if s.entities[name].classes[class] {
			out = append(out, name)
		}
	}
	return out
}

// IsA reports whether entity is a member of class.
func (s *Store) IsA(entity, class string) (bool, error) {
	e, ok := s.entities[entity]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntityOrClass, entity)
	}
	if !s.classes[class] {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntityOrClass, class)
	}
	return e.classes[class], nil
}

// AddMembership asserts that entity is a member of class, returning true
// when the membership is new. Derived memberships may reference classes the
// entity was not declared with.
func (s *Store) AddMembership(entity, class string) (bool, error) {
	e, ok := s.entities[entity]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntityOrClass, entity)
	}
	if !s.classes[class] {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntityOrClass, class)
	}
	if e.classes[class] {
		return false, nil
	}
	e.classes[class] = true
	e.classOrder = append(e.classOrder, class)
	return true, nil
}

func (s *Store) slot(entity, prop string, create bool) (*Slot, error) {
	e, ok := s.entities[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityOrClass, entity)
	}
	sl, ok := e.props[prop]
	if !ok {
		if !create {
			return &Slot{Kind: SlotUnset}, nil
		}
		sl = &Slot{Kind: SlotUnset}
		e.props[prop] = sl
		e.propOrder = append(e.propOrder, prop)
	}
	return sl, nil
}

// GetProperty returns the slot for entity.prop. Missing properties read as
// unset slots; only the entity itself must exist.
func (s *Store) GetProperty(entity, prop string) (Slot, error) {
	sl, err := s.slot(entity, prop, false)
	if err != nil {
		return Slot{}, err
	}
	return *sl, nil
}

// SetProperty stores a value into entity.prop, validating the value's
// dimension against any existing constraint or previously stored value.
func (s *Store) SetProperty(entity, prop string, value quantity.Quantity) error {
	sl, err := s.slot(entity, prop, true)
	if err != nil {
		return err
	}
	switch sl.Kind {
	case SlotTyped:
		if !sl.Dim.Equal(value.Dim) {
			return fmt.Errorf("%w: %s.%s is constrained to %s, got %s",
				ErrTypeConstraintViolation, entity, prop, sl.Dim, value.Dim)
		}
	case SlotValue:
		if !sl.Value.Dim.Equal(value.Dim) {
			return fmt.Errorf("%w: %s.%s holds a %s, got %s",
				ErrTypeConstraintViolation, entity, prop, sl.Value.Dim, value.Dim)
		}
	case SlotRef:
		return fmt.Errorf("%w: %s.%s holds an entity reference",
			ErrTypeConstraintViolation, entity, prop)
	}
	sl.Kind = SlotValue
	sl.Value = value
	sl.Dim = quantity.Dim{}
	return nil
}

// SetPropertyRef stores an entity reference into entity.prop. The target
// entity must exist and the slot must not already carry a dimension.
func (s *Store) SetPropertyRef(entity, prop, target string) error {
	if _, ok := s.entities[target]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntityOrClass, target)
	}
	sl, err := s.slot(entity, prop, true)
	if err != nil {
		return err
	}
	switch sl.Kind {
	case SlotTyped, SlotValue:
		return fmt.Errorf("%w: %s.%s holds a quantity, not a reference",
			ErrTypeConstraintViolation, entity, prop)
	}
	sl.Kind = SlotRef
	sl.Ref = target
	return nil
}

// ConstrainProperty records that entity.prop must have the given dimension,
// creating a typed-but-unset slot when the property is new. A conflicting
// constraint or value dimension is a violation.
func (s *Store) ConstrainProperty(entity, prop string, dim quantity.Dim) error {
	sl, err := s.slot(entity, prop, true)
	if err != nil {
		return err
	}
	switch sl.Kind {
	case SlotUnset:
		sl.Kind = SlotTyped
		sl.Dim = dim
	case SlotTyped:
		if !sl.Dim.Equal(dim) {
			return fmt.Errorf("%w: %s.%s is constrained to %s, cannot also be %s",
				ErrTypeConstraintViolation, entity, prop, sl.Dim, dim)
		}
	case SlotValue:
		if !sl.Value.Dim.Equal(dim) {
			return fmt.Errorf("%w: %s.%s holds a %s, cannot be constrained to %s",
				ErrTypeConstraintViolation, entity, prop, sl.Value.Dim, dim)
		}
	case SlotRef:
		return fmt.Errorf("%w: %s.%s holds an entity reference, cannot be constrained to %s",
			ErrTypeConstraintViolation, entity, prop, dim)
	}
	return nil
}
