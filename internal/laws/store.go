// Package laws stores equational laws and solves them for one unknown by
// algebraic isolation. A law binds names to properties of a quantified
// entity ("R is Circle.Radius") and relates them in a single equation; the
// solver substitutes every known property, walks the equation tree inverting
// operations, and produces the unknown's value.
package laws

import (
	"fmt"
	"strings"

	"github.com/joshua-maros/ackulator/internal/kb"
	"github.com/joshua-maros/ackulator/internal/types"
)

// Binding names one property of the law's quantified variable.
type Binding struct {
	Name     string
	Property string
}

// Law is one declared law.
type Law struct {
	Name     string
	Var      string
	Class    string
	Bindings []Binding
	Equation types.Equation
	At       types.Pos
}

// String renders the law header for error messages.
func (l *Law) String() string {
	props := make([]string, len(l.Bindings))
	for i, b := range l.Bindings {
		props[i] = b.Name + " is " + l.Var + "." + b.Property
	}
	return fmt.Sprintf("%s for any %s (%s)", l.Name, l.Class, strings.Join(props, ", "))
}

// concludes reports whether solving the law can yield the given property:
// some binding maps it and that binding's name occurs in the equation.
func (l *Law) concludes(property string) bool {
	for _, b := range l.Bindings {
		if b.Property == property && countName(l.Equation, b.Name, l.Var, property) > 0 {
			return true
		}
	}
	return false
}

// Store holds declared laws in declaration order.
type Store struct {
	laws  map[string]*Law
	order []string
}

// NewStore returns an empty law store.
func NewStore() *Store {
	return &Store{laws: make(map[string]*Law)}
}

// Add registers a law under its name.
func (s *Store) Add(l *Law) error {
	if _, ok := s.laws[l.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, l.Name)
	}
	s.laws[l.Name] = l
	s.order = append(s.order, l.Name)
	return nil
}

// Get looks a law up by name.
func (s *Store) Get(name string) (*Law, bool) {
	l, ok := s.laws[name]
	return l, ok
}

// Names returns law names in declaration order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Select picks the single law able to produce entity.property: the law's
// class must be among the entity's memberships (declared or derived) and its
// equation must involve the property. Zero candidates is ErrNoApplicableLaw,
// more than one is ErrAmbiguousLaw.
func (s *Store) Select(store *kb.Store, entity, property string) (*Law, error) {
	var candidates []*Law
	for _, name := range s.order {
		l := s.laws[name]
		ok, err := store.IsA(entity, l.Class)
		if err != nil || !ok {
			continue
		}
		if l.concludes(property) {
			candidates = append(candidates, l)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: nothing concludes %s.%s", ErrNoApplicableLaw, entity, property)
	case 1:
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, l := range candidates {
			names[i] = l.Name
		}
		return nil, fmt.Errorf("%w: %s.%s could come from %s",
			ErrAmbiguousLaw, entity, property, strings.Join(names, " or "))
	}
}
