// Package units holds the dimensional vocabulary of a session: unit classes
// (the dimension axes), base and derived units with their exact scale
// factors, metric prefix expansion, and lazily-resolved labels.
package units

import (
	"fmt"
	"math/big"

	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
)

// Unit is one resolvable unit. Prefixed variants such as Kilometer are
// full units of their own, generated at declaration time.
type Unit struct {
	Name     string // primary name
	Aliases  []string
	Symbol   string
	Dim      quantity.Dim
	Scale    *big.Rat // canonical base units per one of this unit
	Exact    bool     // false when a derived unit's value was inexact
	Prefixed bool     // generated from a metric prefix
}

// Quantity returns the value of one of this unit, carrying the unit as its
// display composite.
func (u *Unit) Quantity() quantity.Quantity {
	q := quantity.New(u.Scale, u.Dim)
	q.Exact = u.Exact
	q.Display = quantity.UnitDisplay(u.Name, u.Symbol, u.Scale)
	return q
}

// Registry is the unit and label store. Not safe for concurrent mutation;
// a session owns exactly one registry.
type Registry struct {
	classes    map[string]bool
	classOrder []string

	units     map[string]*Unit // keyed by every resolvable name
	unitOrder []string         // primary names, declaration order

	baseOf map[string]string // class -> base unit primary name

	labels     map[string]*labelEntry
	labelOrder []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]bool),
		units:   make(map[string]*Unit),
		baseOf:  make(map[string]string),
		labels:  make(map[string]*labelEntry),
	}
}

// nameTaken reports whether name is already bound to a class, unit or label.
func (r *Registry) nameTaken(name string) bool {
	if r.classes[name] {
		return true
	}
	if _, ok := r.units[name]; ok {
		return true
	}
	_, ok := r.labels[name]
	return ok
}

// DefineClass introduces a dimension axis.
func (r *Registry) DefineClass(name string) error {
	if r.nameTaken(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.classes[name] = true
	r.classOrder = append(r.classOrder, name)
	return nil
}

// HasClass reports whether name is a declared unit class.
func (r *Registry) HasClass(name string) bool { return r.classes[name] }

// Classes returns the declared unit classes in declaration order.
func (r *Registry) Classes() []string {
	out := make([]string, len(r.classOrder))
	copy(out, r.classOrder)
	return out
}

// DefineBaseUnit introduces the canonical unit of class, which must not have
// one yet. Names holds the primary name first, aliases after. The prefix
// mode controls which metric variants are generated alongside; every
// generated name must be free or the whole declaration is rejected.
func (r *Registry) DefineBaseUnit(names []string, class, symbol string, mode types.PrefixMode) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: base unit needs a name", ErrUnknownUnit)
	}
	if !r.classes[class] {
		return fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	if base, ok := r.baseOf[class]; ok {
		return fmt.Errorf("%w: class %s already has base unit %s", ErrDuplicateName, class, base)
	}
	u := &Unit{
		Name:    names[0],
		Aliases: append([]string(nil), names[1:]...),
		Symbol:  symbol,
		Dim:     quantity.BaseDim(class),
		Scale:   big.NewRat(1, 1),
		Exact:   true,
	}
	if err := r.insertUnit(u, mode); err != nil {
		return err
	}
	r.baseOf[class] = u.Name
	return nil
}

// DefineDerivedUnit introduces a unit whose scale is the canonical value of
// an evaluated expression, e.g. 0.3048 for Foot declared as 0.3048 * Meters.
func (r *Registry) DefineDerivedUnit(names []string, symbol string, value quantity.Quantity) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: derived unit needs a name", ErrUnknownUnit)
	}
	if value.Mag.Sign() <= 0 {
		return fmt.Errorf("%w: %s is %s", ErrInvalidScale, names[0], value.Mag.RatString())
	}
	u := &Unit{
		Name:    names[0],
		Aliases: append([]string(nil), names[1:]...),
		Symbol:  symbol,
		Dim:     value.Dim,
		Scale:   new(big.Rat).Set(value.Mag),
		Exact:   value.Exact,
	}
	return r.insertUnit(u, types.PrefixNone)
}

// insertUnit registers a unit and its prefixed variants. All names are
// checked before any is bound.
func (r *Registry) insertUnit(u *Unit, mode types.PrefixMode) error {
	variants := []*Unit{u}
	for _, p := range prefixesFor(mode) {
		pu := &Unit{
			Name:     p.Apply(u.Name),
			Symbol:   p.Symbol + u.Symbol,
			Dim:      u.Dim,
			Scale:    new(big.Rat).Mul(p.Factor(), u.Scale),
			Exact:    u.Exact,
			Prefixed: true,
		}
		for _, alias := range u.Aliases {
			pu.Aliases = append(pu.Aliases, p.Apply(alias))
		}
		variants = append(variants, pu)
	}
	for _, v := range variants {
		for _, name := range v.allNames() {
			if r.nameTaken(name) {
				return fmt.Errorf("%w: %s", ErrDuplicateName, name)
			}
		}
	}
	for _, v := range variants {
		for _, name := range v.allNames() {
			r.units[name] = v
		}
		r.unitOrder = append(r.unitOrder, v.Name)
	}
	return nil
}

func prefixesFor(mode types.PrefixMode) []Prefix {
	switch mode {
	case types.PrefixMetric:
		return metricPrefixes
	case types.PrefixPartialMetric:
		return metricPrefixes[smallPrefixesStart:]
	default:
		return nil
	}
}

func (u *Unit) allNames() []string {
	return append([]string{u.Name}, u.Aliases...)
}

// ResolveUnit looks a unit up by any of its names.
func (r *Registry) ResolveUnit(name string) (*Unit, error) {
	u, ok := r.units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, name)
	}
	return u, nil
}

// HasUnit reports whether name resolves to a unit.
func (r *Registry) HasUnit(name string) bool {
	_, ok := r.units[name]
	return ok
}

// Units returns the primary names of all registered units, declaration
// order, prefixed variants included.
func (r *Registry) Units() []string {
	out := make([]string, len(r.unitOrder))
	copy(out, r.unitOrder)
	return out
}

// BaseUnitOf returns the canonical unit of a class, if the class has one.
func (r *Registry) BaseUnitOf(class string) (*Unit, bool) {
	name, ok := r.baseOf[class]
	if !ok {
		return nil, false
	}
	return r.units[name], true
}
