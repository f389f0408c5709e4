// Package catalog ships the standard environment as an embedded YAML
// document: metric Length/Mass/Time units, the customary derived units, and
// the kinematics and constant labels. The CLI feeds these statements to a
// fresh session before any user script runs; library users opt in.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joshua-maros/ackulator/internal/script"
	"github.com/joshua-maros/ackulator/internal/types"
)

//go:embed standard.yaml
var standardYAML []byte

// SourceName is the File recorded on every catalog statement's position, so
// errors arising from catalog declarations are distinguishable from script
// errors.
const SourceName = "catalog:standard"

type document struct {
	UnitClasses  []string      `yaml:"unit_classes"`
	BaseUnits    []baseUnit    `yaml:"base_units"`
	DerivedUnits []derivedUnit `yaml:"derived_units"`
	Labels       []label       `yaml:"labels"`
}

type baseUnit struct {
	Names    []string `yaml:"names"`
	Class    string   `yaml:"class"`
	Symbol   string   `yaml:"symbol"`
	Prefixes string   `yaml:"prefixes"`
}

type derivedUnit struct {
	Names  []string `yaml:"names"`
	Symbol string   `yaml:"symbol"`
	Value  string   `yaml:"value"`
}

type label struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Standard returns the declaration stream of the standard environment, in
// dependency order. The document is embedded at build time, so failure means
// the shipped YAML itself is malformed.
func Standard() ([]types.Statement, error) {
	var doc document
	if err := yaml.Unmarshal(standardYAML, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse standard.yaml: %w", err)
	}

	at := types.Pos{File: SourceName}
	var out []types.Statement
	for _, name := range doc.UnitClasses {
		out = append(out, types.DeclareUnitClass{At: at, Name: name})
	}
	for _, u := range doc.BaseUnits {
		mode, err := prefixMode(u.Prefixes)
		if err != nil {
			return nil, fmt.Errorf("catalog: base unit %q: %w", primary(u.Names), err)
		}
		out = append(out, types.DeclareBaseUnit{
			At:       at,
			Names:    u.Names,
			Class:    u.Class,
			Symbol:   u.Symbol,
			Prefixes: mode,
		})
	}
	for _, u := range doc.DerivedUnits {
		value, err := parseValue(primary(u.Names), u.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, types.DeclareDerivedUnit{
			At:     at,
			Names:  u.Names,
			Symbol: u.Symbol,
			Value:  value,
		})
	}
	for _, l := range doc.Labels {
		value, err := parseValue(l.Name, l.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, types.DeclareLabel{At: at, Name: l.Name, Value: value})
	}
	return out, nil
}

func parseValue(name, src string) (types.Expr, error) {
	e, err := script.ParseExpr(SourceName, src)
	if err != nil {
		return nil, fmt.Errorf("catalog: value of %q: %w", name, err)
	}
	return e, nil
}

func prefixMode(s string) (types.PrefixMode, error) {
	switch s {
	case "", "none":
		return types.PrefixNone, nil
	case "metric":
		return types.PrefixMetric, nil
	case "partial_metric":
		return types.PrefixPartialMetric, nil
	}
	return types.PrefixNone, fmt.Errorf("unknown prefix mode %q", s)
}

func primary(names []string) string {
	if len(names) == 0 {
		return "?"
	}
	return names[0]
}
