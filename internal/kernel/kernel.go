// Package kernel wraps the Mangle Datalog engine behind the small surface
// the reasoning session needs: an append-only set of extensional facts, a
// set of compiled rule clauses, saturation to fixpoint, and readback of
// derived facts.
//
// The whole program is rebuilt as text and re-evaluated into a fresh store
// on every saturation. That sounds wasteful but keeps evaluation trivially
// idempotent: the derived set is a pure function of facts plus rules, and
// re-running after no change reproduces it exactly.
package kernel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// Predicates of the reasoning schema. All columns are string constants:
// entity and class names verbatim, dimensions as canonical dimension keys.
const (
	PredEntity  = "entity"    // entity(name)
	PredClass   = "class"     // class(name)
	PredIsa     = "isa"       // isa(entity, class)
	PredHasProp = "has_prop"  // has_prop(entity, prop)
	PredPropDim = "prop_dim"  // prop_dim(entity, prop, dimkey)
)

// schema declares every predicate up front so rules may reference predicates
// that have no facts yet.
const schema = `# Reasoning schema
Decl entity(Name) bound [/string].
Decl class(Name) bound [/string].
Decl isa(Entity, Class) bound [/string, /string].
Decl has_prop(Entity, Prop) bound [/string, /string].
Decl prop_dim(Entity, Prop, Dim) bound [/string, /string, /string].
`

// ErrFactLimit is returned when the extensional fact set outgrows the
// configured bound.
var ErrFactLimit = errors.New("fact limit exceeded")

// Kernel owns the fact set and rule set. Not safe for concurrent use; the
// session serializes access.
type Kernel struct {
	facts     []Atom
	factSeen  map[string]bool
	clauses   []Clause
	ruleSeen  map[string]bool
	factLimit int

	store factstore.FactStore
	info  *analysis.ProgramInfo
	dirty bool
}

// New returns an empty kernel. factLimit <= 0 means unlimited.
func New(factLimit int) *Kernel {
	k := &Kernel{
		factSeen:  make(map[string]bool),
		ruleSeen:  make(map[string]bool),
		factLimit: factLimit,
	}
	// property existence follows from any known property dimension, so
	// rules can chain through properties other rules created
	k.addStructural(Clause{
		Head: Atom{Pred: PredHasProp, Args: []Term{Var("E"), Var("P")}},
		Body: []Atom{{Pred: PredPropDim, Args: []Term{Var("E"), Var("P"), Wildcard}}},
	})
	return k
}

func (k *Kernel) addStructural(c Clause) {
	k.clauses = append(k.clauses, c)
	k.ruleSeen[c.String()] = true
}

// AddFact appends an extensional fact, deduplicating. It reports whether the
// fact was new.
func (k *Kernel) AddFact(a Atom) (bool, error) {
	key := a.String()
	if k.factSeen[key] {
		return false, nil
	}
	if k.factLimit > 0 && len(k.facts) >= k.factLimit {
		return false, fmt.Errorf("%w: %d facts", ErrFactLimit, len(k.facts))
	}
	k.facts = append(k.facts, a)
	k.factSeen[key] = true
	k.dirty = true
	return true, nil
}

// AddClause appends a rule clause, deduplicating by rendered text. It
// reports whether the clause was new.
func (k *Kernel) AddClause(c Clause) bool {
	key := c.String()
	if k.ruleSeen[key] {
		return false
	}
	k.clauses = append(k.clauses, c)
	k.ruleSeen[key] = true
	k.dirty = true
	return true
}

// FactCount returns the number of extensional facts.
func (k *Kernel) FactCount() int { return len(k.facts) }

// ProgramText renders the current program: schema, then facts, then rules.
func (k *Kernel) ProgramText() string {
	var sb strings.Builder
	sb.WriteString(schema)
	sb.WriteString("\n# Facts\n")
	for _, f := range k.facts {
		sb.WriteString(f.String())
		sb.WriteString(".\n")
	}
	sb.WriteString("\n# Rules\n")
	for _, c := range k.clauses {
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Saturate evaluates the program to fixpoint. It is cheap to call
// repeatedly: nothing happens unless facts or rules changed since the last
// run.
func (k *Kernel) Saturate() error {
	if !k.dirty && k.store != nil {
		return nil
	}
	programText := k.ProgramText()

	parsed, err := parse.Unit(strings.NewReader(programText))
	if err != nil {
		return fmt.Errorf("parse program: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(parsed, nil)
	if err != nil {
		return fmt.Errorf("analyze program: %w", err)
	}
	store := factstore.NewSimpleInMemoryStore()
	if _, err := engine.EvalProgramWithStats(info, store); err != nil {
		return fmt.Errorf("evaluate program: %w", err)
	}

	k.store = store
	k.info = info
	k.dirty = false
	return nil
}

// Derived returns every fact of the given predicate from the saturated
// store, extensional and derived alike, as rows of string arguments.
// Saturate must have succeeded first.
func (k *Kernel) Derived(pred string, arity int) ([][]string, error) {
	if k.store == nil {
		return nil, errors.New("kernel not saturated")
	}
	sym := ast.PredicateSym{Symbol: pred, Arity: arity}
	var rows [][]string
	err := k.store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
		row := make([]string, len(a.Args))
		for i, arg := range a.Args {
			c, ok := arg.(ast.Constant)
			if !ok {
				return fmt.Errorf("non-constant argument in %s", a)
			}
			row[i] = c.Symbol
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s facts: %w", pred, err)
	}
	return rows, nil
}
