package session

import (
	"fmt"

	"github.com/joshua-maros/ackulator/internal/quantity"
	"github.com/joshua-maros/ackulator/internal/types"
)

// FindResult records the outcome of one find statement. Err is set when the
// query failed; query failures do not halt the session.
type FindResult struct {
	At       types.Pos
	Entity   string
	Property string
	Value    quantity.Quantity
	Err      error
}

// Failed reports whether the find produced an error instead of a value.
func (r FindResult) Failed() bool { return r.Err != nil }

// CheckResult records one evaluated check predicate. A failing check is
// data, not a fault; Reason says why it failed.
type CheckResult struct {
	At        types.Pos
	Predicate string
	Passed    bool
	Reason    string
}

// ShowResult records one rendered show statement. When the statement named a
// dimension to show against, Against and Matches are set.
type ShowResult struct {
	At       types.Pos
	Expr     string
	Rendered string
	Against  string
	Matches  *bool
}

// Outcome is what a single statement produced, for callers that report
// incrementally. Declarations produce an empty outcome.
type Outcome struct {
	Find  *FindResult
	Check *CheckResult
	Show  *ShowResult
}

// Results aggregates everything the session's queries produced, in
// execution order per kind.
type Results struct {
	Finds  []FindResult
	Checks []CheckResult
	Shows  []ShowResult
}

// FailedChecks counts checks that evaluated to false.
func (r Results) FailedChecks() int {
	n := 0
	for _, c := range r.Checks {
		if !c.Passed {
			n++
		}
	}
	return n
}

// FailedFinds counts finds that errored.
func (r Results) FailedFinds() int {
	n := 0
	for _, f := range r.Finds {
		if f.Failed() {
			n++
		}
	}
	return n
}

// Summary renders a one-line account of the session's query activity.
func (r Results) Summary() string {
	return fmt.Sprintf("%d finds (%d failed), %d checks (%d failed), %d shows",
		len(r.Finds), r.FailedFinds(), len(r.Checks), r.FailedChecks(), len(r.Shows))
}
