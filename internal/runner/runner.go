// Package runner executes script files against fresh sessions: one-shot
// runs, concurrent multi-file batches, and a watch mode that reruns a
// script whenever it changes on disk.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshua-maros/ackulator/internal/catalog"
	"github.com/joshua-maros/ackulator/internal/config"
	"github.com/joshua-maros/ackulator/internal/logging"
	"github.com/joshua-maros/ackulator/internal/script"
	"github.com/joshua-maros/ackulator/internal/session"
)

// Runner turns config into sessions and script files into reports. Safe for
// concurrent RunFile calls; each run gets its own session.
type Runner struct {
	cfg *config.Config

	mu  sync.Mutex
	out io.Writer
}

// New returns a runner that writes run output to out.
func New(cfg *config.Config, out io.Writer) *Runner {
	return &Runner{cfg: cfg, out: out}
}

// Report is the outcome of running one script file. Err is the fatal
// statement or parse error that stopped the stream, nil when the whole
// script executed. Failed finds and checks are in Results, not Err.
type Report struct {
	File     string
	Results  session.Results
	Err      error
	Duration time.Duration
}

// Failed reports whether the run should count as a failure: a fatal error,
// or any failed find or check.
func (r *Report) Failed() bool {
	return r.Err != nil || r.Results.FailedFinds() > 0 || r.Results.FailedChecks() > 0
}

// NewSession builds a session from the runner's config, preloading the
// standard catalog when configured.
func (r *Runner) NewSession() (*session.Session, error) {
	opts := session.Options{
		Epsilon:            r.cfg.GetEpsilon(),
		FatalCheckFailures: r.cfg.Checks.FatalFailures,
		FactLimit:          r.cfg.Kernel.FactLimit,
		Precision:          r.cfg.Display.Precision,
	}
	s := session.New(opts)
	if r.cfg.Catalog.StandardUnits {
		stmts, err := catalog.Standard()
		if err != nil {
			return nil, err
		}
		if err := s.ExecuteAll(stmts); err != nil {
			return nil, fmt.Errorf("standard catalog: %w", err)
		}
	}
	return s, nil
}

// RunFile runs one script file on a fresh session. The returned error is a
// runner fault (unreadable file, broken catalog); script-level failures
// land in the report.
func (r *Runner) RunFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var buf bytes.Buffer
	rep, err := r.runSource(ctx, &buf, path, string(data))
	r.flush(&buf)
	return rep, err
}

// RunFiles runs each file concurrently, one session per file, and returns
// the reports in input order. Output is buffered per file so runs do not
// interleave.
func (r *Runner) RunFiles(ctx context.Context, paths []string) ([]*Report, error) {
	reports := make([]*Report, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			rep, err := r.RunFile(egCtx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// RunSource runs script text under the given name, for REPL and test use.
func (r *Runner) RunSource(ctx context.Context, name, src string) (*Report, error) {
	var buf bytes.Buffer
	rep, err := r.runSource(ctx, &buf, name, src)
	r.flush(&buf)
	return rep, err
}

func (r *Runner) runSource(ctx context.Context, w io.Writer, name, src string) (*Report, error) {
	start := time.Now()
	rep := &Report{File: name}
	logging.Runner("run %s", name)

	stmts, err := script.Parse(name, src)
	if err != nil {
		fmt.Fprintln(w, script.FormatError(err, name, src))
		rep.Err = err
		rep.Duration = time.Since(start)
		return rep, nil
	}

	sess, err := r.NewSession()
	if err != nil {
		return nil, err
	}

	for _, st := range stmts {
		if err := ctx.Err(); err != nil {
			rep.Err = err
			break
		}
		outcome, err := sess.Execute(st)
		if err != nil {
			fmt.Fprintf(w, "%s: error: %v\n", name, err)
			rep.Err = err
			break
		}
		WriteOutcome(w, r.cfg.Display.Precision, outcome)
	}

	rep.Results = sess.Results()
	rep.Duration = time.Since(start)
	fmt.Fprintf(w, "%s: %s\n", name, rep.Results.Summary())
	logging.Runner("run %s done in %s: %s", name, rep.Duration.Round(time.Millisecond), rep.Results.Summary())
	return rep, nil
}

// WriteOutcome renders one statement outcome the way run output does. The
// REPL shares this so interactive and file runs read the same.
func WriteOutcome(w io.Writer, prec int, outcome *session.Outcome) {
	switch {
	case outcome == nil:
	case outcome.Find != nil:
		f := outcome.Find
		if f.Failed() {
			fmt.Fprintf(w, "find %s.%s: %v\n", f.Entity, f.Property, f.Err)
		} else {
			fmt.Fprintf(w, "%s.%s = %s\n", f.Entity, f.Property, f.Value.Format(prec))
		}
	case outcome.Check != nil:
		c := outcome.Check
		if c.Passed {
			fmt.Fprintf(w, "check %s: ok\n", c.Predicate)
		} else {
			fmt.Fprintf(w, "check %s: FAILED (%s)\n", c.Predicate, c.Reason)
		}
	case outcome.Show != nil:
		s := outcome.Show
		if s.Matches != nil {
			verdict := "yes"
			if !*s.Matches {
				verdict = "no"
			}
			fmt.Fprintf(w, "%s = %s, is %s: %s\n", s.Expr, s.Rendered, s.Against, verdict)
		} else {
			fmt.Fprintf(w, "%s = %s\n", s.Expr, s.Rendered)
		}
	}
}

// flush copies a run's buffered output to the shared writer in one piece.
func (r *Runner) flush(buf *bytes.Buffer) {
	if buf.Len() == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.Copy(r.out, buf)
}
