package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/joshua-maros/ackulator/internal/config"
)

const pizzaScript = `
make entity_class called Circle
make law called AreaOfACircle for any Circle {
    where: R is Circle.Radius,
    where: A is Circle.Area,
    equation: A = Pi * R ^ 2,
}
make value called MyPizza for Circle { Radius: 0.1 * Meters }
find MyPizza.Area
check MyPizza isa Circle
show 2 * Meters
`

func writeScript(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunFile(t *testing.T) {
	var out bytes.Buffer
	r := New(config.DefaultConfig(), &out)

	rep, err := r.RunFile(context.Background(), writeScript(t, "pizza.ack", pizzaScript))
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if rep.Err != nil {
		t.Fatalf("script error: %v", rep.Err)
	}
	if rep.Failed() {
		t.Fatalf("run failed: %s", rep.Results.Summary())
	}
	if len(rep.Results.Finds) != 1 || len(rep.Results.Checks) != 1 || len(rep.Results.Shows) != 1 {
		t.Errorf("unexpected result counts: %s", rep.Results.Summary())
	}

	text := out.String()
	for _, want := range []string{
		"MyPizza.Area = ",
		"m^2",
		"check MyPizza isa Circle: ok",
		"2 * Meters = 2 m",
		"1 finds (0 failed), 1 checks (0 failed), 1 shows",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunFileParseErrorIsReported(t *testing.T) {
	var out bytes.Buffer
	r := New(config.DefaultConfig(), &out)

	rep, err := r.RunFile(context.Background(), writeScript(t, "bad.ack", "make widget called W\n"))
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if rep.Err == nil {
		t.Fatal("expected a parse error in the report")
	}
	if !strings.Contains(out.String(), "parse error") {
		t.Errorf("output should show the parse error:\n%s", out.String())
	}
}

func TestRunFileWithoutCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Catalog.StandardUnits = false

	var out bytes.Buffer
	r := New(cfg, &out)

	rep, err := r.RunFile(context.Background(), writeScript(t, "pizza.ack", pizzaScript))
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	// Meters is undeclared without the catalog, so the value statement is
	// a fatal script error.
	if rep.Err == nil {
		t.Fatal("expected failure without the standard catalog")
	}
}

func TestRunFilesKeepsInputOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out bytes.Buffer
	r := New(config.DefaultConfig(), &out)

	a := writeScript(t, "a.ack", "show 1 * Meter\n")
	b := writeScript(t, "b.ack", "show 1 * Foot\n")
	c := writeScript(t, "c.ack", "show 1 * Hour\n")

	reps, err := r.RunFiles(context.Background(), []string{a, b, c})
	if err != nil {
		t.Fatalf("RunFiles: %v", err)
	}
	if len(reps) != 3 {
		t.Fatalf("got %d reports, want 3", len(reps))
	}
	for i, path := range []string{a, b, c} {
		if reps[i].File != path {
			t.Errorf("report %d is for %s, want %s", i, reps[i].File, path)
		}
		if reps[i].Failed() {
			t.Errorf("%s failed: %s", path, reps[i].Results.Summary())
		}
	}
}

func TestRunFilesMissingFile(t *testing.T) {
	var out bytes.Buffer
	r := New(config.DefaultConfig(), &out)

	_, err := r.RunFiles(context.Background(), []string{"/does/not/exist.ack"})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestRunSourceHonorsCancellation(t *testing.T) {
	var out bytes.Buffer
	r := New(config.DefaultConfig(), &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := r.RunSource(ctx, "repl", "show 1 * Meter\n")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if !errors.Is(rep.Err, context.Canceled) {
		t.Errorf("report error = %v, want context.Canceled", rep.Err)
	}
	if len(rep.Results.Shows) != 0 {
		t.Error("no statement should have run after cancellation")
	}
}

func TestFailedChecksFailTheReport(t *testing.T) {
	var out bytes.Buffer
	r := New(config.DefaultConfig(), &out)

	rep, err := r.RunSource(context.Background(), "checks", "check 1 * Meter = 2 * Meters\n")
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if rep.Err != nil {
		t.Fatalf("check failures must not be fatal by default: %v", rep.Err)
	}
	if !rep.Failed() {
		t.Error("a failed check should fail the report")
	}
	if !strings.Contains(out.String(), "FAILED") {
		t.Errorf("output should flag the failed check:\n%s", out.String())
	}
}
