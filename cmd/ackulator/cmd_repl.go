package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/joshua-maros/ackulator/internal/runner"
	"github.com/joshua-maros/ackulator/internal/script"
	"github.com/joshua-maros/ackulator/internal/session"
	"github.com/joshua-maros/ackulator/internal/types"
)

const (
	historyFile = ".ackulator_history"
	promptMain  = "ack> "
	promptCont  = "...> "
	banner      = "ackulator REPL - Ctrl+C to cancel input, Ctrl+D to exit. Type :help for commands."
	helpText    = `
Statements run as in a script: make, find, check, show. A bare expression
is shorthand for show.

REPL commands:
  :help            Show this help
  :quit / :exit    Exit the REPL
  :load <file>     Run a script file in the current session
  :reset           Start over with a fresh session
`
)

// replCmd starts the interactive session
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE:  runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r := runner.New(cfg, os.Stdout)

	sess, err := r.NewSession()
	if err != nil {
		return err
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	prec := cfg.Display.Precision
	for {
		src, stmts, ok := readStatements(ln)
		if !ok { // Ctrl+D or EOF
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			if done := handleReplCommand(r, &sess, ln, trimmed, prec); done {
				break
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))
		if stmts == nil {
			continue // parse failed, already reported
		}
		executeRepl(sess, stmts, prec, src)
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// readStatements accumulates input lines until they parse or fail with an
// error that more input cannot fix. Returns ok=false on EOF. On parse
// failure the error is printed and stmts is nil.
func readStatements(ln *liner.State) (src string, stmts []types.Statement, ok bool) {
	prompt := promptMain
	var b strings.Builder
	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				// Ctrl+C drops the pending input
				return "", nil, true
			}
			return "", nil, false
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
		src = b.String()

		trimmed := strings.TrimSpace(src)
		if trimmed == "" || strings.HasPrefix(trimmed, ":") {
			return src, nil, true
		}

		stmts, err = parseRepl(src)
		if err == nil {
			return src, stmts, true
		}
		if needsMoreInput(err) {
			prompt = promptCont
			continue
		}
		fmt.Println(script.FormatError(err, "repl", src))
		return src, nil, true
	}
}

// parseRepl parses REPL input: statements when it starts with a statement
// keyword, otherwise an expression wrapped in a show.
func parseRepl(src string) ([]types.Statement, error) {
	trimmed := strings.TrimSpace(src)
	word := trimmed
	if i := strings.IndexAny(trimmed, " \t\n"); i >= 0 {
		word = trimmed[:i]
	}
	switch word {
	case "make", "find", "check", "show":
		return script.Parse("repl", src)
	}
	e, err := script.ParseExpr("repl", src)
	if err != nil {
		return nil, err
	}
	return []types.Statement{types.Show{At: e.Pos(), Expr: e}}, nil
}

// needsMoreInput reports whether the parse failed only because the input
// ended, meaning a continuation line may complete it.
func needsMoreInput(err error) bool {
	var pe *script.ParseError
	return errors.As(err, &pe) && strings.Contains(pe.Msg, "end of input")
}

func executeRepl(sess *session.Session, stmts []types.Statement, prec int, src string) {
	for _, st := range stmts {
		outcome, err := sess.Execute(st)
		if err != nil {
			fmt.Println(script.FormatError(err, "repl", src))
			return
		}
		runner.WriteOutcome(os.Stdout, prec, outcome)
	}
}

// handleReplCommand handles :help, :quit, :load, :reset
func handleReplCommand(r *runner.Runner, sess **session.Session, ln *liner.State, line string, prec int) (exit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Print(helpText)

	case ":quit", ":exit":
		return true

	case ":reset":
		fresh, err := r.NewSession()
		if err != nil {
			fmt.Printf("reset failed: %v\n", err)
			return false
		}
		*sess = fresh
		fmt.Println("session reset.")

	case ":load":
		if len(fields) < 2 {
			fmt.Println("usage: :load <file>")
			return false
		}
		path := fields[1]
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("cannot read %s: %v\n", path, err)
			return false
		}
		src := string(data)
		stmts, err := script.Parse(path, src)
		if err != nil {
			fmt.Println(script.FormatError(err, path, src))
			return false
		}
		executeRepl(*sess, stmts, prec, src)
		ln.AppendHistory(fmt.Sprintf(":load %s", path))

	default:
		fmt.Printf("unknown command %s (try :help)\n", fields[0])
	}
	return false
}
