package script

import (
	"errors"
	"fmt"
	"strings"
)

// FormatError renders a lex or parse error as a caret snippet over the
// source, one line of context on each side. Other errors pass through as
// their plain message. name is the script's display name and may be empty.
func FormatError(err error, name, src string) string {
	var line, col int
	var header, msg string
	var lexErr *LexError
	var parseErr *ParseError
	switch {
	case errors.As(err, &lexErr):
		header, line, col, msg = "lex error", lexErr.Line, lexErr.Col, lexErr.Msg
	case errors.As(err, &parseErr):
		header, line, col, msg = "parse error", parseErr.Line, parseErr.Col, parseErr.Msg
	default:
		return err.Error()
	}

	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
