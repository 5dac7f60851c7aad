// Package reporter formats generator-side errors with file/line/column
// context and a caret pointing at the offending source text, the way
// the D-Bus code generator's own ambient error-reporting style does
// for its compiler diagnostics.
package reporter

import (
	"fmt"
	"strings"
)

// Position is a 1-indexed line/column location within a source document
// (an introspection XML file or a YAML config manifest).
type Position struct {
	Line   int
	Column int
}

// GeneratorError is one reportable failure: a message, the position it
// occurred at, the file it occurred in, and the full source text that
// position indexes into (used only to render the caret line).
type GeneratorError struct {
	Message string
	Source  string
	File    string
	Pos     Position
}

// New builds a GeneratorError for message at pos within source, read
// from file.
func New(pos Position, message, source, file string) *GeneratorError {
	return &GeneratorError{Pos: pos, Message: message, Source: source, File: file}
}

// Error implements the error interface with an uncolored Format.
func (e *GeneratorError) Error() string {
	return e.Format(false)
}

func (e *GeneratorError) sourceLine() string {
	if e.Source == "" || e.Pos.Line < 1 {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line > len(lines) {
		return ""
	}
	return lines[e.Pos.Line-1]
}

// Format renders the error as a file/position header, the offending
// source line (when known), a caret under the exact column, and the
// message. If color is true, ANSI escapes highlight the caret and
// message.
func (e *GeneratorError) Format(color bool) string {
	var b strings.Builder

	if e.File != "" {
		fmt.Fprintf(&b, "Error in %s:%d:%d\n", e.File, e.Pos.Line, e.Pos.Column)
	} else {
		fmt.Fprintf(&b, "Error at line %d:%d\n", e.Pos.Line, e.Pos.Column)
	}

	if line := e.sourceLine(); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(strings.Repeat(" ", len(prefix)+e.Pos.Column-1))
		if color {
			b.WriteString("\033[1;31m")
		}
		b.WriteString("^\n")
		if color {
			b.WriteString("\033[0m")
		}
	}

	if color {
		b.WriteString("\033[1m")
	}
	b.WriteString(e.Message)
	if color {
		b.WriteString("\033[0m")
	}

	return b.String()
}

// FormatErrors renders every error in errs, numbered, separated by
// blank lines.
func FormatErrors(errs []*GeneratorError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "generation failed with %d error(s):\n\n", len(errs))
	for i, e := range errs {
		fmt.Fprintf(&b, "[error %d of %d]\n", i+1, len(errs))
		b.WriteString(e.Format(color))
		if i < len(errs)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
