package render

import (
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/typesys"
)

// Misalignment is one declaration block in a generated file whose
// existing alignment doesn't match what VarLayout would produce for
// the same variables — a sign the file was hand-edited or generated by
// a stale version of the tool.
type Misalignment struct {
	Line int
	Want string
	Got  string
}

// looksLikeDecl reports whether line is a plausible "type name;"
// variable declaration: no parens (those are function declarations or
// calls), ends in a semicolon, and splits into a non-empty type and name
// at the last space, tab, or '*' (a '*' stays with the type).
func looksLikeDecl(line string) (typeSpelling, name string, ok bool) {
	trimmed := strings.TrimRight(line, "\n")
	stripped := strings.TrimLeft(trimmed, "\t ")
	if stripped == "" || strings.ContainsAny(stripped, "(){}#") {
		return "", "", false
	}
	if !strings.HasSuffix(stripped, ";") {
		return "", "", false
	}
	body := strings.TrimSuffix(stripped, ";")

	idx := strings.LastIndexAny(body, " \t*")
	if idx < 0 {
		return "", "", false
	}
	name = strings.TrimLeft(body[idx+1:], "*")
	typeSpelling = strings.TrimRight(body[:idx+1], " \t")
	if name == "" || typeSpelling == "" {
		return "", "", false
	}
	return typeSpelling, name, true
}

// CheckVarBlocks scans source for maximal runs of consecutive
// declaration-shaped lines at the same indentation and reports any
// block whose alignment VarLayout would render differently — the
// lines must already be lined up the way VarLayout lines them up, or
// the block is flagged.
func CheckVarBlocks(source string) []Misalignment {
	lines := strings.Split(source, "\n")

	var issues []Misalignment
	var block []typesys.Variable
	var blockLines []string
	blockStart := 0
	blockIndent := ""

	flush := func() {
		if len(block) < 2 {
			block = nil
			blockLines = nil
			return
		}
		want := typesys.VarLayout(block)
		got := strings.Join(blockLines, "\n") + "\n"
		if want != got {
			issues = append(issues, Misalignment{Line: blockStart + 1, Want: want, Got: got})
		}
		block = nil
		blockLines = nil
	}

	for i, line := range lines {
		typeSpelling, name, ok := looksLikeDecl(line)
		if !ok {
			flush()
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, "\t "))]
		if len(block) > 0 && indent != blockIndent {
			flush()
		}
		if len(block) == 0 {
			blockStart = i
			blockIndent = indent
		}
		block = append(block, typesys.Variable{TypeSpelling: typeSpelling, Name: name})
		blockLines = append(blockLines, strings.TrimPrefix(line, indent))
	}
	flush()

	return issues
}
