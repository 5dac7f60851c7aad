// Package render holds text-assembly helpers shared by the walker,
// emitters, and node assembler: indentation of generated code blocks
// and the final per-file header/include assembly. There is no parsed
// representation of the C text the rest of the core builds up — it is
// manipulated as strings throughout, the same way nih-dbus-tool's
// indent.c operates on NihList string blocks.
package render

import "strings"

// Indent prepends one tab per level to every non-empty line of block,
// mirroring nih-dbus-tool's indent(). A trailing newline in block is
// preserved without growing an extra empty indented line.
func Indent(block string, levels int) string {
	if levels <= 0 || block == "" {
		return block
	}
	prefix := strings.Repeat("\t", levels)

	lines := strings.SplitAfter(block, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		if line != "\n" {
			b.WriteString(prefix)
		}
		b.WriteString(line)
	}
	return b.String()
}
