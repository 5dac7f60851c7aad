// Package typesys holds the type-spelling algebra and the descriptor
// types (Variable, Function, Struct) that the walker and emitters use to
// accumulate declarations before rendering them as C source text.
//
// Pointer level and const/static/extern qualification are tracked
// textually, in the type spelling string itself, because the code this
// package ultimately produces is textual C — there is no parsed C type
// to manipulate structurally.
package typesys

import "strings"

// Variable describes one C variable: its type spelling, its name, and
// whether it is an array variable (rendered with a trailing "[]").
type Variable struct {
	TypeSpelling string
	Name         string
	Array        bool
}

// String renders the variable as a declaration fragment: "type name" (or
// "type*name" when the type already ends in a pointer, mirroring
// nih-dbus-tool's type_var_to_string), with a trailing "[]" if Array.
func (v Variable) String() string {
	var s string
	if strings.HasSuffix(v.TypeSpelling, "*") {
		s = v.TypeSpelling + v.Name
	} else {
		s = v.TypeSpelling + " " + v.Name
	}
	if v.Array {
		s += "[]"
	}
	return s
}

// widthOf returns the column width a type spelling occupies in an
// aligned declaration block: its length, plus one for the separating
// space if it isn't already a pointer type (pointers sit flush against
// the following name).
func widthOf(typeSpelling string) int {
	n := len(typeSpelling)
	if !strings.Contains(typeSpelling, "*") {
		n++
	}
	return n
}

// Function describes one C function: return type, name, ordered
// arguments, and any attributes (e.g. "deprecated", "warn_unused_result")
// to render as a trailing __attribute__ group.
type Function struct {
	ReturnType string
	Name       string
	Args       []Variable
	Attribs    []string
}

// Struct describes a C struct type introduced to hold one level of a
// D-Bus STRUCT or DICT_ENTRY signature. Members are named positionally
// (item0, item1, …) by the walker; Struct never invents names.
type Struct struct {
	Name    string
	Members []Variable
}

// ToPointer adds one level of pointer indirection to a type spelling.
// A leading "const T *" becomes "T * const *" (the first-level
// constness moves outward to the new first level); "T * const *"
// becomes "T ** const *"; any other pointer gets a bare "*" appended;
// a non-pointer type gets " *" appended.
func ToPointer(t string) string {
	switch {
	case strings.Count(t, "*") == 1 && strings.HasPrefix(t, "const "):
		// single-level const pointer: constness moves to the new
		// first level, e.g. "const T *" -> "T * const *".
		return strings.TrimPrefix(t, "const ") + " const *"
	case strings.HasSuffix(t, " const *"):
		// nth-level const pointer: insert a pointer before the const
		// part, e.g. "T * const *" -> "T ** const *".
		return strings.TrimSuffix(t, " const *") + "* const *"
	case strings.HasSuffix(t, "*"):
		return t + "*"
	default:
		return t + " *"
	}
}

// ToConst adds a const qualifier at the first pointer level of t.
// "T *" becomes "const T *"; "T **" becomes "T * const *"; the
// operation is idempotent if const is already present at that position.
func ToConst(t string) string {
	if !strings.Contains(t, "*") {
		return t
	}
	lastStar := strings.LastIndex(t, "*")
	if strings.Count(t[:lastStar+1], "*") == 1 {
		// sole pointer operator: prepend const, unless already const.
		if strings.HasPrefix(t, "const ") {
			return t
		}
		return "const " + t
	}
	if strings.HasSuffix(t, " const *") {
		return t
	}
	return t[:lastStar] + " const *" + t[lastStar+1:]
}

// ToStatic idempotently prepends "static " to t.
func ToStatic(t string) string {
	if strings.HasPrefix(t, "static ") {
		return t
	}
	return "static " + t
}

// ToExtern idempotently prepends "extern " to t.
func ToExtern(t string) string {
	if strings.HasPrefix(t, "extern ") {
		return t
	}
	return "extern " + t
}

// VarLayout aligns a declaration block: one "type name[;]\n" line per
// variable, with names lined up to the widest type spelling in vars.
func VarLayout(vars []Variable) string {
	max := 0
	for _, v := range vars {
		if w := widthOf(v.TypeSpelling); w > max {
			max = w
		}
	}

	var b strings.Builder
	for _, v := range vars {
		pad := max - len(v.TypeSpelling)
		b.WriteString(v.TypeSpelling)
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(v.Name)
		if v.Array {
			b.WriteString("[]")
		}
		b.WriteString(";\n")
	}
	return b.String()
}

// FuncLayout aligns a block of function declarations: one per line, with
// return types lined up to the widest return type and names lined up to
// the widest name; a function's attributes, if any, render indented on
// the following line as a single __attribute__ group.
func FuncLayout(funcs []Function) string {
	typeMax, nameMax := 0, 0
	for _, f := range funcs {
		if w := widthOf(f.ReturnType); w > typeMax {
			typeMax = w
		}
		if len(f.Name) > nameMax {
			nameMax = len(f.Name)
		}
	}

	var b strings.Builder
	for _, f := range funcs {
		b.WriteString(f.ReturnType)
		b.WriteString(strings.Repeat(" ", typeMax-len(f.ReturnType)))
		b.WriteString(f.Name)
		b.WriteString(strings.Repeat(" ", nameMax-len(f.Name)+1))
		b.WriteString("(")

		if len(f.Args) == 0 {
			b.WriteString("void")
		}
		for i, arg := range f.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.String())
		}

		if len(f.Attribs) == 0 {
			b.WriteString(");\n")
			continue
		}

		b.WriteString(")\n\t__attribute__ ((")
		b.WriteString(strings.Join(f.Attribs, ", "))
		b.WriteString("));\n")
	}
	return b.String()
}

// FuncDeclaration renders a single function's declaration header: return
// type on one line, name and parenthesised arguments on the next — the
// form used for a function definition, as opposed to the aligned
// multi-function block FuncLayout produces.
func FuncDeclaration(f Function) string {
	var b strings.Builder
	b.WriteString(f.ReturnType)
	b.WriteString("\n")
	b.WriteString(f.Name)
	b.WriteString(" (")

	if len(f.Args) == 0 {
		b.WriteString("void")
	}
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(",\n")
			b.WriteString(strings.Repeat(" ", len(f.Name)+2))
		}
		b.WriteString(arg.String())
	}
	b.WriteString(")\n")
	return b.String()
}

// FuncTypedef renders f as a typedef declaration: "type name (args);\n".
func FuncTypedef(f Function) string {
	var b strings.Builder
	b.WriteString(f.ReturnType)
	b.WriteString(" ")
	b.WriteString(f.Name)
	b.WriteString(" (")

	if len(f.Args) == 0 {
		b.WriteString("void")
	}
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteString(");\n")
	return b.String()
}

// StructDefinition renders s as a C struct definition with an attached
// typedef, indenting the member block by one tab.
func StructDefinition(s Struct) string {
	block := VarLayout(s.Members)
	var indented strings.Builder
	for _, line := range strings.SplitAfter(block, "\n") {
		if line == "" {
			continue
		}
		indented.WriteString("\t")
		indented.WriteString(line)
	}

	var b strings.Builder
	b.WriteString("typedef struct ")
	b.WriteString(s.Name)
	b.WriteString(" {\n")
	b.WriteString(indented.String())
	b.WriteString("} ")
	b.WriteString(s.Name)
	b.WriteString(";\n")
	return b.String()
}

// StrcatAssert returns the assertion statement to guard a pointer
// parameter, or "" if var isn't a pointer type. When next is the
// size_t length output that follows var (the fixed-element array case),
// the assertion allows var to be NULL when the length is zero. When var
// itself looks like a size_t output and prev is the pointer it counts
// (the pointer-element array case), the assertion allows var to be NULL
// when the array itself is NULL. Otherwise a plain non-NULL assertion is
// emitted.
func StrcatAssert(v Variable, prev, next *Variable) string {
	if !strings.Contains(v.TypeSpelling, "*") {
		return ""
	}

	if next != nil && next.TypeSpelling == "size_t" {
		return "assert((" + next.Name + " == 0) || (" + v.Name + " != NULL));\n"
	}
	if prev != nil && strings.Contains(v.TypeSpelling, "size_t") {
		return "assert((*" + prev.Name + " == NULL) || (" + v.Name + " != NULL));\n"
	}
	return "assert(" + v.Name + " != NULL);\n"
}
