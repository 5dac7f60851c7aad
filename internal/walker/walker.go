// Package walker is the signature walker: the recursive engine that
// turns one D-Bus type signature element into the C code that
// marshals a native variable onto a message, or demarshals a message
// argument into a native variable, plus the variable declarations and
// struct definitions that code requires.
//
// Every generated block detects out-of-memory and (for demarshalling)
// type-mismatch conditions but does not know how to handle them: the
// caller supplies the handling code as plain C source text, which the
// walker splices in wherever the condition is detected, propagating
// ownership-cleanup responsibility down through every recursive call
// so that a failure partway through an array or struct frees what was
// allocated before it.
package walker

import (
	"fmt"
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/render"
	"github.com/keybuk/go-dbus-tool/internal/signature"
	"github.com/keybuk/go-dbus-tool/internal/typesys"
)

// Direction selects which half of the wire protocol to generate code
// for.
type Direction int

const (
	Marshal Direction = iota
	Demarshal
)

// Naming carries the structure-naming context threaded through
// recursive walks. It is only consulted when a STRUCT or DICT_ENTRY
// element requires a generated C struct definition, whose type name is
// built from these four components by symbol.Typedef.
type Naming struct {
	Prefix          string
	InterfaceSymbol string
	MemberSymbol    string
	Symbol          string
}

// Env is the per-call context a Walk needs. ParentName and
// TypeErrorCode are meaningful only when Direction is Demarshal: a
// marshal never allocates (so has no allocation parent) and never
// rejects a wrongly-typed input (the compiler already enforced that),
// so it detects no type error.
type Env struct {
	ParentName    string
	IterName      string
	Name          string
	OOMErrorCode  string
	TypeErrorCode string
	Naming        Naming
}

// Result accumulates what one walk produced: the generated code block,
// the variables the immediate caller of Walk must declare as either
// inputs (Marshal) or outputs (Demarshal), any further local variables
// the block itself needs declared alongside it, and any struct
// definitions the walk introduced along the way.
type Result struct {
	Code    string
	Vars    []typesys.Variable
	Locals  []typesys.Variable
	Structs []typesys.Struct
}

// Walk generates code for the D-Bus type currently under iter,
// recursing into arrays and structs as needed.
func Walk(dir Direction, iter signature.Iterator, env Env) (Result, error) {
	code := iter.CurrentType()
	switch {
	case signature.IsBasic(code):
		return walkBasic(dir, code, env)
	case code == signature.TypeArray:
		return walkArray(dir, iter, env)
	case code == signature.TypeStruct || code == signature.TypeDictEntry:
		return walkStruct(dir, code, iter, env)
	default:
		return Result{}, fmt.Errorf("walker: type code %v has no marshalling strategy", code)
	}
}

func walkBasic(dir Direction, code signature.TypeCode, env Env) (Result, error) {
	switch dir {
	case Marshal:
		return marshalBasic(code, env)
	case Demarshal:
		return demarshalBasic(code, env)
	default:
		return Result{}, fmt.Errorf("walker: unknown direction %d", dir)
	}
}

func marshalBasic(code signature.TypeCode, env Env) (Result, error) {
	cType, err := typesys.BasicType(code)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "/* Marshal a %s onto the message */\n", cType)
	fmt.Fprintf(&b, "if (! dbus_message_iter_append_basic (&%s, %s, &%s)) {\n", env.IterName, code, env.Name)
	b.WriteString(render.Indent(env.OOMErrorCode, 1))
	b.WriteString("}\n")

	return Result{
		Code: b.String(),
		Vars: []typesys.Variable{{TypeSpelling: cType, Name: env.Name}},
	}, nil
}

func demarshalBasic(code signature.TypeCode, env Env) (Result, error) {
	cType, err := typesys.BasicType(code)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "/* Demarshal a %s from the message */\n", cType)
	fmt.Fprintf(&b, "if (dbus_message_iter_get_arg_type (&%s) != %s) {\n", env.IterName, code)
	b.WriteString(render.Indent(env.TypeErrorCode, 1))
	b.WriteString("}\n\n")

	var locals []typesys.Variable

	if signature.IsBasicFixed(code) {
		fmt.Fprintf(&b, "dbus_message_iter_get_basic (&%s, &%s);\n\n", env.IterName, env.Name)
	} else {
		localName := env.Name + "_dbus"
		localType := typesys.ToConst(cType)

		fmt.Fprintf(&b, "dbus_message_iter_get_basic (&%s, &%s);\n\n", env.IterName, localName)
		fmt.Fprintf(&b, "%s = nih_strdup (%s, %s);\n", env.Name, env.ParentName, localName)
		fmt.Fprintf(&b, "if (! %s) {\n", env.Name)
		b.WriteString(render.Indent(env.OOMErrorCode, 1))
		b.WriteString("}\n\n")

		locals = append(locals, typesys.Variable{TypeSpelling: localType, Name: localName})
	}

	fmt.Fprintf(&b, "dbus_message_iter_next (&%s);\n", env.IterName)

	return Result{
		Code:   b.String(),
		Vars:   []typesys.Variable{{TypeSpelling: cType, Name: env.Name}},
		Locals: locals,
	}, nil
}
