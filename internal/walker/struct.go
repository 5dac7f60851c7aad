package walker

import (
	"fmt"
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/render"
	"github.com/keybuk/go-dbus-tool/internal/signature"
	"github.com/keybuk/go-dbus-tool/internal/symbol"
	"github.com/keybuk/go-dbus-tool/internal/typesys"
)

func walkStruct(dir Direction, code signature.TypeCode, iter signature.Iterator, env Env) (Result, error) {
	switch dir {
	case Marshal:
		return marshalStruct(code, iter, env)
	case Demarshal:
		return demarshalStruct(code, iter, env)
	default:
		return Result{}, fmt.Errorf("walker: unknown direction %d", dir)
	}
}

func itemSymbolFor(parentSymbol, itemMember string) string {
	if parentSymbol == "" {
		return itemMember
	}
	return parentSymbol + "_" + itemMember
}

func marshalStruct(code signature.TypeCode, iter signature.Iterator, env Env) (Result, error) {
	name := env.Name
	structIterName := name + "_iter"

	oomBlock := render.Indent(env.OOMErrorCode, 1)
	childOOMCode := fmt.Sprintf("dbus_message_iter_abandon_container (&%s, &%s);\n%s", env.IterName, structIterName, env.OOMErrorCode)

	sub := iter.Recurse()

	var b strings.Builder
	fmt.Fprintf(&b, "/* Marshal a structure onto the message */\n"+
		"if (! dbus_message_iter_open_container (&%s, %s, NULL, &%s)) {\n%s}\n\n",
		env.IterName, code, structIterName, oomBlock)

	locals := []typesys.Variable{{TypeSpelling: "DBusMessageIter", Name: structIterName}}

	cType := symbol.Typedef(env.Naming.Prefix, env.Naming.InterfaceSymbol, "", env.Naming.MemberSymbol, env.Naming.Symbol)
	structure := typesys.Struct{Name: cType}
	cTypePtr := typesys.ToPointer(cType)

	var nestedStructs []typesys.Struct
	count := 0

	for {
		itemMember := fmt.Sprintf("item%d", count)
		itemName := name + "_" + itemMember
		itemSymbol := itemSymbolFor(env.Naming.Symbol, itemMember)

		itemNaming := env.Naming
		itemNaming.Symbol = itemSymbol

		itemResult, err := Walk(Marshal, sub, Env{
			IterName:     structIterName,
			Name:         itemName,
			OOMErrorCode: childOOMCode,
			Naming:       itemNaming,
		})
		if err != nil {
			return Result{}, err
		}

		for _, lv := range itemResult.Locals {
			locals = append(locals, lv)
		}

		for _, inputVar := range itemResult.Vars {
			suffix := strings.TrimPrefix(inputVar.Name, itemName)
			memberName := itemMember + suffix

			structure.Members = append(structure.Members, typesys.Variable{TypeSpelling: inputVar.TypeSpelling, Name: memberName})

			fmt.Fprintf(&b, "%s = %s->%s;\n", inputVar.Name, name, memberName)

			constType := typesys.ToConst(inputVar.TypeSpelling)
			locals = append(locals, typesys.Variable{TypeSpelling: constType, Name: inputVar.Name})
		}

		nestedStructs = append(nestedStructs, itemResult.Structs...)

		fmt.Fprintf(&b, "\n%s\n", itemResult.Code)

		count++
		if !sub.Next() {
			break
		}
	}

	fmt.Fprintf(&b, "if (! dbus_message_iter_close_container (&%s, &%s)) {\n%s}\n",
		env.IterName, structIterName, oomBlock)

	structs := append([]typesys.Struct{structure}, nestedStructs...)

	return Result{
		Code:    b.String(),
		Vars:    []typesys.Variable{{TypeSpelling: cTypePtr, Name: name}},
		Locals:  locals,
		Structs: structs,
	}, nil
}

func demarshalStruct(code signature.TypeCode, iter signature.Iterator, env Env) (Result, error) {
	name := env.Name
	structIterName := name + "_iter"

	oomBlock := render.Indent(env.OOMErrorCode, 1)
	childOOMCode := fmt.Sprintf("nih_free (%s);\n%s", name, env.OOMErrorCode)

	typeErrorBlock := render.Indent(env.TypeErrorCode, 1)
	childTypeErrorCode := fmt.Sprintf("nih_free (%s);\n%s", name, env.TypeErrorCode)
	childTypeErrorBlock := render.Indent(childTypeErrorCode, 1)

	sub := iter.Recurse()

	var b strings.Builder
	fmt.Fprintf(&b, "/* Demarshal a structure from the message */\n"+
		"if (dbus_message_iter_get_arg_type (&%s) != %s) {\n%s}\n\n"+
		"dbus_message_iter_recurse (&%s, &%s);\n\n",
		env.IterName, code, typeErrorBlock, env.IterName, structIterName)

	locals := []typesys.Variable{{TypeSpelling: "DBusMessageIter", Name: structIterName}}

	allocType := symbol.Typedef(env.Naming.Prefix, env.Naming.InterfaceSymbol, "", env.Naming.MemberSymbol, env.Naming.Symbol)
	cType := allocType
	structure := typesys.Struct{Name: cType}
	cTypePtr := typesys.ToPointer(cType)

	fmt.Fprintf(&b, "%s = nih_new (%s, %s);\n"+
		"if (! %s) {\n%s}\n\n",
		name, env.ParentName, allocType,
		name, oomBlock)

	var nestedStructs []typesys.Struct
	count := 0

	for {
		itemMember := fmt.Sprintf("item%d", count)
		itemName := name + "_" + itemMember
		itemSymbol := itemSymbolFor(env.Naming.Symbol, itemMember)

		itemNaming := env.Naming
		itemNaming.Symbol = itemSymbol

		itemResult, err := Walk(Demarshal, sub, Env{
			ParentName:    name,
			IterName:      structIterName,
			Name:          itemName,
			OOMErrorCode:  childOOMCode,
			TypeErrorCode: childTypeErrorCode,
			Naming:        itemNaming,
		})
		if err != nil {
			return Result{}, err
		}

		for _, lv := range itemResult.Locals {
			locals = append(locals, lv)
		}

		fmt.Fprintf(&b, "%s\n", itemResult.Code)

		for _, outputVar := range itemResult.Vars {
			suffix := strings.TrimPrefix(outputVar.Name, itemName)
			memberName := itemMember + suffix

			structure.Members = append(structure.Members, typesys.Variable{TypeSpelling: outputVar.TypeSpelling, Name: memberName})

			fmt.Fprintf(&b, "%s->%s = %s;\n", name, memberName, outputVar.Name)

			locals = append(locals, outputVar)
		}

		nestedStructs = append(nestedStructs, itemResult.Structs...)

		b.WriteString("\n")

		count++
		if !sub.Next() {
			break
		}
	}

	fmt.Fprintf(&b, "if (dbus_message_iter_get_arg_type (&%s) != DBUS_TYPE_INVALID) {\n%s}\n\n"+
		"dbus_message_iter_next (&%s);\n",
		structIterName, childTypeErrorBlock, env.IterName)

	structs := append([]typesys.Struct{structure}, nestedStructs...)

	return Result{
		Code:    b.String(),
		Vars:    []typesys.Variable{{TypeSpelling: cTypePtr, Name: name}},
		Locals:  locals,
		Structs: structs,
	}, nil
}
