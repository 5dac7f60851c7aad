package walker

import (
	"fmt"
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/render"
	"github.com/keybuk/go-dbus-tool/internal/signature"
	"github.com/keybuk/go-dbus-tool/internal/typesys"
)

func elementSymbolFor(symbol string) string {
	if symbol == "" {
		return "element"
	}
	return symbol + "_element"
}

func walkArray(dir Direction, iter signature.Iterator, env Env) (Result, error) {
	switch dir {
	case Marshal:
		return marshalArray(iter, env)
	case Demarshal:
		return demarshalArray(iter, env)
	default:
		return Result{}, fmt.Errorf("walker: unknown direction %d", dir)
	}
}

func marshalArray(iter signature.Iterator, env Env) (Result, error) {
	name := env.Name
	arrayIterName := name + "_iter"
	loopName := name + "_i"
	elementName := name + "_element"
	elementSymbol := elementSymbolFor(env.Naming.Symbol)
	lenName := name + "_len"

	oomBlock := render.Indent(env.OOMErrorCode, 1)
	childOOMCode := fmt.Sprintf("dbus_message_iter_abandon_container (&%s, &%s);\n%s", env.IterName, arrayIterName, env.OOMErrorCode)

	sub := iter.Recurse()
	elementType := sub.CurrentType()
	sig := sub.SignatureString()

	var b strings.Builder
	fmt.Fprintf(&b, "/* Marshal an array onto the message */\n"+
		"if (! dbus_message_iter_open_container (&%s, DBUS_TYPE_ARRAY, \"%s\", &%s)) {\n%s}\n\n",
		env.IterName, sig, arrayIterName, oomBlock)

	locals := []typesys.Variable{{TypeSpelling: "DBusMessageIter", Name: arrayIterName}}

	if signature.IsBasicFixed(elementType) {
		fmt.Fprintf(&b, "for (size_t %s = 0; %s < %s; %s++) {\n", loopName, loopName, lenName, loopName)
	} else {
		fmt.Fprintf(&b, "for (size_t %s = 0; %s[%s]; %s++) {\n", loopName, name, loopName, loopName)
	}

	elementNaming := env.Naming
	elementNaming.Symbol = elementSymbol

	elementResult, err := Walk(Marshal, sub, Env{
		IterName:     arrayIterName,
		Name:         elementName,
		OOMErrorCode: childOOMCode,
		Naming:       elementNaming,
	})
	if err != nil {
		return Result{}, err
	}

	var vars []typesys.Variable
	var block strings.Builder
	elementLocals := append([]typesys.Variable{}, elementResult.Locals...)

	for _, inputVar := range elementResult.Vars {
		varType := typesys.ToPointer(inputVar.TypeSpelling)
		suffix := strings.TrimPrefix(inputVar.Name, elementName)
		varName := name + suffix

		vars = append(vars, typesys.Variable{TypeSpelling: varType, Name: varName})

		fmt.Fprintf(&block, "%s = %s[%s];\n", inputVar.Name, varName, loopName)

		constType := typesys.ToConst(inputVar.TypeSpelling)
		elementLocals = append(elementLocals, typesys.Variable{TypeSpelling: constType, Name: inputVar.Name})
	}

	varsBlock := typesys.VarLayout(elementLocals)

	elementBlock := render.Indent(elementResult.Code, 1)
	blockStr := render.Indent(block.String(), 1)
	varsBlock = render.Indent(varsBlock, 1)

	b.WriteString(varsBlock)
	b.WriteString("\n")
	b.WriteString(blockStr)
	b.WriteString("\n")
	b.WriteString(elementBlock)

	fmt.Fprintf(&b, "}\n\nif (! dbus_message_iter_close_container (&%s, &%s)) {\n%s}\n",
		env.IterName, arrayIterName, oomBlock)

	if signature.IsBasicFixed(elementType) {
		vars = append(vars, typesys.Variable{TypeSpelling: "size_t", Name: lenName})
	}

	return Result{
		Code:    b.String(),
		Vars:    vars,
		Locals:  locals,
		Structs: elementResult.Structs,
	}, nil
}

func demarshalArray(iter signature.Iterator, env Env) (Result, error) {
	name := env.Name
	arrayIterName := name + "_iter"
	elementName := name + "_element"
	elementSymbol := elementSymbolFor(env.Naming.Symbol)

	sub := iter.Recurse()
	elementType := sub.CurrentType()
	fixed := signature.IsBasicFixed(elementType)

	var sizeName string
	if fixed {
		sizeName = name + "_len"
	} else {
		sizeName = name + "_size"
	}

	oomBlock := render.Indent(env.OOMErrorCode, 1)
	childOOMCode := fmt.Sprintf("if (%s)\n\tnih_free (%s);\n%s", name, name, env.OOMErrorCode)
	childOOMBlock := render.Indent(childOOMCode, 1)

	typeErrorBlock := render.Indent(env.TypeErrorCode, 1)
	childTypeErrorCode := fmt.Sprintf("if (%s)\n\tnih_free (%s);\n%s", name, name, env.TypeErrorCode)
	childTypeErrorBlock := render.Indent(childTypeErrorCode, 1)

	var b strings.Builder
	fmt.Fprintf(&b, "/* Demarshal an array from the message */\n"+
		"if (dbus_message_iter_get_arg_type (&%s) != DBUS_TYPE_ARRAY) {\n%s}\n\n"+
		"dbus_message_iter_recurse (&%s, &%s);\n\n",
		env.IterName, typeErrorBlock, env.IterName, arrayIterName)

	locals := []typesys.Variable{{TypeSpelling: "DBusMessageIter", Name: arrayIterName}}
	sizeVar := typesys.Variable{TypeSpelling: "size_t", Name: sizeName}
	if !fixed {
		locals = append(locals, sizeVar)
	}

	fmt.Fprintf(&b, "%s = 0;\n", sizeName)

	elementNaming := env.Naming
	elementNaming.Symbol = elementSymbol

	elementResult, err := Walk(Demarshal, sub, Env{
		ParentName:    name,
		IterName:      arrayIterName,
		Name:          elementName,
		OOMErrorCode:  childOOMCode,
		TypeErrorCode: childTypeErrorCode,
		Naming:        elementNaming,
	})
	if err != nil {
		return Result{}, err
	}

	var vars []typesys.Variable
	var allocBlock, block strings.Builder
	elementLocals := append([]typesys.Variable{}, elementResult.Locals...)

	for _, outputVar := range elementResult.Vars {
		varType := typesys.ToPointer(outputVar.TypeSpelling)
		suffix := strings.TrimPrefix(outputVar.Name, elementName)
		varName := name + suffix

		vars = append(vars, typesys.Variable{TypeSpelling: varType, Name: varName})

		tmpName := varName + "_tmp"
		elementLocals = append(elementLocals, typesys.Variable{TypeSpelling: varType, Name: tmpName})

		varParent := env.ParentName
		if suffix != "" {
			varParent = name
		}

		fmt.Fprintf(&b, "%s = NULL;\n", varName)

		if !strings.HasSuffix(outputVar.TypeSpelling, "*") {
			fmt.Fprintf(&block,
				"if (%s + 1 > SIZE_MAX / sizeof (%s)) {\n%s}\n\n"+
					"%s = nih_realloc (%s, %s, sizeof (%s) * (%s + 1));\n"+
					"if (! %s) {\n%s}\n\n"+
					"%s = %s;\n%s[%s] = %s;\n\n",
				sizeName, outputVar.TypeSpelling, childTypeErrorBlock,
				tmpName, varName, varParent, outputVar.TypeSpelling, sizeName,
				tmpName, childOOMBlock,
				varName, tmpName, varName, sizeName, outputVar.Name)
		} else {
			firstAllocOOM := childOOMBlock
			if suffix == "" {
				firstAllocOOM = oomBlock
			}
			fmt.Fprintf(&allocBlock,
				"%s = nih_alloc (%s, sizeof (%s));\n"+
					"if (! %s) {\n%s}\n\n"+
					"%s[%s] = NULL;\n\n",
				varName, varParent, outputVar.TypeSpelling,
				varName, firstAllocOOM,
				varName, sizeName)

			fmt.Fprintf(&block,
				"if (%s + 2 > SIZE_MAX / sizeof (%s)) {\n%s}\n\n"+
					"%s = nih_realloc (%s, %s, sizeof (%s) * (%s + 2));\n"+
					"if (! %s) {\n%s}\n\n"+
					"%s = %s;\n%s[%s] = %s;\n%s[%s + 1] = NULL;\n\n",
				sizeName, outputVar.TypeSpelling, childTypeErrorBlock,
				tmpName, varName, varParent, outputVar.TypeSpelling, sizeName,
				tmpName, childOOMBlock,
				varName, tmpName, varName, sizeName, outputVar.Name,
				varName, sizeName)
		}
	}

	b.WriteString("\n")
	b.WriteString(allocBlock.String())

	fmt.Fprintf(&block, "%s++;\n", sizeName)

	varsBlock := typesys.VarLayout(elementLocals)

	fmt.Fprintf(&b, "while (dbus_message_iter_get_arg_type (&%s) != DBUS_TYPE_INVALID) {\n", arrayIterName)
	b.WriteString(render.Indent(varsBlock, 1))
	b.WriteString("\n")
	b.WriteString(render.Indent(elementResult.Code, 1))
	b.WriteString("\n")
	b.WriteString(render.Indent(block.String(), 1))
	fmt.Fprintf(&b, "}\n\ndbus_message_iter_next (&%s);\n", env.IterName)

	if fixed {
		vars = append(vars, sizeVar)
	}

	return Result{
		Code:    b.String(),
		Vars:    vars,
		Locals:  locals,
		Structs: elementResult.Structs,
	}, nil
}
