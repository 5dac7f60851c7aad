package emit

import (
	"fmt"
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/ast"
	"github.com/keybuk/go-dbus-tool/internal/render"
	"github.com/keybuk/go-dbus-tool/internal/signature"
	"github.com/keybuk/go-dbus-tool/internal/symbol"
	"github.com/keybuk/go-dbus-tool/internal/typesys"
	"github.com/keybuk/go-dbus-tool/internal/walker"
)

// EmitInterfaceGetAll builds the object-side dispatch function for
// org.freedesktop.DBus.Properties.GetAll on one interface: it opens an
// a{sv} dictionary on the reply and, for every readable property,
// appends one dict entry by calling that property's own object-get
// function (the one EmitPropertyObjectGetFunction produces).
func EmitInterfaceGetAll(prefix string, iface ast.Interface) (Result, error) {
	fnName := symbol.Impl(prefix, iface.Name, "", "get_all")

	fn := typesys.Function{
		ReturnType: "DBusHandlerResult",
		Name:       fnName,
		Args: []typesys.Variable{
			{TypeSpelling: "NihDBusObject *", Name: "object"},
			{TypeSpelling: "NihDBusMessage *", Name: "message"},
		},
	}

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "DBusMessage *", Name: "reply"},
		{TypeSpelling: "DBusMessageIter", Name: "dict_iter"},
		{TypeSpelling: "DBusMessageIter", Name: "entry_iter"},
	}

	var entries strings.Builder
	for _, p := range iface.Properties {
		if !p.Access.Readable() {
			continue
		}
		getterName := symbol.Impl(prefix, iface.Name, p.Symbol, "get")
		fmt.Fprintf(&entries,
			"if (! dbus_message_iter_open_container (&dict_iter, DBUS_TYPE_DICT_ENTRY, NULL, &entry_iter)) {\n"+
				"\tdbus_message_unref (reply);\n\treply = NULL;\n\tgoto enomem;\n}\n\n"+
				"if (! dbus_message_iter_append_basic (&entry_iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
				"\tdbus_message_unref (reply);\n\treply = NULL;\n\tgoto enomem;\n}\n\n"+
				"if (%s (object, message, &entry_iter) < 0) {\n"+
				"\tdbus_message_unref (reply);\n\treply = NULL;\n\tgoto enomem;\n}\n\n"+
				"if (! dbus_message_iter_close_container (&dict_iter, &entry_iter)) {\n"+
				"\tdbus_message_unref (reply);\n\treply = NULL;\n\tgoto enomem;\n}\n\n",
			p.Name, getterName)
	}

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (object != NULL);\nnih_assert (message != NULL);\n\n")
	body.WriteString("do {\n\t__label__ enomem;\n\n" +
		"\treply = dbus_message_new_method_return (message->message);\n" +
		"\tif (! reply)\n\t\tgoto enomem;\n\n" +
		"\tdbus_message_iter_init_append (reply, &iter);\n\n" +
		"\tif (! dbus_message_iter_open_container (&iter, DBUS_TYPE_ARRAY, \"{sv}\", &dict_iter)) {\n" +
		"\t\tdbus_message_unref (reply);\n\t\treply = NULL;\n\t\tgoto enomem;\n\t}\n\n")
	body.WriteString(render.Indent(entries.String(), 1))
	body.WriteString("\tif (! dbus_message_iter_close_container (&iter, &dict_iter)) {\n" +
		"\t\tdbus_message_unref (reply);\n\t\treply = NULL;\n\t\tgoto enomem;\n\t}\n\n" +
		"enomem: __attribute__ ((unused));\n} while (! reply);\n\n" +
		"NIH_MUST (dbus_connection_send (message->connection, reply, NULL));\n\n" +
		"dbus_message_unref (reply);\n\nreturn DBUS_HANDLER_RESULT_HANDLED;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code}, nil
}

// EmitInterfaceProxyGetAllSyncFunction builds the client-side blocking
// wrapper around org.freedesktop.DBus.Properties.GetAll: it sends the
// GetAll call, walks the a{sv} dict reply dispatching each entry's key
// against every readable property, and returns one freshly allocated
// struct with one member per readable property.
func EmitInterfaceProxyGetAllSyncFunction(prefix string, iface ast.Interface) (Result, error) {
	fnName := symbol.Extern(prefix, iface.Symbol, "", "get_all", "sync")
	structName := symbol.Typedef(prefix, iface.Symbol, "", "", "Properties")

	fn := typesys.Function{
		ReturnType: structName + " *",
		Name:       fnName,
		Attribs:    []string{"warn_unused_result"},
		Args: []typesys.Variable{
			{TypeSpelling: "const void *", Name: "parent"},
			{TypeSpelling: "NihDBusProxy *", Name: "proxy"},
		},
	}

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessage *", Name: "method_call"},
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "DBusMessageIter", Name: "dict_iter"},
		{TypeSpelling: "DBusMessage *", Name: "reply"},
		{TypeSpelling: "DBusError", Name: "error"},
		{TypeSpelling: structName + " *", Name: "properties"},
	}

	var members []typesys.Variable
	var structs []typesys.Struct
	var cases strings.Builder

	for _, p := range iface.Properties {
		if !p.Access.Readable() {
			continue
		}

		sigIter, err := signature.Parse(p.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: p.Symbol, Symbol: "value"}

		typeErrorCode := "nih_free (properties);\ndbus_message_unref (reply);\n" +
			"nih_return_error (NULL, NIH_DBUS_INVALID_ARGS, _(NIH_DBUS_INVALID_ARGS_STR));\n"

		res, err := walker.Walk(walker.Demarshal, sigIter, walker.Env{
			ParentName:    "properties",
			IterName:      "variter",
			Name:          "value",
			OOMErrorCode:  "nih_free (properties);\ndbus_message_unref (reply);\nnih_return_no_memory_error (NULL);\n",
			TypeErrorCode: typeErrorCode,
			Naming:        naming,
		})
		if err != nil {
			return Result{}, err
		}
		structs = append(structs, res.Structs...)

		members = append(members, typesys.Variable{TypeSpelling: res.Vars[0].TypeSpelling, Name: p.Symbol})

		blockLocals := []typesys.Variable{{TypeSpelling: "DBusMessageIter", Name: "variter"}}
		blockLocals = append(blockLocals, res.Vars...)
		blockLocals = append(blockLocals, res.Locals...)

		var block strings.Builder
		block.WriteString(typesys.VarLayout(blockLocals))
		fmt.Fprintf(&block, "\nif (dbus_message_iter_get_arg_type (&entry_iter) != DBUS_TYPE_VARIANT) {\n%s}\n\n"+
			"dbus_message_iter_recurse (&entry_iter, &variter);\n\n", render.Indent(typeErrorCode, 1))
		block.WriteString(res.Code)
		fmt.Fprintf(&block, "\nproperties->%s = value;\n", p.Symbol)

		fmt.Fprintf(&cases, "if (! strcmp (property_name, \"%s\")) {\n%s} else ", p.Name, render.Indent(block.String(), 1))
	}
	cases.WriteString("{\n\t/* Unknown property, ignore it. */\n}\n")

	structs = append(structs, typesys.Struct{Name: structName, Members: members})

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (proxy != NULL);\n\n")
	body.WriteString("method_call = dbus_message_new_method_call (proxy->name, proxy->path,\n" +
		"                                             DBUS_INTERFACE_PROPERTIES,\n" +
		"                                             \"GetAll\");\n" +
		"if (! method_call)\n\tnih_return_no_memory_error (NULL);\n\n" +
		"dbus_message_iter_init_append (method_call, &iter);\n\n")
	fmt.Fprintf(&body, "if (! dbus_message_iter_append_basic (&iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
		"\tdbus_message_unref (method_call);\n\tnih_return_no_memory_error (NULL);\n}\n\n", iface.Name)

	body.WriteString("dbus_error_init (&error);\n\n" +
		"reply = dbus_connection_send_with_reply_and_block (proxy->connection, method_call,\n" +
		"                                                    NIH_DBUS_TIMEOUT, &error);\n" +
		"dbus_message_unref (method_call);\n\n" +
		"if (! reply) {\n\tnih_dbus_error_raise (error.name, error.message);\n\tdbus_error_free (&error);\n\treturn NULL;\n}\n\n")

	fmt.Fprintf(&body, "properties = nih_new (parent, %s);\n"+
		"if (! properties) {\n\tdbus_message_unref (reply);\n\tnih_return_no_memory_error (NULL);\n}\n\n", structName)

	body.WriteString("dbus_message_iter_init (reply, &iter);\n")
	body.WriteString("if (dbus_message_iter_get_arg_type (&iter) != DBUS_TYPE_ARRAY) {\n" +
		"\tnih_free (properties);\n\tdbus_message_unref (reply);\n" +
		"\tnih_return_error (NULL, NIH_DBUS_INVALID_ARGS, _(NIH_DBUS_INVALID_ARGS_STR));\n}\n\n")

	body.WriteString("dbus_message_iter_recurse (&iter, &dict_iter);\n\n")
	body.WriteString("while (dbus_message_iter_get_arg_type (&dict_iter) == DBUS_TYPE_DICT_ENTRY) {\n")

	var loopBody strings.Builder
	loopBody.WriteString("DBusMessageIter entry_iter;\nconst char *property_name;\n\n")
	loopBody.WriteString("dbus_message_iter_recurse (&dict_iter, &entry_iter);\n\n")
	loopBody.WriteString("if (dbus_message_iter_get_arg_type (&entry_iter) != DBUS_TYPE_STRING) {\n" +
		"\tnih_free (properties);\n\tdbus_message_unref (reply);\n" +
		"\tnih_return_error (NULL, NIH_DBUS_INVALID_ARGS, _(NIH_DBUS_INVALID_ARGS_STR));\n}\n\n")
	loopBody.WriteString("dbus_message_iter_get_basic (&entry_iter, &property_name);\n" +
		"dbus_message_iter_next (&entry_iter);\n\n")
	loopBody.WriteString(cases.String())
	loopBody.WriteString("\ndbus_message_iter_next (&dict_iter);\n")

	body.WriteString(render.Indent(loopBody.String(), 1))
	body.WriteString("}\n\n")

	body.WriteString("dbus_message_unref (reply);\n\nreturn properties;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: structs}, nil
}
