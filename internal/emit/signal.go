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

// EmitSignalFunction builds the server-side broadcast function: it
// builds a new DBUS_MESSAGE_TYPE_SIGNAL message addressed to the
// object's path and interface, marshals the signal's arguments onto it,
// and sends it to every connection subscribed to the owning object.
func EmitSignalFunction(prefix string, iface ast.Interface, s ast.Signal) (Result, error) {
	fnName := symbol.Extern(prefix, iface.Symbol, "", s.Symbol, "")

	fn := typesys.Function{
		ReturnType: "int",
		Name:       fnName,
		Attribs:    []string{"warn_unused_result"},
		Args: []typesys.Variable{
			{TypeSpelling: "DBusConnection *", Name: "connection"},
			{TypeSpelling: "const char *", Name: "origin_path"},
		},
	}

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessage *", Name: "signal"},
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
	}

	var marshal strings.Builder
	var structs []typesys.Struct

	for _, arg := range s.Arguments {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: s.Symbol, Symbol: arg.Symbol}

		res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
			IterName:     "iter",
			Name:         arg.Symbol,
			OOMErrorCode: "dbus_message_unref (signal);\nnih_return_no_memory_error (-1);\n",
			Naming:       naming,
		})
		if err != nil {
			return Result{}, err
		}
		marshal.WriteString(res.Code)
		marshal.WriteString("\n")
		structs = append(structs, res.Structs...)

		for _, v := range res.Vars {
			argVar := v
			argVar.TypeSpelling = typesys.ToConst(v.TypeSpelling)
			fn.Args = append(fn.Args, argVar)
		}
		locals = append(locals, res.Locals...)
	}

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (connection != NULL);\nnih_assert (origin_path != NULL);\n\n")
	fmt.Fprintf(&body, "signal = dbus_message_new_signal (origin_path, \"%s\", \"%s\");\n"+
		"if (! signal)\n\tnih_return_no_memory_error (-1);\n\n", iface.Name, s.Name)

	if len(s.Arguments) > 0 {
		body.WriteString("dbus_message_iter_init_append (signal, &iter);\n\n")
		body.WriteString(marshal.String())
	}

	body.WriteString("if (! dbus_connection_send (connection, signal, NULL)) {\n" +
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n" +
		"dbus_message_unref (signal);\n\nreturn 0;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: structs}, nil
}

// EmitSignalFilterFunction builds the client-side DBusHandleMessageFunction
// registered against a proxy's connection: it rejects any message that
// isn't this exact signal from the proxy's path, demarshals the
// arguments, and invokes the caller-supplied handler.
func EmitSignalFilterFunction(prefix string, iface ast.Interface, s ast.Signal) (Result, error) {
	fnName := symbol.Extern(prefix, iface.Symbol, "", s.Symbol, "signal")

	fn := typesys.Function{
		ReturnType: "DBusHandlerResult",
		Name:       fnName,
		Args: []typesys.Variable{
			{TypeSpelling: "DBusConnection *", Name: "connection"},
			{TypeSpelling: "DBusMessage *", Name: "signal"},
			{TypeSpelling: "NihDBusProxySignal *", Name: "proxy_signal"},
		},
	}

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "NihDBusMessage *", Name: "message"},
		{TypeSpelling: fnName + "Handler", Name: "handler"},
	}

	var demarshal strings.Builder
	var structs []typesys.Struct
	var call strings.Builder
	call.WriteString("handler (proxy_signal->data, message")

	for _, arg := range s.Arguments {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: s.Symbol, Symbol: arg.Symbol}

		res, err := walker.Walk(walker.Demarshal, sigIter, walker.Env{
			ParentName:    "message",
			IterName:      "iter",
			Name:          arg.Symbol,
			OOMErrorCode:  "nih_free (message);\nreturn DBUS_HANDLER_RESULT_NEED_MEMORY;\n",
			TypeErrorCode: "nih_free (message);\nreturn DBUS_HANDLER_RESULT_HANDLED;\n",
			Naming:        naming,
		})
		if err != nil {
			return Result{}, err
		}
		demarshal.WriteString(res.Code)
		demarshal.WriteString("\n")
		structs = append(structs, res.Structs...)

		for _, v := range res.Vars {
			fmt.Fprintf(&call, ", %s", v.Name)
			locals = append(locals, v)
		}
		locals = append(locals, res.Locals...)
	}
	call.WriteString(");\n")

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (connection != NULL);\nnih_assert (signal != NULL);\nnih_assert (proxy_signal != NULL);\n\n")
	fmt.Fprintf(&body, "if (! dbus_message_is_signal (signal, \"%s\", \"%s\"))\n\treturn DBUS_HANDLER_RESULT_NOT_YET_HANDLED;\n\n"+
		"if (strcmp (dbus_message_get_path (signal), proxy_signal->proxy->path))\n\treturn DBUS_HANDLER_RESULT_NOT_YET_HANDLED;\n\n", iface.Name, s.Name)

	body.WriteString("message = nih_dbus_message_new (proxy_signal, connection, signal);\n" +
		"if (! message)\n\treturn DBUS_HANDLER_RESULT_NEED_MEMORY;\n\n")
	body.WriteString("handler = (" + fnName + "Handler)proxy_signal->handler;\n\n")
	body.WriteString("dbus_message_iter_init (signal, &iter);\n\n")
	body.WriteString(demarshal.String())

	fmt.Fprintf(&body, "if (dbus_message_iter_get_arg_type (&iter) != DBUS_TYPE_INVALID) {\n"+
		"\tnih_free (message);\n\treturn DBUS_HANDLER_RESULT_HANDLED;\n}\n\n")
	body.WriteString(call.String())
	body.WriteString("\nnih_free (message);\n\nreturn DBUS_HANDLER_RESULT_HANDLED;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: structs}, nil
}
