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

func invalidArgsReply(methodName string) string {
	return fmt.Sprintf(
		"reply = dbus_message_new_error (message->message, DBUS_ERROR_INVALID_ARGS,\n"+
			"                                \"Invalid arguments to %s method\");\n"+
			"if (! reply)\n\treturn DBUS_HANDLER_RESULT_NEED_MEMORY;\n\n"+
			"if (! dbus_connection_send (message->connection, reply, NULL)) {\n"+
			"\tdbus_message_unref (reply);\n\treturn DBUS_HANDLER_RESULT_NEED_MEMORY;\n}\n\n"+
			"dbus_message_unref (reply);\nreturn DBUS_HANDLER_RESULT_HANDLED;\n", methodName)
}

func errorDispatchBlock() string {
	return "NihError *err;\n\n" +
		"err = nih_error_get ();\n" +
		"if (err->number == ENOMEM) {\n" +
		"\tnih_free (err);\n\tnih_error_pop_context ();\n\n" +
		"\treturn DBUS_HANDLER_RESULT_NEED_MEMORY;\n" +
		"} else if (err->number == NIH_DBUS_ERROR) {\n" +
		"\tNihDBusError *dbus_err = (NihDBusError *)err;\n\n" +
		"\treply = NIH_MUST (dbus_message_new_error (message->message, dbus_err->name, err->message));\n" +
		"\tnih_free (err);\n\tnih_error_pop_context ();\n\n" +
		"\tNIH_MUST (dbus_connection_send (message->connection, reply, NULL));\n\n" +
		"\tdbus_message_unref (reply);\n\treturn DBUS_HANDLER_RESULT_HANDLED;\n" +
		"} else {\n" +
		"\treply = NIH_MUST (dbus_message_new_error (message->message, DBUS_ERROR_FAILED, err->message));\n" +
		"\tnih_free (err);\n\tnih_error_pop_context ();\n\n" +
		"\tNIH_MUST (dbus_connection_send (message->connection, reply, NULL));\n\n" +
		"\tdbus_message_unref (reply);\n\treturn DBUS_HANDLER_RESULT_HANDLED;\n" +
		"}\n"
}

// EmitMethodObjectFunction builds the object-side dispatch function that
// NihDBusObject's method table points at: it demarshals every "in"
// argument off the incoming message, calls the implementation function
// the caller must define, marshals every "out" argument (unless the
// method is Async) into a freshly built reply, and sends it.
func EmitMethodObjectFunction(prefix string, iface ast.Interface, m ast.Method) (Result, error) {
	fnName := symbol.Impl(prefix, iface.Name, m.Symbol, "method")
	handlerName := symbol.Extern(prefix, iface.Symbol, "", m.Symbol, "")

	fn := typesys.Function{
		ReturnType: "DBusHandlerResult",
		Name:       fnName,
		Args: []typesys.Variable{
			{TypeSpelling: "NihDBusObject *", Name: "object"},
			{TypeSpelling: "NihDBusMessage *", Name: "message"},
		},
	}

	handler := typesys.Function{ReturnType: "int", Name: handlerName, Attribs: []string{"warn_unused_result"}}
	handler.Args = append(handler.Args,
		typesys.Variable{TypeSpelling: "void *", Name: "data"},
		typesys.Variable{TypeSpelling: "NihDBusMessage *", Name: "message"})

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "DBusMessage *", Name: "reply"},
	}

	var demarshal strings.Builder
	demarshal.WriteString("/* Iterate the arguments to the message and demarshal into arguments\n" +
		" * for our own function call.\n */\n" +
		"dbus_message_iter_init (message->message, &iter);\n\n")

	var call strings.Builder
	fmt.Fprintf(&call, "/* Call the handler function */\nnih_error_push_context ();\nif (%s (object->data, message", handlerName)

	var marshal strings.Builder
	var structs []typesys.Struct

	for _, arg := range m.Arguments {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: m.Symbol, Symbol: arg.Symbol}

		if arg.Direction == ast.DirectionIn {
			res, err := walker.Walk(walker.Demarshal, sigIter, walker.Env{
				ParentName:    "message",
				IterName:      "iter",
				Name:          arg.Symbol,
				OOMErrorCode:  "return DBUS_HANDLER_RESULT_NEED_MEMORY;\n",
				TypeErrorCode: invalidArgsReply(m.Name),
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
				handlerArg := v
				handlerArg.TypeSpelling = typesys.ToConst(v.TypeSpelling)
				handler.Args = append(handler.Args, handlerArg)
			}
			locals = append(locals, res.Locals...)
			continue
		}

		if m.Async {
			continue
		}

		res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
			IterName:     "iter",
			Name:         arg.Symbol,
			OOMErrorCode: "dbus_message_unref (reply);\nreply = NULL;\ngoto enomem;\n",
			Naming:       naming,
		})
		if err != nil {
			return Result{}, err
		}
		marshal.WriteString(res.Code)
		marshal.WriteString("\n")
		structs = append(structs, res.Structs...)

		for _, v := range res.Vars {
			fmt.Fprintf(&call, ", &%s", v.Name)
			locals = append(locals, v)
			handlerArg := v
			handlerArg.TypeSpelling = typesys.ToPointer(v.TypeSpelling)
			handler.Args = append(handler.Args, handlerArg)
		}
		locals = append(locals, res.Locals...)
	}

	fmt.Fprintf(&demarshal,
		"if (dbus_message_iter_get_arg_type (&iter) != DBUS_TYPE_INVALID) {\n%s}\n\n",
		render.Indent(invalidArgsReply(m.Name), 1))

	call.WriteString(") < 0) {\n")
	call.WriteString(render.Indent(errorDispatchBlock(), 1))
	call.WriteString("}\nnih_error_pop_context ();\n\n")

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\n")
	body.WriteString("nih_assert (object != NULL);\nnih_assert (message != NULL);\n\n")
	body.WriteString(demarshal.String())
	body.WriteString(call.String())

	if m.Async {
		body.WriteString("return DBUS_HANDLER_RESULT_HANDLED;\n")
	} else {
		body.WriteString("/* If no reply is expected, don't bother constructing and\n" +
			" * sending one.\n */\nif (dbus_message_get_no_reply (message->message))\n\treturn DBUS_HANDLER_RESULT_HANDLED;\n\n")
		body.WriteString("do {\n\t__label__ enomem;\n\n" +
			"\treply = dbus_message_new_method_return (message->message);\n" +
			"\tif (! reply)\n\t\tgoto enomem;\n\n" +
			"\tdbus_message_iter_init_append (reply, &iter);\n\n")
		body.WriteString(render.Indent(marshal.String(), 1))
		body.WriteString("\nenomem: __attribute__ ((unused));\n} while (! reply);\n\n")
		body.WriteString("/* Send the reply, appending it to the outgoing queue. */\n" +
			"NIH_MUST (dbus_connection_send (message->connection, reply, NULL));\n\n" +
			"dbus_message_unref (reply);\n\n")
		body.WriteString("return DBUS_HANDLER_RESULT_HANDLED;\n")
	}

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Handler: &handler, Code: code, Structs: structs}, nil
}

// EmitMethodReply builds the standalone reply function an Async
// method's handler calls once it has computed its own outputs: unlike
// the synchronous object function, this one takes the out-arguments as
// direct parameters and has no handler call of its own, just the
// marshal-and-send tail.
func EmitMethodReply(prefix string, iface ast.Interface, m ast.Method) (Result, error) {
	fnName := symbol.Extern(prefix, iface.Symbol, "", m.Symbol, "reply")

	fn := typesys.Function{
		ReturnType: "int",
		Name:       fnName,
		Attribs:    []string{"warn_unused_result"},
		Args:       []typesys.Variable{{TypeSpelling: "NihDBusMessage *", Name: "message"}},
	}

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "DBusMessage *", Name: "reply"},
	}

	var marshal strings.Builder
	var structs []typesys.Struct

	for _, arg := range m.OutArgs() {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: m.Symbol, Symbol: arg.Symbol}

		res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
			IterName:     "iter",
			Name:         arg.Symbol,
			OOMErrorCode: "dbus_message_unref (reply);\nreply = NULL;\ngoto enomem;\n",
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
	body.WriteString("\nnih_assert (message != NULL);\n\n")
	body.WriteString("do {\n\t__label__ enomem;\n\n" +
		"\treply = dbus_message_new_method_return (message->message);\n" +
		"\tif (! reply)\n\t\tgoto enomem;\n\n" +
		"\tdbus_message_iter_init_append (reply, &iter);\n\n")
	body.WriteString(render.Indent(marshal.String(), 1))
	body.WriteString("\nenomem: __attribute__ ((unused));\n} while (! reply);\n\n")
	body.WriteString("if (! dbus_connection_send (message->connection, reply, NULL)) {\n" +
		"\tdbus_message_unref (reply);\n\treturn -1;\n}\n\n" +
		"dbus_message_unref (reply);\n\nreturn 0;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: structs}, nil
}

// EmitMethodProxyFunction builds the client-side async caller: it
// marshals the "in" arguments onto a new method_call message, sends it
// with a pending-call handler, and returns an NihDBusPendingCall the
// caller uses to track completion (EmitMethodProxyNotifyFunction is the
// reply side of this call).
func EmitMethodProxyFunction(prefix string, iface ast.Interface, m ast.Method) (Result, error) {
	fnName := symbol.Extern(prefix, iface.Symbol, "", m.Symbol, "")
	notifyName := symbol.Extern(prefix, iface.Symbol, "", m.Symbol, "notify")

	fn := typesys.Function{
		ReturnType: "NihDBusPendingCall *",
		Name:       fnName,
		Attribs:    []string{"warn_unused_result"},
		Args: []typesys.Variable{
			{TypeSpelling: "NihDBusProxy *", Name: "proxy"},
		},
	}

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessage *", Name: "method_call"},
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "DBusPendingCall *", Name: "pending_call"},
		{TypeSpelling: "NihDBusPendingCall *", Name: "nih_pending_call"},
	}

	var marshal strings.Builder
	var structs []typesys.Struct

	for _, arg := range m.InArgs() {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: m.Symbol, Symbol: arg.Symbol}

		res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
			IterName:     "iter",
			Name:         arg.Symbol,
			OOMErrorCode: "dbus_message_unref (method_call);\nreturn NULL;\n",
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

	fn.Args = append(fn.Args,
		typesys.Variable{TypeSpelling: fnName + "ReplyHandler", Name: "handler"},
		typesys.Variable{TypeSpelling: "NihDBusErrorHandler", Name: "error_handler"},
		typesys.Variable{TypeSpelling: "void *", Name: "data"},
		typesys.Variable{TypeSpelling: "int", Name: "timeout"})

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (proxy != NULL);\n\n")
	fmt.Fprintf(&body, "method_call = dbus_message_new_method_call (proxy->name, proxy->path,\n"+
		"                                             \"%s\", \"%s\");\n"+
		"if (! method_call)\n\tnih_return_no_memory_error (NULL);\n\n", iface.Name, m.Name)

	if len(m.InArgs()) > 0 {
		body.WriteString("dbus_message_iter_init_append (method_call, &iter);\n\n")
		body.WriteString(marshal.String())
	}

	body.WriteString("NIH_MUST (dbus_connection_send_with_reply (proxy->connection, method_call,\n" +
		"                                            &pending_call, timeout));\n\n" +
		"dbus_message_unref (method_call);\n\n")
	fmt.Fprintf(&body, "nih_pending_call = nih_dbus_pending_call_new (NULL, proxy->connection,\n"+
		"                                              pending_call,\n"+
		"                                              (NihDBusReplyHandler)handler,\n"+
		"                                              error_handler, data);\n"+
		"if (! nih_pending_call) {\n"+
		"\tdbus_pending_call_cancel (pending_call);\n"+
		"\tdbus_pending_call_unref (pending_call);\n"+
		"\tnih_return_no_memory_error (NULL);\n}\n\n"+
		"NIH_MUST (dbus_pending_call_set_notify (pending_call, (DBusPendingCallNotifyFunction)%s,\n"+
		"                                        nih_pending_call, NULL));\n\n"+
		"return nih_pending_call;\n", notifyName)

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: structs}, nil
}

// EmitMethodProxyNotifyFunction builds the DBusPendingCallNotifyFunction
// that dbus_pending_call_set_notify attaches in EmitMethodProxyFunction:
// it demarshals the reply and invokes the caller-supplied handler, or on
// an error reply invokes the error handler instead.
func EmitMethodProxyNotifyFunction(prefix string, iface ast.Interface, m ast.Method) (Result, error) {
	fnName := symbol.Extern(prefix, iface.Symbol, "", m.Symbol, "notify")

	fn := typesys.Function{
		ReturnType: "void",
		Name:       fnName,
		Args: []typesys.Variable{
			{TypeSpelling: "DBusPendingCall *", Name: "pending_call"},
			{TypeSpelling: "NihDBusPendingCall *", Name: "data"},
		},
	}

	locals := []typesys.Variable{
		{TypeSpelling: fnName + "ReplyHandler", Name: "handler"},
		{TypeSpelling: "DBusMessage *", Name: "reply"},
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "NihDBusMessage *", Name: "message"},
	}

	var demarshal strings.Builder
	var structs []typesys.Struct
	var call strings.Builder
	call.WriteString("handler (data->user_data, message")

	oomErrorCode := "nih_free (message);\nmessage = NULL;\ngoto enomem;\n"
	typeErrorCode := "data->error_handler (data->user_data, message);\n" +
		"nih_free (message);\ndbus_message_unref (reply);\nreturn;\n"

	for _, arg := range m.OutArgs() {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: m.Symbol, Symbol: arg.Symbol}

		res, err := walker.Walk(walker.Demarshal, sigIter, walker.Env{
			ParentName:    "message",
			IterName:      "iter",
			Name:          arg.Symbol,
			OOMErrorCode:  oomErrorCode,
			TypeErrorCode: typeErrorCode,
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
	body.WriteString("\nnih_assert (pending_call != NULL);\nnih_assert (data != NULL);\n\n")
	body.WriteString("handler = (" + fnName + "ReplyHandler)data->handler;\n\n")
	body.WriteString("reply = dbus_pending_call_steal_reply (pending_call);\nnih_assert (reply != NULL);\n\n")
	body.WriteString("if (dbus_message_get_type (reply) == DBUS_MESSAGE_TYPE_ERROR) {\n" +
		"\tmessage = NIH_MUST (nih_dbus_message_new (data->connection, reply));\n\n" +
		"\tnih_dbus_error_raise_from_message (reply);\n\tdata->error_handler (data->user_data, message);\n" +
		"\tnih_free (message);\n\tdbus_message_unref (reply);\n\treturn;\n}\n\n")

	body.WriteString("do {\n\t__label__ enomem;\n\n" +
		"\tmessage = nih_dbus_message_new (data->connection, reply);\n" +
		"\tif (! message)\n\t\tgoto enomem;\n\n" +
		"\tdbus_message_iter_init (message->message, &iter);\n\n")
	body.WriteString(render.Indent(demarshal.String(), 1))
	body.WriteString("\nenomem: __attribute__ ((unused));\n} while (! message);\n\n")
	body.WriteString(call.String())
	body.WriteString("\nnih_free (message);\ndbus_message_unref (reply);\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: structs}, nil
}

// EmitMethodProxySyncFunction builds the blocking convenience wrapper
// that sends the method call and waits for the reply inline, returning
// the out-arguments through pointer parameters instead of a callback.
func EmitMethodProxySyncFunction(prefix string, iface ast.Interface, m ast.Method) (Result, error) {
	fnName := symbol.Extern(prefix, iface.Symbol, "", m.Symbol, "sync")

	fn := typesys.Function{
		ReturnType: "int",
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
		{TypeSpelling: "DBusMessage *", Name: "reply"},
		{TypeSpelling: "DBusError", Name: "error"},
	}

	var marshal, demarshal strings.Builder
	var structs []typesys.Struct

	for _, arg := range m.InArgs() {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: m.Symbol, Symbol: arg.Symbol}

		res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
			IterName:     "iter",
			Name:         arg.Symbol,
			OOMErrorCode: "dbus_message_unref (method_call);\nnih_return_no_memory_error (-1);\n",
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

	var freeBlock strings.Builder

	for _, arg := range m.OutArgs() {
		sigIter, err := signature.Parse(arg.Type)
		if err != nil {
			return Result{}, err
		}
		naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: m.Symbol, Symbol: arg.Symbol}

		typeErrorCode := freeBlock.String() +
			"dbus_message_unref (reply);\nnih_return_error (-1, NIH_DBUS_INVALID_ARGS, _(NIH_DBUS_INVALID_ARGS_STR));\n"

		res, err := walker.Walk(walker.Demarshal, sigIter, walker.Env{
			ParentName:    "parent",
			IterName:      "iter",
			Name:          arg.Symbol,
			OOMErrorCode:  "dbus_message_unref (reply);\nnih_return_no_memory_error (-1);\n",
			TypeErrorCode: typeErrorCode,
			Naming:        naming,
		})
		if err != nil {
			return Result{}, err
		}
		demarshal.WriteString(res.Code)
		demarshal.WriteString("\n")
		structs = append(structs, res.Structs...)

		for _, v := range res.Vars {
			outVar := v
			outVar.TypeSpelling = typesys.ToPointer(v.TypeSpelling)
			fn.Args = append(fn.Args, outVar)
			fmt.Fprintf(&demarshal, "*%s = %s;\n\n", outVar.Name, v.Name)

			if strings.Contains(v.TypeSpelling, "*") {
				fmt.Fprintf(&freeBlock, "nih_free (%s);\n*%s = NULL;\n", v.Name, outVar.Name)
			}
		}
		locals = append(locals, res.Locals...)
	}

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (proxy != NULL);\n\n")
	fmt.Fprintf(&body, "method_call = dbus_message_new_method_call (proxy->name, proxy->path,\n"+
		"                                             \"%s\", \"%s\");\n"+
		"if (! method_call)\n\tnih_return_no_memory_error (-1);\n\n", iface.Name, m.Name)

	if len(m.InArgs()) > 0 {
		body.WriteString("dbus_message_iter_init_append (method_call, &iter);\n\n")
		body.WriteString(marshal.String())
	}

	body.WriteString("dbus_error_init (&error);\n\n" +
		"reply = dbus_connection_send_with_reply_and_block (proxy->connection, method_call,\n" +
		"                                                    NIH_DBUS_TIMEOUT, &error);\n" +
		"dbus_message_unref (method_call);\n\n" +
		"if (! reply) {\n\tnih_dbus_error_raise (error.name, error.message);\n\tdbus_error_free (&error);\n\treturn -1;\n}\n\n")

	if len(m.OutArgs()) > 0 {
		body.WriteString("dbus_message_iter_init (reply, &iter);\n\n")
		body.WriteString(demarshal.String())
	}

	body.WriteString("dbus_message_unref (reply);\n\nreturn 0;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: structs}, nil
}
