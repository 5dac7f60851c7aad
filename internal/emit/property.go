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

// ErrPropertyNotReadable and ErrPropertyNotWritable are the access-flag
// validation errors a caller gets back from the Get/Set emitters below
// when asked to emit a function an Access-restricted property does not
// support: a write-only property has no Get emitter, a read-only
// property has no Set emitter.
var (
	ErrPropertyNotReadable = fmt.Errorf("property is not readable, cannot emit a get function")
	ErrPropertyNotWritable = fmt.Errorf("property is not writable, cannot emit a set function")
)

// EmitPropertyObjectGetFunction builds the per-property branch the
// interface's GetAll/Get dispatcher calls into: it marshals the
// property's current value onto a variant sub-iterator appended to the
// reply message.
func EmitPropertyObjectGetFunction(prefix string, iface ast.Interface, p ast.Property) (Result, error) {
	if !p.Access.Readable() {
		return Result{}, ErrPropertyNotReadable
	}

	fnName := symbol.Impl(prefix, iface.Name, p.Symbol, "get")
	getterName := symbol.Extern(prefix, iface.Symbol, "get", p.Symbol, "")

	fn := typesys.Function{
		ReturnType: "int",
		Name:       fnName,
		Attribs:    []string{"warn_unused_result"},
		Args: []typesys.Variable{
			{TypeSpelling: "NihDBusObject *", Name: "object"},
			{TypeSpelling: "NihDBusMessage *", Name: "message"},
			{TypeSpelling: "DBusMessageIter *", Name: "iter"},
		},
	}

	getter := typesys.Function{ReturnType: "int", Name: getterName, Attribs: []string{"warn_unused_result"}}
	getter.Args = append(getter.Args, typesys.Variable{TypeSpelling: "void *", Name: "data"})

	locals := []typesys.Variable{{TypeSpelling: "DBusMessageIter", Name: "variter"}}

	sigIter, err := signature.Parse(p.Type)
	if err != nil {
		return Result{}, err
	}
	naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: p.Symbol, Symbol: "value"}

	res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
		IterName:     "variter",
		Name:         "value",
		OOMErrorCode: "dbus_message_iter_abandon_container (iter, &variter);\nreturn -1;\n",
		Naming:       naming,
	})
	if err != nil {
		return Result{}, err
	}
	for _, v := range res.Vars {
		getterArg := v
		getterArg.TypeSpelling = typesys.ToPointer(v.TypeSpelling)
		getter.Args = append(getter.Args, getterArg)
		locals = append(locals, v)
	}
	locals = append(locals, res.Locals...)

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (object != NULL);\nnih_assert (message != NULL);\nnih_assert (iter != NULL);\n\n")
	fmt.Fprintf(&body, "if (%s (object->data, &%s) < 0)\n\treturn -1;\n\n", getterName, res.Vars[0].Name)
	fmt.Fprintf(&body, "if (! dbus_message_iter_open_container (iter, DBUS_TYPE_VARIANT, \"%s\", &variter))\n\treturn -1;\n\n", p.Type)
	body.WriteString(res.Code)
	body.WriteString("\nif (! dbus_message_iter_close_container (iter, &variter))\n\treturn -1;\n\nreturn 0;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Handler: &getter, Code: code, Structs: res.Structs}, nil
}

// EmitPropertyObjectSetFunction builds the per-property branch the
// interface's Set dispatcher calls into: it demarshals the new value
// out of the variant the caller sent and passes it to the setter
// function the caller must define.
func EmitPropertyObjectSetFunction(prefix string, iface ast.Interface, p ast.Property) (Result, error) {
	if !p.Access.Writable() {
		return Result{}, ErrPropertyNotWritable
	}

	fnName := symbol.Impl(prefix, iface.Name, p.Symbol, "set")
	setterName := symbol.Extern(prefix, iface.Symbol, "set", p.Symbol, "")

	fn := typesys.Function{
		ReturnType: "int",
		Name:       fnName,
		Attribs:    []string{"warn_unused_result"},
		Args: []typesys.Variable{
			{TypeSpelling: "NihDBusObject *", Name: "object"},
			{TypeSpelling: "NihDBusMessage *", Name: "message"},
			{TypeSpelling: "DBusMessageIter *", Name: "iter"},
		},
	}

	setter := typesys.Function{ReturnType: "int", Name: setterName, Attribs: []string{"warn_unused_result"}}
	setter.Args = append(setter.Args, typesys.Variable{TypeSpelling: "void *", Name: "data"})

	locals := []typesys.Variable{{TypeSpelling: "DBusMessageIter", Name: "variter"}}

	sigIter, err := signature.Parse(p.Type)
	if err != nil {
		return Result{}, err
	}
	naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: p.Symbol, Symbol: "value"}

	typeErrorCode := "nih_return_error (-1, DBUS_ERROR_INVALID_ARGS,\n" +
		"                  _(\"Invalid arguments to property\"));\n"

	res, err := walker.Walk(walker.Demarshal, sigIter, walker.Env{
		ParentName:    "message",
		IterName:      "variter",
		Name:          "value",
		OOMErrorCode:  "nih_return_no_memory_error (-1);\n",
		TypeErrorCode: typeErrorCode,
		Naming:        naming,
	})
	if err != nil {
		return Result{}, err
	}
	for _, v := range res.Vars {
		setterArg := v
		setterArg.TypeSpelling = typesys.ToConst(v.TypeSpelling)
		setter.Args = append(setter.Args, setterArg)
		locals = append(locals, v)
	}
	locals = append(locals, res.Locals...)

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (object != NULL);\nnih_assert (message != NULL);\nnih_assert (iter != NULL);\n\n")
	fmt.Fprintf(&body, "if (dbus_message_iter_get_arg_type (iter) != DBUS_TYPE_VARIANT) {\n%s}\n\n",
		render.Indent(typeErrorCode, 1))
	body.WriteString("dbus_message_iter_recurse (iter, &variter);\n\n")
	body.WriteString(res.Code)
	fmt.Fprintf(&body, "\nif (%s (object->data, %s) < 0)\n\treturn -1;\n\nreturn 0;\n", setterName, res.Vars[0].Name)

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Handler: &setter, Code: code, Structs: res.Structs}, nil
}

// EmitPropertyProxyGetSyncFunction builds the client-side blocking
// wrapper around org.freedesktop.DBus.Properties.Get for one property.
func EmitPropertyProxyGetSyncFunction(prefix string, iface ast.Interface, p ast.Property) (Result, error) {
	if !p.Access.Readable() {
		return Result{}, ErrPropertyNotReadable
	}

	fnName := symbol.Extern(prefix, iface.Symbol, "get", p.Symbol, "sync")

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
		{TypeSpelling: "DBusMessageIter", Name: "variter"},
		{TypeSpelling: "DBusMessage *", Name: "reply"},
		{TypeSpelling: "DBusError", Name: "error"},
	}

	sigIter, err := signature.Parse(p.Type)
	if err != nil {
		return Result{}, err
	}
	naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: p.Symbol, Symbol: "value"}

	typeErrorCode := "dbus_message_unref (reply);\n" +
		"nih_return_error (-1, NIH_DBUS_INVALID_ARGS, _(NIH_DBUS_INVALID_ARGS_STR));\n"

	res, err := walker.Walk(walker.Demarshal, sigIter, walker.Env{
		ParentName:    "parent",
		IterName:      "variter",
		Name:          "value",
		OOMErrorCode:  "dbus_message_unref (reply);\nnih_return_no_memory_error (-1);\n",
		TypeErrorCode: typeErrorCode,
		Naming:        naming,
	})
	if err != nil {
		return Result{}, err
	}
	for _, v := range res.Vars {
		outVar := v
		outVar.TypeSpelling = typesys.ToPointer(v.TypeSpelling)
		fn.Args = append(fn.Args, outVar)
	}
	locals = append(locals, res.Locals...)

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (proxy != NULL);\n\n")
	body.WriteString("method_call = dbus_message_new_method_call (proxy->name, proxy->path,\n" +
		"                                             DBUS_INTERFACE_PROPERTIES,\n" +
		"                                             \"Get\");\n" +
		"if (! method_call)\n\tnih_return_no_memory_error (-1);\n\n" +
		"dbus_message_iter_init_append (method_call, &iter);\n\n")
	fmt.Fprintf(&body, "if (! dbus_message_iter_append_basic (&iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
		"\tdbus_message_unref (method_call);\n\tnih_return_no_memory_error (-1);\n}\n\n", iface.Name)
	fmt.Fprintf(&body, "if (! dbus_message_iter_append_basic (&iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
		"\tdbus_message_unref (method_call);\n\tnih_return_no_memory_error (-1);\n}\n\n", p.Name)

	body.WriteString("dbus_error_init (&error);\n\n" +
		"reply = dbus_connection_send_with_reply_and_block (proxy->connection, method_call,\n" +
		"                                                    NIH_DBUS_TIMEOUT, &error);\n" +
		"dbus_message_unref (method_call);\n\n" +
		"if (! reply) {\n\tnih_dbus_error_raise (error.name, error.message);\n\tdbus_error_free (&error);\n\treturn -1;\n}\n\n")

	body.WriteString("dbus_message_iter_init (reply, &iter);\n\n")
	fmt.Fprintf(&body, "if (dbus_message_iter_get_arg_type (&iter) != DBUS_TYPE_VARIANT) {\n%s}\n\n"+
		"dbus_message_iter_recurse (&iter, &variter);\n\n",
		render.Indent(typeErrorCode, 1))
	body.WriteString(res.Code)
	body.WriteString("\ndbus_message_unref (reply);\n\nreturn 0;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: res.Structs}, nil
}

// EmitPropertyProxySetSyncFunction builds the client-side blocking
// wrapper around org.freedesktop.DBus.Properties.Set for one property.
func EmitPropertyProxySetSyncFunction(prefix string, iface ast.Interface, p ast.Property) (Result, error) {
	if !p.Access.Writable() {
		return Result{}, ErrPropertyNotWritable
	}

	fnName := symbol.Extern(prefix, iface.Symbol, "set", p.Symbol, "sync")

	fn := typesys.Function{
		ReturnType: "int",
		Name:       fnName,
		Attribs:    []string{"warn_unused_result"},
		Args: []typesys.Variable{
			{TypeSpelling: "NihDBusProxy *", Name: "proxy"},
		},
	}

	locals := []typesys.Variable{
		{TypeSpelling: "DBusMessage *", Name: "method_call"},
		{TypeSpelling: "DBusMessageIter", Name: "iter"},
		{TypeSpelling: "DBusMessageIter", Name: "variter"},
		{TypeSpelling: "DBusMessage *", Name: "reply"},
		{TypeSpelling: "DBusError", Name: "error"},
	}

	sigIter, err := signature.Parse(p.Type)
	if err != nil {
		return Result{}, err
	}
	naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: p.Symbol, Symbol: "value"}

	res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
		IterName:     "variter",
		Name:         "value",
		OOMErrorCode: "dbus_message_iter_abandon_container (&iter, &variter);\ndbus_message_unref (method_call);\nnih_return_no_memory_error (-1);\n",
		Naming:       naming,
	})
	if err != nil {
		return Result{}, err
	}
	for _, v := range res.Vars {
		argVar := v
		argVar.TypeSpelling = typesys.ToConst(v.TypeSpelling)
		fn.Args = append(fn.Args, argVar)
	}
	locals = append(locals, res.Locals...)

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (proxy != NULL);\n\n")
	body.WriteString("method_call = dbus_message_new_method_call (proxy->name, proxy->path,\n" +
		"                                             DBUS_INTERFACE_PROPERTIES,\n" +
		"                                             \"Set\");\n" +
		"if (! method_call)\n\tnih_return_no_memory_error (-1);\n\n" +
		"dbus_message_iter_init_append (method_call, &iter);\n\n")
	fmt.Fprintf(&body, "if (! dbus_message_iter_append_basic (&iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
		"\tdbus_message_unref (method_call);\n\tnih_return_no_memory_error (-1);\n}\n\n", iface.Name)
	fmt.Fprintf(&body, "if (! dbus_message_iter_append_basic (&iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
		"\tdbus_message_unref (method_call);\n\tnih_return_no_memory_error (-1);\n}\n\n", p.Name)

	fmt.Fprintf(&body, "if (! dbus_message_iter_open_container (&iter, DBUS_TYPE_VARIANT, \"%s\", &variter)) {\n"+
		"\tdbus_message_unref (method_call);\n\tnih_return_no_memory_error (-1);\n}\n\n", p.Type)
	body.WriteString(res.Code)
	body.WriteString("\nif (! dbus_message_iter_close_container (&iter, &variter)) {\n" +
		"\tdbus_message_unref (method_call);\n\tnih_return_no_memory_error (-1);\n}\n\n")

	body.WriteString("dbus_error_init (&error);\n\n" +
		"reply = dbus_connection_send_with_reply_and_block (proxy->connection, method_call,\n" +
		"                                                    NIH_DBUS_TIMEOUT, &error);\n" +
		"dbus_message_unref (method_call);\n\n" +
		"if (! reply) {\n\tnih_dbus_error_raise (error.name, error.message);\n\tdbus_error_free (&error);\n\treturn -1;\n}\n\n" +
		"dbus_message_unref (reply);\n\nreturn 0;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: res.Structs}, nil
}

// EmitPropertyChangedNotify builds the server-side helper that emits
// org.freedesktop.DBus.Properties.PropertiesChanged for one property,
// the notify half of the property pair: called by the implementation
// after a setter succeeds, or whenever the underlying value changes out
// from under a handler-triggered update.
func EmitPropertyChangedNotify(prefix string, iface ast.Interface, p ast.Property) (Result, error) {
	if !p.Access.Readable() {
		return Result{}, ErrPropertyNotReadable
	}

	fnName := symbol.Extern(prefix, iface.Symbol, "", p.Symbol, "changed")

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
		{TypeSpelling: "DBusMessageIter", Name: "dict_iter"},
		{TypeSpelling: "DBusMessageIter", Name: "entry_iter"},
		{TypeSpelling: "DBusMessageIter", Name: "variter"},
	}

	sigIter, err := signature.Parse(p.Type)
	if err != nil {
		return Result{}, err
	}
	naming := walker.Naming{Prefix: prefix, InterfaceSymbol: iface.Symbol, MemberSymbol: p.Symbol, Symbol: "value"}

	res, err := walker.Walk(walker.Marshal, sigIter, walker.Env{
		IterName:     "variter",
		Name:         "value",
		OOMErrorCode: "dbus_message_unref (signal);\nnih_return_no_memory_error (-1);\n",
		Naming:       naming,
	})
	if err != nil {
		return Result{}, err
	}
	for _, v := range res.Vars {
		argVar := v
		argVar.TypeSpelling = typesys.ToConst(v.TypeSpelling)
		fn.Args = append(fn.Args, argVar)
	}
	locals = append(locals, res.Locals...)

	var body strings.Builder
	body.WriteString(typesys.VarLayout(locals))
	body.WriteString("\nnih_assert (connection != NULL);\nnih_assert (origin_path != NULL);\n\n")
	fmt.Fprintf(&body, "signal = dbus_message_new_signal (origin_path, DBUS_INTERFACE_PROPERTIES,\n"+
		"                                   \"PropertiesChanged\");\n"+
		"if (! signal)\n\tnih_return_no_memory_error (-1);\n\n"+
		"dbus_message_iter_init_append (signal, &iter);\n\n"+
		"if (! dbus_message_iter_append_basic (&iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n", iface.Name)

	body.WriteString("if (! dbus_message_iter_open_container (&iter, DBUS_TYPE_ARRAY, \"{sv}\", &dict_iter)) {\n" +
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n" +
		"if (! dbus_message_iter_open_container (&dict_iter, DBUS_TYPE_DICT_ENTRY, NULL, &entry_iter)) {\n" +
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n")
	fmt.Fprintf(&body, "if (! dbus_message_iter_append_basic (&entry_iter, DBUS_TYPE_STRING, &(const char *){\"%s\"})) {\n"+
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n", p.Name)
	fmt.Fprintf(&body, "if (! dbus_message_iter_open_container (&entry_iter, DBUS_TYPE_VARIANT, \"%s\", &variter)) {\n"+
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n", p.Type)
	body.WriteString(res.Code)
	body.WriteString("\nif (! dbus_message_iter_close_container (&entry_iter, &variter)) {\n" +
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n" +
		"if (! dbus_message_iter_close_container (&dict_iter, &entry_iter)) {\n" +
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n" +
		"if (! dbus_message_iter_close_container (&iter, &dict_iter)) {\n" +
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n" +
		"if (! dbus_connection_send (connection, signal, NULL)) {\n" +
		"\tdbus_message_unref (signal);\n\tnih_return_no_memory_error (-1);\n}\n\n" +
		"dbus_message_unref (signal);\n\nreturn 0;\n")

	code := typesys.FuncDeclaration(fn) + "{\n" + render.Indent(body.String(), 1) + "}\n"

	return Result{Prototype: fn, Code: code, Structs: res.Structs}, nil
}
