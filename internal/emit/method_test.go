package emit

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/ast"
)

func testInterface() ast.Interface {
	return ast.Interface{Name: "com.example.Foo", Symbol: "foo"}
}

func TestEmitMethodObjectFunctionSync(t *testing.T) {
	iface := testInterface()
	m := ast.Method{
		Name:   "Bar",
		Symbol: "bar",
		Arguments: []ast.Argument{
			{Name: "name", Symbol: "name", Type: "s", Direction: ast.DirectionIn},
			{Name: "count", Symbol: "count", Type: "i", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitMethodObjectFunction("my", iface, m)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_com_example_Foo_bar_method" {
		t.Errorf("unexpected function name: %s", res.Prototype.Name)
	}
	if res.Handler == nil || res.Handler.Name != "my_foo_bar" {
		t.Fatalf("unexpected handler: %+v", res.Handler)
	}
	if !strings.Contains(res.Code, "dbus_message_new_method_return") {
		t.Errorf("missing reply construction:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "my_foo_bar (object->data, message, name, &count)") {
		t.Errorf("missing handler call with in/out args:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "dbus_message_get_no_reply") {
		t.Errorf("missing no-reply short-circuit:\n%s", res.Code)
	}
}

func TestEmitMethodObjectFunctionAsyncSkipsReply(t *testing.T) {
	iface := testInterface()
	m := ast.Method{
		Name:   "Bar",
		Symbol: "bar",
		Async:  true,
		Arguments: []ast.Argument{
			{Name: "count", Symbol: "count", Type: "i", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitMethodObjectFunction("my", iface, m)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.Code, "dbus_message_new_method_return") {
		t.Errorf("async method must not build its own reply:\n%s", res.Code)
	}
	if strings.Contains(res.Code, "&count") {
		t.Errorf("async method must not marshal out args inline:\n%s", res.Code)
	}
}

func TestEmitMethodReply(t *testing.T) {
	iface := testInterface()
	m := ast.Method{
		Name:   "Bar",
		Symbol: "bar",
		Async:  true,
		Arguments: []ast.Argument{
			{Name: "count", Symbol: "count", Type: "i", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitMethodReply("my", iface, m)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_foo_bar_reply" {
		t.Errorf("unexpected reply function name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, "dbus_message_new_method_return") {
		t.Errorf("missing reply construction:\n%s", res.Code)
	}
	var hasCount bool
	for _, a := range res.Prototype.Args {
		if a.Name == "count" {
			hasCount = true
		}
	}
	if !hasCount {
		t.Errorf("expected count out-argument parameter, got %+v", res.Prototype.Args)
	}
}

func TestEmitMethodProxyFunction(t *testing.T) {
	iface := testInterface()
	m := ast.Method{
		Name:   "Bar",
		Symbol: "bar",
		Arguments: []ast.Argument{
			{Name: "name", Symbol: "name", Type: "s", Direction: ast.DirectionIn},
		},
	}

	res, err := EmitMethodProxyFunction("my", iface, m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, `dbus_message_new_method_call (proxy->name, proxy->path`) {
		t.Errorf("missing method_call construction:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "my_foo_bar_notify") {
		t.Errorf("missing notify function wiring:\n%s", res.Code)
	}
}

func TestEmitMethodProxySyncFunction(t *testing.T) {
	iface := testInterface()
	m := ast.Method{
		Name:   "Bar",
		Symbol: "bar",
		Arguments: []ast.Argument{
			{Name: "name", Symbol: "name", Type: "s", Direction: ast.DirectionIn},
			{Name: "count", Symbol: "count", Type: "i", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitMethodProxySyncFunction("my", iface, m)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_foo_bar_sync" {
		t.Errorf("unexpected sync function name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, "dbus_connection_send_with_reply_and_block") {
		t.Errorf("missing blocking send:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "*count =") {
		t.Errorf("missing out-pointer assignment:\n%s", res.Code)
	}
}

func TestEmitMethodProxySyncFunctionFreesPriorOutputsOnTypeError(t *testing.T) {
	iface := testInterface()
	m := ast.Method{
		Name:   "Bar",
		Symbol: "bar",
		Arguments: []ast.Argument{
			{Name: "first", Symbol: "first", Type: "s", Direction: ast.DirectionOut},
			{Name: "second", Symbol: "second", Type: "s", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitMethodProxySyncFunction("my", iface, m)
	if err != nil {
		t.Fatal(err)
	}

	// The first out-argument has nothing demarshalled yet, so its type
	// error code must not free anything.
	firstErr := "if (dbus_message_iter_get_arg_type (&iter) != DBUS_TYPE_STRING) {\n" +
		"\t\tdbus_message_unref (reply);\n" +
		"\t\tnih_return_error (-1, NIH_DBUS_INVALID_ARGS, _(NIH_DBUS_INVALID_ARGS_STR));\n\t}"
	if !strings.Contains(res.Code, firstErr) {
		t.Errorf("missing bare type-error block for first out-argument:\n%s", res.Code)
	}

	// The second out-argument's type error must free the first, already
	// demarshalled, output before returning.
	if !strings.Contains(res.Code, "nih_free (first);\n\t\t*first = NULL;\n\t\tdbus_message_unref (reply);") {
		t.Errorf("second out-argument's type error does not free the first output:\n%s", res.Code)
	}
}

func TestEmitMethodProxyNotifyFunction(t *testing.T) {
	iface := testInterface()
	m := ast.Method{
		Name:   "Bar",
		Symbol: "bar",
		Arguments: []ast.Argument{
			{Name: "name", Symbol: "name", Type: "s", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitMethodProxyNotifyFunction("my", iface, m)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_foo_bar_notify" {
		t.Errorf("unexpected notify function name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, "do {\n\t\t__label__ enomem;") || !strings.Contains(res.Code, "} while (! message);") {
		t.Errorf("missing OOM retry loop around demarshal:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "message = NULL;\n\t\t\tgoto enomem;") {
		t.Errorf("OOM error code must null out message before retrying:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "data->error_handler (data->user_data, message);") {
		t.Errorf("type-error path must invoke data->error_handler:\n%s", res.Code)
	}
}
