package emit

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/ast"
)

func TestEmitSignalFunction(t *testing.T) {
	iface := testInterface()
	s := ast.Signal{
		Name:   "Changed",
		Symbol: "changed",
		Arguments: []ast.Argument{
			{Name: "value", Symbol: "value", Type: "s", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitSignalFunction("my", iface, s)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_foo_changed" {
		t.Errorf("unexpected signal function name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, `dbus_message_new_signal (origin_path, "com.example.Foo", "Changed")`) {
		t.Errorf("missing signal construction:\n%s", res.Code)
	}
}

func TestEmitSignalFilterFunction(t *testing.T) {
	iface := testInterface()
	s := ast.Signal{
		Name:   "Changed",
		Symbol: "changed",
		Arguments: []ast.Argument{
			{Name: "value", Symbol: "value", Type: "s", Direction: ast.DirectionOut},
		},
	}

	res, err := EmitSignalFilterFunction("my", iface, s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, `dbus_message_is_signal (signal, "com.example.Foo", "Changed")`) {
		t.Errorf("missing signal match check:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "handler (proxy_signal->data, message, value)") {
		t.Errorf("missing handler dispatch call:\n%s", res.Code)
	}
}
