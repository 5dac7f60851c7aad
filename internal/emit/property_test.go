package emit

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/ast"
)

func TestEmitPropertyObjectGetFunction(t *testing.T) {
	iface := testInterface()
	p := ast.Property{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessRead}

	res, err := EmitPropertyObjectGetFunction("my", iface, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Handler == nil || res.Handler.Name != "my_foo_get_count" {
		t.Fatalf("unexpected getter handler: %+v", res.Handler)
	}
	if !strings.Contains(res.Code, `DBUS_TYPE_VARIANT, "i"`) {
		t.Errorf("missing variant container open:\n%s", res.Code)
	}
}

func TestEmitPropertyObjectGetFunctionWriteOnlyRejected(t *testing.T) {
	iface := testInterface()
	p := ast.Property{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessWrite}

	if _, err := EmitPropertyObjectGetFunction("my", iface, p); err != ErrPropertyNotReadable {
		t.Errorf("expected ErrPropertyNotReadable, got %v", err)
	}
}

func TestEmitPropertyObjectSetFunction(t *testing.T) {
	iface := testInterface()
	p := ast.Property{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessReadWrite}

	res, err := EmitPropertyObjectSetFunction("my", iface, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Handler == nil || res.Handler.Name != "my_foo_set_count" {
		t.Fatalf("unexpected setter handler: %+v", res.Handler)
	}
	if !strings.Contains(res.Code, "DBUS_TYPE_VARIANT") {
		t.Errorf("missing variant type check:\n%s", res.Code)
	}
}

func TestEmitPropertyObjectSetFunctionReadOnlyRejected(t *testing.T) {
	iface := testInterface()
	p := ast.Property{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessRead}

	if _, err := EmitPropertyObjectSetFunction("my", iface, p); err != ErrPropertyNotWritable {
		t.Errorf("expected ErrPropertyNotWritable, got %v", err)
	}
}

func TestEmitPropertyProxyGetSyncFunction(t *testing.T) {
	iface := testInterface()
	p := ast.Property{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessRead}

	res, err := EmitPropertyProxyGetSyncFunction("my", iface, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_foo_get_count_sync" {
		t.Errorf("unexpected sync getter name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, `"Get"`) {
		t.Errorf("missing Properties.Get method name:\n%s", res.Code)
	}
}

func TestEmitPropertyProxySetSyncFunction(t *testing.T) {
	iface := testInterface()
	p := ast.Property{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessReadWrite}

	res, err := EmitPropertyProxySetSyncFunction("my", iface, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_foo_set_count_sync" {
		t.Errorf("unexpected sync setter name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, `"Set"`) {
		t.Errorf("missing Properties.Set method name:\n%s", res.Code)
	}
}

func TestEmitInterfaceGetAll(t *testing.T) {
	iface := testInterface()
	iface.Properties = []ast.Property{
		{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessRead},
		{Name: "Secret", Symbol: "secret", Type: "s", Access: ast.AccessWrite},
	}

	res, err := EmitInterfaceGetAll("my", iface)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "_count_get") {
		t.Errorf("expected readable property getter call:\n%s", res.Code)
	}
	if strings.Contains(res.Code, "secret") {
		t.Errorf("write-only property must be excluded from GetAll:\n%s", res.Code)
	}
}
