package emit

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/ast"
)

func testGetAllInterface() ast.Interface {
	return ast.Interface{
		Name:   "com.example.Foo",
		Symbol: "foo",
		Properties: []ast.Property{
			{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessRead},
			{Name: "Name", Symbol: "name", Type: "s", Access: ast.AccessReadWrite},
			{Name: "Secret", Symbol: "secret", Type: "s", Access: ast.AccessWrite},
		},
	}
}

func TestEmitInterfaceGetAllObjectSide(t *testing.T) {
	iface := testGetAllInterface()

	res, err := EmitInterfaceGetAll("my", iface)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_com_example_Foo_get_all" {
		t.Errorf("unexpected function name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, "my_com_example_Foo_count_get") {
		t.Errorf("missing readable property getter call:\n%s", res.Code)
	}
	if strings.Contains(res.Code, "my_com_example_Foo_secret_get") {
		t.Errorf("write-only property must not be included:\n%s", res.Code)
	}
}

func TestEmitInterfaceProxyGetAllSyncFunction(t *testing.T) {
	iface := testGetAllInterface()

	res, err := EmitInterfaceProxyGetAllSyncFunction("my", iface)
	if err != nil {
		t.Fatal(err)
	}
	if res.Prototype.Name != "my_foo_get_all_sync" {
		t.Errorf("unexpected function name: %s", res.Prototype.Name)
	}
	if !strings.Contains(res.Code, "dbus_connection_send_with_reply_and_block") {
		t.Errorf("missing blocking send:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, `if (! strcmp (property_name, "Count"))`) {
		t.Errorf("missing dispatch for readable property Count:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, `if (! strcmp (property_name, "Name"))`) {
		t.Errorf("missing dispatch for readable property Name:\n%s", res.Code)
	}
	if strings.Contains(res.Code, `"Secret"`) {
		t.Errorf("write-only property must not be dispatched:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "properties->count = value;") {
		t.Errorf("missing struct member assignment for count:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "properties->name = value;") {
		t.Errorf("missing struct member assignment for name:\n%s", res.Code)
	}

	var found bool
	for _, s := range res.Structs {
		if s.Name == "MyFooProperties" {
			found = true
			if len(s.Members) != 2 {
				t.Errorf("expected 2 members on %s, got %+v", s.Name, s.Members)
			}
		}
	}
	if !found {
		t.Errorf("missing MyFooProperties struct in result, got %+v", res.Structs)
	}
}
