package node

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/ast"
)

func sampleNode() ast.Node {
	return ast.Node{
		Path: "/com/example/Foo",
		Interfaces: []ast.Interface{
			{
				Name:       "com.example.Foo",
				Symbol:     "foo",
				Deprecated: true,
				Methods: []ast.Method{
					{
						Name:   "Bar",
						Symbol: "bar",
						Arguments: []ast.Argument{
							{Name: "name", Symbol: "name", Type: "s", Direction: ast.DirectionIn},
							{Name: "count", Symbol: "count", Type: "i", Direction: ast.DirectionOut},
						},
					},
				},
				Signals: []ast.Signal{
					{
						Name:   "Changed",
						Symbol: "changed",
						Arguments: []ast.Argument{
							{Name: "value", Symbol: "value", Type: "s", Direction: ast.DirectionOut},
						},
					},
				},
				Properties: []ast.Property{
					{Name: "Count", Symbol: "count", Type: "i", Access: ast.AccessReadWrite},
				},
			},
		},
	}
}

func TestGenerateObjectDeprecatedPropagates(t *testing.T) {
	res, err := GenerateObject("my", sampleNode())
	if err != nil {
		t.Fatal(err)
	}
	var methodProto bool
	for _, p := range res.Prototypes {
		if strings.HasSuffix(p.Name, "_bar_method") {
			methodProto = true
			var deprecated bool
			for _, a := range p.Attribs {
				if a == "deprecated" {
					deprecated = true
				}
			}
			if !deprecated {
				t.Errorf("expected method prototype to carry deprecated attribute: %+v", p)
			}
		}
	}
	if !methodProto {
		t.Fatal("expected to find the method's object-function prototype")
	}
	if !strings.Contains(res.Code, "get_all") {
		t.Errorf("expected a GetAll function for the interface's properties:\n%s", res.Code)
	}
}

func TestGenerateObjectDedupesStructs(t *testing.T) {
	n := sampleNode()
	n.Interfaces[0].Methods = append(n.Interfaces[0].Methods, ast.Method{
		Name:   "Baz",
		Symbol: "baz",
		Arguments: []ast.Argument{
			{Name: "pair", Symbol: "pair", Type: "(si)", Direction: ast.DirectionIn},
			{Name: "pair2", Symbol: "pair2", Type: "(si)", Direction: ast.DirectionIn},
		},
	})

	res, err := GenerateObject("my", n)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]int{}
	for _, s := range res.Structs {
		seen[s.Name]++
	}
	for name, n := range seen {
		if n > 1 {
			t.Errorf("struct %s listed %d times, expected deduplication", name, n)
		}
	}
}

func TestGenerateProxy(t *testing.T) {
	res, err := GenerateProxy("my", sampleNode())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "dbus_message_new_method_call") {
		t.Errorf("expected a proxy method caller in generated code:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "dbus_message_is_signal") {
		t.Errorf("expected a proxy signal filter in generated code:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "get_all_sync") {
		t.Errorf("expected a proxy-side GetAll sync function in generated code:\n%s", res.Code)
	}
}
