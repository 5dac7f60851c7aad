package introspect

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/ast"
)

const sampleXML = `
<node name="/com/example/Foo">
  <interface name="com.example.Foo">
    <method name="Bar">
      <arg name="input" type="s" direction="in"/>
      <arg name="output" type="i" direction="out"/>
      <annotation name="com.netsplit.Nih.Method.Async" value="true"/>
    </method>
    <signal name="Changed">
      <arg name="value" type="s"/>
    </signal>
    <property name="Count" type="i" access="readwrite"/>
  </interface>
</node>
`

func TestReadBuildsAST(t *testing.T) {
	node, err := Read(strings.NewReader(sampleXML), "/com/example/Foo")
	if err != nil {
		t.Fatal(err)
	}
	if len(node.Interfaces) != 1 {
		t.Fatalf("expected one interface, got %d", len(node.Interfaces))
	}
	iface := node.Interfaces[0]
	if len(iface.Methods) != 1 || !iface.Methods[0].Async {
		t.Fatalf("expected one async method, got %+v", iface.Methods)
	}
	if iface.Methods[0].Arguments[1].Direction != ast.DirectionOut {
		t.Errorf("expected second argument to be an out argument")
	}
	if len(iface.Signals) != 1 || iface.Signals[0].Arguments[0].Direction != ast.DirectionOut {
		t.Errorf("expected signal argument to default to out direction")
	}
	if len(iface.Properties) != 1 || iface.Properties[0].Access != ast.AccessReadWrite {
		t.Errorf("expected readwrite property, got %+v", iface.Properties)
	}
}

func TestReadRejectsInvalidObjectPath(t *testing.T) {
	_, err := Read(strings.NewReader(sampleXML), "not-a-path")
	if err == nil {
		t.Fatal("expected an error for an invalid object path")
	}
}

func TestReadSymbolOverrideAnnotation(t *testing.T) {
	const withOverride = `
<node name="/com/example/Foo">
  <interface name="com.example.Foo">
    <annotation name="com.netsplit.Nih.Symbol" value="widget"/>
  </interface>
</node>
`
	node, err := Read(strings.NewReader(withOverride), "/com/example/Foo")
	if err != nil {
		t.Fatal(err)
	}
	if node.Interfaces[0].Symbol != "widget" {
		t.Errorf("expected symbol override to apply, got %q", node.Interfaces[0].Symbol)
	}
}
