package render

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/typesys"
)

func TestAssembleHeaderIncludesGuardAndStructs(t *testing.T) {
	structs := []typesys.Struct{
		{Name: "MyFooBar", Members: []typesys.Variable{{TypeSpelling: "int32_t", Name: "item0"}}},
	}
	protos := []typesys.Function{
		{ReturnType: "int", Name: "my_foo_bar", Args: []typesys.Variable{{TypeSpelling: "void *", Name: "data"}}},
	}

	out := AssembleHeader("MY_FOO_H", structs, protos)
	if !strings.Contains(out, "#ifndef MY_FOO_H") || !strings.Contains(out, "#endif /* MY_FOO_H */") {
		t.Errorf("missing include guard:\n%s", out)
	}
	if !strings.Contains(out, "typedef struct MyFooBar") {
		t.Errorf("missing struct typedef:\n%s", out)
	}
	if !strings.Contains(out, "my_foo_bar (void *data);") {
		t.Errorf("missing prototype:\n%s", out)
	}
}

func TestAssembleSourceIncludesHeader(t *testing.T) {
	out := AssembleSource("my_foo.h", []string{"extra.h"}, "int x;\n")
	if !strings.Contains(out, `#include "my_foo.h"`) {
		t.Errorf("missing header include:\n%s", out)
	}
	if !strings.Contains(out, `#include "extra.h"`) {
		t.Errorf("missing extra include:\n%s", out)
	}
	if !strings.Contains(out, "int x;") {
		t.Errorf("missing body code:\n%s", out)
	}
}
