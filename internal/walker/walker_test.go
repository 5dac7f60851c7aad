package walker

import (
	"strings"
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/signature"
)

func mustParse(t *testing.T, sig string) signature.Iterator {
	t.Helper()
	it, err := signature.Parse(sig)
	if err != nil {
		t.Fatalf("Parse(%q): %v", sig, err)
	}
	return it
}

func TestMarshalBasicInt32(t *testing.T) {
	it := mustParse(t, "i")
	res, err := Walk(Marshal, it, Env{
		IterName:     "iter",
		Name:         "value",
		OOMErrorCode: "return NULL;\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "dbus_message_iter_append_basic (&iter, DBUS_TYPE_INT32, &value)") {
		t.Errorf("code missing append_basic call:\n%s", res.Code)
	}
	if len(res.Vars) != 1 || res.Vars[0].TypeSpelling != "int32_t" || res.Vars[0].Name != "value" {
		t.Errorf("unexpected input vars: %+v", res.Vars)
	}
}

func TestDemarshalBasicString(t *testing.T) {
	it := mustParse(t, "s")
	res, err := Walk(Demarshal, it, Env{
		ParentName:    "parent",
		IterName:      "iter",
		Name:          "value",
		OOMErrorCode:  "return NULL;\n",
		TypeErrorCode: "return NULL;\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "nih_strdup (parent, value_dbus)") {
		t.Errorf("code missing nih_strdup call:\n%s", res.Code)
	}
	if len(res.Locals) != 1 || res.Locals[0].Name != "value_dbus" {
		t.Errorf("unexpected locals: %+v", res.Locals)
	}
	if len(res.Vars) != 1 || res.Vars[0].TypeSpelling != "const char *" {
		t.Errorf("unexpected output var: %+v", res.Vars)
	}
}

func TestMarshalFixedArray(t *testing.T) {
	it := mustParse(t, "ai")
	res, err := Walk(Marshal, it, Env{
		IterName:     "iter",
		Name:         "values",
		OOMErrorCode: "return NULL;\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, `dbus_message_iter_open_container (&iter, DBUS_TYPE_ARRAY, "i", &values_iter)`) {
		t.Errorf("missing open_container:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "for (size_t values_i = 0; values_i < values_len; values_i++)") {
		t.Errorf("missing fixed-type for loop:\n%s", res.Code)
	}

	var gotLen, gotPtr bool
	for _, v := range res.Vars {
		if v.Name == "values_len" && v.TypeSpelling == "size_t" {
			gotLen = true
		}
		if v.Name == "values" && v.TypeSpelling == "int32_t *" {
			gotPtr = true
		}
	}
	if !gotLen {
		t.Errorf("expected values_len size_t input, got %+v", res.Vars)
	}
	if !gotPtr {
		t.Errorf("expected values int32_t * input, got %+v", res.Vars)
	}
}

func TestMarshalVariableArray(t *testing.T) {
	it := mustParse(t, "as")
	res, err := Walk(Marshal, it, Env{
		IterName:     "iter",
		Name:         "values",
		OOMErrorCode: "return NULL;\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "for (size_t values_i = 0; values[values_i]; values_i++)") {
		t.Errorf("missing NULL-terminated for loop:\n%s", res.Code)
	}
	for _, v := range res.Vars {
		if v.Name == "values_len" {
			t.Errorf("variable-type array must not need a _len input: %+v", res.Vars)
		}
	}
}

func TestDemarshalArrayAllocates(t *testing.T) {
	it := mustParse(t, "as")
	res, err := Walk(Demarshal, it, Env{
		ParentName:    "parent",
		IterName:      "iter",
		Name:          "values",
		OOMErrorCode:  "return NULL;\n",
		TypeErrorCode: "return NULL;\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "nih_alloc (parent, sizeof (const char *))") {
		t.Errorf("missing initial alloc:\n%s", res.Code)
	}
	if !strings.Contains(res.Code, "values_tmp = nih_realloc (values, parent, sizeof (const char *) * (values_size + 2))") {
		t.Errorf("missing realloc growth:\n%s", res.Code)
	}
}

func TestMarshalStruct(t *testing.T) {
	it := mustParse(t, "(si)")
	res, err := Walk(Marshal, it, Env{
		IterName:     "iter",
		Name:         "value",
		OOMErrorCode: "return NULL;\n",
		Naming: Naming{
			Prefix:          "my",
			InterfaceSymbol: "foo",
			MemberSymbol:    "bar",
			Symbol:          "value",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Structs) != 1 {
		t.Fatalf("expected exactly one struct definition, got %d", len(res.Structs))
	}
	st := res.Structs[0]
	if st.Name != "MyFooBarValue" {
		t.Errorf("struct name = %q, want MyFooBarValue", st.Name)
	}
	if len(st.Members) != 2 || st.Members[0].Name != "item0" || st.Members[1].Name != "item1" {
		t.Errorf("unexpected struct members: %+v", st.Members)
	}
	if !strings.Contains(res.Code, "dbus_message_iter_open_container (&iter, DBUS_TYPE_STRUCT, NULL, &value_iter)") {
		t.Errorf("missing open_container for struct:\n%s", res.Code)
	}
}

func TestDemarshalDictEntry(t *testing.T) {
	it := mustParse(t, "{si}")
	res, err := Walk(Demarshal, it, Env{
		ParentName:    "parent",
		IterName:      "iter",
		Name:          "entry",
		OOMErrorCode:  "return NULL;\n",
		TypeErrorCode: "return NULL;\n",
		Naming: Naming{
			Prefix:       "my",
			MemberSymbol: "bar",
			Symbol:       "entry",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Code, "DBUS_TYPE_DICT_ENTRY") {
		t.Errorf("expected dict_entry type check:\n%s", res.Code)
	}
	if len(res.Structs) != 1 || len(res.Structs[0].Members) != 2 {
		t.Fatalf("unexpected structs: %+v", res.Structs)
	}
}
