package typesys

import "testing"

func TestToPointer(t *testing.T) {
	cases := map[string]string{
		"const T *":   "T * const *",
		"T * const *": "T ** const *",
		"char *":      "char **",
		"int":         "int *",
	}
	for in, want := range cases {
		if got := ToPointer(in); got != want {
			t.Errorf("ToPointer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToConst(t *testing.T) {
	if got := ToConst("char *"); got != "const char *" {
		t.Errorf("ToConst(char *) = %q", got)
	}
	if got := ToConst("const char *"); got != "const char *" {
		t.Errorf("ToConst not idempotent: %q", got)
	}
	if got := ToConst(ToConst("char *")); got != "const char *" {
		t.Errorf("ToConst twice = %q", got)
	}
}

func TestToStaticToExternIdempotent(t *testing.T) {
	if got := ToStatic(ToStatic("int foo(void)")); got != "static int foo(void)" {
		t.Errorf("ToStatic = %q", got)
	}
	if got := ToExtern(ToExtern("int foo(void)")); got != "extern int foo(void)" {
		t.Errorf("ToExtern = %q", got)
	}
}

func TestVarLayout(t *testing.T) {
	vars := []Variable{
		{TypeSpelling: "int", Name: "count"},
		{TypeSpelling: "char *", Name: "name"},
	}
	got := VarLayout(vars)
	want := "int   count;\nchar *name;\n"
	if got != want {
		t.Errorf("VarLayout =\n%q\nwant\n%q", got, want)
	}
}

func TestStrcatAssert(t *testing.T) {
	arr := Variable{TypeSpelling: "char **", Name: "values"}
	size := Variable{TypeSpelling: "size_t", Name: "values_len"}
	if got := StrcatAssert(arr, nil, &size); got != "assert((values_len == 0) || (values != NULL));\n" {
		t.Errorf("StrcatAssert(ptr, _, size) = %q", got)
	}

	sizePtr := Variable{TypeSpelling: "size_t *", Name: "len"}
	if got := StrcatAssert(sizePtr, &arr, nil); got != "assert((*values == NULL) || (len != NULL));\n" {
		t.Errorf("StrcatAssert(size_ptr, array, _) = %q", got)
	}

	plain := Variable{TypeSpelling: "char *", Name: "name"}
	if got := StrcatAssert(plain, nil, nil); got != "assert(name != NULL);\n" {
		t.Errorf("StrcatAssert(plain) = %q", got)
	}

	nonPointer := Variable{TypeSpelling: "int32_t", Name: "count"}
	if got := StrcatAssert(nonPointer, nil, nil); got != "" {
		t.Errorf("StrcatAssert(non-pointer) = %q, want empty", got)
	}
}
