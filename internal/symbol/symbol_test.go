package symbol

import "testing"

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"foo":      true,
		"_foo":     true,
		"foo_bar9": true,
		"9foo":     false,
		"":         false,
		"foo-bar":  false,
		"foo.bar":  false,
	}
	for in, want := range cases {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromName(t *testing.T) {
	cases := map[string]string{
		"CamelCase":      "camel_case",
		"CamelCase_Mixed": "camel_case_mixed",
		"GetAll":         "get_all",
		"HTTPServer":     "httpserver",
		"already_snake":  "already_snake",
		"A":              "a",
	}
	for in, want := range cases {
		if got := FromName(in); got != want {
			t.Errorf("FromName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitleCaseRoundTrip(t *testing.T) {
	for _, in := range []string{"MyMethod", "GetAll", "A", "Frobnicate"} {
		snake := FromName(in)
		back := ToTitleCase(snake)
		if back != in {
			t.Errorf("ToTitleCase(FromName(%q)) = %q, want %q", in, back, in)
		}
	}
}

func TestImpl(t *testing.T) {
	got := Impl("my_prefix", "com.example.Foo", "my_method", "")
	want := "my_prefix_com_example_Foo_my_method"
	if got != want {
		t.Errorf("Impl = %q, want %q", got, want)
	}

	got = Impl("my_prefix", "com.example.Foo", "", "")
	want = "my_prefix_com_example_Foo"
	if got != want {
		t.Errorf("Impl = %q, want %q", got, want)
	}
}

func TestExtern(t *testing.T) {
	got := Extern("my", "foo", "", "my_method", "")
	want := "my_foo_my_method"
	if got != want {
		t.Errorf("Extern = %q, want %q", got, want)
	}

	got = Extern("my", "foo", "method", "my_method", "notify")
	want = "my_foo_method_my_method_notify"
	if got != want {
		t.Errorf("Extern = %q, want %q", got, want)
	}
}

func TestTypedef(t *testing.T) {
	got := Typedef("my", "foo", "", "my_method", "reply")
	want := "MyFooMyMethodReply"
	if got != want {
		t.Errorf("Typedef = %q, want %q", got, want)
	}
}
