package ast

import "testing"

func TestMethodNormalizePrecedence(t *testing.T) {
	// Rule: (1) any out argument clears NoReply; (2) NoReply then clears Async.
	m := Method{
		NoReply: true,
		Async:   true,
		Arguments: []Argument{
			{Name: "result", Direction: DirectionOut},
		},
	}
	cleared := m.Normalize()
	if !cleared {
		t.Fatal("expected NoReply to be cleared by output argument rule")
	}
	if m.NoReply {
		t.Error("NoReply should have been cleared")
	}
	if !m.Async {
		t.Error("Async should survive once NoReply is cleared by rule (1)")
	}
}

func TestMethodNormalizeNoReplyClearsAsync(t *testing.T) {
	m := Method{NoReply: true, Async: true}
	cleared := m.Normalize()
	if cleared {
		t.Fatal("no output argument present, rule (1) should not fire")
	}
	if !m.NoReply {
		t.Error("NoReply should remain set")
	}
	if m.Async {
		t.Error("Async should be cleared by rule (2)")
	}
}

func TestValidObjectPath(t *testing.T) {
	cases := map[string]bool{
		"/":              true,
		"/foo":           true,
		"/foo/bar_baz":   true,
		"/foo/":          false,
		"foo":            false,
		"/foo/-bar":      false,
		"/foo//bar":      false,
	}
	for in, want := range cases {
		if got := ValidObjectPath(in); got != want {
			t.Errorf("ValidObjectPath(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidateNodeRejectsBadName(t *testing.T) {
	node := &Node{
		Path: "/com/example/Foo",
		Interfaces: []Interface{
			{Name: "com.example.Foo", Methods: []Method{{Name: "9Bad"}}},
		},
	}
	if err := ValidateNode(node); err == nil {
		t.Fatal("expected validation error for bad method name")
	}
}
