package reporter

import (
	"strings"
	"testing"
)

func TestFormatIncludesCaret(t *testing.T) {
	e := New(Position{Line: 2, Column: 5}, "invalid property access", "line one\nline two\nline three", "foo.xml")
	out := e.Format(false)
	if !strings.Contains(out, "Error in foo.xml:2:5") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "line two") {
		t.Errorf("missing source line:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("missing caret:\n%s", out)
	}
}

func TestFormatErrorsMultiple(t *testing.T) {
	errs := []*GeneratorError{
		New(Position{Line: 1, Column: 1}, "first", "", ""),
		New(Position{Line: 2, Column: 1}, "second", "", ""),
	}
	out := FormatErrors(errs, false)
	if !strings.Contains(out, "2 error(s)") {
		t.Errorf("missing error count:\n%s", out)
	}
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("missing both messages:\n%s", out)
	}
}

func TestFormatErrorsEmpty(t *testing.T) {
	if FormatErrors(nil, false) != "" {
		t.Error("expected empty string for no errors")
	}
}
