package render

import "testing"

func TestCheckVarBlocksDetectsMisalignment(t *testing.T) {
	source := "int   x;\nDBusMessage *reply;\n"
	issues := CheckVarBlocks(source)
	if len(issues) != 1 {
		t.Fatalf("expected one misaligned block, got %d: %+v", len(issues), issues)
	}
}

func TestCheckVarBlocksAcceptsAlignedBlock(t *testing.T) {
	source := "int          x;\nDBusMessage *reply;\n"
	issues := CheckVarBlocks(source)
	if len(issues) != 0 {
		t.Fatalf("expected no misalignments, got %+v", issues)
	}
}

func TestCheckVarBlocksIgnoresSingleLineBlocks(t *testing.T) {
	source := "int badly   aligned;\n\nint x;\n"
	if issues := CheckVarBlocks(source); len(issues) != 0 {
		t.Fatalf("single-line blocks should never be flagged, got %+v", issues)
	}
}

func TestCheckVarBlocksIgnoresFunctionCalls(t *testing.T) {
	source := "foo (bar, baz);\nqux (quux);\n"
	if issues := CheckVarBlocks(source); len(issues) != 0 {
		t.Fatalf("function calls must not be mistaken for declarations, got %+v", issues)
	}
}
