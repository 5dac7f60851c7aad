package typesys

import (
	"testing"

	"github.com/keybuk/go-dbus-tool/internal/signature"
)

func TestBasicType(t *testing.T) {
	cases := map[signature.TypeCode]string{
		signature.TypeByte:       "uint8_t",
		signature.TypeBoolean:    "int",
		signature.TypeInt32:      "int32_t",
		signature.TypeUint64:     "uint64_t",
		signature.TypeDouble:     "double",
		signature.TypeString:     "const char *",
		signature.TypeObjectPath: "const char *",
	}
	for code, want := range cases {
		got, err := BasicType(code)
		if err != nil {
			t.Fatalf("BasicType(%v): %v", code, err)
		}
		if got != want {
			t.Errorf("BasicType(%v) = %q, want %q", code, got, want)
		}
	}
}

func TestBasicTypeRejectsContainer(t *testing.T) {
	if _, err := BasicType(signature.TypeArray); err == nil {
		t.Error("expected error for container type")
	}
}

func TestBasicDBusGetTypeBoolean(t *testing.T) {
	got, err := BasicDBusGetType(signature.TypeBoolean)
	if err != nil {
		t.Fatal(err)
	}
	if got != "dbus_bool_t" {
		t.Errorf("BasicDBusGetType(boolean) = %q, want dbus_bool_t", got)
	}
}

func TestIsStringLike(t *testing.T) {
	for _, code := range []signature.TypeCode{signature.TypeString, signature.TypeObjectPath, signature.TypeSignature} {
		if !IsStringLike(code) {
			t.Errorf("IsStringLike(%v) = false, want true", code)
		}
	}
	if IsStringLike(signature.TypeInt32) {
		t.Error("IsStringLike(int32) = true, want false")
	}
}
