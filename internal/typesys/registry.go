package typesys

import (
	"fmt"

	"github.com/keybuk/go-dbus-tool/internal/signature"
)

// basicType records the single native spelling nih-dbus-tool's type_of
// table assigns to one D-Bus basic type code. The same spelling is used
// whether the value is travelling in (a marshal input) or out (a
// demarshal output): for the string-like types this is "const char *",
// and a demarshalled value is simply assigned into that const-qualified
// storage since ownership transfer doesn't require a mutable spelling.
type basicType struct {
	code    signature.TypeCode
	spell   string
	dbusGet string // dbus_message_iter_get_basic cast target
}

// basicTypes mirrors nih-dbus-tool's type_of/type_basic_type table in
// type.c: every BASIC-FIXED and BASIC-VARIABLE D-Bus type code maps to
// exactly one native C spelling.
var basicTypes = []basicType{
	{signature.TypeByte, "uint8_t", "uint8_t"},
	{signature.TypeBoolean, "int", "dbus_bool_t"},
	{signature.TypeInt16, "int16_t", "int16_t"},
	{signature.TypeUint16, "uint16_t", "uint16_t"},
	{signature.TypeInt32, "int32_t", "int32_t"},
	{signature.TypeUint32, "uint32_t", "uint32_t"},
	{signature.TypeInt64, "int64_t", "int64_t"},
	{signature.TypeUint64, "uint64_t", "uint64_t"},
	{signature.TypeDouble, "double", "double"},
	{signature.TypeUnixFD, "int", "int"},
	{signature.TypeString, "const char *", "char *"},
	{signature.TypeObjectPath, "const char *", "char *"},
	{signature.TypeSignature, "const char *", "char *"},
}

func lookup(code signature.TypeCode) (basicType, bool) {
	for _, bt := range basicTypes {
		if bt.code == code {
			return bt, true
		}
	}
	return basicType{}, false
}

// BasicType returns the single native C type spelling used for the
// given basic D-Bus type, whether it names a marshal input, a demarshal
// output, or a structure member — e.g. TypeInt32 gives "int32_t" and
// TypeString gives "const char *". It returns an error if code does not
// name a basic type.
func BasicType(code signature.TypeCode) (string, error) {
	bt, ok := lookup(code)
	if !ok {
		return "", fmt.Errorf("typesys: %v is not a basic D-Bus type", code)
	}
	return bt.spell, nil
}

// BasicDBusGetType returns the type dbus_message_iter_get_basic actually
// writes through its pointer argument for the given basic D-Bus type.
// This is almost always BasicType, except for DBUS_TYPE_BOOLEAN: the
// wire boolean is D-Bus's 4-byte dbus_bool_t, not the plain int used
// everywhere else a boolean value is passed around, so a property
// getter reading straight out of a variant sub-iterator must use this
// spelling rather than BasicType to avoid reading past a narrower
// local.
func BasicDBusGetType(code signature.TypeCode) (string, error) {
	bt, ok := lookup(code)
	if !ok {
		return "", fmt.Errorf("typesys: %v is not a basic D-Bus type", code)
	}
	return bt.dbusGet, nil
}

// IsStringLike reports whether code is one of the three basic types
// whose native spelling is a C string: string, object_path, signature.
// These three share marshalling/demarshalling code in the walker, since
// object paths and signatures are themselves just constrained strings
// on the wire.
func IsStringLike(code signature.TypeCode) bool {
	return code == signature.TypeString || code == signature.TypeObjectPath || code == signature.TypeSignature
}
