// Package signature defines the signature iterator the walker consumes,
// plus a concrete implementation over a D-Bus type signature string so
// the core can be exercised without a live D-Bus library.
package signature

import "fmt"

// TypeCode identifies one element of a D-Bus type signature.
type TypeCode byte

// The D-Bus type codes the generator understands. Values match the
// wire-protocol type codes used by the reference D-Bus implementation.
const (
	TypeInvalid    TypeCode = 0
	TypeByte       TypeCode = 'y'
	TypeBoolean    TypeCode = 'b'
	TypeInt16      TypeCode = 'n'
	TypeUint16     TypeCode = 'q'
	TypeInt32      TypeCode = 'i'
	TypeUint32     TypeCode = 'u'
	TypeInt64      TypeCode = 'x'
	TypeUint64     TypeCode = 't'
	TypeDouble     TypeCode = 'd'
	TypeString     TypeCode = 's'
	TypeObjectPath TypeCode = 'o'
	TypeSignature  TypeCode = 'g'
	TypeUnixFD     TypeCode = 'h'
	TypeArray      TypeCode = 'a'
	TypeStruct     TypeCode = 'r' // canonical code; wire form uses '(' ')'
	TypeDictEntry  TypeCode = 'e' // canonical code; wire form uses '{' '}'
	TypeVariant    TypeCode = 'v'
)

// String renders the D-Bus constant name for a type code, matching
// nih-dbus-tool's type_const.
func (c TypeCode) String() string {
	switch c {
	case TypeByte:
		return "DBUS_TYPE_BYTE"
	case TypeBoolean:
		return "DBUS_TYPE_BOOLEAN"
	case TypeInt16:
		return "DBUS_TYPE_INT16"
	case TypeUint16:
		return "DBUS_TYPE_UINT16"
	case TypeInt32:
		return "DBUS_TYPE_INT32"
	case TypeUint32:
		return "DBUS_TYPE_UINT32"
	case TypeInt64:
		return "DBUS_TYPE_INT64"
	case TypeUint64:
		return "DBUS_TYPE_UINT64"
	case TypeDouble:
		return "DBUS_TYPE_DOUBLE"
	case TypeString:
		return "DBUS_TYPE_STRING"
	case TypeObjectPath:
		return "DBUS_TYPE_OBJECT_PATH"
	case TypeSignature:
		return "DBUS_TYPE_SIGNATURE"
	case TypeUnixFD:
		return "DBUS_TYPE_UNIX_FD"
	case TypeArray:
		return "DBUS_TYPE_ARRAY"
	case TypeStruct:
		return "DBUS_TYPE_STRUCT"
	case TypeDictEntry:
		return "DBUS_TYPE_DICT_ENTRY"
	case TypeVariant:
		return "DBUS_TYPE_VARIANT"
	default:
		return fmt.Sprintf("DBUS_TYPE_INVALID(%q)", byte(c))
	}
}

// IsBasicFixed reports whether c is one of the fixed-size basic types:
// byte, boolean, the sized integers, double, or unix_fd.
func IsBasicFixed(c TypeCode) bool {
	switch c {
	case TypeByte, TypeBoolean, TypeInt16, TypeUint16, TypeInt32, TypeUint32,
		TypeInt64, TypeUint64, TypeDouble, TypeUnixFD:
		return true
	default:
		return false
	}
}

// IsBasicVariable reports whether c is one of the variable-length basic
// types: string, object_path, or signature.
func IsBasicVariable(c TypeCode) bool {
	switch c {
	case TypeString, TypeObjectPath, TypeSignature:
		return true
	default:
		return false
	}
}

// IsBasic reports whether c is any basic (fixed or variable) type.
func IsBasic(c TypeCode) bool {
	return IsBasicFixed(c) || IsBasicVariable(c)
}

// IsContainer reports whether c is a container type: array, struct, or
// dict_entry.
func IsContainer(c TypeCode) bool {
	switch c {
	case TypeArray, TypeStruct, TypeDictEntry:
		return true
	default:
		return false
	}
}

// Iterator is the opaque cursor the walker requires into a D-Bus type
// signature. A real binding supplies this over the D-Bus library's own
// DBusSignatureIter; Parse below gives a standalone implementation driven
// purely by a signature string, used for tests and for any caller that
// only has the textual signature available (e.g. from introspection XML).
type Iterator interface {
	// CurrentType returns the type code at the iterator's current
	// position, or TypeInvalid once iteration is exhausted.
	CurrentType() TypeCode

	// IsBasic reports whether CurrentType is a basic type.
	IsBasic() bool

	// IsFixed reports whether CurrentType is a basic-fixed type.
	IsFixed() bool

	// Recurse returns a sub-iterator over the current container
	// element's children (the element signature of an array, or the
	// member signatures of a struct/dict_entry). Only valid when
	// CurrentType is a container type.
	Recurse() Iterator

	// Next advances the iterator to the next sibling element, and
	// reports whether a next element exists.
	Next() bool

	// SignatureString returns the D-Bus type signature of the element
	// the iterator currently points to, rendered as the canonical
	// bracketed form (e.g. "a(sv)" stays "(sv)" for the struct within
	// it) — needed to embed e.g. an array's element signature literally
	// into generated code that opens a matching container.
	SignatureString() string
}
