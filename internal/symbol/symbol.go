// Package symbol derives C identifiers from D-Bus names: interface
// symbols, member symbols, and the various internal/external/typedef
// names the generator stitches together from them.
package symbol

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser uppercases only the first rune of the string it is given,
// leaving the rest untouched — the "strcat_title" behaviour of the
// original generator, not a full title-case of every word.
var titleCaser = cases.Title(language.Und, cases.NoLower)

// Valid reports whether s is a legal C symbol: starts with a letter or
// underscore, followed by any number of letters, digits, or underscores.
func Valid(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_':
			// always valid
		default:
			return false
		}
	}
	return true
}

// FromName converts a D-Bus style CamelCase name to lower_snake_case: the
// name is lower-cased and an underscore is inserted before any capital
// that follows a lowercase letter or digit and is not already preceded by
// an underscore or another capital.
func FromName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			if prev != '_' && !(prev >= 'A' && prev <= 'Z') {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// catInterface appends name to str, replacing every '.' with '_' — used
// to fold a dotted interface name into an underscore-joined symbol
// component.
func catInterface(str, name string) string {
	return str + strings.ReplaceAll(name, ".", "_")
}

// ToTitleCase strips underscores from name and uppercases the first
// character of every underscore-delimited word, e.g. "my_method" becomes
// "MyMethod". It is the inverse of FromName for names that FromName
// itself produced.
func ToTitleCase(name string) string {
	var b strings.Builder

	first := true
	for _, r := range name {
		if r == '_' {
			first = true
			continue
		}
		if first {
			b.WriteString(titleCaser.String(string(r)))
			first = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// catTitle appends name to str via ToTitleCase.
func catTitle(str, name string) string {
	return str + ToTitleCase(name)
}

// Impl generates a C symbol for a statically-linked implementation
// function: prefix, the dotted interfaceName (periods folded to
// underscores), the optional member name, and the optional postfix are
// joined with underscores. name and postfix are omitted when empty;
// postfix without name is still honoured.
func Impl(prefix, interfaceName, name, postfix string) string {
	str := prefix + "_"
	str = catInterface(str, interfaceName)
	if name != "" {
		str += "_" + name
	}
	if postfix != "" {
		str += "_" + postfix
	}
	return str
}

// Extern generates a C symbol for an externally-visible function: prefix
// is always present, interfaceSymbol/midfix/postfix are included only
// when non-empty.
func Extern(prefix, interfaceSymbol, midfix, symbol, postfix string) string {
	str := prefix + "_"
	if interfaceSymbol != "" {
		str += interfaceSymbol + "_"
	}
	if midfix != "" {
		str += midfix + "_"
	}
	str += symbol
	if postfix != "" {
		str += "_" + postfix
	}
	return str
}

// Typedef generates a C typedef name with the same component structure as
// Extern, but each component is rendered TitleCase (first letter of every
// underscore-delimited word uppercased, underscores removed) and the
// components are concatenated directly rather than underscore-joined.
func Typedef(prefix, interfaceSymbol, midfix, symbol, postfix string) string {
	str := ""
	str = catTitle(str, prefix+"_")
	if interfaceSymbol != "" {
		str = catTitle(str, interfaceSymbol+"_")
	}
	if midfix != "" {
		str = catTitle(str, midfix+"_")
	}
	str = catTitle(str, symbol)
	if postfix != "" {
		str = catTitle(str, "_"+postfix)
	}
	return str
}
