// Package introspect reads a D-Bus introspection XML document and
// builds the internal/ast tree the code-generation core consumes. It
// is the only package in the repository that imports encoding/xml —
// internal/walker, internal/emit, and internal/node never see XML, only
// the AST this package produces.
package introspect

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/ast"
	"github.com/keybuk/go-dbus-tool/internal/symbol"
)

const (
	annotationDeprecated = "org.freedesktop.DBus.Deprecated"
	annotationNoReply    = "org.freedesktop.DBus.Method.NoReply"
	annotationAsync      = "com.netsplit.Nih.Method.Async"
	annotationSymbol     = "com.netsplit.Nih.Symbol"
)

type xmlAnnotation struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlArg struct {
	Name      string `xml:"name,attr"`
	Type      string `xml:"type,attr"`
	Direction string `xml:"direction,attr"`
}

type xmlMethod struct {
	Name        string          `xml:"name,attr"`
	Args        []xmlArg        `xml:"arg"`
	Annotations []xmlAnnotation `xml:"annotation"`
}

type xmlSignal struct {
	Name        string          `xml:"name,attr"`
	Args        []xmlArg        `xml:"arg"`
	Annotations []xmlAnnotation `xml:"annotation"`
}

type xmlProperty struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	Access      string          `xml:"access,attr"`
	Annotations []xmlAnnotation `xml:"annotation"`
}

type xmlInterface struct {
	Name        string          `xml:"name,attr"`
	Methods     []xmlMethod     `xml:"method"`
	Signals     []xmlSignal     `xml:"signal"`
	Properties  []xmlProperty   `xml:"property"`
	Annotations []xmlAnnotation `xml:"annotation"`
}

type xmlNode struct {
	Name       string         `xml:"name,attr"`
	Interfaces []xmlInterface `xml:"interface"`
}

func annotationValue(anns []xmlAnnotation, name string) (string, bool) {
	for _, a := range anns {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func annotationFlag(anns []xmlAnnotation, name string) bool {
	v, ok := annotationValue(anns, name)
	return ok && v == "true"
}

func parseAccess(s string) (ast.Access, error) {
	switch s {
	case "read":
		return ast.AccessRead, nil
	case "write":
		return ast.AccessWrite, nil
	case "readwrite":
		return ast.AccessReadWrite, nil
	default:
		return 0, fmt.Errorf("introspect: invalid property access %q", s)
	}
}

func symbolFor(name string, anns []xmlAnnotation) string {
	if v, ok := annotationValue(anns, annotationSymbol); ok {
		return v
	}
	return symbol.FromName(name)
}

func convertArgs(args []xmlArg, defaultDirection ast.Direction) ([]ast.Argument, error) {
	var out []ast.Argument
	for _, a := range args {
		dir := defaultDirection
		switch a.Direction {
		case "", "in":
			dir = ast.DirectionIn
		case "out":
			dir = ast.DirectionOut
		default:
			return nil, fmt.Errorf("introspect: invalid arg direction %q", a.Direction)
		}
		if defaultDirection == ast.DirectionOut {
			// signal arguments carry no direction attribute and are
			// always "out".
			dir = ast.DirectionOut
		}
		out = append(out, ast.Argument{
			Name:      a.Name,
			Symbol:    symbol.FromName(a.Name),
			Type:      a.Type,
			Direction: dir,
		})
	}
	return out, nil
}

// Read parses the introspection document r and builds the equivalent
// ast.Node rooted at path, applying the annotation precedence rule
// (org.freedesktop.DBus.Method.NoReply and com.netsplit.Nih.Method.Async
// resolve through Method.Normalize once the tree is built) and rejecting
// any name that fails ast.ValidateNode. An interface without a
// com.netsplit.Nih.Symbol annotation gets the symbol.FromName form of
// the last component of its dotted name.
func Read(r io.Reader, path string) (*ast.Node, error) {
	var doc xmlNode
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("introspect: parsing XML: %w", err)
	}

	node := &ast.Node{Path: path}

	for _, xi := range doc.Interfaces {
		iface := ast.Interface{
			Name:       xi.Name,
			Symbol:     symbolFor(xi.Name[strings.LastIndex(xi.Name, ".")+1:], xi.Annotations),
			Deprecated: annotationFlag(xi.Annotations, annotationDeprecated),
		}

		for _, xm := range xi.Methods {
			args, err := convertArgs(xm.Args, ast.DirectionIn)
			if err != nil {
				return nil, fmt.Errorf("interface %s, method %s: %w", xi.Name, xm.Name, err)
			}
			m := ast.Method{
				Name:       xm.Name,
				Symbol:     symbolFor(xm.Name, xm.Annotations),
				Arguments:  args,
				Async:      annotationFlag(xm.Annotations, annotationAsync),
				NoReply:    annotationFlag(xm.Annotations, annotationNoReply),
				Deprecated: annotationFlag(xm.Annotations, annotationDeprecated),
			}
			m.Normalize()
			iface.Methods = append(iface.Methods, m)
		}

		for _, xs := range xi.Signals {
			args, err := convertArgs(xs.Args, ast.DirectionOut)
			if err != nil {
				return nil, fmt.Errorf("interface %s, signal %s: %w", xi.Name, xs.Name, err)
			}
			iface.Signals = append(iface.Signals, ast.Signal{
				Name:       xs.Name,
				Symbol:     symbolFor(xs.Name, xs.Annotations),
				Arguments:  args,
				Deprecated: annotationFlag(xs.Annotations, annotationDeprecated),
			})
		}

		for _, xp := range xi.Properties {
			access, err := parseAccess(xp.Access)
			if err != nil {
				return nil, fmt.Errorf("interface %s, property %s: %w", xi.Name, xp.Name, err)
			}
			iface.Properties = append(iface.Properties, ast.Property{
				Name:       xp.Name,
				Symbol:     symbolFor(xp.Name, xp.Annotations),
				Type:       xp.Type,
				Access:     access,
				Deprecated: annotationFlag(xp.Annotations, annotationDeprecated),
			})
		}

		node.Interfaces = append(node.Interfaces, iface)
	}

	if err := ast.ValidateNode(node); err != nil {
		return nil, err
	}

	return node, nil
}
