package ast

import (
	"fmt"
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/symbol"
)

// ValidName reports whether name is a legal D-Bus member name: 1 to 255
// characters drawn from [A-Za-z_][A-Za-z0-9_]*.
func ValidName(name string) bool {
	if len(name) < 1 || len(name) > 255 {
		return false
	}
	return symbol.Valid(name)
}

// ValidObjectPath reports whether path is a legal D-Bus object path: it
// begins with '/', each '/'-delimited component matches [A-Za-z0-9_]+,
// and the root "/" is the only path permitted to end in a slash.
func ValidObjectPath(path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	if path == "/" {
		return true
	}
	if strings.HasSuffix(path, "/") {
		return false
	}
	for _, component := range strings.Split(path[1:], "/") {
		if component == "" {
			return false
		}
		for _, r := range component {
			ok := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
			if !ok {
				return false
			}
		}
	}
	return true
}

// ValidateNode checks every member name in node and returns the first
// violation found, or nil if node is well formed. The core does not call
// this itself — it trusts the AST it is handed — but internal/introspect
// calls it while building the AST from XML, per the upstream validation
// rules this package documents.
func ValidateNode(node *Node) error {
	if !ValidObjectPath(node.Path) {
		return fmt.Errorf("invalid object path %q", node.Path)
	}
	for _, iface := range node.Interfaces {
		for _, m := range iface.Methods {
			if !ValidName(m.Name) {
				return fmt.Errorf("interface %s: invalid method name %q", iface.Name, m.Name)
			}
			for _, a := range m.Arguments {
				if a.Name != "" && !ValidName(a.Name) {
					return fmt.Errorf("interface %s, method %s: invalid argument name %q", iface.Name, m.Name, a.Name)
				}
			}
		}
		for _, s := range iface.Signals {
			if !ValidName(s.Name) {
				return fmt.Errorf("interface %s: invalid signal name %q", iface.Name, s.Name)
			}
		}
		for _, p := range iface.Properties {
			if !ValidName(p.Name) {
				return fmt.Errorf("interface %s: invalid property name %q", iface.Name, p.Name)
			}
		}
	}
	return nil
}
