// Package config loads the YAML manifest that overrides per-interface
// and per-member generation settings (symbol names, Async/NoReply
// flags) the introspection XML itself doesn't carry, and provides the
// JSON path get/set operations the "inspect" subcommand uses to patch a
// serialized AST in place.
package config

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/keybuk/go-dbus-tool/internal/ast"
)

// MethodOverride supplies per-method overrides a manifest can apply on
// top of whatever internal/introspect derived from the XML.
type MethodOverride struct {
	Symbol  string `yaml:"symbol,omitempty"`
	Async   *bool  `yaml:"async,omitempty"`
	NoReply *bool  `yaml:"noReply,omitempty"`
}

// InterfaceOverride supplies per-interface overrides, including a map
// of per-method overrides keyed by method name.
type InterfaceOverride struct {
	Symbol  string                    `yaml:"symbol,omitempty"`
	Methods map[string]MethodOverride `yaml:"methods,omitempty"`
}

// Manifest is the top-level YAML document: one InterfaceOverride per
// dotted interface name.
type Manifest struct {
	Interfaces map[string]InterfaceOverride `yaml:"interfaces,omitempty"`
}

// Load parses a YAML manifest from r.
func Load(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parsing manifest: %w", err)
	}
	return &m, nil
}

// Apply mutates node in place, applying every override the manifest
// names. An interface or method named in the manifest but absent from
// node is silently ignored — the manifest may describe a superset of
// interfaces shared across several introspection documents.
func Apply(node *ast.Node, m *Manifest) {
	if m == nil {
		return
	}
	for i := range node.Interfaces {
		iface := &node.Interfaces[i]
		override, ok := m.Interfaces[iface.Name]
		if !ok {
			continue
		}
		if override.Symbol != "" {
			iface.Symbol = override.Symbol
		}
		for j := range iface.Methods {
			method := &iface.Methods[j]
			methodOverride, ok := override.Methods[method.Name]
			if !ok {
				continue
			}
			if methodOverride.Symbol != "" {
				method.Symbol = methodOverride.Symbol
			}
			if methodOverride.Async != nil {
				method.Async = *methodOverride.Async
			}
			if methodOverride.NoReply != nil {
				method.NoReply = *methodOverride.NoReply
			}
			method.Normalize()
		}
	}
}

// GetJSONPath reads the value at path out of a JSON-serialized AST
// document, for the "inspect" subcommand's read mode.
func GetJSONPath(doc, path string) (string, bool) {
	result := gjson.Get(doc, path)
	if !result.Exists() {
		return "", false
	}
	return result.Raw, true
}

// SetJSONPath writes value at path into a JSON-serialized AST document,
// returning the patched document, for "inspect --set path=value".
func SetJSONPath(doc, path, value string) (string, error) {
	patched, err := sjson.SetRaw(doc, path, value)
	if err != nil {
		return "", fmt.Errorf("config: setting %s: %w", path, err)
	}
	return patched, nil
}
