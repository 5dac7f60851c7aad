// Package node assembles the per-member functions internal/emit
// produces into one generated source file per node: it walks every
// interface's methods, signals, and properties breadth-first, dedups
// the struct definitions and prototypes members introduced along the
// way, and returns them alongside the concatenated function bodies; the
// aligned prototype and struct-definition blocks themselves are laid
// out by internal/render.
package node

import (
	"fmt"
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/ast"
	"github.com/keybuk/go-dbus-tool/internal/emit"
	"github.com/keybuk/go-dbus-tool/internal/typesys"
)

// Result is one generated source file: its function definitions in
// emission order, plus the declarations a caller needs to write out a
// companion header (struct typedefs and function prototypes, each
// deduplicated by name).
type Result struct {
	Structs    []typesys.Struct
	Prototypes []typesys.Function
	Code       string
}

// propagateDeprecated returns a copy of iface with Deprecated applied to
// every method, signal, and property that doesn't already carry its own
// annotation — nih-dbus-tool's node.c treats an interface's Deprecated
// flag as the default for everything it contains.
func propagateDeprecated(iface ast.Interface) ast.Interface {
	if !iface.Deprecated {
		return iface
	}
	out := iface
	out.Methods = append([]ast.Method(nil), iface.Methods...)
	for i := range out.Methods {
		out.Methods[i].Deprecated = true
	}
	out.Signals = append([]ast.Signal(nil), iface.Signals...)
	for i := range out.Signals {
		out.Signals[i].Deprecated = true
	}
	out.Properties = append([]ast.Property(nil), iface.Properties...)
	for i := range out.Properties {
		out.Properties[i].Deprecated = true
	}
	return out
}

func applyDeprecatedAttrib(fn *typesys.Function, deprecated bool) {
	if !deprecated {
		return
	}
	for _, a := range fn.Attribs {
		if a == "deprecated" {
			return
		}
	}
	fn.Attribs = append(fn.Attribs, "deprecated")
}

func dedupeStructs(all []typesys.Struct) []typesys.Struct {
	seen := make(map[string]bool, len(all))
	var out []typesys.Struct
	for _, s := range all {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, s)
	}
	return out
}

func dedupePrototypes(all []typesys.Function) []typesys.Function {
	seen := make(map[string]bool, len(all))
	var out []typesys.Function
	for _, f := range all {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out
}

// GenerateObject assembles the object-side (server) source for every
// interface on n: each method's dispatch function, each property's
// get/set functions plus the interface's GetAll, and each signal's
// emit function.
func GenerateObject(prefix string, n ast.Node) (Result, error) {
	var structs []typesys.Struct
	var prototypes []typesys.Function
	var code strings.Builder

	for _, rawIface := range n.Interfaces {
		iface := propagateDeprecated(rawIface)

		for _, m := range iface.Methods {
			m.Normalize()
			res, err := emit.EmitMethodObjectFunction(prefix, iface, m)
			if err != nil {
				return Result{}, fmt.Errorf("node: method %s.%s: %w", iface.Name, m.Name, err)
			}
			applyDeprecatedAttrib(&res.Prototype, m.Deprecated)
			if res.Handler != nil {
				applyDeprecatedAttrib(res.Handler, m.Deprecated)
				prototypes = append(prototypes, *res.Handler)
			}
			prototypes = append(prototypes, res.Prototype)
			structs = append(structs, res.Structs...)
			code.WriteString(res.Code)
			code.WriteString("\n")

			if m.Async {
				replyRes, err := emit.EmitMethodReply(prefix, iface, m)
				if err != nil {
					return Result{}, fmt.Errorf("node: method %s.%s reply: %w", iface.Name, m.Name, err)
				}
				applyDeprecatedAttrib(&replyRes.Prototype, m.Deprecated)
				prototypes = append(prototypes, replyRes.Prototype)
				structs = append(structs, replyRes.Structs...)
				code.WriteString(replyRes.Code)
				code.WriteString("\n")
			}
		}

		for _, s := range iface.Signals {
			res, err := emit.EmitSignalFunction(prefix, iface, s)
			if err != nil {
				return Result{}, fmt.Errorf("node: signal %s.%s: %w", iface.Name, s.Name, err)
			}
			applyDeprecatedAttrib(&res.Prototype, s.Deprecated)
			prototypes = append(prototypes, res.Prototype)
			structs = append(structs, res.Structs...)
			code.WriteString(res.Code)
			code.WriteString("\n")
		}

		for _, p := range iface.Properties {
			if p.Access.Readable() {
				res, err := emit.EmitPropertyObjectGetFunction(prefix, iface, p)
				if err != nil {
					return Result{}, fmt.Errorf("node: property %s.%s get: %w", iface.Name, p.Name, err)
				}
				applyDeprecatedAttrib(&res.Prototype, p.Deprecated)
				if res.Handler != nil {
					applyDeprecatedAttrib(res.Handler, p.Deprecated)
					prototypes = append(prototypes, *res.Handler)
				}
				prototypes = append(prototypes, res.Prototype)
				structs = append(structs, res.Structs...)
				code.WriteString(res.Code)
				code.WriteString("\n")

				notifyRes, err := emit.EmitPropertyChangedNotify(prefix, iface, p)
				if err != nil {
					return Result{}, fmt.Errorf("node: property %s.%s changed: %w", iface.Name, p.Name, err)
				}
				applyDeprecatedAttrib(&notifyRes.Prototype, p.Deprecated)
				prototypes = append(prototypes, notifyRes.Prototype)
				structs = append(structs, notifyRes.Structs...)
				code.WriteString(notifyRes.Code)
				code.WriteString("\n")
			}

			if p.Access.Writable() {
				res, err := emit.EmitPropertyObjectSetFunction(prefix, iface, p)
				if err != nil {
					return Result{}, fmt.Errorf("node: property %s.%s set: %w", iface.Name, p.Name, err)
				}
				applyDeprecatedAttrib(&res.Prototype, p.Deprecated)
				if res.Handler != nil {
					applyDeprecatedAttrib(res.Handler, p.Deprecated)
					prototypes = append(prototypes, *res.Handler)
				}
				prototypes = append(prototypes, res.Prototype)
				structs = append(structs, res.Structs...)
				code.WriteString(res.Code)
				code.WriteString("\n")
			}
		}

		if len(iface.Properties) > 0 {
			res, err := emit.EmitInterfaceGetAll(prefix, iface)
			if err != nil {
				return Result{}, fmt.Errorf("node: interface %s get_all: %w", iface.Name, err)
			}
			prototypes = append(prototypes, res.Prototype)
			code.WriteString(res.Code)
			code.WriteString("\n")
		}
	}

	return Result{
		Structs:    dedupeStructs(structs),
		Prototypes: dedupePrototypes(prototypes),
		Code:       code.String(),
	}, nil
}

// GenerateProxy assembles the proxy-side (client) source for every
// interface on n: each method's async caller, notify handler, and sync
// wrapper; each signal's filter function; each property's sync
// get/set wrappers.
func GenerateProxy(prefix string, n ast.Node) (Result, error) {
	var structs []typesys.Struct
	var prototypes []typesys.Function
	var code strings.Builder

	for _, rawIface := range n.Interfaces {
		iface := propagateDeprecated(rawIface)

		for _, m := range iface.Methods {
			m.Normalize()

			callRes, err := emit.EmitMethodProxyFunction(prefix, iface, m)
			if err != nil {
				return Result{}, fmt.Errorf("node: proxy method %s.%s: %w", iface.Name, m.Name, err)
			}
			applyDeprecatedAttrib(&callRes.Prototype, m.Deprecated)
			prototypes = append(prototypes, callRes.Prototype)
			structs = append(structs, callRes.Structs...)
			code.WriteString(callRes.Code)
			code.WriteString("\n")

			notifyRes, err := emit.EmitMethodProxyNotifyFunction(prefix, iface, m)
			if err != nil {
				return Result{}, fmt.Errorf("node: proxy method %s.%s notify: %w", iface.Name, m.Name, err)
			}
			prototypes = append(prototypes, notifyRes.Prototype)
			structs = append(structs, notifyRes.Structs...)
			code.WriteString(notifyRes.Code)
			code.WriteString("\n")

			syncRes, err := emit.EmitMethodProxySyncFunction(prefix, iface, m)
			if err != nil {
				return Result{}, fmt.Errorf("node: proxy method %s.%s sync: %w", iface.Name, m.Name, err)
			}
			applyDeprecatedAttrib(&syncRes.Prototype, m.Deprecated)
			prototypes = append(prototypes, syncRes.Prototype)
			structs = append(structs, syncRes.Structs...)
			code.WriteString(syncRes.Code)
			code.WriteString("\n")
		}

		for _, s := range iface.Signals {
			res, err := emit.EmitSignalFilterFunction(prefix, iface, s)
			if err != nil {
				return Result{}, fmt.Errorf("node: proxy signal %s.%s: %w", iface.Name, s.Name, err)
			}
			applyDeprecatedAttrib(&res.Prototype, s.Deprecated)
			prototypes = append(prototypes, res.Prototype)
			structs = append(structs, res.Structs...)
			code.WriteString(res.Code)
			code.WriteString("\n")
		}

		for _, p := range iface.Properties {
			if p.Access.Readable() {
				res, err := emit.EmitPropertyProxyGetSyncFunction(prefix, iface, p)
				if err != nil {
					return Result{}, fmt.Errorf("node: proxy property %s.%s get: %w", iface.Name, p.Name, err)
				}
				applyDeprecatedAttrib(&res.Prototype, p.Deprecated)
				prototypes = append(prototypes, res.Prototype)
				structs = append(structs, res.Structs...)
				code.WriteString(res.Code)
				code.WriteString("\n")
			}
			if p.Access.Writable() {
				res, err := emit.EmitPropertyProxySetSyncFunction(prefix, iface, p)
				if err != nil {
					return Result{}, fmt.Errorf("node: proxy property %s.%s set: %w", iface.Name, p.Name, err)
				}
				applyDeprecatedAttrib(&res.Prototype, p.Deprecated)
				prototypes = append(prototypes, res.Prototype)
				structs = append(structs, res.Structs...)
				code.WriteString(res.Code)
				code.WriteString("\n")
			}
		}

		if hasReadableProperty(iface) {
			res, err := emit.EmitInterfaceProxyGetAllSyncFunction(prefix, iface)
			if err != nil {
				return Result{}, fmt.Errorf("node: proxy interface %s get_all: %w", iface.Name, err)
			}
			prototypes = append(prototypes, res.Prototype)
			structs = append(structs, res.Structs...)
			code.WriteString(res.Code)
			code.WriteString("\n")
		}
	}

	return Result{
		Structs:    dedupeStructs(structs),
		Prototypes: dedupePrototypes(prototypes),
		Code:       code.String(),
	}, nil
}

func hasReadableProperty(iface ast.Interface) bool {
	for _, p := range iface.Properties {
		if p.Access.Readable() {
			return true
		}
	}
	return false
}

// InterfaceMetadataName returns the C identifier for iface's
// NihDBusInterface metadata entry: prefix, an underscore, and the
// interface name with every '.' replaced by '_'. GenerateObject and
// GenerateProxy do not emit any metadata arrays; only the name is
// provided here.
func InterfaceMetadataName(prefix string, iface ast.Interface) string {
	return prefix + "_" + strings.ReplaceAll(iface.Name, ".", "_")
}
