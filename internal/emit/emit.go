// Package emit turns one AST member (method, signal, or property) into
// the C function(s) that implement it: the object-side dispatch
// handler, the proxy-side caller, and their various reply/notify/sync
// companions. Each emitter calls into internal/walker to marshal or
// demarshal the member's arguments and assembles the surrounding
// boilerplate the way nih-dbus-tool's method.c does.
package emit

import "github.com/keybuk/go-dbus-tool/internal/typesys"

// Result is what emitting one function produces: its prototype (always
// present), an optional companion handler/notify prototype the caller
// must also declare, the full function definition text, and any struct
// definitions the member's arguments introduced.
type Result struct {
	Prototype typesys.Function
	Handler   *typesys.Function
	Code      string
	Structs   []typesys.Struct
}
