package render

import (
	"strings"

	"github.com/keybuk/go-dbus-tool/internal/typesys"
)

// AssembleHeader renders a complete generated header: an include guard
// wrapping the struct typedefs and the aligned prototype block.
func AssembleHeader(guard string, structs []typesys.Struct, prototypes []typesys.Function) string {
	var b strings.Builder
	b.WriteString("#ifndef " + guard + "\n")
	b.WriteString("#define " + guard + "\n\n")
	b.WriteString("#include <dbus/dbus.h>\n\n")
	b.WriteString("#include <nih/macros.h>\n")
	b.WriteString("#include <nih-dbus/dbus_object.h>\n")
	b.WriteString("#include <nih-dbus/dbus_proxy.h>\n\n")

	for _, s := range structs {
		b.WriteString(typesys.StructDefinition(s))
		b.WriteString("\n")
	}

	b.WriteString(typesys.FuncLayout(prototypes))
	b.WriteString("\n#endif /* " + guard + " */\n")
	return b.String()
}

// AssembleSource renders a complete generated source file: the local
// includes (the matching header plus whatever extra includes is
// specified) followed by the function definitions already accumulated
// in code.
func AssembleSource(headerInclude string, includes []string, code string) string {
	var b strings.Builder
	b.WriteString("#include <dbus/dbus.h>\n\n")
	b.WriteString("#include <nih/alloc.h>\n")
	b.WriteString("#include <nih/string.h>\n")
	b.WriteString("#include <nih/errors.h>\n\n")
	for _, inc := range includes {
		b.WriteString("#include \"" + inc + "\"\n")
	}
	b.WriteString("#include \"" + headerInclude + "\"\n\n")
	b.WriteString(code)
	return b.String()
}
