// Command dbus-codegen generates D-Bus object and proxy C stubs from an
// introspection XML document.
package main

import (
	"fmt"
	"os"

	"github.com/keybuk/go-dbus-tool/cmd/dbus-codegen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
