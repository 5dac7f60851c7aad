package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keybuk/go-dbus-tool/internal/config"
	"github.com/keybuk/go-dbus-tool/internal/introspect"
)

var (
	inspectSet []string
	inspectGet string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <xml-file>",
	Short: "Print the parsed AST as JSON, optionally patching fields first",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringArrayVar(&inspectSet, "set", nil, "path=value to patch into the AST before printing it (repeatable)")
	inspectCmd.Flags().StringVar(&inspectGet, "get", "", "print only the value at this JSON path")
}

func runInspect(cmd *cobra.Command, args []string) error {
	xmlPath := args[0]

	f, err := os.Open(xmlPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", xmlPath, err)
	}
	defer f.Close()

	n, err := introspect.Read(f, "/")
	if err != nil {
		return fmt.Errorf("parsing %s: %w", xmlPath, err)
	}

	doc, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("serializing AST: %w", err)
	}
	asJSON := string(doc)

	for _, setArg := range inspectSet {
		path, value, ok := splitSetArg(setArg)
		if !ok {
			return fmt.Errorf("invalid --set %q: expected path=value", setArg)
		}
		asJSON, err = config.SetJSONPath(asJSON, path, value)
		if err != nil {
			return err
		}
	}

	if inspectGet != "" {
		v, ok := config.GetJSONPath(asJSON, inspectGet)
		if !ok {
			return fmt.Errorf("no value at path %q", inspectGet)
		}
		fmt.Println(v)
		return nil
	}

	var pretty interface{}
	if err := json.Unmarshal([]byte(asJSON), &pretty); err != nil {
		return fmt.Errorf("re-parsing patched AST: %w", err)
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting AST: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func splitSetArg(s string) (path, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
