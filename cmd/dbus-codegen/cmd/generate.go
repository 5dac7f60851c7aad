package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keybuk/go-dbus-tool/internal/ast"
	"github.com/keybuk/go-dbus-tool/internal/config"
	"github.com/keybuk/go-dbus-tool/internal/introspect"
	"github.com/keybuk/go-dbus-tool/internal/node"
	"github.com/keybuk/go-dbus-tool/internal/render"
)

var (
	genMode       string
	genConfigPath string
	genOutDir     string
	genPrefix     string
	genObjectPath string
)

var generateCmd = &cobra.Command{
	Use:   "generate <xml-file>",
	Short: "Generate object and/or proxy C stubs from an introspection document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genMode, "mode", "both", "what to generate: object, proxy, or both")
	generateCmd.Flags().StringVar(&genConfigPath, "config", "", "YAML manifest of per-interface/method overrides")
	generateCmd.Flags().StringVarP(&genOutDir, "output", "o", ".", "directory to write generated files into")
	generateCmd.Flags().StringVar(&genPrefix, "prefix", "", "C symbol prefix (default: derived from the xml filename)")
	generateCmd.Flags().StringVar(&genObjectPath, "path", "/", "object path the generated node is rooted at")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	xmlPath := args[0]

	switch genMode {
	case "object", "proxy", "both":
	default:
		return fmt.Errorf("invalid --mode %q: must be object, proxy, or both", genMode)
	}

	f, err := os.Open(xmlPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", xmlPath, err)
	}
	defer f.Close()

	n, err := introspect.Read(f, genObjectPath)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", xmlPath, err)
	}

	if genConfigPath != "" {
		cf, err := os.Open(genConfigPath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", genConfigPath, err)
		}
		defer cf.Close()

		manifest, err := config.Load(cf)
		if err != nil {
			return fmt.Errorf("loading %s: %w", genConfigPath, err)
		}
		config.Apply(n, manifest)
	}

	prefix := genPrefix
	if prefix == "" {
		prefix = derivePrefix(xmlPath)
	}

	if err := os.MkdirAll(genOutDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", genOutDir, err)
	}

	if genMode == "object" || genMode == "both" {
		if err := writeComponent(prefix, "object", n, node.GenerateObject); err != nil {
			return err
		}
	}
	if genMode == "proxy" || genMode == "both" {
		if err := writeComponent(prefix, "proxy", n, node.GenerateProxy); err != nil {
			return err
		}
	}

	return nil
}

func derivePrefix(xmlPath string) string {
	base := filepath.Base(xmlPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

func writeComponent(prefix, kind string, n *ast.Node, generate func(string, ast.Node) (node.Result, error)) error {
	res, err := generate(prefix, *n)
	if err != nil {
		return fmt.Errorf("generating %s stubs: %w", kind, err)
	}

	headerName := prefix + "_" + kind + ".h"
	sourceName := prefix + "_" + kind + ".c"
	guard := strings.ToUpper(prefix + "_" + kind + "_H")

	header := render.AssembleHeader(guard, res.Structs, res.Prototypes)
	source := render.AssembleSource(headerName, nil, res.Code)

	if err := os.WriteFile(filepath.Join(genOutDir, headerName), []byte(header), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", headerName, err)
	}
	if err := os.WriteFile(filepath.Join(genOutDir, sourceName), []byte(source), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", sourceName, err)
	}

	if verbose {
		fmt.Printf("wrote %s and %s\n", headerName, sourceName)
	}
	return nil
}
