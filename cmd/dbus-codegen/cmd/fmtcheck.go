package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keybuk/go-dbus-tool/internal/render"
)

var fmtCheckCmd = &cobra.Command{
	Use:   "fmt-check <generated-dir>",
	Short: "Verify that generated .c/.h files still satisfy the aligned-declaration invariant",
	Long: `fmt-check scans every .c and .h file under the given directory for
blocks of consecutive variable declarations and checks that their
alignment matches what VarLayout would produce for the same variables.

This is a cheap regression guard against hand edits or a stale
generator, not a general-purpose C formatter: it only understands the
aligned declaration blocks this tool itself emits.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmtCheck,
}

func init() {
	rootCmd.AddCommand(fmtCheckCmd)
}

func runFmtCheck(cmd *cobra.Command, args []string) error {
	dir := args[0]

	var misaligned int
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".c") && !strings.HasSuffix(path, ".h") {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		issues := render.CheckVarBlocks(string(src))
		for _, issue := range issues {
			misaligned++
			fmt.Printf("%s:%d: declaration block is not aligned as VarLayout would render it\n", path, issue.Line)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}

	if misaligned > 0 {
		return fmt.Errorf("%d misaligned declaration block(s) found", misaligned)
	}

	if verbose {
		fmt.Println("all declaration blocks aligned")
	}
	return nil
}
