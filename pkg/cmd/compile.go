package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/cmd/util"
	"github.com/jz-lang/jzc/pkg/compiler"
)

var compileCmd = &cobra.Command{
	Use:   "compile [ast.json]",
	Short: "Compile one AST file to a WAT module.",
	Long:  "Compile a single jz AST (the sexp-of-arrays JSON wire form) into a WebAssembly text module written alongside the input file, or to -o.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := compiler.Options{GC: util.GetFlag(cmd, "gc")}

		data, err := os.ReadFile(args[0])
		if err != nil {
			reportError(err)
		}

		program, err := ast.Parse(data)
		if err != nil {
			reportError(err)
		}

		result, err := compiler.Compile(program, opts)
		if err != nil {
			reportError(err)
		}

		reportWarnings(result.Warnings)

		out := util.GetString(cmd, "output")
		if out == "" {
			out = defaultWatPath(args[0])
		}

		if err := os.WriteFile(out, []byte(result.WAT), 0644); err != nil {
			reportError(err)
		}
	},
}

// defaultWatPath derives the output path for a single compiled file:
// the input file's base name with its extension replaced by .wat.
func defaultWatPath(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(filepath.Dir(input), base+".wat")
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output .wat path (default: input path with .wat extension)")
	rootCmd.AddCommand(compileCmd)
}
