package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/cmd/util"
	"github.com/jz-lang/jzc/pkg/compiler"
)

var batchCmd = &cobra.Command{
	Use:   "batch [ast.json...]",
	Short: "Compile many AST files into one bundled WAT module.",
	Long:  "Compiles several files sharing one heap, string table and schema registry into a single assembled module, for a program split across files.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := compiler.Options{GC: util.GetFlag(cmd, "gc")}

		programs := make([]compiler.NamedProgram, 0, len(args))

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				reportError(err)
			}

			program, err := ast.Parse(data)
			if err != nil {
				reportError(err)
			}

			programs = append(programs, compiler.NamedProgram{Name: path, AST: program})
		}

		result, err := compiler.CompileBatch(programs, opts)
		if err != nil {
			reportError(err)
		}

		reportWarnings(result.Warnings)

		out := util.GetString(cmd, "output")
		if out == "" {
			out = "bundle.wat"
		}

		if err := os.WriteFile(out, []byte(result.WAT), 0644); err != nil {
			reportError(err)
		}
	},
}

func init() {
	batchCmd.Flags().StringP("output", "o", "", "output .wat path (default: bundle.wat)")
	rootCmd.AddCommand(batchCmd)
}
