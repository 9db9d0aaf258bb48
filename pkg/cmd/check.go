package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/cmd/util"
	"github.com/jz-lang/jzc/pkg/compiler"
)

var checkCmd = &cobra.Command{
	Use:   "check [ast.json]",
	Short: "Parse and analyse an AST file without emitting a module.",
	Long:  "Runs the full compile pipeline for its diagnostics but discards the generated WAT.",
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
		fmt.Println("ok")
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
