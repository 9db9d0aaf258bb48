// Package cmd implements jzc's command-line surface: a cobra root
// command (jzc) with compile, batch, check and version subcommands,
// each a package-level *cobra.Command registering itself onto rootCmd
// from its own init().
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/jz-lang/jzc/pkg/cmd/util"
)

// Version is filled in when building via a release pipeline; left empty
// for a plain "go install" or "go run".
var Version string

var rootCmd = &cobra.Command{
	Use:   "jzc",
	Short: "A WAT compiler for the jz scripting language.",
	Long:  "jzc compiles jz source ASTs to WebAssembly text (WAT) modules using a NaN-boxed linear-memory runtime.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		util.ConfigureLogging(util.GetFlag(cmd, "verbose"), util.GetFlag(cmd, "trace-gen"))
	},
}

// Execute runs the root command. Called once by cmd/jzc's main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Bool("trace-gen", false, "set the log level to trace")
	rootCmd.PersistentFlags().Bool("gc", false, "use the reference-counted memory model (not implemented; rejected)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Report the version of this executable.",
	Run: func(cmd *cobra.Command, args []string) {
		if Version != "" {
			fmt.Println("jzc " + Version)
			return
		}

		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Println("jzc " + info.Main.Version)
			return
		}

		fmt.Println("jzc (unknown version)")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
