// Package util holds the small helpers pkg/cmd's subcommands share:
// panic-or-exit flag accessors, logging setup and TTY detection.
package util

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GetFlag reads a bool flag, exiting the process if it isn't declared
// (a programmer error in the command wiring, not a user-facing one).
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString reads a string flag, exiting the process if it isn't
// declared.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringArray reads a string-array flag, exiting the process if it
// isn't declared.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}
