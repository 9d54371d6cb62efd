// Package main provides the obatxn operator CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)

	if len(args) < 2 {
		_ = root.Usage()
		return 1
	}
	root.SetArgs(args[1:])

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "obatxn",
		Short: "inspect the transaction log and configuration of a directory engine",
		Long: `
  Operator tooling for the directory transaction engine: dump the write-ahead
  log, check configuration files and print version information.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newWALCmd(), newConfigCmd(), newVersionCmd())
	return root
}
