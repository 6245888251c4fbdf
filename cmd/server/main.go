// Command server is the entry point for the scheduling engine: a cobra CLI
// exposing serve, worker, and migrate subcommands, following the teacher's
// cobra-per-subcommand convention (one *cobra.Command builder function per
// verb, flags bound with cmd.Flags().*Var).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "temporal-agent-mcp",
		Short: "Durable task scheduler exposed as a tool server",
	}
	root.AddCommand(serveCmd())
	root.AddCommand(workerCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
