// Package cli wires the petrocore demo commands onto a cobra root
// command, following the same thin Init/MustExecute shape the pack's
// GraphDB server command uses.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type RootCommand struct {
	*cobra.Command
	DBPath string
}

func Init(name string) *RootCommand {
	root := &RootCommand{
		Command: &cobra.Command{
			Use:   name,
			Short: "petrocore is a demo driver for the storage engine core",
		},
	}
	root.PersistentFlags().StringVar(&root.DBPath, "db", "petrocore.db", "backing file for the demo run")
	root.initDemo()
	return root
}

func (c *RootCommand) Execute(ctx context.Context) error {
	return c.ExecuteContext(ctx)
}

func (c *RootCommand) MustExecute(ctx context.Context) {
	if err := c.Execute(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "petrocore: %v\n", err)
		os.Exit(1)
	}
}
