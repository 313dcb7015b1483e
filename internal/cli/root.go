package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "comunicado",
		Short:         "comunicado moves mail between its message store and Maildir",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExportCmd(), newImportCmd(), newPreviewCmd(), newServeCmd())
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
