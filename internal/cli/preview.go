package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what an export of an account would write",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := requiredString(cmd, "account")
			if err != nil {
				return err
			}

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			defer rt.Close(ctx) //nolint:errcheck

			preview, err := maildir.NewExporter(rt.store, rt.cfg.Export, rt.options(cmd.ErrOrStderr(), false)...).Preview(ctx, account)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), maildir.Report(err).String())
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FOLDER\tMESSAGES\tSIZE")
			for _, f := range preview.Folders {
				fmt.Fprintf(w, "%s\t%d\t%d\n", f.Name, f.MessageCount, f.EstimatedSize)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d folders, %d messages, about %s\n",
				preview.TotalFolders, preview.TotalMessages, preview.EstimatedSizeHuman())
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("account", "", "Account to preview")
	return cmd
}
