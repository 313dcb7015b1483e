package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olafkfreund/comunicado-sub006/internal/config"
	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a Maildir tree into the message store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := requiredString(cmd, "account")
			if err != nil {
				return err
			}
			root, err := requiredString(cmd, "root")
			if err != nil {
				return err
			}
			resume, err := cmd.Flags().GetBool("resume")
			if err != nil {
				return err
			}

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			defer rt.Close(ctx) //nolint:errcheck

			fmt.Fprintln(cmd.OutOrStdout(), config.Summary(rt.cfg))

			token, stop := cancellable(ctx)
			defer stop()

			importer := maildir.NewImporter(rt.store, rt.cfg.Import.ImportConfig, rt.options(cmd.ErrOrStderr(), rt.cfg.Import.ShowProgress)...)
			var stats *maildir.ImportStats
			if resume {
				stats, err = importer.ResumeFromCheckpoint(ctx, root, account, token)
			} else {
				stats, err = importer.ImportFromDirectory(ctx, root, account, token)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Imported %d of %d messages from %d Maildir folders (%d directories scanned, %d duplicates skipped, %d failed)\n",
				stats.MessagesImported, stats.MessagesFound, stats.MaildirFoldersFound,
				stats.DirectoriesScanned, stats.DuplicatesSkipped, stats.MessagesFailed)
			printErrors(cmd.OutOrStdout(), stats.Errors)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), maildir.Report(err).String())
				return err
			}

			if err := rt.announcer.Do(ctx, "import", account, stats.MessagesImported, stats.MessagesFailed); err != nil {
				rt.logger.WarnContext(ctx, "Failed to announce import", "error", err.Error())
			}
			if !stats.IsSuccessful() {
				return fmt.Errorf("import completed with %d failed messages and %d errors", stats.MessagesFailed, len(stats.Errors))
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("account", "", "Account to import into")
	cmd.Flags().String("root", "", "Maildir root directory")
	cmd.Flags().Bool("resume", false, "Resume from the last checkpoint of this root and account")
	return cmd
}
