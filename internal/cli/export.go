package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olafkfreund/comunicado-sub006/internal/config"
	"github.com/olafkfreund/comunicado-sub006/pkg/archive"
	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an account from the message store to a Maildir tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := requiredString(cmd, "account")
			if err != nil {
				return err
			}
			output, err := requiredString(cmd, "output")
			if err != nil {
				return err
			}
			folder, err := cmd.Flags().GetString("folder")
			if err != nil {
				return err
			}
			upload, err := cmd.Flags().GetBool("upload")
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

			exporter := maildir.NewExporter(rt.store, rt.cfg.Export, rt.options(cmd.ErrOrStderr(), rt.cfg.Export.ShowProgress)...)
			var stats *maildir.ExportStats
			if folder != "" {
				stats, err = exporter.ExportFolder(ctx, account, folder, output, token)
			} else {
				stats, err = exporter.ExportAccount(ctx, account, output, token)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d messages from %d folders (%s, %.1f%% success)\n",
				stats.MessagesExported, stats.MessagesFound, stats.FoldersExported, stats.BytesWrittenHuman(), stats.SuccessRate())
			printErrors(cmd.OutOrStdout(), stats.Errors)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), maildir.Report(err).String())
				return err
			}

			if upload {
				s3Env, err := config.S3EnvFromEnv()
				if err != nil {
					return err
				}
				uploader, err := archive.New(archive.Config{
					Bucket:    s3Env.Bucket,
					Region:    s3Env.Region,
					Endpoint:  s3Env.Endpoint,
					AccessKey: s3Env.Key,
					SecretKey: s3Env.Secret,
					Prefix:    rt.cfg.Archive.Prefix,
				}, rt.logger)
				if err != nil {
					return err
				}
				uploaded, err := uploader.UploadDir(ctx, output)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d files to s3://%s\n", uploaded.Files, s3Env.Bucket)
			}

			if err := rt.announcer.Do(ctx, "export", account, stats.MessagesExported, stats.MessagesFailed); err != nil {
				rt.logger.WarnContext(ctx, "Failed to announce export", "error", err.Error())
			}
			if !stats.IsSuccessful() {
				return fmt.Errorf("export completed with %d failed messages and %d errors", stats.MessagesFailed, len(stats.Errors))
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("account", "", "Account to export")
	cmd.Flags().String("output", "", "Directory to write the Maildir tree into")
	cmd.Flags().String("folder", "", "Export only this folder")
	cmd.Flags().Bool("upload", false, "Upload the exported tree to S3 (COMUNICADO_S3_*)")
	return cmd
}
