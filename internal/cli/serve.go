package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/olafkfreund/comunicado-sub006/internal/handler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export and import API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := cmd.Flags().GetString("addr")
			if err != nil {
				return err
			}
			baseDir, err := cmd.Flags().GetString("base-dir")
			if err != nil {
				return err
			}

			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			defer rt.Close(context.Background()) //nolint:errcheck

			h := handler.New(rt.store, rt.cfg.Export, rt.cfg.Import.ImportConfig, baseDir, rt.logger, rt.options(cmd.ErrOrStderr(), false)...)
			app := h.App()

			errCh := make(chan error, 1)
			go func() {
				rt.logger.InfoContext(ctx, "Starting API server", slog.String("addr", addr))
				errCh <- app.Listen(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				rt.logger.InfoContext(ctx, "Shutting down API server")
				return app.ShutdownWithTimeout(shutdownTimeout)
			}
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().String("base-dir", ".", "Directory that export and import paths must stay within")
	return cmd
}
