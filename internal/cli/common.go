package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olafkfreund/comunicado-sub006/internal/announcer"
	"github.com/olafkfreund/comunicado-sub006/internal/config"
	"github.com/olafkfreund/comunicado-sub006/pkg/checkpoint"
	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
	"github.com/olafkfreund/comunicado-sub006/pkg/store"
	"github.com/olafkfreund/comunicado-sub006/pkg/utils"
)

const configEnvVar = "COMUNICADO_CONFIG"
const defaultEnvFile = ".env"

// runtime carries everything a command needs once config and env are loaded.
type runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	store       store.MessageStore
	checkpoints maildir.CheckpointStore
	announcer   announcer.Service
	closers     []func(context.Context) error
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to YAML config file (or set COMUNICADO_CONFIG)")
	cmd.Flags().Bool("verbose", false, "Enable verbose logging")
}

func setup(cmd *cobra.Command) (*runtime, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := config.ValidateEnv(cfg); err != nil {
		return nil, err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	ctx := commandContext(cmd)

	if cfg.Telemetry.Enabled {
		shutdown, err := utils.SetupOTelSDK(ctx, utils.TelemetryConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    config.OTLPEndpoint(),
			Insecure:    cfg.Telemetry.Insecure,
			LogWriter:   cmd.ErrOrStderr(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up telemetry: %w", err)
		}
		rt.closers = append(rt.closers, shutdown)
	}
	rt.logger = utils.NewLogger(cmd.ErrOrStderr(), verbose, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)

	storeEnv, err := config.StoreEnvFromEnv()
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	s, err := store.Open(ctx, cfg.Store.Driver, storeEnv.DSN)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	rt.store = s
	rt.closers = append(rt.closers, func(context.Context) error { return s.Close() })

	switch cfg.Checkpoint.Backend {
	case config.CheckpointBackendRedis:
		rs := checkpoint.NewRedisStore(config.RedisAddr(), cfg.Checkpoint.KeyPrefix)
		rt.checkpoints = rs
		rt.closers = append(rt.closers, func(context.Context) error { return rs.Close() })
	default:
		fs, err := checkpoint.NewFileStore(cfg.Checkpoint.Path)
		if err != nil {
			rt.Close(ctx)
			return nil, err
		}
		rt.checkpoints = fs
	}

	rt.announcer = announcer.New(announcer.WithWebhookURL(config.WebhookURL()))
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close(ctx context.Context) error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, rt.closers[i](ctx))
	}
	rt.closers = nil
	return err
}

// options builds the maildir options shared by export and import.
func (rt *runtime) options(progress io.Writer, showProgress bool) []maildir.Option {
	opts := []maildir.Option{
		maildir.WithLogger(rt.logger),
		maildir.WithMapper(maildir.NewMapper(rt.cfg.MapperOptions()...)),
		maildir.WithCodec(maildir.NewCodec(maildir.WithHostname(rt.cfg.Hostname))),
		maildir.WithParser(rt.cfg.Parser()),
		maildir.WithCheckpointStore(rt.checkpoints),
	}
	if showProgress {
		opts = append(opts, maildir.WithProgress(progressPrinter(progress)))
	}
	return opts
}

func progressPrinter(w io.Writer) maildir.ProgressFunc {
	return func(_ context.Context, p maildir.Progress) {
		fmt.Fprintf(w, "%s: %d/%d\n", p.Label, p.Done, p.Total)
	}
}

// cancellable returns a token that is cancelled when ctx is done. Call stop once the operation returns.
func cancellable(ctx context.Context) (token *maildir.CancellationToken, stop func() bool) {
	token = maildir.NewCancellationToken()
	return token, context.AfterFunc(ctx, token.Cancel)
}

func printErrors(w io.Writer, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "Errors (%d):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "- %s\n", e)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

func requiredString(cmd *cobra.Command, name string) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return strings.TrimSpace(value), nil
}

// loadConfig reads the config file when one is given and falls back to defaults otherwise.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(configEnvVar)
	}
	if strings.TrimSpace(cfgPath) == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

func loadEnvFile() error {
	if _, err := os.Stat(defaultEnvFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(defaultEnvFile)
}
