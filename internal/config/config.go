package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
)

const (
	envDBDSN        = "COMUNICADO_DB_DSN"
	envS3Endpoint   = "COMUNICADO_S3_ENDPOINT"
	envS3Region     = "COMUNICADO_S3_REGION"
	envS3Bucket     = "COMUNICADO_S3_BUCKET"
	envS3Key        = "COMUNICADO_S3_KEY"
	envS3Secret     = "COMUNICADO_S3_SECRET"
	envWebhookURL   = "COMUNICADO_WEBHOOK_URL"
	envRedisAddr    = "COMUNICADO_REDIS_ADDR"
	envOTLPEndpoint = "COMUNICADO_OTLP_ENDPOINT"
)

const (
	CheckpointBackendFile  = "file"
	CheckpointBackendRedis = "redis"

	ParserNaive = "naive"
	ParserMIME  = "mime"

	defaultStoreDriver    = "sqlite3"
	defaultCheckpointPath = ".comunicado/checkpoints"
	defaultServiceName    = "comunicado"
)

// Config holds non-secret configuration loaded from YAML.
type Config struct {
	Store      Store                 `yaml:"store"`
	Export     maildir.ExportConfig  `yaml:"export"`
	Import     Import                `yaml:"import"`
	Mapper     Mapper                `yaml:"mapper"`
	Hostname   string                `yaml:"hostname"`
	Checkpoint Checkpoint            `yaml:"checkpoint"`
	Archive    Archive               `yaml:"archive"`
	Telemetry  Telemetry             `yaml:"telemetry"`
}

type Store struct {
	Driver string `yaml:"driver"`
}

// Import extends the importer settings with the parser selection.
type Import struct {
	maildir.ImportConfig `yaml:",inline"`
	Parser               string `yaml:"parser"`
}

type Mapper struct {
	Separator string `yaml:"separator"`
	JoinToken string `yaml:"join_token"`
	Strict    *bool  `yaml:"strict"`
}

// Checkpoint configures checkpoint storage.
type Checkpoint struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	KeyPrefix string `yaml:"key_prefix"`
}

type Archive struct {
	Prefix string `yaml:"prefix"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// StoreEnv holds the message store connection string.
type StoreEnv struct {
	DSN string
}

// S3Env holds archive bucket details from environment variables.
type S3Env struct {
	Endpoint string
	Region   string
	Bucket   string
	Key      string
	Secret   string
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Store:      Store{Driver: defaultStoreDriver},
		Export:     maildir.DefaultExportConfig(),
		Import:     Import{ImportConfig: maildir.DefaultImportConfig(), Parser: ParserNaive},
		Mapper:     Mapper{Separator: maildir.DefaultSeparator, JoinToken: maildir.DefaultJoinToken},
		Hostname:   maildir.DefaultHostname,
		Checkpoint: Checkpoint{Backend: CheckpointBackendFile, Path: defaultCheckpointPath},
		Telemetry:  Telemetry{ServiceName: defaultServiceName},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// MapperOptions converts the mapper section into maildir options.
func (c Config) MapperOptions() []maildir.MapperOption {
	opts := []maildir.MapperOption{}
	if c.Mapper.Separator != "" {
		opts = append(opts, maildir.WithSeparator(c.Mapper.Separator))
	}
	if c.Mapper.JoinToken != "" {
		opts = append(opts, maildir.WithJoinToken(c.Mapper.JoinToken))
	}
	if c.Mapper.Strict != nil {
		opts = append(opts, maildir.WithStrictValidation(*c.Mapper.Strict))
	}
	return opts
}

// Parser returns the message parser selected by import.parser.
func (c Config) Parser() maildir.Parser {
	if c.Import.Parser == ParserMIME {
		return maildir.MIMEParser{}
	}
	return maildir.NaiveParser{}
}

// Validate performs basic validation on non-secret config.
func Validate(cfg Config) error {
	switch cfg.Store.Driver {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("store.driver must be sqlite3 or postgres, got %q", cfg.Store.Driver)
	}
	switch cfg.Checkpoint.Backend {
	case CheckpointBackendFile:
		if strings.TrimSpace(cfg.Checkpoint.Path) == "" {
			return errors.New("checkpoint.path is required for the file backend")
		}
	case CheckpointBackendRedis:
	default:
		return fmt.Errorf("checkpoint.backend must be file or redis, got %q", cfg.Checkpoint.Backend)
	}
	switch cfg.Import.Parser {
	case "", ParserNaive, ParserMIME:
	default:
		return fmt.Errorf("import.parser must be naive or mime, got %q", cfg.Import.Parser)
	}
	if cfg.Mapper.Separator != "" && cfg.Mapper.Separator == cfg.Mapper.JoinToken {
		return errors.New("mapper.separator and mapper.join_token must differ")
	}
	if cfg.Export.MaxMessagesPerFolder < 0 {
		return errors.New("export.max_messages_per_folder must not be negative")
	}
	if cfg.Import.MaxMessages < 0 {
		return errors.New("import.max_messages must not be negative")
	}
	if cfg.Import.MaxDepth < 0 {
		return errors.New("import.max_depth must not be negative")
	}
	return nil
}

// ValidateEnv ensures required environment variables are set.
func ValidateEnv(cfg Config) error {
	missing := []string{}
	for _, name := range requiredEnvVars(cfg) {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
}

// StoreEnvFromEnv loads the message store DSN.
func StoreEnvFromEnv() (StoreEnv, error) {
	dsn := strings.TrimSpace(os.Getenv(envDBDSN))
	if dsn == "" {
		return StoreEnv{}, fmt.Errorf("missing required environment variables: %s", envDBDSN)
	}
	return StoreEnv{DSN: dsn}, nil
}

// S3EnvFromEnv loads archive bucket details and validates required entries.
func S3EnvFromEnv() (S3Env, error) {
	env := S3Env{
		Endpoint: strings.TrimSpace(os.Getenv(envS3Endpoint)),
		Region:   strings.TrimSpace(os.Getenv(envS3Region)),
		Bucket:   strings.TrimSpace(os.Getenv(envS3Bucket)),
		Key:      strings.TrimSpace(os.Getenv(envS3Key)),
		Secret:   strings.TrimSpace(os.Getenv(envS3Secret)),
	}
	missing := []string{}
	if env.Region == "" {
		missing = append(missing, envS3Region)
	}
	if env.Bucket == "" {
		missing = append(missing, envS3Bucket)
	}
	if len(missing) > 0 {
		return S3Env{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return env, nil
}

// WebhookURL returns the announcer webhook, empty when reporting is disabled.
func WebhookURL() string {
	return strings.TrimSpace(os.Getenv(envWebhookURL))
}

// RedisAddr returns the address of the redis checkpoint backend.
func RedisAddr() string {
	return strings.TrimSpace(os.Getenv(envRedisAddr))
}

// OTLPEndpoint returns the collector endpoint, empty when only local log export is wanted.
func OTLPEndpoint() string {
	return strings.TrimSpace(os.Getenv(envOTLPEndpoint))
}

// Summary returns a concise config summary printed by commands.
func Summary(cfg Config) string {
	reportingStatus := "disabled"
	if ReportingEnabled() {
		reportingStatus = "enabled"
	}
	telemetryStatus := "disabled"
	if cfg.Telemetry.Enabled {
		telemetryStatus = "enabled"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- store driver: %s\n"+
			"- hostname: %s\n"+
			"- import parser: %s\n"+
			"- checkpoint: %s %s\n"+
			"- reporting webhook: %s\n"+
			"- telemetry: %s",
		cfg.Store.Driver,
		defaultIfEmpty(cfg.Hostname, maildir.DefaultHostname),
		defaultIfEmpty(cfg.Import.Parser, ParserNaive),
		cfg.Checkpoint.Backend,
		defaultIfEmpty(checkpointTarget(cfg), "(not set)"),
		reportingStatus,
		telemetryStatus,
	)
}

// ReportingEnabled returns true when a webhook URL is configured via env var.
func ReportingEnabled() bool {
	return WebhookURL() != ""
}

func checkpointTarget(cfg Config) string {
	if cfg.Checkpoint.Backend == CheckpointBackendRedis {
		return RedisAddr()
	}
	return cfg.Checkpoint.Path
}

func requiredEnvVars(cfg Config) []string {
	vars := []string{envDBDSN}
	if cfg.Checkpoint.Backend == CheckpointBackendRedis {
		vars = append(vars, envRedisAddr)
	}
	return vars
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
