package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olafkfreund/comunicado-sub006/pkg/maildir"
)

func TestValidateEnvMissing(t *testing.T) {
	t.Setenv(envDBDSN, "")
	t.Setenv(envRedisAddr, "")

	cfg := Default()
	cfg.Checkpoint.Backend = CheckpointBackendRedis

	if err := ValidateEnv(cfg); err == nil {
		t.Fatalf("expected error for missing environment variables")
	} else if !strings.Contains(err.Error(), envDBDSN) || !strings.Contains(err.Error(), envRedisAddr) {
		t.Fatalf("expected missing env var error, got: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTempFile(t, "not: [valid_yaml")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeTempFile(t, `
store:
  driver: postgres
export:
  include_deleted: true
import:
  max_messages: 50
  parser: mime
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}

	if !cfg.Export.IncludeDeleted || !cfg.Export.IncludeDrafts || !cfg.Export.PreserveTimestamps {
		t.Fatalf("expected export defaults to be kept, got %+v", cfg.Export)
	}
	if cfg.Import.MaxMessages != 50 || !cfg.Import.SkipDuplicates || cfg.Import.MaxDepth != maildir.DefaultMaxDepth {
		t.Fatalf("expected import defaults to be kept, got %+v", cfg.Import)
	}
	if _, ok := cfg.Parser().(maildir.MIMEParser); !ok {
		t.Fatalf("expected mime parser, got %T", cfg.Parser())
	}
	if cfg.Checkpoint.Backend != CheckpointBackendFile {
		t.Fatalf("expected file checkpoint backend, got %q", cfg.Checkpoint.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "oracle" }, "store.driver"},
		{"unknown backend", func(c *Config) { c.Checkpoint.Backend = "s3" }, "checkpoint.backend"},
		{"empty checkpoint path", func(c *Config) { c.Checkpoint.Path = "" }, "checkpoint.path"},
		{"unknown parser", func(c *Config) { c.Import.Parser = "regex" }, "import.parser"},
		{"same separator and join token", func(c *Config) { c.Mapper.JoinToken = "/" }, "join_token"},
		{"negative limit", func(c *Config) { c.Import.MaxMessages = -1 }, "import.max_messages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestMapperOptions(t *testing.T) {
	path := writeTempFile(t, `
mapper:
  separator: "."
  join_token: "--"
  strict: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}

	m := maildir.NewMapper(cfg.MapperOptions()...)
	got, err := m.IMAPToFilesystem("INBOX.Work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "INBOX--Work" {
		t.Fatalf("expected INBOX--Work, got %q", got)
	}
}

func TestS3EnvFromEnv(t *testing.T) {
	t.Setenv(envS3Region, "")
	t.Setenv(envS3Bucket, "")
	if _, err := S3EnvFromEnv(); err == nil {
		t.Fatalf("expected error for missing bucket")
	}

	t.Setenv(envS3Endpoint, "https://nyc3.digitaloceanspaces.com")
	t.Setenv(envS3Region, "nyc3")
	t.Setenv(envS3Bucket, "comunicado-archive")
	env, err := S3EnvFromEnv()
	if err != nil {
		t.Fatalf("expected env to load, got error: %v", err)
	}
	if env.Bucket != "comunicado-archive" || env.Region != "nyc3" {
		t.Fatalf("unexpected env: %+v", env)
	}
}

func TestSummary(t *testing.T) {
	t.Setenv(envDBDSN, "file:test.db")
	t.Setenv(envWebhookURL, "https://hooks.example.com")

	if err := ValidateEnv(Default()); err != nil {
		t.Fatalf("expected env to validate, got: %v", err)
	}

	summary := Summary(Default())
	for _, want := range []string{"store driver: sqlite3", "reporting webhook: enabled", "checkpoint: file .comunicado/checkpoints"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("expected summary to contain %q, got:\n%s", want, summary)
		}
	}
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
