// Package archive uploads exported Maildir trees to S3-compatible object storage.
package archive

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// Config selects the bucket and credentials. Empty keys fall back to the default AWS chain.
type Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
	Prefix    string `yaml:"prefix"`
}

type UploadStats struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

type Uploader struct {
	client s3manageriface.UploaderAPI
	bucket string
	prefix string
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	if cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewWithClient(s3manager.NewUploader(sess), cfg.Bucket, cfg.Prefix, logger), nil
}

func NewWithClient(client s3manageriface.UploaderAPI, bucket, prefix string, logger *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// UploadDir uploads every regular file below dir, keyed by its slash-separated path relative to dir.
// Files in tmp/ directories are skipped.
func (u *Uploader) UploadDir(ctx context.Context, dir string) (*UploadStats, error) {
	stats := &UploadStats{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if d.Name() == "tmp" && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		n, err := u.uploadFile(ctx, p, path.Join(u.prefix, filepath.ToSlash(rel)))
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
	if err != nil {
		return stats, err
	}
	u.logger.InfoContext(ctx, "Uploaded export",
		slog.String("bucket", u.bucket),
		slog.String("prefix", u.prefix),
		slog.Int("files", stats.Files))
	return stats, nil
}

func (u *Uploader) uploadFile(ctx context.Context, p, key string) (int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	_, err = u.client.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return info.Size(), nil
}
