package maildir

import (
	"io"
	"log/slog"
	"time"

	"github.com/olafkfreund/comunicado-sub006/pkg/utils"
)

type options struct {
	mapper      *Mapper
	codec       *Codec
	files       utils.FileManager
	logger      *slog.Logger
	progress    ProgressReporter
	parser      Parser
	checkpoints CheckpointStore
	retryDelay  time.Duration
}

// Option configures an Exporter or an Importer. Options that do not apply are ignored.
type Option func(*options)

func WithMapper(m *Mapper) Option {
	return func(o *options) {
		o.mapper = m
	}
}

func WithCodec(c *Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

func WithFileManager(fm utils.FileManager) Option {
	return func(o *options) {
		o.files = fm
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress sets the reporter that receives an event after every message.
func WithProgress(p ProgressReporter) Option {
	return func(o *options) {
		o.progress = p
	}
}

// WithParser replaces the default NaiveParser used on import.
func WithParser(p Parser) Option {
	return func(o *options) {
		o.parser = p
	}
}

// WithCheckpointStore enables per-folder checkpoints on import.
func WithCheckpointStore(cs CheckpointStore) Option {
	return func(o *options) {
		o.checkpoints = cs
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.retryDelay = d
	}
}

func buildOptions(opts []Option) options {
	o := options{retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mapper == nil {
		o.mapper = NewMapper()
	}
	if o.codec == nil {
		o.codec = NewCodec()
	}
	if o.files == nil {
		o.files = utils.OSFileManager{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.parser == nil {
		o.parser = NaiveParser{}
	}
	return o
}
