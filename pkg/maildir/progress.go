package maildir

import "context"

// Progress is a single progress event of a running export or import.
type Progress struct {
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

// ProgressReporter receives progress events.
type ProgressReporter interface {
	Report(ctx context.Context, p Progress)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(ctx context.Context, p Progress)

func (f ProgressFunc) Report(ctx context.Context, p Progress) {
	f(ctx, p)
}

// ChannelReporter pushes events onto a channel the caller drains.
// Sends block until the event is received or ctx is done.
type ChannelReporter struct {
	C chan Progress
}

func NewChannelReporter(buffer int) *ChannelReporter {
	return &ChannelReporter{C: make(chan Progress, buffer)}
}

func (r *ChannelReporter) Report(ctx context.Context, p Progress) {
	select {
	case r.C <- p:
	case <-ctx.Done():
	}
}

// Close closes the channel once the operation has returned.
func (r *ChannelReporter) Close() {
	close(r.C)
}
