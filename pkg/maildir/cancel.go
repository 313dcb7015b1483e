package maildir

import (
	"context"
	"sync/atomic"
)

// CancellationToken is a cancel handle shared between an operation and its caller.
// It is polled at the head of every folder and message loop.
type CancellationToken struct {
	cancelled atomic.Bool
}

func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// Cancel requests cancellation. Safe to call from any goroutine, more than once.
func (t *CancellationToken) Cancel() {
	if t != nil {
		t.cancelled.Store(true)
	}
}

// IsCancelled reports whether Cancel has been called. A nil token is never cancelled.
func (t *CancellationToken) IsCancelled() bool {
	return t != nil && t.cancelled.Load()
}

// checkCancelled treats a done context like a cancelled token.
func checkCancelled(ctx context.Context, t *CancellationToken, op string) error {
	if t.IsCancelled() || ctx.Err() != nil {
		return cancelledError(op)
	}
	return nil
}
