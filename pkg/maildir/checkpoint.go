package maildir

import (
	"context"
	"path/filepath"
	"time"
)

// Checkpoint records the folders an import has completed.
type Checkpoint struct {
	Root             string    `yaml:"root" json:"root"`
	AccountID        string    `yaml:"account_id" json:"account_id"`
	CompletedFolders []string  `yaml:"completed_folders" json:"completed_folders"`
	MessagesImported int       `yaml:"messages_imported" json:"messages_imported"`
	UpdatedAt        time.Time `yaml:"updated_at" json:"updated_at"`
}

// CheckpointStore persists import checkpoints. Load returns nil, nil when no checkpoint exists.
type CheckpointStore interface {
	Load(ctx context.Context, key string) (*Checkpoint, error)
	Save(ctx context.Context, key string, cp *Checkpoint) error
	Clear(ctx context.Context, key string) error
}

// CheckpointKey identifies the checkpoint of importing root into accountID.
func CheckpointKey(root, accountID string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return accountID + ":" + abs
}

func (cp *Checkpoint) completed() map[string]struct{} {
	done := make(map[string]struct{}, len(cp.CompletedFolders))
	for _, f := range cp.CompletedFolders {
		done[f] = struct{}{}
	}
	return done
}
