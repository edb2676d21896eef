package source

import (
	"context"

	"finchat/internal/core"
)

// SnapshotLoader loads the externally computed financial snapshot a chat
// session is opened over.
type SnapshotLoader interface {
	Load(ctx context.Context) (core.Snapshot, error)
}
