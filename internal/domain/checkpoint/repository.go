package checkpoint

import "context"

// CheckpointRepository defines data access methods for checkpoints and the
// guard assignments that reference them.
type CheckpointRepository interface {
	Create(ctx context.Context, c Checkpoint) (Checkpoint, error)
	GetByID(ctx context.Context, id string) (Checkpoint, error)
	List(ctx context.Context, filter ListCheckpointFilter) ([]Checkpoint, error)

	// ListGeofenced returns active checkpoints that have coordinates, in name
	// order.
	ListGeofenced(ctx context.Context) ([]Checkpoint, error)
	Update(ctx context.Context, c Checkpoint) error

	// Delete removes the checkpoint and clears every guard assigned to it.
	Delete(ctx context.Context, id string) error

	// LockSnapshot loads and row-locks the named checkpoints and users, plus the
	// checkpoints those users are currently assigned to. Missing IDs are left
	// out of the maps. Must run inside a transaction.
	LockSnapshot(ctx context.Context, checkpointIDs []string, guardIDs []string) (Snapshot, error)

	// SetGuardCheckpoint sets or, with nil, clears a guard's assignment.
	SetGuardCheckpoint(ctx context.Context, guardID string, checkpointID *string) error
}
