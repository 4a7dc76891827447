package checkpoint

import "context"

// CheckpointService defines business logic for checkpoints
type CheckpointService interface {
	Create(ctx context.Context, req CreateCheckpointRequest) (CheckpointResponse, error)
	Get(ctx context.Context, id string) (CheckpointResponse, error)

	// List serves from the listing cache when possible.
	List(ctx context.Context, filter ListCheckpointFilter) ([]CheckpointResponse, error)
	Update(ctx context.Context, req UpdateCheckpointRequest) (CheckpointResponse, error)
	Delete(ctx context.Context, id string) error

	// BulkAssign applies every valid item in one transaction and reports the
	// rest as failures. The listing cache is invalidated before it returns.
	BulkAssign(ctx context.Context, req BulkAssignRequest) (BulkResult, error)
	BulkUnassign(ctx context.Context, req BulkUnassignRequest) (BulkResult, error)
}
