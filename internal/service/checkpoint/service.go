package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/pkg/cache"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// listingFilters are every filter List can be called with.
var listingFilters = []checkpoint.ListCheckpointFilter{{ActiveOnly: false}, {ActiveOnly: true}}

type CheckpointServiceImpl struct {
	tx database.Transactor
	checkpoint.CheckpointRepository
	cache   cache.Cache
	group   singleflight.Group
	metrics *metrics.Metrics
}

func NewCheckpointService(tx database.Transactor, checkpointRepo checkpoint.CheckpointRepository, listingCache cache.Cache, m *metrics.Metrics) checkpoint.CheckpointService {
	return &CheckpointServiceImpl{
		tx:                   tx,
		CheckpointRepository: checkpointRepo,
		cache:                listingCache,
		metrics:              m,
	}
}

// Create implements checkpoint.CheckpointService.
func (c *CheckpointServiceImpl) Create(ctx context.Context, req checkpoint.CreateCheckpointRequest) (checkpoint.CheckpointResponse, error) {
	newCheckpoint := req.ToEntity()
	if err := newCheckpoint.Validate(); err != nil {
		return checkpoint.CheckpointResponse{}, err
	}

	created, err := c.CheckpointRepository.Create(ctx, newCheckpoint)
	if err != nil {
		if errors.Is(err, checkpoint.ErrCheckpointNameExists) {
			return checkpoint.CheckpointResponse{}, err
		}
		return checkpoint.CheckpointResponse{}, fmt.Errorf("failed to create checkpoint: %w", err)
	}

	c.invalidate(ctx)
	slog.Info("Checkpoint created", "checkpoint_id", created.ID, "name", created.Name)
	return checkpoint.NewCheckpointResponse(created), nil
}

// Get implements checkpoint.CheckpointService.
func (c *CheckpointServiceImpl) Get(ctx context.Context, id string) (checkpoint.CheckpointResponse, error) {
	cp, err := c.CheckpointRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, checkpoint.ErrCheckpointNotFound) {
			return checkpoint.CheckpointResponse{}, err
		}
		return checkpoint.CheckpointResponse{}, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return checkpoint.NewCheckpointResponse(cp), nil
}

// List implements checkpoint.CheckpointService. Concurrent misses for the same
// filter share one database read.
func (c *CheckpointServiceImpl) List(ctx context.Context, filter checkpoint.ListCheckpointFilter) ([]checkpoint.CheckpointResponse, error) {
	key := filter.CacheKey()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.cache.Fetch(context.WithoutCancel(ctx), key, func(ctx context.Context) ([]byte, error) {
			checkpoints, err := c.CheckpointRepository.List(ctx, filter)
			if err != nil {
				return nil, fmt.Errorf("failed to list checkpoints: %w", err)
			}

			responses := make([]checkpoint.CheckpointResponse, 0, len(checkpoints))
			for _, cp := range checkpoints {
				responses = append(responses, checkpoint.NewCheckpointResponse(cp))
			}
			return json.Marshal(responses)
		})
	})
	if err != nil {
		return nil, err
	}

	var responses []checkpoint.CheckpointResponse
	if err := json.Unmarshal(v.([]byte), &responses); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint listing: %w", err)
	}
	return responses, nil
}

// Update implements checkpoint.CheckpointService.
func (c *CheckpointServiceImpl) Update(ctx context.Context, req checkpoint.UpdateCheckpointRequest) (checkpoint.CheckpointResponse, error) {
	var updated checkpoint.Checkpoint
	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := c.CheckpointRepository.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}

		req.ApplyTo(&existing)
		if err := existing.Validate(); err != nil {
			return err
		}

		if err := c.CheckpointRepository.Update(txCtx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return checkpoint.CheckpointResponse{}, err
	}

	c.invalidate(ctx)
	slog.Info("Checkpoint updated", "checkpoint_id", updated.ID)
	return checkpoint.NewCheckpointResponse(updated), nil
}

// Delete implements checkpoint.CheckpointService.
func (c *CheckpointServiceImpl) Delete(ctx context.Context, id string) error {
	err := c.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return c.CheckpointRepository.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	c.invalidate(ctx)
	slog.Info("Checkpoint deleted", "checkpoint_id", id)
	return nil
}

// BulkAssign implements checkpoint.CheckpointService.
func (c *CheckpointServiceImpl) BulkAssign(ctx context.Context, req checkpoint.BulkAssignRequest) (checkpoint.BulkResult, error) {
	if err := req.Validate(); err != nil {
		return checkpoint.BulkResult{}, err
	}
	defer c.metrics.BulkTimer("assign")()

	checkpointIDs := make([]string, 0, len(req.Assignments))
	guardIDs := make([]string, 0, len(req.Assignments))
	for _, item := range req.Assignments {
		checkpointIDs = append(checkpointIDs, item.CheckpointID)
		guardIDs = append(guardIDs, item.GuardID)
	}

	var result checkpoint.BulkResult
	err := c.tx.WithinSerializableTransaction(ctx, func(txCtx context.Context) error {
		snap, err := c.CheckpointRepository.LockSnapshot(txCtx, checkpointIDs, guardIDs)
		if err != nil {
			return fmt.Errorf("failed to lock assignment snapshot: %w", err)
		}

		result = checkpoint.PlanBulkAssign(req.Assignments, snap)
		for _, s := range result.Successful {
			checkpointID := s.CheckpointID
			if err := c.CheckpointRepository.SetGuardCheckpoint(txCtx, s.GuardID, &checkpointID); err != nil {
				return fmt.Errorf("failed to assign guard %s: %w", s.GuardID, err)
			}
		}
		return nil
	})
	if err != nil {
		return checkpoint.BulkResult{}, err
	}

	c.finishBulk(ctx, "assign", result)
	return result, nil
}

// BulkUnassign implements checkpoint.CheckpointService.
func (c *CheckpointServiceImpl) BulkUnassign(ctx context.Context, req checkpoint.BulkUnassignRequest) (checkpoint.BulkResult, error) {
	if err := req.Validate(); err != nil {
		return checkpoint.BulkResult{}, err
	}
	defer c.metrics.BulkTimer("unassign")()

	var result checkpoint.BulkResult
	err := c.tx.WithinSerializableTransaction(ctx, func(txCtx context.Context) error {
		snap, err := c.CheckpointRepository.LockSnapshot(txCtx, nil, req.GuardIDs)
		if err != nil {
			return fmt.Errorf("failed to lock assignment snapshot: %w", err)
		}

		result = checkpoint.PlanBulkUnassign(req.GuardIDs, snap)
		for _, s := range result.Successful {
			if err := c.CheckpointRepository.SetGuardCheckpoint(txCtx, s.GuardID, nil); err != nil {
				return fmt.Errorf("failed to unassign guard %s: %w", s.GuardID, err)
			}
		}
		return nil
	})
	if err != nil {
		return checkpoint.BulkResult{}, err
	}

	c.finishBulk(ctx, "unassign", result)
	return result, nil
}

func (c *CheckpointServiceImpl) finishBulk(ctx context.Context, operation string, result checkpoint.BulkResult) {
	c.metrics.BulkItems(operation, result.Summary.Successful, result.Summary.Failed)
	if result.Summary.Successful > 0 {
		c.invalidate(ctx)
	}
	slog.Info("Bulk checkpoint operation completed",
		"operation", operation,
		"total", result.Summary.Total,
		"successful", result.Summary.Successful,
		"failed", result.Summary.Failed,
	)
}

// invalidate drops the listing cache after a committed write. Listings that are
// still being loaded are forgotten so later callers start a fresh read.
func (c *CheckpointServiceImpl) invalidate(ctx context.Context) {
	if err := c.cache.Invalidate(ctx); err != nil {
		slog.Error("Failed to invalidate checkpoint cache", "error", err)
	}
	for _, f := range listingFilters {
		c.group.Forget(f.CacheKey())
	}
}
