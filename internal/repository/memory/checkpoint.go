package memory

import (
	"context"
	"sort"

	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
)

type checkpointRepository struct {
	*Store
}

func NewCheckpointRepository(s *Store) checkpoint.CheckpointRepository {
	return &checkpointRepository{Store: s}
}

func (r *checkpointRepository) Create(ctx context.Context, c checkpoint.Checkpoint) (checkpoint.Checkpoint, error) {
	defer r.lock(ctx)()

	if r.checkpointNameTaken(c.Name, "") {
		return checkpoint.Checkpoint{}, checkpoint.ErrCheckpointNameExists
	}

	now := r.now()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	c.AssignedGuards = 0
	r.checkpoints[c.ID] = c
	return c, nil
}

func (r *checkpointRepository) GetByID(ctx context.Context, id string) (checkpoint.Checkpoint, error) {
	defer r.lock(ctx)()

	c, ok := r.checkpoints[id]
	if !ok {
		return checkpoint.Checkpoint{}, checkpoint.ErrCheckpointNotFound
	}
	return r.withCount(c), nil
}

func (r *checkpointRepository) List(ctx context.Context, filter checkpoint.ListCheckpointFilter) ([]checkpoint.Checkpoint, error) {
	defer r.lock(ctx)()

	return r.sorted(func(c checkpoint.Checkpoint) bool {
		return !filter.ActiveOnly || c.IsActive
	}), nil
}

func (r *checkpointRepository) ListGeofenced(ctx context.Context) ([]checkpoint.Checkpoint, error) {
	defer r.lock(ctx)()

	return r.sorted(func(c checkpoint.Checkpoint) bool {
		return c.IsActive && c.HasCoordinates()
	}), nil
}

func (r *checkpointRepository) Update(ctx context.Context, c checkpoint.Checkpoint) error {
	defer r.lock(ctx)()

	existing, ok := r.checkpoints[c.ID]
	if !ok {
		return checkpoint.ErrCheckpointNotFound
	}
	if r.checkpointNameTaken(c.Name, c.ID) {
		return checkpoint.ErrCheckpointNameExists
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.now()
	r.checkpoints[c.ID] = c
	return nil
}

func (r *checkpointRepository) Delete(ctx context.Context, id string) error {
	defer r.lock(ctx)()

	if _, ok := r.checkpoints[id]; !ok {
		return checkpoint.ErrCheckpointNotFound
	}
	for guardID, u := range r.users {
		if u.AssignedCheckpointID != nil && *u.AssignedCheckpointID == id {
			u.AssignedCheckpointID = nil
			r.users[guardID] = u
		}
	}
	delete(r.checkpoints, id)
	return nil
}

func (r *checkpointRepository) LockSnapshot(ctx context.Context, checkpointIDs []string, guardIDs []string) (checkpoint.Snapshot, error) {
	defer r.lock(ctx)()

	snap := checkpoint.Snapshot{
		Checkpoints: make(map[string]checkpoint.Checkpoint),
		Guards:      make(map[string]user.User),
	}
	for _, id := range guardIDs {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		snap.Guards[id] = u
		if u.AssignedCheckpointID != nil {
			checkpointIDs = append(checkpointIDs, *u.AssignedCheckpointID)
		}
	}
	for _, id := range checkpointIDs {
		if c, ok := r.checkpoints[id]; ok {
			snap.Checkpoints[id] = r.withCount(c)
		}
	}
	return snap, nil
}

func (r *checkpointRepository) SetGuardCheckpoint(ctx context.Context, guardID string, checkpointID *string) error {
	defer r.lock(ctx)()

	u, ok := r.users[guardID]
	if !ok {
		return checkpoint.ErrGuardNotFound
	}
	if checkpointID != nil {
		if _, ok := r.checkpoints[*checkpointID]; !ok {
			return checkpoint.ErrCheckpointNotFound
		}
	}

	u.AssignedCheckpointID = checkpointID
	u.UpdatedAt = r.now()
	r.users[guardID] = u
	return nil
}

func (r *checkpointRepository) withCount(c checkpoint.Checkpoint) checkpoint.Checkpoint {
	c.AssignedGuards = 0
	for _, u := range r.users {
		if u.AssignedCheckpointID != nil && *u.AssignedCheckpointID == c.ID {
			c.AssignedGuards++
		}
	}
	return c
}

func (r *checkpointRepository) sorted(keep func(checkpoint.Checkpoint) bool) []checkpoint.Checkpoint {
	out := make([]checkpoint.Checkpoint, 0, len(r.checkpoints))
	for _, c := range r.checkpoints {
		if keep(c) {
			out = append(out, r.withCount(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *checkpointRepository) checkpointNameTaken(name, exceptID string) bool {
	for id, c := range r.checkpoints {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}
