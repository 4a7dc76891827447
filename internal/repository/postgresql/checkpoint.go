package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

type checkpointRepository struct {
	db *database.DB
}

func NewCheckpointRepository(db *database.DB) checkpoint.CheckpointRepository {
	return &checkpointRepository{db: db}
}

const checkpointSelect = `
	SELECT
		c.id, c.name, c.location, c.description, c.latitude, c.longitude,
		c.is_active, c.priority, c.max_assigned_guards, c.geofence_radius_meters,
		c.created_by, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM users u WHERE u.assigned_checkpoint_id = c.id) AS assigned_guards
	FROM checkpoints c
`

func scanCheckpoint(row scanner) (checkpoint.Checkpoint, error) {
	var (
		c        checkpoint.Checkpoint
		assigned int64
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Location, &c.Description, &c.Latitude, &c.Longitude,
		&c.IsActive, &c.Priority, &c.MaxAssignedGuards, &c.GeofenceRadiusMeters,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		&assigned,
	)
	c.AssignedGuards = int(assigned)
	return c, err
}

func collectCheckpoints(rows pgx.Rows) ([]checkpoint.Checkpoint, error) {
	defer rows.Close()

	checkpoints := make([]checkpoint.Checkpoint, 0)
	for rows.Next() {
		c, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkpoints: %w", err)
	}
	return checkpoints, nil
}

// Create implements checkpoint.CheckpointRepository.
func (r *checkpointRepository) Create(ctx context.Context, c checkpoint.Checkpoint) (checkpoint.Checkpoint, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("failed to generate checkpoint id: %w", err)
	}
	c.ID = id.String()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO checkpoints (
			id, name, location, description, latitude, longitude,
			is_active, priority, max_assigned_guards, geofence_radius_meters, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		c.ID,
		c.Name,
		c.Location,
		c.Description,
		c.Latitude,
		c.Longitude,
		c.IsActive,
		c.Priority,
		c.MaxAssignedGuards,
		c.GeofenceRadiusMeters,
		c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return checkpoint.Checkpoint{}, checkpoint.ErrCheckpointNameExists
		}
		return checkpoint.Checkpoint{}, fmt.Errorf("failed to create checkpoint: %w", err)
	}

	c.AssignedGuards = 0
	return c, nil
}

// GetByID implements checkpoint.CheckpointRepository.
func (r *checkpointRepository) GetByID(ctx context.Context, id string) (checkpoint.Checkpoint, error) {
	if !validator.IsValidUUID(id) {
		return checkpoint.Checkpoint{}, checkpoint.ErrCheckpointNotFound
	}

	q := GetQuerier(ctx, r.db)

	c, err := scanCheckpoint(q.QueryRow(ctx, checkpointSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return checkpoint.Checkpoint{}, checkpoint.ErrCheckpointNotFound
		}
		return checkpoint.Checkpoint{}, fmt.Errorf("failed to get checkpoint by ID: %w", err)
	}

	return c, nil
}

// List implements checkpoint.CheckpointRepository.
func (r *checkpointRepository) List(ctx context.Context, filter checkpoint.ListCheckpointFilter) ([]checkpoint.Checkpoint, error) {
	q := GetQuerier(ctx, r.db)

	query := checkpointSelect
	if filter.ActiveOnly {
		query += ` WHERE c.is_active`
	}
	query += ` ORDER BY c.name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}
	return collectCheckpoints(rows)
}

// ListGeofenced implements checkpoint.CheckpointRepository.
func (r *checkpointRepository) ListGeofenced(ctx context.Context) ([]checkpoint.Checkpoint, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, checkpointSelect+`
		WHERE c.is_active
		  AND c.latitude IS NOT NULL
		  AND c.longitude IS NOT NULL
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query geofenced checkpoints: %w", err)
	}
	return collectCheckpoints(rows)
}

// Update implements checkpoint.CheckpointRepository.
func (r *checkpointRepository) Update(ctx context.Context, c checkpoint.Checkpoint) error {
	if !validator.IsValidUUID(c.ID) {
		return checkpoint.ErrCheckpointNotFound
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE checkpoints
		SET name = $1,
			location = $2,
			description = $3,
			latitude = $4,
			longitude = $5,
			is_active = $6,
			priority = $7,
			max_assigned_guards = $8,
			geofence_radius_meters = $9,
			updated_at = NOW()
		WHERE id = $10
	`

	tag, err := q.Exec(ctx, query,
		c.Name,
		c.Location,
		c.Description,
		c.Latitude,
		c.Longitude,
		c.IsActive,
		c.Priority,
		c.MaxAssignedGuards,
		c.GeofenceRadiusMeters,
		c.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return checkpoint.ErrCheckpointNameExists
		}
		return fmt.Errorf("failed to update checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return checkpoint.ErrCheckpointNotFound
	}

	return nil
}

// Delete implements checkpoint.CheckpointRepository. Guard assignments are
// cleared by the ON DELETE SET NULL foreign key.
func (r *checkpointRepository) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return checkpoint.ErrCheckpointNotFound
	}

	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM checkpoints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return checkpoint.ErrCheckpointNotFound
	}

	return nil
}

// LockSnapshot implements checkpoint.CheckpointRepository. Guards are locked
// before checkpoints, always in ID order, so concurrent batches cannot
// deadlock on each other.
func (r *checkpointRepository) LockSnapshot(ctx context.Context, checkpointIDs []string, guardIDs []string) (checkpoint.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	snap := checkpoint.Snapshot{
		Checkpoints: make(map[string]checkpoint.Checkpoint),
		Guards:      make(map[string]user.User),
	}

	rows, err := q.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id::text = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, guardIDs)
	if err != nil {
		return checkpoint.Snapshot{}, fmt.Errorf("failed to lock guards: %w", err)
	}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return checkpoint.Snapshot{}, fmt.Errorf("failed to scan guard: %w", err)
		}
		snap.Guards[u.ID] = u
		if u.AssignedCheckpointID != nil {
			checkpointIDs = append(checkpointIDs, *u.AssignedCheckpointID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return checkpoint.Snapshot{}, fmt.Errorf("failed to iterate guards: %w", err)
	}

	// Lock first, then read the counts so they include every committed
	// assignment.
	if _, err := q.Exec(ctx, `
		SELECT id FROM checkpoints WHERE id::text = ANY($1) ORDER BY id FOR UPDATE
	`, checkpointIDs); err != nil {
		return checkpoint.Snapshot{}, fmt.Errorf("failed to lock checkpoints: %w", err)
	}

	rows, err = q.Query(ctx, checkpointSelect+` WHERE c.id::text = ANY($1)`, checkpointIDs)
	if err != nil {
		return checkpoint.Snapshot{}, fmt.Errorf("failed to read locked checkpoints: %w", err)
	}
	checkpoints, err := collectCheckpoints(rows)
	if err != nil {
		return checkpoint.Snapshot{}, err
	}
	for _, c := range checkpoints {
		snap.Checkpoints[c.ID] = c
	}

	return snap, nil
}

// SetGuardCheckpoint implements checkpoint.CheckpointRepository.
func (r *checkpointRepository) SetGuardCheckpoint(ctx context.Context, guardID string, checkpointID *string) error {
	if !validator.IsValidUUID(guardID) {
		return checkpoint.ErrGuardNotFound
	}

	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE users
		SET assigned_checkpoint_id = $1, updated_at = NOW()
		WHERE id = $2
	`, checkpointID, guardID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return checkpoint.ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to set guard checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return checkpoint.ErrGuardNotFound
	}

	return nil
}
