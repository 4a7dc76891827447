package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftColumns = `
	id, name, start_time, end_time, is_active,
	break_duration_minutes, grace_period_minutes, overtime_threshold_minutes,
	created_at, updated_at
`

func toPgTime(c shift.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * 1_000_000, Valid: true}
}

func fromPgTime(t pgtype.Time) shift.ClockTime {
	return shift.ClockTime(t.Microseconds / 1_000_000)
}

func scanShift(row scanner) (shift.Shift, error) {
	var (
		s          shift.Shift
		start, end pgtype.Time
	)
	err := row.Scan(
		&s.ID, &s.Name, &start, &end, &s.IsActive,
		&s.BreakDurationMinutes, &s.GracePeriodMinutes, &s.OvertimeThresholdMinutes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return shift.Shift{}, err
	}
	s.StartTime = fromPgTime(start)
	s.EndTime = fromPgTime(end)
	return s, nil
}

// Create implements shift.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to generate shift id: %w", err)
	}

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (
			id, name, start_time, end_time, is_active,
			break_duration_minutes, grace_period_minutes, overtime_threshold_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + shiftColumns

	created, err := scanShift(q.QueryRow(ctx, query,
		id.String(),
		s.Name,
		toPgTime(s.StartTime),
		toPgTime(s.EndTime),
		s.IsActive,
		s.BreakDurationMinutes,
		s.GracePeriodMinutes,
		s.OvertimeThresholdMinutes,
	))
	if err != nil {
		if IsUniqueViolation(err) {
			return shift.Shift{}, shift.ErrShiftNameExists
		}
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return created, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	if !validator.IsValidUUID(id) {
		return shift.Shift{}, shift.ErrShiftNotFound
	}

	q := GetQuerier(ctx, r.db)

	s, err := scanShift(q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift by ID: %w", err)
	}

	return s, nil
}

// List implements shift.ShiftRepository.
func (r *shiftRepository) List(ctx context.Context, filter shift.ListShiftFilter) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM shifts`
	if filter.ActiveOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY start_time, name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	shifts := make([]shift.Shift, 0)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	return shifts, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepository) Update(ctx context.Context, s shift.Shift) error {
	if !validator.IsValidUUID(s.ID) {
		return shift.ErrShiftNotFound
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET name = $1,
			start_time = $2,
			end_time = $3,
			is_active = $4,
			break_duration_minutes = $5,
			grace_period_minutes = $6,
			overtime_threshold_minutes = $7,
			updated_at = NOW()
		WHERE id = $8
	`

	tag, err := q.Exec(ctx, query,
		s.Name,
		toPgTime(s.StartTime),
		toPgTime(s.EndTime),
		s.IsActive,
		s.BreakDurationMinutes,
		s.GracePeriodMinutes,
		s.OvertimeThresholdMinutes,
		s.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shift.ErrShiftNameExists
		}
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}

	return nil
}

// Delete implements shift.ShiftRepository.
func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return shift.ErrShiftNotFound
	}

	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shift.ErrShiftInUse
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}

	return nil
}
