package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patrolops/patrol-backend-go/internal/domain/attendance"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceSelect = `
	SELECT
		a.id, a.guard_id, a.shift_id, a.date, a.status,
		a.check_in_time, a.check_out_time, a.checkpoint_id,
		a.check_in_latitude, a.check_in_longitude,
		a.check_out_latitude, a.check_out_longitude,
		a.late_minutes, a.early_checkout_minutes, a.overtime_minutes, a.worked_minutes,
		a.scheduled_check_in, a.scheduled_check_out, a.notes,
		a.created_at, a.updated_at,
		g.full_name AS guard_name,
		s.name AS shift_name,
		c.name AS checkpoint_name
	FROM attendances a
	LEFT JOIN users g ON g.id = a.guard_id
	LEFT JOIN shifts s ON s.id = a.shift_id
	LEFT JOIN checkpoints c ON c.id = a.checkpoint_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row scanner) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.GuardID, &att.ShiftID, &att.Date, &att.Status,
		&att.CheckInTime, &att.CheckOutTime, &att.CheckpointID,
		&att.CheckInLatitude, &att.CheckInLongitude,
		&att.CheckOutLatitude, &att.CheckOutLongitude,
		&att.LateMinutes, &att.EarlyCheckoutMinutes, &att.OvertimeMinutes, &att.WorkedMinutes,
		&att.ScheduledCheckIn, &att.ScheduledCheckOut, &att.Notes,
		&att.CreatedAt, &att.UpdatedAt,
		&att.GuardName, &att.ShiftName, &att.CheckpointName,
	)
	return att, err
}

func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	if err := newAttendance.CheckInvariants(); err != nil {
		return attendance.Attendance{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	newAttendance.ID = id.String()

	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			id, guard_id, shift_id, date, status,
			check_in_time, check_out_time, checkpoint_id,
			check_in_latitude, check_in_longitude, check_out_latitude, check_out_longitude,
			late_minutes, early_checkout_minutes, overtime_minutes, worked_minutes,
			scheduled_check_in, scheduled_check_out, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.GuardID,
		newAttendance.ShiftID,
		dateParam(newAttendance.Date),
		newAttendance.Status,
		newAttendance.CheckInTime,
		newAttendance.CheckOutTime,
		newAttendance.CheckpointID,
		newAttendance.CheckInLatitude,
		newAttendance.CheckInLongitude,
		newAttendance.CheckOutLatitude,
		newAttendance.CheckOutLongitude,
		newAttendance.LateMinutes,
		newAttendance.EarlyCheckoutMinutes,
		newAttendance.OvertimeMinutes,
		newAttendance.WorkedMinutes,
		newAttendance.ScheduledCheckIn,
		newAttendance.ScheduledCheckOut,
		newAttendance.Notes,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	if !validator.IsValidUUID(id) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	att, err := scanAttendance(q.QueryRow(ctx, attendanceSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	return att, nil
}

// GetForShift implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetForShift(ctx context.Context, guardID string, shiftID string, date time.Time) (attendance.Attendance, error) {
	if !validator.IsValidUUID(guardID) || !validator.IsValidUUID(shiftID) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	query := attendanceSelect + `
		WHERE a.guard_id = $1
		  AND a.shift_id = $2
		  AND a.date = $3
		FOR UPDATE OF a
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, guardID, shiftID, dateParam(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance for shift: %w", err)
	}

	return att, nil
}

// GetOpenSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSession(ctx context.Context, guardID string) (attendance.Attendance, error) {
	if !validator.IsValidUUID(guardID) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	query := attendanceSelect + `
		WHERE a.guard_id = $1
		  AND a.check_in_time IS NOT NULL
		  AND a.check_out_time IS NULL
		ORDER BY a.check_in_time DESC
		LIMIT 1
		FOR UPDATE OF a
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, guardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open session: %w", err)
	}

	return att, nil
}

// ListStaleOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListStaleOpenSessions(ctx context.Context, endedBefore time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := attendanceSelect + `
		WHERE a.check_in_time IS NOT NULL
		  AND a.check_out_time IS NULL
		  AND a.scheduled_check_out < $1
		ORDER BY a.scheduled_check_out
	`

	rows, err := q.Query(ctx, query, endedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		sessions = append(sessions, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale sessions: %w", err)
	}

	return sessions, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	if err := att.CheckInvariants(); err != nil {
		return err
	}

	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET status = $1,
			check_in_time = $2,
			check_out_time = $3,
			checkpoint_id = $4,
			check_in_latitude = $5,
			check_in_longitude = $6,
			check_out_latitude = $7,
			check_out_longitude = $8,
			late_minutes = $9,
			early_checkout_minutes = $10,
			overtime_minutes = $11,
			worked_minutes = $12,
			notes = $13,
			updated_at = NOW()
		WHERE id = $14
	`

	tag, err := q.Exec(ctx, query,
		att.Status,
		att.CheckInTime,
		att.CheckOutTime,
		att.CheckpointID,
		att.CheckInLatitude,
		att.CheckInLongitude,
		att.CheckOutLatitude,
		att.CheckOutLongitude,
		att.LateMinutes,
		att.EarlyCheckoutMinutes,
		att.OvertimeMinutes,
		att.WorkedMinutes,
		att.Notes,
		att.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// ListByGuard implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByGuard(ctx context.Context, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	where := "a.guard_id = $1"
	args := []interface{}{filter.GuardID}
	argIdx := 2

	if filter.StartDate != nil && *filter.StartDate != "" {
		where += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		where += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		where += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 31
	}
	args = append(args, limit)

	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY a.scheduled_check_in DESC
		LIMIT $%d
	`, attendanceSelect, where, argIdx)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	attendances := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, nil
}

// CountByShift implements attendance.AttendanceRepository.
func (a *attendanceRepository) CountByShift(ctx context.Context, shiftID string) (int64, error) {
	q := GetQuerier(ctx, a.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendances WHERE shift_id = $1`, shiftID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendances for shift: %w", err)
	}
	return count, nil
}

// DeleteByShift implements attendance.AttendanceRepository.
func (a *attendanceRepository) DeleteByShift(ctx context.Context, shiftID string) (int64, error) {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendances WHERE shift_id = $1`, shiftID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendances for shift: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateAbsentPlaceholders implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateAbsentPlaceholders(ctx context.Context, shiftID string, date time.Time, scheduledCheckIn, scheduledCheckOut time.Time) (int64, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `
		SELECT u.id
		FROM users u
		WHERE u.role = 'guard'
		  AND u.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM attendances a
			WHERE a.guard_id = u.id AND a.shift_id = $1 AND a.date = $2
		  )
	`, shiftID, dateParam(date))
	if err != nil {
		return 0, fmt.Errorf("failed to list guards without attendance: %w", err)
	}
	guardIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, fmt.Errorf("failed to scan guard ids: %w", err)
	}

	var created int64
	for _, guardID := range guardIDs {
		id, err := uuid.NewV7()
		if err != nil {
			return created, fmt.Errorf("failed to generate attendance id: %w", err)
		}

		tag, err := q.Exec(ctx, `
			INSERT INTO attendances (id, guard_id, shift_id, date, status, scheduled_check_in, scheduled_check_out)
			VALUES ($1, $2, $3, $4, 'absent', $5, $6)
			ON CONFLICT (guard_id, date, shift_id) DO NOTHING
		`, id.String(), guardID, shiftID, dateParam(date), scheduledCheckIn, scheduledCheckOut)
		if err != nil {
			return created, fmt.Errorf("failed to insert absent placeholder: %w", err)
		}
		created += tag.RowsAffected()
	}

	return created, nil
}
