package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// Create inserts a record. A second record for the same guard, shift and
	// date fails with ErrAlreadyCheckedIn.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves attendance by ID
	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetForShift retrieves the record of a guard for one shift occurrence,
	// locking the row inside a transaction.
	GetForShift(ctx context.Context, guardID string, shiftID string, date time.Time) (Attendance, error)

	// GetOpenSession returns the latest record that is checked in but not out,
	// locking the row inside a transaction.
	GetOpenSession(ctx context.Context, guardID string) (Attendance, error)

	// ListStaleOpenSessions returns records checked in but not out whose
	// scheduled check-out is before endedBefore, oldest first.
	ListStaleOpenSessions(ctx context.Context, endedBefore time.Time) ([]Attendance, error)

	// Update updates an existing attendance record
	Update(ctx context.Context, attendance Attendance) error

	// ListByGuard returns a guard's records, newest first.
	ListByGuard(ctx context.Context, filter MyAttendanceFilter) ([]Attendance, error)

	CountByShift(ctx context.Context, shiftID string) (int64, error)
	DeleteByShift(ctx context.Context, shiftID string) (int64, error)

	// CreateAbsentPlaceholders inserts an absent record for every active guard
	// without one for the given shift occurrence. Existing rows are untouched.
	CreateAbsentPlaceholders(ctx context.Context, shiftID string, date time.Time, scheduledCheckIn, scheduledCheckOut time.Time) (int64, error)
}
