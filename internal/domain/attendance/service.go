package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// CheckIn validates the guard's location and records the check-in for the
	// shift occurrence covering now.
	CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error)

	// CheckOut closes the guard's open record.
	CheckOut(ctx context.Context, req CheckOutRequest) (CheckOutResponse, error)

	// GetMyAttendance retrieves attendance records for authenticated guard
	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) ([]AttendanceResponse, error)

	// GetAttendance retrieves a single attendance record by ID
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)

	// MarkAbsent and MarkOff are administrative overrides. They create the
	// record when it does not exist yet.
	MarkAbsent(ctx context.Context, req MarkRequest) (AttendanceResponse, error)
	MarkOff(ctx context.Context, req MarkRequest) (AttendanceResponse, error)
}
