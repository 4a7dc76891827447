package attendance

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusOff     Status = "off"
)

// AutoClosedNote is stored on records closed without a check-out.
const AutoClosedNote = "auto-closed: no check-out recorded"

// StaleSessionAfter is how long past its scheduled check-out an open record
// still accepts a check-out. Older open records are auto-closed.
const StaleSessionAfter = 2 * time.Hour

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusOff:
		return true
	}
	return false
}

// Attendance is one guard's record for one occurrence of a shift. Date is the
// day the occurrence starts on, not the day of the check-in instant.
type Attendance struct {
	ID                   string
	GuardID              string
	ShiftID              string
	Date                 time.Time
	CheckInTime          *time.Time
	CheckOutTime         *time.Time
	Status               Status
	CheckpointID         *string
	CheckInLatitude      *float64
	CheckInLongitude     *float64
	CheckOutLatitude     *float64
	CheckOutLongitude    *float64
	LateMinutes          int
	EarlyCheckoutMinutes int
	OvertimeMinutes      int
	WorkedMinutes        int
	ScheduledCheckIn     time.Time
	ScheduledCheckOut    time.Time
	Notes                *string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// DTO
	GuardName      *string
	ShiftName      *string
	CheckpointName *string
}

// CheckInvariants reports the first broken consistency rule of the record.
// Repositories call it before every write.
func (a Attendance) CheckInvariants() error {
	if !a.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidAttendanceState, a.Status)
	}

	switch a.Status {
	case StatusPresent, StatusLate:
		if a.CheckInTime == nil {
			return fmt.Errorf("%w: status %s requires a check-in time", ErrInvalidAttendanceState, a.Status)
		}
	case StatusAbsent:
		if a.CheckInTime != nil {
			return fmt.Errorf("%w: absent record cannot have a check-in time", ErrInvalidAttendanceState)
		}
	}

	if a.CheckInTime != nil && (a.CheckInLatitude == nil || a.CheckInLongitude == nil) {
		return fmt.Errorf("%w: check-in time requires a check-in location", ErrInvalidAttendanceState)
	}

	if a.CheckOutTime != nil {
		if a.CheckInTime == nil {
			return fmt.Errorf("%w: check-out without check-in", ErrInvalidAttendanceState)
		}
		if !a.CheckOutTime.After(*a.CheckInTime) {
			return fmt.Errorf("%w: check-out must be after check-in", ErrInvalidAttendanceState)
		}
	}

	if a.LateMinutes < 0 || a.EarlyCheckoutMinutes < 0 || a.OvertimeMinutes < 0 || a.WorkedMinutes < 0 {
		return fmt.Errorf("%w: negative minute counters", ErrInvalidAttendanceState)
	}

	return nil
}

// IsOpen reports whether the guard is checked in and not yet out.
func (a Attendance) IsOpen() bool {
	return a.CheckInTime != nil && a.CheckOutTime == nil
}

// IsStale reports whether the record is open more than StaleSessionAfter past
// its scheduled check-out.
func (a Attendance) IsStale(now time.Time) bool {
	if !a.IsOpen() || a.ScheduledCheckOut.IsZero() {
		return false
	}
	return now.After(a.ScheduledCheckOut.Add(StaleSessionAfter))
}
