package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn       = errors.New("already checked in for this shift")
	ErrOutsideGeofence        = errors.New("outside the checkpoint geofence")
	ErrNoEligibleCheckpoint   = errors.New("no checkpoint with coordinates is available for attendance")
	ErrCheckpointNoCoordinate = errors.New("checkpoint has no coordinates")
	ErrCheckpointInactive     = errors.New("checkpoint is not active")

	// Check-out errors
	ErrNotCheckedIn          = errors.New("not checked in yet")
	ErrAlreadyCheckedOut     = errors.New("already checked out")
	ErrCheckOutBeforeCheckIn = errors.New("check-out must be after check-in")

	// General errors
	ErrAttendanceNotFound     = errors.New("attendance record not found")
	ErrGuardNotFound          = errors.New("guard not found")
	ErrInvalidAttendanceState = errors.New("invalid attendance state")
)

// GeofenceError describes a location rejected by the geofence check.
type GeofenceError struct {
	CheckpointID   string
	CheckpointName string
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("you are %.0fm from checkpoint %q, which allows at most %.0fm",
		e.DistanceMeters, e.CheckpointName, e.RadiusMeters)
}

func (e *GeofenceError) Is(target error) bool {
	return target == ErrOutsideGeofence
}
