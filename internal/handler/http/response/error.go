package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/patrolops/patrol-backend-go/internal/domain/attendance"
	"github.com/patrolops/patrol-backend-go/internal/domain/auth"
	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]any, len(validationErrs))
		for field, msg := range validationErrs.ToMap() {
			details[field] = msg
		}
		ValidationError(w, details)
		return
	}

	var geofenceErr *attendance.GeofenceError
	if errors.As(err, &geofenceErr) {
		ConflictWithDetails(w, geofenceErr.Error(), map[string]any{
			"checkpoint_id":   geofenceErr.CheckpointID,
			"checkpoint_name": geofenceErr.CheckpointName,
			"distance_meters": geofenceErr.DistanceMeters,
			"radius_meters":   geofenceErr.RadiusMeters,
		})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrAccountInactive):
		Forbidden(w, "Account is inactive")

	// User domain errors
	case errors.Is(err, user.ErrAdminPrivilegeRequired),
		errors.Is(err, user.ErrGuardRoleRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrUserInactive):
		NotFound(w, "Guard not found or inactive")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")

	// Shift domain errors
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, shift.ErrNoActiveShift):
		NotFound(w, "No active shift at this time")
	case errors.Is(err, shift.ErrShiftNameExists),
		errors.Is(err, shift.ErrShiftInUse),
		errors.Is(err, shift.ErrTooEarlyToCheckIn):
		Conflict(w, err.Error())

	// Checkpoint domain errors
	case errors.Is(err, checkpoint.ErrCheckpointNotFound):
		NotFound(w, "Checkpoint not found")
	case errors.Is(err, checkpoint.ErrCheckpointInactive):
		NotFound(w, "Checkpoint not found or inactive")
	case errors.Is(err, checkpoint.ErrGuardNotFound),
		errors.Is(err, checkpoint.ErrGuardInactive),
		errors.Is(err, checkpoint.ErrNotAGuard):
		NotFound(w, "Guard not found or inactive")
	case errors.Is(err, checkpoint.ErrCheckpointNameExists),
		errors.Is(err, checkpoint.ErrCapacityExceeded),
		errors.Is(err, checkpoint.ErrGuardAlreadyAssigned),
		errors.Is(err, checkpoint.ErrGuardNotAssigned):
		Conflict(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrGuardNotFound):
		NotFound(w, "Guard not found")
	case errors.Is(err, attendance.ErrCheckpointInactive):
		NotFound(w, "Checkpoint not found or inactive")
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, attendance.ErrCheckOutBeforeCheckIn),
		errors.Is(err, attendance.ErrOutsideGeofence),
		errors.Is(err, attendance.ErrNoEligibleCheckpoint),
		errors.Is(err, attendance.ErrCheckpointNoCoordinate),
		errors.Is(err, attendance.ErrInvalidAttendanceState):
		Conflict(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
