package attendance

import (
	"time"

	"github.com/patrolops/patrol-backend-go/internal/pkg/utils"
	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type CheckInRequest struct {
	GuardID      string   `json:"-"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	CheckpointID *string  `json:"checkpoint_id,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.GuardID) {
		errs = append(errs, validator.ValidationError{
			Field:   "guard_id",
			Message: "guard_id is required",
		})
	}

	errs = append(errs, validateCoordinates(r.Latitude, r.Longitude)...)

	if r.CheckpointID != nil && validator.IsEmpty(*r.CheckpointID) {
		errs = append(errs, validator.ValidationError{
			Field:   "checkpoint_id",
			Message: "checkpoint_id must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Point returns the request location. Call Validate first.
func (r *CheckInRequest) Point() utils.Point {
	return utils.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type CheckOutRequest struct {
	GuardID   string   `json:"-"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.GuardID) {
		errs = append(errs, validator.ValidationError{
			Field:   "guard_id",
			Message: "guard_id is required",
		})
	}

	errs = append(errs, validateCoordinates(r.Latitude, r.Longitude)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Point returns the request location. Call Validate first.
func (r *CheckOutRequest) Point() utils.Point {
	return utils.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

func validateCoordinates(lat, lng *float64) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if lat == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude is required",
		})
	} else if !utils.IsValidLatitude(*lat) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if lng == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude is required",
		})
	} else if !utils.IsValidLongitude(*lng) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	return errs
}

// MarkRequest is the body of the administrative mark-absent and mark-off
// overrides.
type MarkRequest struct {
	GuardID string  `json:"guard_id"`
	ShiftID string  `json:"shift_id"`
	Date    string  `json:"date"` // YYYY-MM-DD
	Notes   *string `json:"notes,omitempty"`
}

func (r *MarkRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.GuardID) {
		errs = append(errs, validator.ValidationError{
			Field:   "guard_id",
			Message: "guard_id is required",
		})
	}

	if validator.IsEmpty(r.ShiftID) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "shift_id is required",
		})
	}

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if r.Notes != nil && len(*r.Notes) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MyAttendanceFilter struct {
	GuardID   string  `json:"-"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`
	Limit     int     `json:"limit"`
}

func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.GuardID) {
		errs = append(errs, validator.ValidationError{
			Field:   "guard_id",
			Message: "guard_id is required",
		})
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 31 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		if !Status(*f.Status).Valid() {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: present, late, absent, off",
			})
		}
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if f.StartDate != nil && *f.StartDate != "" {
		if start, hasStart = validator.IsValidDate(*f.StartDate); !hasStart {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if end, hasEnd = validator.IsValidDate(*f.EndDate); !hasEnd {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if hasStart && hasEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckInResponse struct {
	ID               string  `json:"id"`
	ShiftID          string  `json:"shift_id"`
	Date             string  `json:"date"`
	CheckInTime      string  `json:"check_in_time"`
	Status           string  `json:"status"`
	ScheduledCheckIn string  `json:"scheduled_check_in"`
	LateMinutes      int     `json:"late_minutes"`
	IsLate           bool    `json:"is_late"`
	CheckpointID     string  `json:"checkpoint_id"`
	CheckpointName   string  `json:"checkpoint_name"`
	DistanceMeters   float64 `json:"distance_meters"`
}

type CheckOutResponse struct {
	ID                   string  `json:"id"`
	CheckOutTime         string  `json:"check_out_time"`
	ScheduledCheckOut    string  `json:"scheduled_check_out"`
	EarlyCheckoutMinutes int     `json:"early_checkout_minutes"`
	WorkedMinutes        int     `json:"worked_minutes"`
	TotalHours           float64 `json:"total_hours"`
	OvertimeMinutes      int     `json:"overtime_minutes"`
	DistanceMeters       float64 `json:"distance_meters"`
}

type AttendanceResponse struct {
	ID                   string   `json:"id"`
	GuardID              string   `json:"guard_id"`
	GuardName            *string  `json:"guard_name,omitempty"`
	ShiftID              string   `json:"shift_id"`
	ShiftName            *string  `json:"shift_name,omitempty"`
	Date                 string   `json:"date"`
	Status               string   `json:"status"`
	CheckInTime          *string  `json:"check_in_time,omitempty"`
	CheckOutTime         *string  `json:"check_out_time,omitempty"`
	CheckpointID         *string  `json:"checkpoint_id,omitempty"`
	CheckpointName       *string  `json:"checkpoint_name,omitempty"`
	CheckInLatitude      *float64 `json:"check_in_latitude,omitempty"`
	CheckInLongitude     *float64 `json:"check_in_longitude,omitempty"`
	CheckOutLatitude     *float64 `json:"check_out_latitude,omitempty"`
	CheckOutLongitude    *float64 `json:"check_out_longitude,omitempty"`
	ScheduledCheckIn     string   `json:"scheduled_check_in"`
	ScheduledCheckOut    string   `json:"scheduled_check_out"`
	LateMinutes          int      `json:"late_minutes"`
	EarlyCheckoutMinutes int      `json:"early_checkout_minutes"`
	WorkedMinutes        int      `json:"worked_minutes"`
	TotalHours           float64  `json:"total_hours"`
	OvertimeMinutes      int      `json:"overtime_minutes"`
	Notes                *string  `json:"notes,omitempty"`
}

func NewAttendanceResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:                   a.ID,
		GuardID:              a.GuardID,
		GuardName:            a.GuardName,
		ShiftID:              a.ShiftID,
		ShiftName:            a.ShiftName,
		Date:                 a.Date.Format("2006-01-02"),
		Status:               string(a.Status),
		CheckInTime:          timePtrToString(a.CheckInTime),
		CheckOutTime:         timePtrToString(a.CheckOutTime),
		CheckpointID:         a.CheckpointID,
		CheckpointName:       a.CheckpointName,
		CheckInLatitude:      a.CheckInLatitude,
		CheckInLongitude:     a.CheckInLongitude,
		CheckOutLatitude:     a.CheckOutLatitude,
		CheckOutLongitude:    a.CheckOutLongitude,
		ScheduledCheckIn:     a.ScheduledCheckIn.Format(time.RFC3339),
		ScheduledCheckOut:    a.ScheduledCheckOut.Format(time.RFC3339),
		LateMinutes:          a.LateMinutes,
		EarlyCheckoutMinutes: a.EarlyCheckoutMinutes,
		WorkedMinutes:        a.WorkedMinutes,
		TotalHours:           a.TotalHours(),
		OvertimeMinutes:      a.OvertimeMinutes,
		Notes:                a.Notes,
	}
}

// timePtrToString safely converts a *time.Time to an RFC 3339 string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}
