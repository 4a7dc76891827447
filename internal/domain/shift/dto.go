package shift

import (
	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

// ========================================
// SHIFT DTOs
// ========================================

type CreateShiftRequest struct {
	Name                     string `json:"name"`
	StartTime                string `json:"start_time"`
	EndTime                  string `json:"end_time"`
	IsActive                 *bool  `json:"is_active,omitempty"`
	BreakDurationMinutes     int    `json:"break_duration_minutes"`
	GracePeriodMinutes       *int   `json:"grace_period_minutes,omitempty"`
	OvertimeThresholdMinutes *int   `json:"overtime_threshold_minutes,omitempty"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if !validator.IsValidClockTime(r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in HH:MM:SS format",
		})
	}

	if !validator.IsValidClockTime(r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in HH:MM:SS format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToEntity builds a Shift with defaults applied. Call Validate first.
func (r *CreateShiftRequest) ToEntity() Shift {
	s := Shift{
		Name:                     r.Name,
		StartTime:                MustParseClockTime(r.StartTime),
		EndTime:                  MustParseClockTime(r.EndTime),
		IsActive:                 true,
		BreakDurationMinutes:     r.BreakDurationMinutes,
		GracePeriodMinutes:       DefaultGracePeriodMinutes,
		OvertimeThresholdMinutes: DefaultOvertimeThresholdMinutes,
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	if r.GracePeriodMinutes != nil {
		s.GracePeriodMinutes = *r.GracePeriodMinutes
	}
	if r.OvertimeThresholdMinutes != nil {
		s.OvertimeThresholdMinutes = *r.OvertimeThresholdMinutes
	}
	return s
}

type UpdateShiftRequest struct {
	ID                       string  `json:"-"`
	Name                     *string `json:"name,omitempty"`
	StartTime                *string `json:"start_time,omitempty"`
	EndTime                  *string `json:"end_time,omitempty"`
	IsActive                 *bool   `json:"is_active,omitempty"`
	BreakDurationMinutes     *int    `json:"break_duration_minutes,omitempty"`
	GracePeriodMinutes       *int    `json:"grace_period_minutes,omitempty"`
	OvertimeThresholdMinutes *int    `json:"overtime_threshold_minutes,omitempty"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not be empty",
		})
	}

	if r.StartTime != nil && !validator.IsValidClockTime(*r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in HH:MM:SS format",
		})
	}

	if r.EndTime != nil && !validator.IsValidClockTime(*r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in HH:MM:SS format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ApplyTo copies the set fields onto s. Call Validate first.
func (r *UpdateShiftRequest) ApplyTo(s *Shift) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.StartTime != nil {
		s.StartTime = MustParseClockTime(*r.StartTime)
	}
	if r.EndTime != nil {
		s.EndTime = MustParseClockTime(*r.EndTime)
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	if r.BreakDurationMinutes != nil {
		s.BreakDurationMinutes = *r.BreakDurationMinutes
	}
	if r.GracePeriodMinutes != nil {
		s.GracePeriodMinutes = *r.GracePeriodMinutes
	}
	if r.OvertimeThresholdMinutes != nil {
		s.OvertimeThresholdMinutes = *r.OvertimeThresholdMinutes
	}
}

type ShiftResponse struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	StartTime                string `json:"start_time"`
	EndTime                  string `json:"end_time"`
	IsActive                 bool   `json:"is_active"`
	CrossesMidnight          bool   `json:"crosses_midnight"`
	DurationMinutes          int    `json:"duration_minutes"`
	BreakDurationMinutes     int    `json:"break_duration_minutes"`
	GracePeriodMinutes       int    `json:"grace_period_minutes"`
	OvertimeThresholdMinutes int    `json:"overtime_threshold_minutes"`
	CreatedAt                string `json:"created_at"`
	UpdatedAt                string `json:"updated_at"`
}

func NewShiftResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:                       s.ID,
		Name:                     s.Name,
		StartTime:                s.StartTime.String(),
		EndTime:                  s.EndTime.String(),
		IsActive:                 s.IsActive,
		CrossesMidnight:          s.CrossesMidnight(),
		DurationMinutes:          s.DurationMinutes(),
		BreakDurationMinutes:     s.BreakDurationMinutes,
		GracePeriodMinutes:       s.GracePeriodMinutes,
		OvertimeThresholdMinutes: s.OvertimeThresholdMinutes,
		CreatedAt:                s.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:                s.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

type ListShiftFilter struct {
	ActiveOnly bool `json:"active_only"`
}

type DeleteShiftRequest struct {
	ID    string `json:"-"`
	Force bool   `json:"force"`
}
