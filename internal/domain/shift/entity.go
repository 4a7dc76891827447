package shift

import (
	"time"

	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

const (
	MaxBreakDurationMinutes     = 240
	MaxGracePeriodMinutes       = 60
	MinOvertimeThresholdMinutes = 60
	MaxOvertimeThresholdMinutes = 1440

	DefaultGracePeriodMinutes       = 15
	DefaultOvertimeThresholdMinutes = 480
)

// Shift is a named daily time window. A shift whose end is numerically before
// its start runs past midnight into the next calendar day.
type Shift struct {
	ID                       string
	Name                     string
	StartTime                ClockTime
	EndTime                  ClockTime
	IsActive                 bool
	BreakDurationMinutes     int
	GracePeriodMinutes       int
	OvertimeThresholdMinutes int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// CrossesMidnight reports whether the window ends on the day after it starts.
func (s Shift) CrossesMidnight() bool {
	return s.EndTime < s.StartTime
}

// DurationMinutes returns the length of the window.
func (s Shift) DurationMinutes() int {
	diff := int(s.EndTime) - int(s.StartTime)
	if s.CrossesMidnight() {
		diff += secondsPerDay
	}
	return diff / 60
}

// ScheduledCheckIn is date at StartTime, in date's location.
func (s Shift) ScheduledCheckIn(date time.Time) time.Time {
	return atClock(date, s.StartTime, 0)
}

// ScheduledCheckOut is date at EndTime, moved to the next day for shifts that
// cross midnight.
func (s Shift) ScheduledCheckOut(date time.Time) time.Time {
	days := 0
	if s.CrossesMidnight() {
		days = 1
	}
	return atClock(date, s.EndTime, days)
}

// IsActiveAt reports whether the time of day of t falls inside the window,
// bounds included. Only hours and minutes of t are considered.
func (s Shift) IsActiveAt(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	start := s.StartTime.TotalMinutes()
	end := s.EndTime.TotalMinutes()

	if s.CrossesMidnight() {
		return minutes >= start || minutes <= end
	}
	return minutes >= start && minutes <= end
}

// IsLateCheckIn reports whether checkIn is after the scheduled start plus the
// grace period. graceOverride replaces the shift's own grace period when set.
func (s Shift) IsLateCheckIn(checkIn time.Time, date time.Time, graceOverride *int) bool {
	grace := s.GracePeriodMinutes
	if graceOverride != nil {
		grace = *graceOverride
	}
	limit := s.ScheduledCheckIn(date).Add(time.Duration(grace) * time.Minute)
	return checkIn.After(limit)
}

// OccurrenceAt returns the attendance day whose occurrence of this shift
// contains now, opening earlyMinutes before the scheduled start. Yesterday is
// considered so that the early hours of a midnight-crossing shift map back to
// the day it started; tomorrow is considered for early check-ins to shifts
// starting right after midnight.
func (s Shift) OccurrenceAt(now time.Time, earlyMinutes int) (time.Time, bool) {
	today := DateOf(now)
	early := time.Duration(earlyMinutes) * time.Minute

	for _, offset := range []int{0, -1, 1} {
		day := today.AddDate(0, 0, offset)
		opens := s.ScheduledCheckIn(day).Add(-early)
		closes := s.ScheduledCheckOut(day)
		if !now.Before(opens) && !now.After(closes) {
			return day, true
		}
	}
	return time.Time{}, false
}

// ResolveOccurrence returns the first active shift in shifts whose occurrence
// contains now, with the attendance day it belongs to. When none does,
// ErrTooEarlyToCheckIn reports that an active shift still starts later today
// and ErrNoActiveShift that none does.
func ResolveOccurrence(shifts []Shift, now time.Time, earlyMinutes int) (Shift, time.Time, error) {
	startsLater := false
	for _, s := range shifts {
		if !s.IsActive {
			continue
		}
		if day, ok := s.OccurrenceAt(now, earlyMinutes); ok {
			return s, day, nil
		}
		if now.Before(s.ScheduledCheckIn(DateOf(now))) {
			startsLater = true
		}
	}

	if startsLater {
		return Shift{}, time.Time{}, ErrTooEarlyToCheckIn
	}
	return Shift{}, time.Time{}, ErrNoActiveShift
}

// Validate checks the shift's own invariants.
func (s Shift) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(s.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	} else if len(s.Name) > 100 {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name must not exceed 100 characters"})
	}

	if !s.StartTime.Valid() {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "start_time must be a valid HH:MM:SS time"})
	}
	if !s.EndTime.Valid() {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time must be a valid HH:MM:SS time"})
	}
	if s.StartTime.Valid() && s.EndTime.Valid() && s.DurationMinutes() < 1 {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time must be at least 1 minute after start_time"})
	}

	if s.BreakDurationMinutes < 0 || s.BreakDurationMinutes > MaxBreakDurationMinutes {
		errs = append(errs, validator.ValidationError{Field: "break_duration_minutes", Message: "break_duration_minutes must be between 0 and 240"})
	}
	if s.GracePeriodMinutes < 0 || s.GracePeriodMinutes > MaxGracePeriodMinutes {
		errs = append(errs, validator.ValidationError{Field: "grace_period_minutes", Message: "grace_period_minutes must be between 0 and 60"})
	}
	if s.OvertimeThresholdMinutes < MinOvertimeThresholdMinutes || s.OvertimeThresholdMinutes > MaxOvertimeThresholdMinutes {
		errs = append(errs, validator.ValidationError{Field: "overtime_threshold_minutes", Message: "overtime_threshold_minutes must be between 60 and 1440"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DateOf truncates t to midnight in t's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atClock(date time.Time, c ClockTime, addDays int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day()+addDays, c.Hour(), c.Minute(), c.Second(), 0, date.Location())
}
