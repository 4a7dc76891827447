package attendance

import (
	"math"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/pkg/utils"
)

// CheckInResult holds the fields derived for a check-in. LateMinutes counts
// from the scheduled start with no grace applied; IsLate is the grace-gated
// flag and the two are reported separately.
type CheckInResult struct {
	Status           Status
	LateMinutes      int
	ScheduledCheckIn time.Time
	IsLate           bool
}

type CheckOutResult struct {
	ScheduledCheckOut    time.Time
	EarlyCheckoutMinutes int
}

func EvaluateCheckIn(date time.Time, s shift.Shift, now time.Time) CheckInResult {
	scheduled := s.ScheduledCheckIn(date)
	late := wholeMinutes(now.Sub(scheduled))

	status := StatusPresent
	if late > 0 {
		status = StatusLate
	}

	return CheckInResult{
		Status:           status,
		LateMinutes:      late,
		ScheduledCheckIn: scheduled,
		IsLate:           s.IsLateCheckIn(now, date, nil),
	}
}

func EvaluateCheckOut(date time.Time, s shift.Shift, now time.Time) CheckOutResult {
	scheduled := s.ScheduledCheckOut(date)
	return CheckOutResult{
		ScheduledCheckOut:    scheduled,
		EarlyCheckoutMinutes: wholeMinutes(scheduled.Sub(now)),
	}
}

// OvertimeMinutes is the part of worked beyond the shift's overtime threshold.
func OvertimeMinutes(worked int, s shift.Shift) int {
	return max(0, worked-s.OvertimeThresholdMinutes)
}

// ApplyCheckIn records a check-in. A record that already has a check-in is
// never overwritten.
func (a *Attendance) ApplyCheckIn(now time.Time, at utils.Point, checkpointID *string, res CheckInResult) error {
	if a.CheckInTime != nil {
		return ErrAlreadyCheckedIn
	}

	lat, lng := at.Latitude, at.Longitude
	a.CheckInTime = &now
	a.CheckInLatitude = &lat
	a.CheckInLongitude = &lng
	a.CheckpointID = checkpointID
	a.Status = res.Status
	a.LateMinutes = res.LateMinutes
	a.ScheduledCheckIn = res.ScheduledCheckIn

	return a.CheckInvariants()
}

// ApplyCheckOut closes an open record. Status is left as set by check-in.
func (a *Attendance) ApplyCheckOut(now time.Time, at utils.Point, s shift.Shift, res CheckOutResult) error {
	if a.CheckInTime == nil {
		return ErrNotCheckedIn
	}
	if a.CheckOutTime != nil {
		return ErrAlreadyCheckedOut
	}
	if !now.After(*a.CheckInTime) {
		return ErrCheckOutBeforeCheckIn
	}

	lat, lng := at.Latitude, at.Longitude
	a.CheckOutTime = &now
	a.CheckOutLatitude = &lat
	a.CheckOutLongitude = &lng
	a.ScheduledCheckOut = res.ScheduledCheckOut
	a.EarlyCheckoutMinutes = res.EarlyCheckoutMinutes
	a.WorkedMinutes = wholeMinutes(now.Sub(*a.CheckInTime))
	a.OvertimeMinutes = OvertimeMinutes(a.WorkedMinutes, s)

	return a.CheckInvariants()
}

// AutoClose ends an open record that was never checked out, at its scheduled
// check-out. No check-out location is recorded.
func (a *Attendance) AutoClose(s shift.Shift) error {
	if a.CheckInTime == nil {
		return ErrNotCheckedIn
	}
	if a.CheckOutTime != nil {
		return ErrAlreadyCheckedOut
	}

	closeAt := a.ScheduledCheckOut
	if !closeAt.After(*a.CheckInTime) {
		closeAt = a.CheckInTime.Add(time.Minute)
	}

	note := AutoClosedNote
	a.CheckOutTime = &closeAt
	a.EarlyCheckoutMinutes = 0
	a.WorkedMinutes = wholeMinutes(closeAt.Sub(*a.CheckInTime))
	a.OvertimeMinutes = OvertimeMinutes(a.WorkedMinutes, s)
	a.Notes = &note

	return a.CheckInvariants()
}

// MarkAbsent is an administrative override, legal from any state.
func (a *Attendance) MarkAbsent() {
	a.override(StatusAbsent)
}

// MarkOff is an administrative override, legal from any state.
func (a *Attendance) MarkOff() {
	a.override(StatusOff)
}

func (a *Attendance) override(status Status) {
	a.Status = status
	a.CheckInTime = nil
	a.CheckOutTime = nil
	a.CheckInLatitude = nil
	a.CheckInLongitude = nil
	a.CheckOutLatitude = nil
	a.CheckOutLongitude = nil
	a.CheckpointID = nil
	a.LateMinutes = 0
	a.EarlyCheckoutMinutes = 0
	a.OvertimeMinutes = 0
	a.WorkedMinutes = 0
}

// TotalHours is WorkedMinutes in hours, rounded to two decimals.
func (a Attendance) TotalHours() float64 {
	return math.Round(float64(a.WorkedMinutes)/60*100) / 100
}

func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
