package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/domain/attendance"
	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/pkg/metrics"
	"github.com/patrolops/patrol-backend-go/internal/pkg/sse"
	"github.com/patrolops/patrol-backend-go/internal/pkg/utils"
)

// Config holds the attendance policy knobs.
type Config struct {
	// Location is the site timezone that shift times are expressed in.
	Location *time.Location

	// EarlyCheckInMinutes is how long before a shift starts check-in opens.
	EarlyCheckInMinutes int

	// Events receives the live attendance feed. Optional.
	Events *sse.Hub
}

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	shift.ShiftRepository
	checkpoint.CheckpointRepository
	user.UserRepository
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	shiftRepo shift.ShiftRepository,
	checkpointRepo checkpoint.CheckpointRepository,
	userRepo user.UserRepository,
	m *metrics.Metrics,
	cfg Config,
) attendance.AttendanceService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		ShiftRepository:      shiftRepo,
		CheckpointRepository: checkpointRepo,
		UserRepository:       userRepo,
		metrics:              m,
		cfg:                  cfg,
		now:                  time.Now,
	}
}

func (a *AttendanceServiceImpl) localNow() time.Time {
	return a.now().In(a.cfg.Location)
}

// localDate moves a stored calendar date to midnight in the site timezone.
func (a *AttendanceServiceImpl) localDate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, a.cfg.Location)
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.CheckInResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckInResponse{}, err
	}
	now := a.localNow()

	resp, err := a.checkIn(ctx, req, now)
	if err != nil {
		a.metrics.Rejection("check_in", rejectionReason(err))
		return attendance.CheckInResponse{}, err
	}

	a.metrics.CheckIn(resp.Status)
	slog.Info("Guard checked in",
		"guard_id", req.GuardID,
		"shift_id", resp.ShiftID,
		"checkpoint_id", resp.CheckpointID,
		"status", resp.Status,
		"late_minutes", resp.LateMinutes,
		"distance_meters", resp.DistanceMeters,
	)
	a.publish(attendance.EventCheckedIn, attendance.FeedEvent{
		AttendanceID: resp.ID,
		GuardID:      req.GuardID,
		ShiftID:      resp.ShiftID,
		CheckpointID: resp.CheckpointID,
		Status:       resp.Status,
		At:           resp.CheckInTime,
	})
	return resp, nil
}

func (a *AttendanceServiceImpl) checkIn(ctx context.Context, req attendance.CheckInRequest, now time.Time) (attendance.CheckInResponse, error) {
	guard, err := a.activeGuard(ctx, req.GuardID)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	shifts, err := a.ShiftRepository.List(ctx, shift.ListShiftFilter{ActiveOnly: true})
	if err != nil {
		return attendance.CheckInResponse{}, fmt.Errorf("failed to list shifts: %w", err)
	}

	activeShift, date, err := shift.ResolveOccurrence(shifts, now, a.cfg.EarlyCheckInMinutes)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	nearest, err := a.locateCheckpoint(ctx, guard, req.CheckpointID, req.Point())
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	var (
		record attendance.Attendance
		result attendance.CheckInResult
	)
	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := a.AttendanceRepository.GetForShift(txCtx, guard.ID, activeShift.ID, date)
		isNew := errors.Is(err, attendance.ErrAttendanceNotFound)
		if err != nil && !isNew {
			return fmt.Errorf("failed to get attendance for shift: %w", err)
		}
		if isNew {
			existing = newRecord(guard.ID, activeShift, date)
		}

		checkpointID := nearest.Site.ID
		result = attendance.EvaluateCheckIn(date, activeShift, now)
		if err := existing.ApplyCheckIn(now, req.Point(), &checkpointID, result); err != nil {
			return err
		}

		if isNew {
			created, err := a.AttendanceRepository.Create(txCtx, existing)
			if err != nil {
				return err
			}
			record = created
			return nil
		}

		if err := a.AttendanceRepository.Update(txCtx, existing); err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	return attendance.CheckInResponse{
		ID:               record.ID,
		ShiftID:          record.ShiftID,
		Date:             record.Date.Format("2006-01-02"),
		CheckInTime:      record.CheckInTime.Format(time.RFC3339),
		Status:           string(record.Status),
		ScheduledCheckIn: result.ScheduledCheckIn.Format(time.RFC3339),
		LateMinutes:      result.LateMinutes,
		IsLate:           result.IsLate,
		CheckpointID:     nearest.Site.ID,
		CheckpointName:   nearest.Site.Name,
		DistanceMeters:   nearest.DistanceMeters,
	}, nil
}

// locateCheckpoint applies the check-in geofence policy. An explicit
// checkpoint is checked against its own radius. Otherwise the nearest of the
// guard's standing assignment, or of every geofenced checkpoint when the guard
// has none, is used.
func (a *AttendanceServiceImpl) locateCheckpoint(ctx context.Context, guard user.User, explicitID *string, at utils.Point) (utils.Nearest, error) {
	if explicitID != nil {
		site, err := a.checkpointSite(ctx, *explicitID)
		if err != nil {
			return utils.Nearest{}, err
		}
		return attendance.VerifyAt(at, site)
	}

	if guard.AssignedCheckpointID != nil {
		site, err := a.checkpointSite(ctx, *guard.AssignedCheckpointID)
		if err != nil {
			return utils.Nearest{}, err
		}
		return attendance.SelectNearest(at, []utils.Site{site})
	}

	checkpoints, err := a.CheckpointRepository.ListGeofenced(ctx)
	if err != nil {
		return utils.Nearest{}, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	sites := make([]utils.Site, 0, len(checkpoints))
	for _, cp := range checkpoints {
		if site, ok := cp.Site(); ok && cp.IsActive {
			sites = append(sites, site)
		}
	}
	return attendance.SelectNearest(at, sites)
}

func (a *AttendanceServiceImpl) checkpointSite(ctx context.Context, id string) (utils.Site, error) {
	cp, err := a.CheckpointRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, checkpoint.ErrCheckpointNotFound) {
			return utils.Site{}, err
		}
		return utils.Site{}, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	if !cp.IsActive {
		return utils.Site{}, attendance.ErrCheckpointInactive
	}

	site, ok := cp.Site()
	if !ok {
		return utils.Site{}, attendance.ErrCheckpointNoCoordinate
	}
	return site, nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.CheckOutResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckOutResponse{}, err
	}
	now := a.localNow()

	resp, err := a.checkOut(ctx, req, now)
	if err != nil {
		a.metrics.Rejection("check_out", rejectionReason(err))
		return attendance.CheckOutResponse{}, err
	}

	a.metrics.CheckOut()
	slog.Info("Guard checked out",
		"guard_id", req.GuardID,
		"attendance_id", resp.ID,
		"worked_minutes", resp.WorkedMinutes,
		"early_checkout_minutes", resp.EarlyCheckoutMinutes,
		"overtime_minutes", resp.OvertimeMinutes,
	)
	a.publish(attendance.EventCheckedOut, attendance.FeedEvent{
		AttendanceID: resp.ID,
		GuardID:      req.GuardID,
		Status:       "checked_out",
		At:           resp.CheckOutTime,
	})
	return resp, nil
}

func (a *AttendanceServiceImpl) checkOut(ctx context.Context, req attendance.CheckOutRequest, now time.Time) (attendance.CheckOutResponse, error) {
	var (
		record   attendance.Attendance
		distance float64
	)
	err := a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		open, err := a.AttendanceRepository.GetOpenSession(txCtx, req.GuardID)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrNotCheckedIn
			}
			return fmt.Errorf("failed to get open session: %w", err)
		}
		if open.IsStale(now) {
			return attendance.ErrNotCheckedIn
		}

		sh, err := a.ShiftRepository.GetByID(txCtx, open.ShiftID)
		if err != nil {
			return fmt.Errorf("failed to get shift of attendance: %w", err)
		}

		if open.CheckpointID != nil {
			site, err := a.checkpointSite(txCtx, *open.CheckpointID)
			if err != nil {
				return err
			}
			nearest, err := attendance.VerifyAt(req.Point(), site)
			if err != nil {
				return err
			}
			distance = nearest.DistanceMeters
		}

		date := a.localDate(open.Date)
		if err := open.ApplyCheckOut(now, req.Point(), sh, attendance.EvaluateCheckOut(date, sh, now)); err != nil {
			return err
		}

		if err := a.AttendanceRepository.Update(txCtx, open); err != nil {
			return err
		}
		record = open
		return nil
	})
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}

	return attendance.CheckOutResponse{
		ID:                   record.ID,
		CheckOutTime:         record.CheckOutTime.Format(time.RFC3339),
		ScheduledCheckOut:    record.ScheduledCheckOut.Format(time.RFC3339),
		EarlyCheckoutMinutes: record.EarlyCheckoutMinutes,
		WorkedMinutes:        record.WorkedMinutes,
		TotalHours:           record.TotalHours(),
		OvertimeMinutes:      record.OvertimeMinutes,
		DistanceMeters:       distance,
	}, nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) ([]attendance.AttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	records, err := a.AttendanceRepository.ListByGuard(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, attendance.NewAttendanceResponse(r))
	}
	return responses, nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	record, err := a.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return attendance.NewAttendanceResponse(record), nil
}

// MarkAbsent implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkAbsent(ctx context.Context, req attendance.MarkRequest) (attendance.AttendanceResponse, error) {
	return a.mark(ctx, req, (*attendance.Attendance).MarkAbsent)
}

// MarkOff implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkOff(ctx context.Context, req attendance.MarkRequest) (attendance.AttendanceResponse, error) {
	return a.mark(ctx, req, (*attendance.Attendance).MarkOff)
}

func (a *AttendanceServiceImpl) mark(ctx context.Context, req attendance.MarkRequest, apply func(*attendance.Attendance)) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, a.cfg.Location)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}

	if _, err := a.guard(ctx, req.GuardID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	sh, err := a.ShiftRepository.GetByID(ctx, req.ShiftID)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get shift: %w", err)
	}

	var record attendance.Attendance
	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := a.AttendanceRepository.GetForShift(txCtx, req.GuardID, sh.ID, date)
		isNew := errors.Is(err, attendance.ErrAttendanceNotFound)
		if err != nil && !isNew {
			return fmt.Errorf("failed to get attendance for shift: %w", err)
		}
		if isNew {
			existing = newRecord(req.GuardID, sh, date)
		}

		apply(&existing)
		if req.Notes != nil {
			existing.Notes = req.Notes
		}

		if isNew {
			created, err := a.AttendanceRepository.Create(txCtx, existing)
			if err != nil {
				return err
			}
			record = created
			return nil
		}

		if err := a.AttendanceRepository.Update(txCtx, existing); err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Attendance overridden", "attendance_id", record.ID, "guard_id", record.GuardID, "status", record.Status)
	a.publish(attendance.EventMarked, attendance.FeedEvent{
		AttendanceID: record.ID,
		GuardID:      record.GuardID,
		ShiftID:      record.ShiftID,
		Status:       string(record.Status),
		At:           a.localNow().Format(time.RFC3339),
	})
	return attendance.NewAttendanceResponse(record), nil
}

func (a *AttendanceServiceImpl) publish(name string, payload attendance.FeedEvent) {
	a.cfg.Events.Publish(sse.Event{Topic: attendance.EventTopic, Event: name, Data: payload})
}

// guard returns the user behind id when it is a guard.
func (a *AttendanceServiceImpl) guard(ctx context.Context, id string) (user.User, error) {
	u, err := a.UserRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, attendance.ErrGuardNotFound
		}
		return user.User{}, fmt.Errorf("failed to get guard: %w", err)
	}
	if !u.IsGuard() {
		return user.User{}, attendance.ErrGuardNotFound
	}
	return u, nil
}

func (a *AttendanceServiceImpl) activeGuard(ctx context.Context, id string) (user.User, error) {
	u, err := a.guard(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if !u.IsActive {
		return user.User{}, user.ErrUserInactive
	}
	return u, nil
}

func newRecord(guardID string, sh shift.Shift, date time.Time) attendance.Attendance {
	return attendance.Attendance{
		GuardID:           guardID,
		ShiftID:           sh.ID,
		Date:              date,
		Status:            attendance.StatusAbsent,
		ScheduledCheckIn:  sh.ScheduledCheckIn(date),
		ScheduledCheckOut: sh.ScheduledCheckOut(date),
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, attendance.ErrOutsideGeofence):
		return "outside_geofence"
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		return "already_checked_in"
	case errors.Is(err, attendance.ErrNotCheckedIn):
		return "not_checked_in"
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		return "already_checked_out"
	case errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		return "check_out_before_check_in"
	case errors.Is(err, shift.ErrTooEarlyToCheckIn):
		return "too_early"
	case errors.Is(err, shift.ErrNoActiveShift):
		return "no_active_shift"
	case errors.Is(err, attendance.ErrNoEligibleCheckpoint),
		errors.Is(err, attendance.ErrCheckpointNoCoordinate),
		errors.Is(err, attendance.ErrCheckpointInactive),
		errors.Is(err, checkpoint.ErrCheckpointNotFound):
		return "checkpoint_unavailable"
	case errors.Is(err, attendance.ErrGuardNotFound), errors.Is(err, user.ErrUserInactive):
		return "guard_unavailable"
	default:
		return "error"
	}
}
