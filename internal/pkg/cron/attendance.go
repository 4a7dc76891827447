package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/domain/attendance"
	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
)

const (
	absentPlaceholdersJob = "absent_placeholders"
	closeStaleSessionsJob = "close_stale_sessions"

	// Finished occurrences older than this are left alone.
	absentLookbackDays = 2
)

// AttendanceJobs holds the scheduled jobs that maintain attendance records.
type AttendanceJobs struct {
	tx             database.Transactor
	shiftRepo      shift.ShiftRepository
	attendanceRepo attendance.AttendanceRepository
	location       *time.Location
	now            func() time.Time
}

func NewAttendanceJobs(
	tx database.Transactor,
	shiftRepo shift.ShiftRepository,
	attendanceRepo attendance.AttendanceRepository,
	location *time.Location,
) *AttendanceJobs {
	if location == nil {
		location = time.UTC
	}
	return &AttendanceJobs{
		tx:             tx,
		shiftRepo:      shiftRepo,
		attendanceRepo: attendanceRepo,
		location:       location,
		now:            time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(closeStaleSessionsJob, time.Hour, j.CloseStaleSessions)
	scheduler.AddJob(absentPlaceholdersJob, time.Hour, j.CreateAbsentPlaceholders)
}

// CreateAbsentPlaceholders records every active guard without a record for a
// finished occurrence of an active shift as absent. Occurrences that ended
// more than absentLookbackDays ago are skipped. Running it again is harmless.
func (j *AttendanceJobs) CreateAbsentPlaceholders(ctx context.Context) error {
	now := j.now().In(j.location)

	shifts, err := j.shiftRepo.List(ctx, shift.ListShiftFilter{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("failed to list shifts: %w", err)
	}

	var (
		total int64
		errs  []error
	)
	today := shift.DateOf(now)
	for _, s := range shifts {
		for back := absentLookbackDays; back >= 0; back-- {
			date := today.AddDate(0, 0, -back)
			scheduledOut := s.ScheduledCheckOut(date)
			if scheduledOut.After(now) {
				continue
			}

			n, err := j.attendanceRepo.CreateAbsentPlaceholders(ctx, s.ID, date, s.ScheduledCheckIn(date), scheduledOut)
			if err != nil {
				slog.Error("Cron: Failed to create absent placeholders",
					"shift_id", s.ID,
					"date", date.Format("2006-01-02"),
					"error", err)
				errs = append(errs, fmt.Errorf("shift %s on %s: %w", s.ID, date.Format("2006-01-02"), err))
				continue
			}
			total += n
		}
	}

	if total > 0 {
		slog.Info("Cron: Marked guards absent", "count", total)
	}
	return errors.Join(errs...)
}

// CloseStaleSessions closes records left open more than
// attendance.StaleSessionAfter past their scheduled check-out, so a forgotten
// check-out neither blocks nor absorbs the guard's later check-outs.
func (j *AttendanceJobs) CloseStaleSessions(ctx context.Context) error {
	now := j.now()

	stale, err := j.attendanceRepo.ListStaleOpenSessions(ctx, now.Add(-attendance.StaleSessionAfter))
	if err != nil {
		return fmt.Errorf("failed to list stale sessions: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	var (
		closed int
		errs   []error
	)
	for _, session := range stale {
		err := j.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			current, err := j.attendanceRepo.GetForShift(txCtx, session.GuardID, session.ShiftID, session.Date)
			if err != nil {
				return err
			}
			if !current.IsOpen() {
				return nil
			}

			sh, err := j.shiftRepo.GetByID(txCtx, current.ShiftID)
			if err != nil {
				return fmt.Errorf("failed to get shift: %w", err)
			}
			if err := current.AutoClose(sh); err != nil {
				return err
			}
			if err := j.attendanceRepo.Update(txCtx, current); err != nil {
				return err
			}
			closed++
			return nil
		})
		if err != nil {
			slog.Error("Cron: Failed to auto-close attendance",
				"attendance_id", session.ID,
				"guard_id", session.GuardID,
				"error", err)
			errs = append(errs, fmt.Errorf("attendance %s: %w", session.ID, err))
		}
	}

	if closed > 0 {
		slog.Info("Cron: Auto-closed stale attendances", "count", closed)
	}
	return errors.Join(errs...)
}
