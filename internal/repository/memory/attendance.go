package memory

import (
	"context"
	"sort"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/domain/attendance"
)

type attendanceRepository struct {
	*Store
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{Store: s}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (r *attendanceRepository) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	defer r.lock(ctx)()

	if _, ok := r.findForShift(a.GuardID, a.ShiftID, a.Date); ok {
		return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
	}
	if err := a.CheckInvariants(); err != nil {
		return attendance.Attendance{}, err
	}

	now := r.now()
	a.ID = newID()
	a.CreatedAt, a.UpdatedAt = now, now
	r.attendances[a.ID] = a
	return r.withNames(a), nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	defer r.lock(ctx)()

	a, ok := r.attendances[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r.withNames(a), nil
}

func (r *attendanceRepository) GetForShift(ctx context.Context, guardID string, shiftID string, date time.Time) (attendance.Attendance, error) {
	defer r.lock(ctx)()

	a, ok := r.findForShift(guardID, shiftID, date)
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r.withNames(a), nil
}

func (r *attendanceRepository) GetOpenSession(ctx context.Context, guardID string) (attendance.Attendance, error) {
	defer r.lock(ctx)()

	var (
		open  attendance.Attendance
		found bool
	)
	for _, a := range r.attendances {
		if a.GuardID != guardID || !a.IsOpen() {
			continue
		}
		if !found || a.CheckInTime.After(*open.CheckInTime) {
			open, found = a, true
		}
	}
	if !found {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r.withNames(open), nil
}

func (r *attendanceRepository) ListStaleOpenSessions(ctx context.Context, endedBefore time.Time) ([]attendance.Attendance, error) {
	defer r.lock(ctx)()

	sessions := make([]attendance.Attendance, 0)
	for _, a := range r.attendances {
		if a.IsOpen() && a.ScheduledCheckOut.Before(endedBefore) {
			sessions = append(sessions, r.withNames(a))
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ScheduledCheckOut.Before(sessions[j].ScheduledCheckOut)
	})
	return sessions, nil
}

func (r *attendanceRepository) Update(ctx context.Context, a attendance.Attendance) error {
	defer r.lock(ctx)()

	existing, ok := r.attendances[a.ID]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	if err := a.CheckInvariants(); err != nil {
		return err
	}

	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = r.now()
	r.attendances[a.ID] = a
	return nil
}

func (r *attendanceRepository) ListByGuard(ctx context.Context, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, error) {
	defer r.lock(ctx)()

	records := make([]attendance.Attendance, 0)
	for _, a := range r.attendances {
		if a.GuardID != filter.GuardID {
			continue
		}
		day := dateKey(a.Date)
		if filter.StartDate != nil && day < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && day > *filter.EndDate {
			continue
		}
		if filter.Status != nil && string(a.Status) != *filter.Status {
			continue
		}
		records = append(records, r.withNames(a))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ScheduledCheckIn.After(records[j].ScheduledCheckIn)
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (r *attendanceRepository) CountByShift(ctx context.Context, shiftID string) (int64, error) {
	defer r.lock(ctx)()

	var n int64
	for _, a := range r.attendances {
		if a.ShiftID == shiftID {
			n++
		}
	}
	return n, nil
}

func (r *attendanceRepository) DeleteByShift(ctx context.Context, shiftID string) (int64, error) {
	defer r.lock(ctx)()

	var n int64
	for id, a := range r.attendances {
		if a.ShiftID == shiftID {
			delete(r.attendances, id)
			n++
		}
	}
	return n, nil
}

func (r *attendanceRepository) CreateAbsentPlaceholders(ctx context.Context, shiftID string, date time.Time, scheduledCheckIn, scheduledCheckOut time.Time) (int64, error) {
	defer r.lock(ctx)()

	now := r.now()
	var n int64
	for _, u := range r.users {
		if !u.IsGuard() || !u.IsActive {
			continue
		}
		if _, ok := r.findForShift(u.ID, shiftID, date); ok {
			continue
		}
		a := attendance.Attendance{
			ID:                newID(),
			GuardID:           u.ID,
			ShiftID:           shiftID,
			Date:              date,
			Status:            attendance.StatusAbsent,
			ScheduledCheckIn:  scheduledCheckIn,
			ScheduledCheckOut: scheduledCheckOut,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		r.attendances[a.ID] = a
		n++
	}
	return n, nil
}

func (r *attendanceRepository) findForShift(guardID, shiftID string, date time.Time) (attendance.Attendance, bool) {
	day := dateKey(date)
	for _, a := range r.attendances {
		if a.GuardID == guardID && a.ShiftID == shiftID && dateKey(a.Date) == day {
			return a, true
		}
	}
	return attendance.Attendance{}, false
}

func (r *attendanceRepository) withNames(a attendance.Attendance) attendance.Attendance {
	if g, ok := r.users[a.GuardID]; ok {
		a.GuardName = &g.FullName
	}
	if s, ok := r.shifts[a.ShiftID]; ok {
		a.ShiftName = &s.Name
	}
	if a.CheckpointID != nil {
		if cp, ok := r.checkpoints[*a.CheckpointID]; ok {
			a.CheckpointName = &cp.Name
		}
	}
	return a
}
