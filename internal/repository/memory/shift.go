package memory

import (
	"context"
	"sort"

	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
)

type shiftRepository struct {
	*Store
}

func NewShiftRepository(s *Store) shift.ShiftRepository {
	return &shiftRepository{Store: s}
}

func (r *shiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	defer r.lock(ctx)()

	if r.shiftNameTaken(s.Name, "") {
		return shift.Shift{}, shift.ErrShiftNameExists
	}

	now := r.now()
	s.ID = newID()
	s.CreatedAt, s.UpdatedAt = now, now
	r.shifts[s.ID] = s
	return s, nil
}

func (r *shiftRepository) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	defer r.lock(ctx)()

	s, ok := r.shifts[id]
	if !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

func (r *shiftRepository) List(ctx context.Context, filter shift.ListShiftFilter) ([]shift.Shift, error) {
	defer r.lock(ctx)()

	shifts := make([]shift.Shift, 0, len(r.shifts))
	for _, s := range r.shifts {
		if filter.ActiveOnly && !s.IsActive {
			continue
		}
		shifts = append(shifts, s)
	}
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].StartTime != shifts[j].StartTime {
			return shifts[i].StartTime < shifts[j].StartTime
		}
		return shifts[i].Name < shifts[j].Name
	})
	return shifts, nil
}

func (r *shiftRepository) Update(ctx context.Context, s shift.Shift) error {
	defer r.lock(ctx)()

	existing, ok := r.shifts[s.ID]
	if !ok {
		return shift.ErrShiftNotFound
	}
	if r.shiftNameTaken(s.Name, s.ID) {
		return shift.ErrShiftNameExists
	}

	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = r.now()
	r.shifts[s.ID] = s
	return nil
}

func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	defer r.lock(ctx)()

	if _, ok := r.shifts[id]; !ok {
		return shift.ErrShiftNotFound
	}
	for _, a := range r.attendances {
		if a.ShiftID == id {
			return shift.ErrShiftInUse
		}
	}
	delete(r.shifts, id)
	return nil
}

func (r *shiftRepository) shiftNameTaken(name, exceptID string) bool {
	for id, s := range r.shifts {
		if id != exceptID && s.Name == name {
			return true
		}
	}
	return false
}
