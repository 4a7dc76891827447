package shift

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

type ShiftServiceImpl struct {
	tx database.Transactor
	shift.ShiftRepository
	attendance.AttendanceRepository
	location *time.Location
	now      func() time.Time
}

func NewShiftService(tx database.Transactor, shiftRepo shift.ShiftRepository, attendanceRepo attendance.AttendanceRepository, location *time.Location) shift.ShiftService {
	if location == nil {
		location = time.UTC
	}
	return &ShiftServiceImpl{
		tx:                   tx,
		ShiftRepository:      shiftRepo,
		AttendanceRepository: attendanceRepo,
		location:             location,
		now:                  time.Now,
	}
}

// Create implements shift.ShiftService.
func (s *ShiftServiceImpl) Create(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	newShift := req.ToEntity()
	if err := newShift.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	created, err := s.ShiftRepository.Create(ctx, newShift)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNameExists) {
			return shift.ShiftResponse{}, err
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to create shift: %w", err)
	}

	slog.Info("Created shift", "shift_id", created.ID, "name", created.Name, "crosses_midnight", created.CrossesMidnight())
	return shift.NewShiftResponse(created), nil
}

// Get implements shift.ShiftService.
func (s *ShiftServiceImpl) Get(ctx context.Context, id string) (shift.ShiftResponse, error) {
	found, err := s.ShiftRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return shift.ShiftResponse{}, err
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return shift.NewShiftResponse(found), nil
}

// List implements shift.ShiftService.
func (s *ShiftServiceImpl) List(ctx context.Context, filter shift.ListShiftFilter) ([]shift.ShiftResponse, error) {
	shifts, err := s.ShiftRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	responses := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		responses = append(responses, shift.NewShiftResponse(sh))
	}
	return responses, nil
}

// Update implements shift.ShiftService.
func (s *ShiftServiceImpl) Update(ctx context.Context, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	var updated shift.Shift
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.ShiftRepository.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}

		req.ApplyTo(&existing)
		if err := existing.Validate(); err != nil {
			return err
		}

		if err := s.ShiftRepository.Update(txCtx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	return shift.NewShiftResponse(updated), nil
}

// Delete implements shift.ShiftService.
func (s *ShiftServiceImpl) Delete(ctx context.Context, req shift.DeleteShiftRequest) error {
	return s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.ShiftRepository.GetByID(txCtx, req.ID); err != nil {
			return err
		}

		count, err := s.AttendanceRepository.CountByShift(txCtx, req.ID)
		if err != nil {
			return fmt.Errorf("failed to count attendance for shift: %w", err)
		}

		if count > 0 {
			if !req.Force {
				return shift.ErrShiftInUse
			}
			purged, err := s.AttendanceRepository.DeleteByShift(txCtx, req.ID)
			if err != nil {
				return fmt.Errorf("failed to purge attendance for shift: %w", err)
			}
			slog.Warn("Purged attendance with shift", "shift_id", req.ID, "records", purged)
		}

		if err := s.ShiftRepository.Delete(txCtx, req.ID); err != nil {
			return err
		}
		return nil
	})
}

// GetCurrent implements shift.ShiftService.
func (s *ShiftServiceImpl) GetCurrent(ctx context.Context) (shift.ShiftResponse, error) {
	shifts, err := s.ShiftRepository.List(ctx, shift.ListShiftFilter{ActiveOnly: true})
	if err != nil {
		return shift.ShiftResponse{}, fmt.Errorf("failed to list shifts: %w", err)
	}

	now := s.now().In(s.location)
	for _, sh := range shifts {
		if sh.IsActive && sh.IsActiveAt(now) {
			return shift.NewShiftResponse(sh), nil
		}
	}
	return shift.ShiftResponse{}, shift.ErrNoActiveShift
}
