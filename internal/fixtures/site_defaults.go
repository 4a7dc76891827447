package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
)

// ==========================================
// DEFAULT SHIFTS
// ==========================================

// GetDefaultShifts returns the standard three-shift rotation for a new site.
// Night runs past midnight.
func GetDefaultShifts() []shift.Shift {
	return []shift.Shift{
		{
			Name:                     "Morning",
			StartTime:                shift.MustParseClockTime("06:00"),
			EndTime:                  shift.MustParseClockTime("14:00"),
			IsActive:                 true,
			BreakDurationMinutes:     30,
			GracePeriodMinutes:       shift.DefaultGracePeriodMinutes,
			OvertimeThresholdMinutes: shift.DefaultOvertimeThresholdMinutes,
		},
		{
			Name:                     "Afternoon",
			StartTime:                shift.MustParseClockTime("14:00"),
			EndTime:                  shift.MustParseClockTime("22:00"),
			IsActive:                 true,
			BreakDurationMinutes:     30,
			GracePeriodMinutes:       shift.DefaultGracePeriodMinutes,
			OvertimeThresholdMinutes: shift.DefaultOvertimeThresholdMinutes,
		},
		{
			Name:                     "Night",
			StartTime:                shift.MustParseClockTime("22:00"),
			EndTime:                  shift.MustParseClockTime("06:00"),
			IsActive:                 true,
			BreakDurationMinutes:     30,
			GracePeriodMinutes:       shift.DefaultGracePeriodMinutes,
			OvertimeThresholdMinutes: shift.DefaultOvertimeThresholdMinutes,
		},
	}
}

// ==========================================
// SEEDING
// ==========================================

// SeedResult counts what Seed created.
type SeedResult struct {
	AdminCreated  bool
	ShiftsCreated int
}

// Seed creates the first admin account and the default shifts. Records that
// already exist are left as they are, so it is safe to run more than once.
func Seed(ctx context.Context, users user.UserRepository, shifts shift.ShiftRepository, adminEmail, adminPassword string) (SeedResult, error) {
	var result SeedResult

	if adminEmail != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return result, fmt.Errorf("failed to hash admin password: %w", err)
		}
		hashedStr := string(hashed)

		_, err = users.Create(ctx, user.User{
			Email:        adminEmail,
			FullName:     "Administrator",
			PasswordHash: &hashedStr,
			Role:         user.RoleAdmin,
			IsActive:     true,
		})
		switch {
		case err == nil:
			result.AdminCreated = true
		case errors.Is(err, user.ErrUserEmailExists):
			slog.Info("Admin already exists, skipping", "email", adminEmail)
		default:
			return result, fmt.Errorf("failed to create admin: %w", err)
		}
	}

	for _, s := range GetDefaultShifts() {
		_, err := shifts.Create(ctx, s)
		switch {
		case err == nil:
			result.ShiftsCreated++
		case errors.Is(err, shift.ErrShiftNameExists):
			slog.Info("Shift already exists, skipping", "name", s.Name)
		default:
			return result, fmt.Errorf("failed to create shift %q: %w", s.Name, err)
		}
	}

	return result, nil
}
