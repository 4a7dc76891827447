package shift

import (
	"testing"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShift(start, end string) Shift {
	return Shift{
		Name:                     "test",
		StartTime:                MustParseClockTime(start),
		EndTime:                  MustParseClockTime(end),
		IsActive:                 true,
		GracePeriodMinutes:       15,
		OvertimeThresholdMinutes: 480,
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

// ===== CLOCK TIME TESTS =====

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"06:00", "06:00:00", false},
		{"18:30:15", "18:30:15", false},
		{"00:00:00", "00:00:00", false},
		{"23:59:59", "23:59:59", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"6:00", "", true},
		{"06-00", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClockTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

// ===== WINDOW TESTS =====

func TestShift_DayWindow(t *testing.T) {
	s := newShift("06:00", "18:00")

	assert.False(t, s.CrossesMidnight())
	assert.Equal(t, 720, s.DurationMinutes())
	assert.True(t, s.IsActiveAt(at(1, 12, 0)))
	assert.True(t, s.IsActiveAt(at(1, 6, 0)))
	assert.True(t, s.IsActiveAt(at(1, 18, 0)))
	assert.False(t, s.IsActiveAt(at(1, 20, 0)))
	assert.False(t, s.IsActiveAt(at(1, 5, 59)))
}

func TestShift_MidnightWindow(t *testing.T) {
	s := newShift("18:00", "06:00")

	assert.True(t, s.CrossesMidnight())
	assert.Equal(t, 720, s.DurationMinutes())
	assert.True(t, s.IsActiveAt(at(1, 23, 0)))
	assert.True(t, s.IsActiveAt(at(1, 3, 0)))
	assert.True(t, s.IsActiveAt(at(1, 6, 0)))
	assert.False(t, s.IsActiveAt(at(1, 12, 0)))
}

func TestShift_DurationAlwaysPositive(t *testing.T) {
	assert.Equal(t, 1, newShift("23:59", "00:00").DurationMinutes())
	assert.Equal(t, 1439, newShift("00:01", "00:00").DurationMinutes())
	assert.Equal(t, 30, newShift("22:00", "22:30").DurationMinutes())
}

func TestShift_ScheduledTimes(t *testing.T) {
	date := at(10, 0, 0)

	day := newShift("06:00", "18:00")
	assert.Equal(t, at(10, 6, 0), day.ScheduledCheckIn(date))
	assert.Equal(t, at(10, 18, 0), day.ScheduledCheckOut(date))

	night := newShift("18:00", "06:00")
	assert.Equal(t, at(10, 18, 0), night.ScheduledCheckIn(date))
	assert.Equal(t, at(11, 6, 0), night.ScheduledCheckOut(date))
}

func TestShift_ScheduledTimesMonthRollover(t *testing.T) {
	night := newShift("22:00", "06:00")
	date := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC), night.ScheduledCheckOut(date))
}

func TestShift_IsLateCheckIn(t *testing.T) {
	s := newShift("06:00", "18:00")
	date := at(1, 0, 0)

	assert.False(t, s.IsLateCheckIn(at(1, 6, 10), date, nil))
	assert.False(t, s.IsLateCheckIn(at(1, 6, 15), date, nil))
	assert.True(t, s.IsLateCheckIn(at(1, 6, 16), date, nil))

	zero := 0
	assert.True(t, s.IsLateCheckIn(at(1, 6, 1), date, &zero))

	wide := 30
	assert.False(t, s.IsLateCheckIn(at(1, 6, 20), date, &wide))
}

func TestShift_OccurrenceAt(t *testing.T) {
	night := newShift("18:00", "06:00")

	t.Run("after start maps to today", func(t *testing.T) {
		day, ok := night.OccurrenceAt(at(10, 20, 0), 30)
		require.True(t, ok)
		assert.Equal(t, at(10, 0, 0), day)
	})

	t.Run("early hours map to yesterday", func(t *testing.T) {
		day, ok := night.OccurrenceAt(at(10, 3, 0), 30)
		require.True(t, ok)
		assert.Equal(t, at(9, 0, 0), day)
	})

	t.Run("inside early window", func(t *testing.T) {
		day, ok := night.OccurrenceAt(at(10, 17, 40), 30)
		require.True(t, ok)
		assert.Equal(t, at(10, 0, 0), day)
	})

	t.Run("outside any occurrence", func(t *testing.T) {
		_, ok := night.OccurrenceAt(at(10, 12, 0), 30)
		assert.False(t, ok)
	})

	t.Run("early check-in for shift starting after midnight", func(t *testing.T) {
		s := newShift("00:15", "08:00")
		day, ok := s.OccurrenceAt(at(10, 23, 50), 30)
		require.True(t, ok)
		assert.Equal(t, at(11, 0, 0), day)
	})
}

// ===== VALIDATION TESTS =====

func TestShift_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, newShift("06:00", "18:00").Validate())
	})

	t.Run("start equals end", func(t *testing.T) {
		err := newShift("06:00", "06:00").Validate()
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "end_time")
	})

	t.Run("window shorter than a minute", func(t *testing.T) {
		for _, window := range [][2]string{{"06:00:00", "06:00:30"}, {"23:59:45", "00:00:15"}} {
			s := newShift(window[0], window[1])
			assert.Equal(t, 0, s.DurationMinutes())

			var verrs validator.ValidationErrors
			require.ErrorAs(t, s.Validate(), &verrs, "window %s-%s", window[0], window[1])
			assert.Contains(t, verrs.ToMap(), "end_time")
		}
	})

	t.Run("one minute window", func(t *testing.T) {
		s := newShift("23:59:30", "00:00:30")
		assert.Equal(t, 1, s.DurationMinutes())
		assert.NoError(t, s.Validate())
	})

	t.Run("out of range attributes", func(t *testing.T) {
		s := newShift("06:00", "18:00")
		s.Name = ""
		s.BreakDurationMinutes = 241
		s.GracePeriodMinutes = 61
		s.OvertimeThresholdMinutes = 59

		err := s.Validate()
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		fields := verrs.ToMap()
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "break_duration_minutes")
		assert.Contains(t, fields, "grace_period_minutes")
		assert.Contains(t, fields, "overtime_threshold_minutes")
	})
}

func TestCreateShiftRequest_ToEntityDefaults(t *testing.T) {
	req := CreateShiftRequest{Name: "Night", StartTime: "18:00", EndTime: "06:00"}
	require.NoError(t, req.Validate())

	s := req.ToEntity()
	assert.True(t, s.IsActive)
	assert.Equal(t, DefaultGracePeriodMinutes, s.GracePeriodMinutes)
	assert.Equal(t, DefaultOvertimeThresholdMinutes, s.OvertimeThresholdMinutes)
	assert.Equal(t, "18:00:00", s.StartTime.String())
}

func TestResolveOccurrence(t *testing.T) {
	day := newShift("06:00", "18:00")
	day.ID = "day"
	night := newShift("18:00", "06:00")
	night.ID = "night"
	inactive := newShift("00:00", "23:59")
	inactive.ID = "inactive"
	inactive.IsActive = false

	shifts := []Shift{inactive, day, night}

	t.Run("day shift", func(t *testing.T) {
		s, date, err := ResolveOccurrence(shifts, at(10, 6, 20), 30)
		require.NoError(t, err)
		assert.Equal(t, "day", s.ID)
		assert.Equal(t, at(10, 0, 0), date)
	})

	t.Run("night shift after midnight", func(t *testing.T) {
		s, date, err := ResolveOccurrence(shifts, at(10, 2, 0), 30)
		require.NoError(t, err)
		assert.Equal(t, "night", s.ID)
		assert.Equal(t, at(9, 0, 0), date)
	})

	t.Run("too early", func(t *testing.T) {
		_, _, err := ResolveOccurrence([]Shift{day}, at(10, 4, 0), 30)
		assert.ErrorIs(t, err, ErrTooEarlyToCheckIn)
	})

	t.Run("no shift left today", func(t *testing.T) {
		_, _, err := ResolveOccurrence([]Shift{day}, at(10, 19, 0), 30)
		assert.ErrorIs(t, err, ErrNoActiveShift)
	})

	t.Run("only inactive shifts", func(t *testing.T) {
		_, _, err := ResolveOccurrence([]Shift{inactive}, at(10, 12, 0), 30)
		assert.ErrorIs(t, err, ErrNoActiveShift)
	})
}
