package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/domain/attendance"
	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
	"github.com/patrolops/patrol-backend-go/internal/pkg/metrics"
	"github.com/patrolops/patrol-backend-go/internal/pkg/sse"
	"github.com/patrolops/patrol-backend-go/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*60*60)

const (
	gateLat = -6.2000
	gateLng = 106.8166
)

type fixture struct {
	store       *memory.Store
	events      *sse.Hub
	svc         *AttendanceServiceImpl
	metrics     *metrics.Metrics
	shifts      shift.ShiftRepository
	checkpoints checkpoint.CheckpointRepository
	users       user.UserRepository
	guard       user.User
	gate        checkpoint.Checkpoint
}

func float64Ptr(v float64) *float64 { return &v }
func strPtr(v string) *string       { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	f := &fixture{
		store:       store,
		events:      sse.NewHub(),
		metrics:     metrics.NewWithConfig(metrics.Config{Namespace: "test", Registry: prometheus.NewRegistry()}),
		shifts:      memory.NewShiftRepository(store),
		checkpoints: memory.NewCheckpointRepository(store),
		users:       memory.NewUserRepository(store),
	}

	svc := NewAttendanceService(
		store,
		memory.NewAttendanceRepository(store),
		f.shifts,
		f.checkpoints,
		f.users,
		f.metrics,
		Config{Location: wib, EarlyCheckInMinutes: 15, Events: f.events},
	)
	f.svc = svc.(*AttendanceServiceImpl)

	var err error
	f.guard, err = f.users.Create(ctx, user.User{Email: "guard@example.com", FullName: "Budi", Role: user.RoleGuard, IsActive: true})
	require.NoError(t, err)

	f.gate = f.addCheckpoint(t, "Main Gate", gateLat, gateLng, 100)
	f.addShift(t, "Day", "06:00", "18:00")
	return f
}

func (f *fixture) addShift(t *testing.T, name, start, end string) shift.Shift {
	t.Helper()
	s, err := f.shifts.Create(context.Background(), shift.Shift{
		Name:                     name,
		StartTime:                shift.MustParseClockTime(start),
		EndTime:                  shift.MustParseClockTime(end),
		IsActive:                 true,
		GracePeriodMinutes:       15,
		OvertimeThresholdMinutes: 480,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) addCheckpoint(t *testing.T, name string, lat, lng float64, radius int) checkpoint.Checkpoint {
	t.Helper()
	cp, err := f.checkpoints.Create(context.Background(), checkpoint.Checkpoint{
		Name:                 name,
		Location:             "Site",
		Latitude:             float64Ptr(lat),
		Longitude:            float64Ptr(lng),
		IsActive:             true,
		Priority:             checkpoint.PriorityMedium,
		MaxAssignedGuards:    2,
		GeofenceRadiusMeters: radius,
	})
	require.NoError(t, err)
	return cp
}

func (f *fixture) at(day, hour, minute int) {
	f.svc.now = func() time.Time { return time.Date(2024, time.January, day, hour, minute, 0, 0, wib) }
}

func (f *fixture) checkIn(lat, lng float64) (attendance.CheckInResponse, error) {
	return f.svc.CheckIn(context.Background(), attendance.CheckInRequest{
		GuardID:   f.guard.ID,
		Latitude:  float64Ptr(lat),
		Longitude: float64Ptr(lng),
	})
}

func (f *fixture) checkOut(lat, lng float64) (attendance.CheckOutResponse, error) {
	return f.svc.CheckOut(context.Background(), attendance.CheckOutRequest{
		GuardID:   f.guard.ID,
		Latitude:  float64Ptr(lat),
		Longitude: float64Ptr(lng),
	})
}

// ===== CHECK-IN / CHECK-OUT TESTS =====

func TestAttendanceService_DayShiftEndToEnd(t *testing.T) {
	f := newFixture(t)

	f.at(15, 6, 10)
	in, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, "late", in.Status)
	assert.Equal(t, 10, in.LateMinutes)
	assert.False(t, in.IsLate, "10 minutes is inside the grace period")
	assert.Equal(t, "2024-01-15", in.Date)
	assert.Equal(t, f.gate.ID, in.CheckpointID)
	assert.Equal(t, "Main Gate", in.CheckpointName)
	assert.InDelta(t, 0, in.DistanceMeters, 0.001)

	f.at(15, 18, 0)
	out, err := f.checkOut(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, 710, out.WorkedMinutes)
	assert.Equal(t, 11.83, out.TotalHours)
	assert.Equal(t, 230, out.OvertimeMinutes)
	assert.Equal(t, 0, out.EarlyCheckoutMinutes)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckInsTotal.WithLabelValues("late")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckOutsTotal))

	record, err := f.svc.GetAttendance(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, "late", record.Status)
	require.NotNil(t, record.GuardName)
	assert.Equal(t, "Budi", *record.GuardName)
}

func TestAttendanceService_CheckInOnTime(t *testing.T) {
	f := newFixture(t)

	f.at(15, 5, 50)
	in, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, "present", in.Status)
	assert.Equal(t, 0, in.LateMinutes)
}

func TestAttendanceService_CheckInTwice(t *testing.T) {
	f := newFixture(t)

	f.at(15, 6, 0)
	_, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)

	f.at(15, 6, 5)
	_, err = f.checkIn(gateLat, gateLng)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	f.at(15, 12, 0)
	_, err = f.checkOut(gateLat, gateLng)
	require.NoError(t, err)

	// Checking out does not reopen the shift occurrence.
	f.at(15, 12, 30)
	_, err = f.checkIn(gateLat, gateLng)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestAttendanceService_ConcurrentCheckIns(t *testing.T) {
	f := newFixture(t)
	f.at(15, 6, 0)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.checkIn(gateLat, gateLng)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, attendance.ErrAlreadyCheckedIn):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	records, err := f.svc.GetMyAttendance(context.Background(), attendance.MyAttendanceFilter{GuardID: f.guard.ID})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAttendanceService_OutsideGeofence(t *testing.T) {
	f := newFixture(t)
	f.at(15, 6, 0)

	_, err := f.checkIn(gateLat+0.01, gateLng)
	require.ErrorIs(t, err, attendance.ErrOutsideGeofence)

	var geoErr *attendance.GeofenceError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, f.gate.ID, geoErr.CheckpointID)
	assert.Greater(t, geoErr.DistanceMeters, 1000.0)
	assert.Equal(t, 100.0, geoErr.RadiusMeters)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AttendanceRejections.WithLabelValues("check_in", "outside_geofence")))

	// Nothing was written.
	records, err := f.svc.GetMyAttendance(context.Background(), attendance.MyAttendanceFilter{GuardID: f.guard.ID})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAttendanceService_CheckOutOutsideGeofence(t *testing.T) {
	f := newFixture(t)

	f.at(15, 6, 0)
	_, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)

	f.at(15, 18, 0)
	_, err = f.checkOut(gateLat+0.01, gateLng)
	assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)

	// The session stays open.
	_, err = f.checkOut(gateLat, gateLng)
	assert.NoError(t, err)
}

func TestAttendanceService_NearestCheckpoint(t *testing.T) {
	f := newFixture(t)
	tower := f.addCheckpoint(t, "Tower", gateLat+0.02, gateLng, 150)
	f.at(15, 6, 0)

	in, err := f.checkIn(gateLat+0.0201, gateLng)
	require.NoError(t, err)
	assert.Equal(t, tower.ID, in.CheckpointID)
	assert.InDelta(t, 11.1, in.DistanceMeters, 0.5)
}

func TestAttendanceService_AssignedCheckpointOnly(t *testing.T) {
	f := newFixture(t)
	tower := f.addCheckpoint(t, "Tower", gateLat+0.02, gateLng, 150)
	require.NoError(t, f.checkpoints.SetGuardCheckpoint(context.Background(), f.guard.ID, &tower.ID))
	f.at(15, 6, 0)

	// Standing at the gate does not count for a guard posted at the tower.
	_, err := f.checkIn(gateLat, gateLng)
	var geoErr *attendance.GeofenceError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, tower.ID, geoErr.CheckpointID)
}

func TestAttendanceService_ExplicitCheckpoint(t *testing.T) {
	f := newFixture(t)
	closed := f.addCheckpoint(t, "Closed Wing", gateLat, gateLng+0.001, 100)
	closed.IsActive = false
	require.NoError(t, f.checkpoints.Update(context.Background(), closed))
	bare, err := f.checkpoints.Create(context.Background(), checkpoint.Checkpoint{
		Name: "Roof", Location: "Tower", IsActive: true, Priority: checkpoint.PriorityLow,
		MaxAssignedGuards: 1, GeofenceRadiusMeters: 100,
	})
	require.NoError(t, err)
	f.at(15, 6, 0)

	tests := []struct {
		name         string
		checkpointID string
		wantErr      error
	}{
		{"unknown", "missing", checkpoint.ErrCheckpointNotFound},
		{"inactive", closed.ID, attendance.ErrCheckpointInactive},
		{"no coordinates", bare.ID, attendance.ErrCheckpointNoCoordinate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{
				GuardID:      f.guard.ID,
				Latitude:     float64Ptr(gateLat),
				Longitude:    float64Ptr(gateLng),
				CheckpointID: strPtr(tt.checkpointID),
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	in, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{
		GuardID:      f.guard.ID,
		Latitude:     float64Ptr(gateLat),
		Longitude:    float64Ptr(gateLng),
		CheckpointID: strPtr(f.gate.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, f.gate.ID, in.CheckpointID)
}

func TestAttendanceService_ShiftResolution(t *testing.T) {
	tests := []struct {
		name    string
		hour    int
		minute  int
		wantErr error
	}{
		{"too early", 5, 0, shift.ErrTooEarlyToCheckIn},
		{"inside early window", 5, 45, nil},
		{"after shift", 19, 0, shift.ErrNoActiveShift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.at(15, tt.hour, tt.minute)
			_, err := f.checkIn(gateLat, gateLng)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAttendanceService_NightShift(t *testing.T) {
	f := newFixture(t)
	night := f.addShift(t, "Night", "22:00", "06:00")

	f.at(16, 1, 0)
	in, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, night.ID, in.ShiftID)
	assert.Equal(t, "2024-01-15", in.Date, "an after-midnight check-in belongs to the previous day's shift")
	assert.Equal(t, 180, in.LateMinutes)
	assert.True(t, in.IsLate)

	f.at(16, 5, 0)
	out, err := f.checkOut(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, 240, out.WorkedMinutes)
	assert.Equal(t, 60, out.EarlyCheckoutMinutes)
	assert.Equal(t, 0, out.OvertimeMinutes)
}

func TestAttendanceService_CheckOutWithoutCheckIn(t *testing.T) {
	f := newFixture(t)
	f.at(15, 18, 0)

	_, err := f.checkOut(gateLat, gateLng)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AttendanceRejections.WithLabelValues("check_out", "not_checked_in")))
}

func TestAttendanceService_ForgottenCheckOutDoesNotBlockLaterShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	records := memory.NewAttendanceRepository(f.store)

	f.at(15, 6, 0)
	first, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)

	f.at(16, 6, 0)
	second, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "2024-01-16", second.Date)

	f.at(20, 6, 0)
	third, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", third.Date)

	f.at(20, 18, 0)
	out, err := f.checkOut(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, third.ID, out.ID)
	assert.Equal(t, 720, out.WorkedMinutes)

	stillOpen, err := records.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, stillOpen.IsOpen())
}

func TestAttendanceService_StaleSessionRejectsCheckOut(t *testing.T) {
	f := newFixture(t)

	f.at(15, 6, 0)
	_, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)

	// More than two hours past the 18:00 scheduled check-out.
	f.at(15, 20, 30)
	_, err = f.checkOut(gateLat, gateLng)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	f.at(15, 19, 30)
	out, err := f.checkOut(gateLat, gateLng)
	require.NoError(t, err)
	assert.Equal(t, 810, out.WorkedMinutes)
}

func TestAttendanceService_GuardChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.users.Create(ctx, user.User{Email: "admin@example.com", Role: user.RoleAdmin, IsActive: true})
	require.NoError(t, err)
	retired, err := f.users.Create(ctx, user.User{Email: "retired@example.com", Role: user.RoleGuard, IsActive: false})
	require.NoError(t, err)
	f.at(15, 6, 0)

	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{GuardID: admin.ID, Latitude: float64Ptr(gateLat), Longitude: float64Ptr(gateLng)})
	assert.ErrorIs(t, err, attendance.ErrGuardNotFound)

	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{GuardID: retired.ID, Latitude: float64Ptr(gateLat), Longitude: float64Ptr(gateLng)})
	assert.ErrorIs(t, err, user.ErrUserInactive)
}

func TestAttendanceService_CheckInValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckIn(context.Background(), attendance.CheckInRequest{GuardID: f.guard.ID, Latitude: float64Ptr(95)})
	assert.Error(t, err)
	assert.Equal(t, 0, f.store.Commits())
}

// ===== OVERRIDE TESTS =====

func TestAttendanceService_MarkAbsentAndOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shifts, err := f.shifts.List(ctx, shift.ListShiftFilter{})
	require.NoError(t, err)
	day := shifts[0]

	f.at(15, 6, 0)
	in, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)

	absent, err := f.svc.MarkAbsent(ctx, attendance.MarkRequest{GuardID: f.guard.ID, ShiftID: day.ID, Date: "2024-01-15", Notes: strPtr("left post")})
	require.NoError(t, err)
	assert.Equal(t, in.ID, absent.ID)
	assert.Equal(t, "absent", absent.Status)
	assert.Nil(t, absent.CheckInTime)
	require.NotNil(t, absent.Notes)
	assert.Equal(t, "left post", *absent.Notes)

	again, err := f.svc.MarkAbsent(ctx, attendance.MarkRequest{GuardID: f.guard.ID, ShiftID: day.ID, Date: "2024-01-15"})
	require.NoError(t, err)
	assert.Equal(t, absent.ID, again.ID)
	assert.Equal(t, "absent", again.Status)

	off, err := f.svc.MarkOff(ctx, attendance.MarkRequest{GuardID: f.guard.ID, ShiftID: day.ID, Date: "2024-01-16"})
	require.NoError(t, err)
	assert.NotEqual(t, absent.ID, off.ID)
	assert.Equal(t, "off", off.Status)

	records, err := f.svc.GetMyAttendance(ctx, attendance.MyAttendanceFilter{GuardID: f.guard.ID})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, off.ID, records[0].ID, "newest first")

	_, err = f.svc.MarkOff(ctx, attendance.MarkRequest{GuardID: f.guard.ID, ShiftID: "missing", Date: "2024-01-16"})
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}

func TestAttendanceService_GetMyAttendanceFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shifts, err := f.shifts.List(ctx, shift.ListShiftFilter{})
	require.NoError(t, err)

	for _, date := range []string{"2024-01-10", "2024-01-11", "2024-01-12"} {
		_, err := f.svc.MarkOff(ctx, attendance.MarkRequest{GuardID: f.guard.ID, ShiftID: shifts[0].ID, Date: date})
		require.NoError(t, err)
	}

	records, err := f.svc.GetMyAttendance(ctx, attendance.MyAttendanceFilter{
		GuardID:   f.guard.ID,
		StartDate: strPtr("2024-01-11"),
		EndDate:   strPtr("2024-01-12"),
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = f.svc.GetMyAttendance(ctx, attendance.MyAttendanceFilter{GuardID: f.guard.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-01-12", records[0].Date)

	_, err = f.svc.GetMyAttendance(ctx, attendance.MyAttendanceFilter{GuardID: f.guard.ID, Status: strPtr("sleeping")})
	assert.Error(t, err)
}

// ===== LIVE FEED TESTS =====

func TestAttendanceService_PublishesFeedEvents(t *testing.T) {
	f := newFixture(t)
	events, cleanup := f.events.Subscribe(attendance.EventTopic)
	defer cleanup()

	f.at(15, 5, 0)
	_, err := f.checkIn(gateLat, gateLng)
	require.ErrorIs(t, err, shift.ErrTooEarlyToCheckIn)
	assert.Empty(t, events, "rejected check-ins are not published")

	f.at(15, 5, 55)
	in, err := f.checkIn(gateLat, gateLng)
	require.NoError(t, err)

	f.at(15, 18, 0)
	_, err = f.checkOut(gateLat, gateLng)
	require.NoError(t, err)

	require.Len(t, events, 2)
	checkedIn := <-events
	assert.Equal(t, attendance.EventCheckedIn, checkedIn.Event)
	payload, ok := checkedIn.Data.(attendance.FeedEvent)
	require.True(t, ok)
	assert.Equal(t, in.ID, payload.AttendanceID)
	assert.Equal(t, f.guard.ID, payload.GuardID)
	assert.Equal(t, f.gate.ID, payload.CheckpointID)
	assert.Equal(t, "present", payload.Status)

	checkedOut := <-events
	assert.Equal(t, attendance.EventCheckedOut, checkedOut.Event)
}
