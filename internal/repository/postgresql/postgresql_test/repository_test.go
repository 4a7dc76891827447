package postgresql_test

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
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func createTestGuard(t *testing.T, db *database.DB, email string) user.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	hashedStr := string(hashed)

	created, err := postgresql.NewUserRepository(db).Create(context.Background(), user.User{
		Email:        email,
		FullName:     "Guard " + email,
		PasswordHash: &hashedStr,
		Role:         user.RoleGuard,
		IsActive:     true,
	})
	require.NoError(t, err)
	return created
}

func createTestShift(t *testing.T, db *database.DB, name, start, end string) shift.Shift {
	t.Helper()
	created, err := postgresql.NewShiftRepository(db).Create(context.Background(), shift.Shift{
		Name:                     name,
		StartTime:                shift.MustParseClockTime(start),
		EndTime:                  shift.MustParseClockTime(end),
		IsActive:                 true,
		GracePeriodMinutes:       15,
		OvertimeThresholdMinutes: 480,
	})
	require.NoError(t, err)
	return created
}

func createTestCheckpoint(t *testing.T, db *database.DB, name string, capacity int) checkpoint.Checkpoint {
	t.Helper()
	lat, lng := -6.2, 106.8166
	created, err := postgresql.NewCheckpointRepository(db).Create(context.Background(), checkpoint.Checkpoint{
		Name:                 name,
		Location:             "Site",
		Latitude:             &lat,
		Longitude:            &lng,
		IsActive:             true,
		Priority:             checkpoint.PriorityHigh,
		MaxAssignedGuards:    capacity,
		GeofenceRadiusMeters: 100,
	})
	require.NoError(t, err)
	return created
}

// ===== USER REPOSITORY TESTS =====

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewUserRepository(db)

	created := createTestGuard(t, db, "Guard@Example.com")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, user.RoleGuard, created.Role)

	byEmail, err := repo.GetByEmail(ctx, "guard@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.Create(ctx, user.User{Email: "GUARD@example.com", Role: user.RoleGuard, IsActive: true})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)

	_, err = repo.GetByEmail(ctx, "notfound@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

// ===== SHIFT REPOSITORY TESTS =====

func TestShiftRepository_ClockTimesRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewShiftRepository(db)

	night := createTestShift(t, db, "Night", "22:00:30", "06:00")
	createTestShift(t, db, "Day", "06:00", "18:00")

	got, err := repo.GetByID(ctx, night.ID)
	require.NoError(t, err)
	assert.Equal(t, "22:00:30", got.StartTime.String())
	assert.Equal(t, "06:00:00", got.EndTime.String())
	assert.True(t, got.CrossesMidnight())

	list, err := repo.List(ctx, shift.ListShiftFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Day", list[0].Name)

	_, err = repo.Create(ctx, shift.Shift{Name: "Day", StartTime: 1, EndTime: 2, OvertimeThresholdMinutes: 480})
	assert.ErrorIs(t, err, shift.ErrShiftNameExists)
}

func TestShiftRepository_DeleteInUse(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	guard := createTestGuard(t, db, "g@example.com")
	day := createTestShift(t, db, "Day", "06:00", "18:00")

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	_, err := postgresql.NewAttendanceRepository(db).Create(ctx, attendance.Attendance{
		GuardID: guard.ID, ShiftID: day.ID, Date: date, Status: attendance.StatusAbsent,
		ScheduledCheckIn: day.ScheduledCheckIn(date), ScheduledCheckOut: day.ScheduledCheckOut(date),
	})
	require.NoError(t, err)

	err = postgresql.NewShiftRepository(db).Delete(ctx, day.ID)
	assert.ErrorIs(t, err, shift.ErrShiftInUse)
}

// ===== ATTENDANCE REPOSITORY TESTS =====

func TestAttendanceRepository_UniqueShiftOccurrence(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)
	guard := createTestGuard(t, db, "g@example.com")
	day := createTestShift(t, db, "Day", "06:00", "18:00")

	wib := time.FixedZone("WIB", 7*60*60)
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, wib)
	checkIn := time.Date(2024, 1, 15, 6, 10, 0, 0, wib)
	lat, lng := -6.2, 106.8166

	record := attendance.Attendance{
		GuardID:           guard.ID,
		ShiftID:           day.ID,
		Date:              date,
		Status:            attendance.StatusLate,
		CheckInTime:       &checkIn,
		CheckInLatitude:   &lat,
		CheckInLongitude:  &lng,
		LateMinutes:       10,
		ScheduledCheckIn:  day.ScheduledCheckIn(date),
		ScheduledCheckOut: day.ScheduledCheckOut(date),
	}

	// Concurrent inserts for one shift occurrence: exactly one wins.
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, record)
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
	assert.Equal(t, 4, conflicts)

	open, err := repo.GetOpenSession(ctx, guard.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", open.Date.Format("2006-01-02"))
	assert.True(t, open.CheckInTime.Equal(checkIn))
	require.NotNil(t, open.ShiftName)
	assert.Equal(t, "Day", *open.ShiftName)

	forShift, err := repo.GetForShift(ctx, guard.ID, day.ID, date)
	require.NoError(t, err)
	assert.Equal(t, open.ID, forShift.ID)
}

func TestAttendanceRepository_RejectsInvalidState(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	guard := createTestGuard(t, db, "g@example.com")
	day := createTestShift(t, db, "Day", "06:00", "18:00")

	_, err := postgresql.NewAttendanceRepository(db).Create(ctx, attendance.Attendance{
		GuardID: guard.ID, ShiftID: day.ID, Date: time.Now(), Status: attendance.StatusPresent,
	})
	assert.ErrorIs(t, err, attendance.ErrInvalidAttendanceState)
}

func TestAttendanceRepository_CreateAbsentPlaceholders(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)
	createTestGuard(t, db, "a@example.com")
	createTestGuard(t, db, "b@example.com")
	day := createTestShift(t, db, "Day", "06:00", "18:00")

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	n, err := repo.CreateAbsentPlaceholders(ctx, day.ID, date, day.ScheduledCheckIn(date), day.ScheduledCheckOut(date))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CreateAbsentPlaceholders(ctx, day.ID, date, day.ScheduledCheckIn(date), day.ScheduledCheckOut(date))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestAttendanceRepository_ListStaleOpenSessions(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)
	guard := createTestGuard(t, db, "g@example.com")
	day := createTestShift(t, db, "Day", "06:00", "18:00")

	lat, lng := -6.2, 106.8166
	for _, d := range []int{15, 16} {
		date := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
		in := day.ScheduledCheckIn(date)
		_, err := repo.Create(ctx, attendance.Attendance{
			GuardID: guard.ID, ShiftID: day.ID, Date: date, Status: attendance.StatusPresent,
			CheckInTime: &in, CheckInLatitude: &lat, CheckInLongitude: &lng,
			ScheduledCheckIn: in, ScheduledCheckOut: day.ScheduledCheckOut(date),
		})
		require.NoError(t, err)
	}

	stale, err := repo.ListStaleOpenSessions(ctx, time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "2024-01-15", stale[0].Date.Format("2006-01-02"))
}

// ===== CHECKPOINT REPOSITORY TESTS =====

func TestCheckpointRepository_LockSnapshotAndAssign(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewCheckpointRepository(db)
	tx := postgresql.NewTransactor(db)

	gate := createTestCheckpoint(t, db, "Gate", 1)
	lobby := createTestCheckpoint(t, db, "Lobby", 2)
	g1 := createTestGuard(t, db, "g1@example.com")
	g2 := createTestGuard(t, db, "g2@example.com")
	require.NoError(t, repo.SetGuardCheckpoint(ctx, g1.ID, &lobby.ID))

	err := tx.WithinSerializableTransaction(ctx, func(txCtx context.Context) error {
		snap, err := repo.LockSnapshot(txCtx, []string{gate.ID, "missing"}, []string{g1.ID, g2.ID})
		if err != nil {
			return err
		}
		assert.Len(t, snap.Guards, 2)
		assert.Contains(t, snap.Checkpoints, gate.ID)
		assert.Contains(t, snap.Checkpoints, lobby.ID, "current assignments are part of the snapshot")
		assert.Equal(t, 1, snap.Checkpoints[lobby.ID].AssignedGuards)

		return repo.SetGuardCheckpoint(txCtx, g2.ID, &gate.ID)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, gate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AssignedGuards)

	require.NoError(t, repo.Delete(ctx, gate.ID))
	stored, err := postgresql.NewUserRepository(db).GetByID(ctx, g2.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedCheckpointID)
}

func TestTransactor_RollsBack(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewCheckpointRepository(db)
	tx := postgresql.NewTransactor(db)

	gate := createTestCheckpoint(t, db, "Gate", 1)
	guard := createTestGuard(t, db, "g@example.com")

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.SetGuardCheckpoint(txCtx, guard.ID, &gate.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, gate.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AssignedGuards)
}
