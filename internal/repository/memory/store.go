// Package memory holds in-process implementations of the repositories. They
// enforce the same uniqueness and locking rules as the PostgreSQL ones and are
// used to exercise services without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrolops/patrol-backend-go/internal/domain/attendance"
	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/domain/shift"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
)

type txKey struct{}

// Store is the shared state behind every memory repository. A transaction
// holds the store lock until it finishes, so transactions are serialized.
type Store struct {
	mu sync.Mutex

	shifts      map[string]shift.Shift
	attendances map[string]attendance.Attendance
	checkpoints map[string]checkpoint.Checkpoint
	users       map[string]user.User

	commitErr error
	commits   int
	now       func() time.Time
}

var _ database.Transactor = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		shifts:      make(map[string]shift.Shift),
		attendances: make(map[string]attendance.Attendance),
		checkpoints: make(map[string]checkpoint.Checkpoint),
		users:       make(map[string]user.User),
		now:         time.Now,
	}
}

// FailNextCommit makes the next transaction roll back with err after fn
// succeeds.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// Commits returns the number of committed transactions.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.clone()
	err := fn(context.WithValue(ctx, txKey{}, true))
	if err == nil && s.commitErr != nil {
		err, s.commitErr = s.commitErr, nil
	}
	if err != nil {
		s.restore(snap)
		return err
	}
	s.commits++
	return nil
}

// WithinSerializableTransaction implements database.Transactor.
func (s *Store) WithinSerializableTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.WithinTransaction(ctx, fn)
}

// lock takes the store lock unless ctx already runs inside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func inTx(ctx context.Context) bool {
	held, _ := ctx.Value(txKey{}).(bool)
	return held
}

type state struct {
	shifts      map[string]shift.Shift
	attendances map[string]attendance.Attendance
	checkpoints map[string]checkpoint.Checkpoint
	users       map[string]user.User
}

func (s *Store) clone() state {
	return state{
		shifts:      copyMap(s.shifts),
		attendances: copyMap(s.attendances),
		checkpoints: copyMap(s.checkpoints),
		users:       copyMap(s.users),
	}
}

func (s *Store) restore(st state) {
	s.shifts = st.shifts
	s.attendances = st.attendances
	s.checkpoints = st.checkpoints
	s.users = st.users
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
