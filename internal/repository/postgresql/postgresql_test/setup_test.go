package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

var (
	testDB      *database.DB
	testDBErr   error
	testDBSetup sync.Once
)

// newTestDatabase connects to TEST_DATABASE_URL and applies the migrations.
// Tests are skipped when the variable is not set.
func newTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	testDBSetup.Do(func() {
		testDB, testDBErr = database.NewPostgreSQLDB(dsn)
		if testDBErr != nil {
			testDBErr = fmt.Errorf("failed to connect to test database: %w", testDBErr)
			return
		}
		testDBErr = database.Migrate(context.Background(), testDB, "up")
	})
	require.NoError(t, testDBErr)

	truncateAllTables(t, testDB)
	return testDB
}

// truncateAllTables removes every row written by a previous test
func truncateAllTables(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "TRUNCATE TABLE attendances, shifts, checkpoints, users CASCADE")
	require.NoError(t, err)

	require.NoError(t, tx.Commit(ctx))
}
