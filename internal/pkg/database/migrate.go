package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/patrolops/patrol-backend-go/migrations"
	"github.com/pressly/goose/v3"
)

// Migrate runs a goose command (up, down, status, version, redo, reset,
// up-to, down-to) against the embedded migrations.
func Migrate(ctx context.Context, db *DB, command string, args ...string) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, sqlDB, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
