package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/patrolops/patrol-backend-go/internal/config"
	"github.com/patrolops/patrol-backend-go/internal/fixtures"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/repository/postgresql"
)

const usage = `Usage: migrate <command> [args]

Commands:
  up                   apply all pending migrations
  up-to VERSION        apply migrations up to VERSION
  down                 roll back the latest migration
  down-to VERSION      roll back to VERSION
  redo                 roll back and re-apply the latest migration
  reset                roll back all migrations
  status               print migration status
  version              print the current version
  seed                 create the first admin (SEED_ADMIN_EMAIL,
                       SEED_ADMIN_PASSWORD) and the default shifts
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	command, args := flag.Arg(0), flag.Args()[1:]

	if command == "seed" {
		adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
		adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
		if adminEmail != "" && len(adminPassword) < 8 {
			slog.Error("SEED_ADMIN_PASSWORD must be at least 8 characters")
			os.Exit(1)
		}

		result, err := fixtures.Seed(ctx,
			postgresql.NewUserRepository(db),
			postgresql.NewShiftRepository(db),
			adminEmail,
			adminPassword,
		)
		if err != nil {
			slog.Error("Seed failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Seed completed", "admin_created", result.AdminCreated, "shifts_created", result.ShiftsCreated)
		return
	}

	if err := database.Migrate(ctx, db, command, args...); err != nil {
		slog.Error("Migration failed", "command", command, "error", err)
		os.Exit(1)
	}
	slog.Info("Migration completed", "command", command)
}
