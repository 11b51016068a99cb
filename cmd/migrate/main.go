package main

// Run database migrations:
//   go run ./cmd/migrate          # apply pending migrations
//   go run ./cmd/migrate down     # revert the latest migration
//   go run ./cmd/migrate version  # print the applied version

import (
	"context"
	"fmt"
	"os"

	"sentiment-backend/internal/shared/config"
	"sentiment-backend/internal/shared/storage/db"
	"sentiment-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel)
	defer telemetry.Sync()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if err := run(context.Background(), cfg.DatabaseURL, command); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "error": err})
		telemetry.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL, command string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch command {
	case "up", "down", "version":
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", command)
	}

	sqlDB, err := db.Connect(ctx, databaseURL, db.PoolOptions(db.ProfileMigrate))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()

	switch command {
	case "down":
		return db.RollbackMigration(ctx, sqlDB)
	case "version":
		version, err := db.MigrationVersion(ctx, sqlDB)
		if err != nil {
			return err
		}
		fmt.Println(version)
		return nil
	default:
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
		telemetry.Info("migrate.completed", nil)
		return nil
	}
}
