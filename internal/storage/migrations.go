package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS crossing_points (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					active INTEGER NOT NULL DEFAULT 1,
					origin_name TEXT NOT NULL,
					origin_lat REAL NOT NULL,
					origin_lng REAL NOT NULL,
					dest_name TEXT NOT NULL,
					dest_lat REAL NOT NULL,
					dest_lng REAL NOT NULL,
					fees TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_crossing_points_active ON crossing_points(active)`,

				`CREATE TABLE IF NOT EXISTS quotes (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					origin TEXT NOT NULL,
					destination TEXT NOT NULL,
					tonnage REAL NOT NULL,
					crossing_point TEXT NOT NULL,
					total_cost REAL NOT NULL,
					total_distance REAL NOT NULL,
					carrier_payment_per_ton REAL NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_quotes_created ON quotes(created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Prediction feedback records",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS prediction_feedback (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				original_recommendation REAL NOT NULL,
				suggested_value REAL NOT NULL DEFAULT 0,
				helpful INTEGER NOT NULL,
				distance REAL NOT NULL DEFAULT 0,
				tonnage REAL NOT NULL DEFAULT 0,
				origin TEXT,
				destination TEXT,
				created_at DATETIME NOT NULL
			)`)
			if err != nil {
				return fmt.Errorf("failed to create prediction_feedback: %w", err)
			}
			return nil
		},
	},
}

// Migrate brings the database up to the expected schema version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("schema version %d does not match expected %d", finalVersion, ExpectedSchemaVersion)
	}
	return nil
}
