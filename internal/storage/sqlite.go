// Package storage persists crossing-point definitions, saved quotes, and
// prediction feedback in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (and creates if needed) the database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("database path is required: %w", common.ErrMissingConfig)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// GetActiveCrossingPoints returns every active crossing point, in insertion
// order so ranking tie-breaks stay deterministic across requests.
func (s *SQLiteStorage) GetActiveCrossingPoints(ctx context.Context) ([]model.CrossingPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, active, origin_name, origin_lat, origin_lng,
		       dest_name, dest_lat, dest_lng, fees
		FROM crossing_points
		WHERE active = 1
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query crossing points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []model.CrossingPoint
	for rows.Next() {
		cp, scanErr := scanCrossingPoint(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		points = append(points, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crossing points: %w", err)
	}
	return points, nil
}

// GetCrossingPointByName looks a crossing point up by its exact name.
func (s *SQLiteStorage) GetCrossingPointByName(ctx context.Context, name string) (*model.CrossingPoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, active, origin_name, origin_lat, origin_lng,
		       dest_name, dest_lat, dest_lng, fees
		FROM crossing_points
		WHERE name = ?`, name)

	cp, err := scanCrossingPoint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("crossing point %q: %w", name, common.ErrNotFound)
		}
		return nil, err
	}
	return &cp, nil
}

// SaveCrossingPoint inserts or updates a crossing point, keyed by name.
// A missing ID gets a fresh UUID.
func (s *SQLiteStorage) SaveCrossingPoint(ctx context.Context, cp *model.CrossingPoint) error {
	if cp == nil {
		return fmt.Errorf("crossing point is nil")
	}
	if strings.TrimSpace(cp.Name) == "" {
		return fmt.Errorf("crossing point has no name")
	}
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}

	fees, err := json.Marshal(cp.Fees)
	if err != nil {
		return fmt.Errorf("failed to serialize fee configuration: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crossing_points
			(id, name, active, origin_name, origin_lat, origin_lng,
			 dest_name, dest_lat, dest_lng, fees, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			active = excluded.active,
			origin_name = excluded.origin_name,
			origin_lat = excluded.origin_lat,
			origin_lng = excluded.origin_lng,
			dest_name = excluded.dest_name,
			dest_lat = excluded.dest_lat,
			dest_lng = excluded.dest_lng,
			fees = excluded.fees,
			updated_at = CURRENT_TIMESTAMP`,
		cp.ID, cp.Name, cp.Active,
		cp.OriginSide.Name, cp.OriginSide.Coordinate.Lat, cp.OriginSide.Coordinate.Lng,
		cp.DestinationSide.Name, cp.DestinationSide.Coordinate.Lat, cp.DestinationSide.Coordinate.Lng,
		string(fees))
	if err != nil {
		return fmt.Errorf("failed to save crossing point %q: %w", cp.Name, err)
	}
	return nil
}

// SaveQuote appends a quote record. A missing ID gets a fresh UUID and a
// missing timestamp is set to now.
func (s *SQLiteStorage) SaveQuote(ctx context.Context, quote *model.Quote) error {
	if quote == nil {
		return fmt.Errorf("quote is nil")
	}
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes
			(id, created_at, origin, destination, tonnage, crossing_point,
			 total_cost, total_distance, carrier_payment_per_ton)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.ID, quote.CreatedAt, quote.Origin, quote.Destination, quote.Tonnage,
		quote.CrossingPoint, quote.TotalCost, quote.TotalDistance, quote.CarrierPaymentPerTon)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("quote %s already saved: %w", quote.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// GetQuotes returns the most recent quotes, newest first.
func (s *SQLiteStorage) GetQuotes(ctx context.Context, limit int) ([]model.Quote, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, origin, destination, tonnage, crossing_point,
		       total_cost, total_distance, carrier_payment_per_ton
		FROM quotes
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var quotes []model.Quote
	for rows.Next() {
		var q model.Quote
		if err := rows.Scan(&q.ID, &q.CreatedAt, &q.Origin, &q.Destination, &q.Tonnage,
			&q.CrossingPoint, &q.TotalCost, &q.TotalDistance, &q.CarrierPaymentPerTon); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}
	return quotes, nil
}

// SavePredictionFeedback appends a feedback record.
func (s *SQLiteStorage) SavePredictionFeedback(ctx context.Context, fb *model.PredictionFeedback) error {
	if fb == nil {
		return fmt.Errorf("feedback is nil")
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prediction_feedback
			(original_recommendation, suggested_value, helpful, distance,
			 tonnage, origin, destination, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.OriginalRecommendation, fb.SuggestedValue, fb.Helpful, fb.Distance,
		fb.Tonnage, fb.Origin, fb.Destination, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save prediction feedback: %w", err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCrossingPoint(row scanner) (model.CrossingPoint, error) {
	var (
		cp   model.CrossingPoint
		fees string
	)
	err := row.Scan(&cp.ID, &cp.Name, &cp.Active,
		&cp.OriginSide.Name, &cp.OriginSide.Coordinate.Lat, &cp.OriginSide.Coordinate.Lng,
		&cp.DestinationSide.Name, &cp.DestinationSide.Coordinate.Lat, &cp.DestinationSide.Coordinate.Lng,
		&fees)
	if err != nil {
		return model.CrossingPoint{}, err
	}

	if err := json.Unmarshal([]byte(fees), &cp.Fees); err != nil {
		return model.CrossingPoint{}, fmt.Errorf("crossing point %q has corrupt fee data: %w",
			cp.Name, common.ErrDatabaseCorrupted)
	}
	return cp, nil
}
