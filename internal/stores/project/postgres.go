// Package project reads stored project records and persists completed
// estimates. Estimates are append-only; a rerun inserts a new row rather
// than overwriting.
package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"tender-estimator/internal/models"
)

// Store wraps the projects and estimates tables.
type Store struct {
	db *sql.DB
}

// NewStore creates a project store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetProject loads a project record by ID. A (nil, nil) return means the
// project does not exist.
func (s *Store) GetProject(ctx context.Context, projectID string) (*models.ProjectRecord, error) {
	var record models.ProjectRecord
	var categories pq.StringArray

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, scope_of_works, location, categories, value_estimate
		 FROM projects WHERE id = $1`,
		projectID,
	).Scan(
		&record.ID,
		&record.Name,
		&record.Description,
		&record.Scope,
		&record.Location,
		&categories,
		&record.ValueEstimate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("project query failed: %w", err)
	}

	record.Categories = []string(categories)
	return &record, nil
}

// SaveEstimate inserts a completed estimate with its full output payload.
func (s *Store) SaveEstimate(ctx context.Context, record *models.EstimateRecord) error {
	payload, err := json.Marshal(record.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal estimate payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO estimates (estimate_id, project_id, caller_id, payload, fallback_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.EstimateID,
		nullableString(record.ProjectID),
		record.CallerID,
		payload,
		record.FallbackUsed,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("estimate insert failed: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
