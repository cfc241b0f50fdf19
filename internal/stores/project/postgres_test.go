// internal/stores/project/postgres_test.go
package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-estimator/internal/models"
)

const projectQuery = `SELECT id, name, description, scope_of_works, location, categories, value_estimate\s+FROM projects WHERE id = \$1`

func createTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestStore_GetProject(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(projectQuery).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "scope_of_works", "location", "categories", "value_estimate",
		}).AddRow(
			"proj-1", "Unit 4 fit-out", "Warehouse electrical fit-out",
			"Three-phase supply, lighting, small power", "M1 4BT",
			pq.StringArray{"three_phase", "lighting"}, 85000.0,
		))

	record, err := store.GetProject(context.Background(), "proj-1")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "proj-1", record.ID)
	assert.Equal(t, "Warehouse electrical fit-out", record.Description)
	assert.Equal(t, []string{"three_phase", "lighting"}, record.Categories)
	assert.Equal(t, 85000.0, record.ValueEstimate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetProject_NotFound(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(projectQuery).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "scope_of_works", "location", "categories", "value_estimate",
		}))

	record, err := store.GetProject(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, record, "a missing project is not an error")
}

func TestStore_GetProject_QueryError(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(projectQuery).
		WithArgs("proj-1").
		WillReturnError(errors.New("connection reset"))

	record, err := store.GetProject(context.Background(), "proj-1")

	require.Error(t, err)
	assert.Nil(t, record)
}

func TestStore_SaveEstimate(t *testing.T) {
	store, mock := createTestStore(t)

	record := &models.EstimateRecord{
		EstimateID:   "est-1",
		ProjectID:    "proj-1",
		CallerID:     "portal",
		Output:       &models.EstimateOutput{TotalEstimate: 12017.50, Confidence: models.ConfidenceMedium},
		FallbackUsed: false,
		CreatedAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO estimates`).
		WithArgs("est-1", "proj-1", "portal", sqlmock.AnyArg(), false, record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveEstimate(context.Background(), record)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveEstimate_NoProject(t *testing.T) {
	store, mock := createTestStore(t)

	record := &models.EstimateRecord{
		EstimateID:   "est-2",
		CallerID:     "portal",
		Output:       &models.EstimateOutput{TotalEstimate: 9000},
		FallbackUsed: true,
		CreatedAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}

	// Ad-hoc estimates carry no project ID and persist a NULL.
	mock.ExpectExec(`INSERT INTO estimates`).
		WithArgs("est-2", nil, "portal", sqlmock.AnyArg(), true, record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveEstimate(context.Background(), record)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
