// Package region looks up regional cost multipliers by postcode outward
// code. Rows live in Postgres and are cached read-through in Redis since the
// table changes rarely.
package region

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/models"
)

// Store resolves outward codes to multipliers with a Redis cache in front of
// Postgres.
type Store struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewStore creates a region store. cache may be nil, in which case every
// lookup goes to Postgres.
func NewStore(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// Lookup resolves the multiplier for an outward code. A (nil, nil) return
// means no row matched; callers fall back to the national average.
func (s *Store) Lookup(ctx context.Context, outward string) (*models.RegionalAdjustment, error) {
	cacheKey := "region:" + outward

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var adj models.RegionalAdjustment
			if err := json.Unmarshal([]byte(cached), &adj); err == nil {
				return &adj, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("region cache read failed", map[string]interface{}{
				"outward": outward,
				"error":   err.Error(),
			})
		}
	}

	var adj models.RegionalAdjustment
	err := s.db.QueryRowContext(ctx,
		`SELECT multiplier, region_name FROM regional_multipliers WHERE outward_prefix = $1`,
		outward,
	).Scan(&adj.Multiplier, &adj.Region)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("regional multiplier query failed: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(adj); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("region cache write failed", map[string]interface{}{
					"outward": outward,
					"error":   err.Error(),
				})
			}
		}
	}

	return &adj, nil
}
