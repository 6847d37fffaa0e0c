package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/platform/metrics"
	"meeting-point-service/internal/platform/obs"
	"meeting-point-service/internal/ports"
)

// SQLTravelTimeCache is a Postgres-backed cache for directed
// origin->destination travel durations, keyed by transport mode. Entries
// never expire; the dbtool recreates the table to flush them.
type SQLTravelTimeCache struct {
	DB *sql.DB
}

func NewSQLTravelTimeCache(db *sql.DB) *SQLTravelTimeCache {
	return &SQLTravelTimeCache{DB: db}
}

// Fetch cached durations for the given pairs. Pairs never stored are simply
// absent from the result.
func (s *SQLTravelTimeCache) GetMany(
	ctx context.Context,
	pairs []ports.TravelPair,
	mode domain.TransportMode,
) (_ map[ports.TravelPair]float64, err error) {
	defer obs.Time(ctx, "traveltime.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("travel time cache: db is nil")
	}

	if len(pairs) == 0 {
		return map[ports.TravelPair]float64{}, nil
	}

	seen := map[string]struct{}{}
	keys := make([]string, 0, len(pairs))
	byKey := make(map[string]ports.TravelPair, len(pairs))
	for _, p := range pairs {
		k := pairKey(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
		byKey[k] = p
	}

	q := `
	SELECT pair_key, duration_seconds
    FROM travel_time_cache
    WHERE mode = $1
        AND pair_key = ANY($2::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, mode.String(), keys)
	if err != nil {
		return nil, fmt.Errorf("get travel time cache: query travel_time_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[ports.TravelPair]float64, len(keys))
	for rows.Next() {
		var key string
		var seconds float64
		if err := rows.Scan(&key, &seconds); err != nil {
			return nil, fmt.Errorf("get travel time cache: scan rows: %w", err)
		}
		pair, ok := byKey[key]
		if !ok {
			continue
		}
		out[pair] = seconds
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get travel time cache: row iteration: %w", err)
	}

	metrics.CacheHits.WithLabelValues("postgres").Add(float64(len(out)))
	metrics.CacheMisses.WithLabelValues("postgres").Add(float64(len(keys) - len(out)))

	return out, nil
}

// Store durations for many pairs at once.
func (s *SQLTravelTimeCache) PutMany(
	ctx context.Context,
	durations map[ports.TravelPair]float64,
	mode domain.TransportMode,
) error {
	if s.DB == nil {
		return errors.New("travel time cache: db is nil")
	}

	if len(durations) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert travel time cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO travel_time_cache (mode, pair_key, duration_seconds)
    VALUES ($1, $2, $3)
	ON CONFLICT (mode, pair_key) DO UPDATE
	SET duration_seconds = EXCLUDED.duration_seconds;
	`)
	if err != nil {
		return fmt.Errorf("insert travel time cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for pair, seconds := range durations {
		if seconds < 0 {
			return fmt.Errorf("insert travel time cache: negative duration %f for %q", seconds, pairKey(pair))
		}

		if _, err := stmt.ExecContext(ctx, mode.String(), pairKey(pair), seconds); err != nil {
			return fmt.Errorf("insert travel time cache pair=%q: %w", pairKey(pair), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert travel time cache commit: %w", err)
	}

	return nil
}
