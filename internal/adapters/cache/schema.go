package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the travel-time cache schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTravelTimeCacheQuery := `
	CREATE TABLE IF NOT EXISTS travel_time_cache (
        mode TEXT NOT NULL,
        pair_key TEXT NOT NULL,
        duration_seconds DOUBLE PRECISION NOT NULL,
        PRIMARY KEY (mode, pair_key)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_travel_time_cache_pair_key
    ON travel_time_cache(pair_key);
	`

	statements := []string{
		createTravelTimeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
