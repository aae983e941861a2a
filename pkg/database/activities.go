// Package database reads the SQLite file the external sync tool maintains.
// The tool owns the schema and all writes; this package only ever opens the
// file read-only.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fitbridge/fitbridge/pkg/models"
)

const activitiesQuery = `
	SELECT activity_id, activity_name, start_time_gmt, distance, duration
	FROM activities
	ORDER BY start_time_gmt DESC
	LIMIT ?`

// ActivityStore reads activity records from the sync tool's database file.
type ActivityStore struct {
	path string
}

// NewActivityStore creates a store for the database file at path. The file
// does not need to exist yet; before the first sync it usually won't.
func NewActivityStore(path string) *ActivityStore {
	return &ActivityStore{path: path}
}

// Exists reports whether the database file is present on disk.
func (s *ActivityStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// ReadActivities returns up to limit activities ordered by start time
// descending. A missing database file yields an empty slice, not an error;
// that is the steady state before any sync has run. The database handle is
// scoped to the call and closed on every exit path.
func (s *ActivityStore) ReadActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	if !s.Exists() {
		return []models.Activity{}, nil
	}

	db, err := sql.Open("sqlite3", "file:"+s.path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening activity database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, activitiesQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var (
			a         models.Activity
			name      sql.NullString
			startTime sql.NullString
			distance  sql.NullFloat64
			duration  sql.NullFloat64
		)
		if err := rows.Scan(&a.ActivityID, &name, &startTime, &distance, &duration); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		a.ActivityName = name.String
		a.StartTimeGMT = startTime.String
		a.Distance = distance.Float64
		a.Duration = duration.Float64
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}
	return activities, nil
}
