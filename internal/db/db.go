package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"journey-simulator/internal/journey"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// LoadRoute returns the stops served by tripID, ordered by stop_sequence,
// as a journey route. Stops without a position are skipped.
func LoadRoute(ctx context.Context, db *sql.DB, tripID string) (journey.Route, error) {
	// Prefer stop_lat/stop_lon, but support PostGIS stop_loc geography as fallback
	latlonExists, err := hasColumns(ctx, db, "stops", "stop_lat", "stop_lon")
	if err != nil {
		return nil, fmt.Errorf("introspect stops columns: %w", err)
	}
	var q string
	if latlonExists["stop_lat"] && latlonExists["stop_lon"] {
		q = `SELECT COALESCE(NULLIF(s.stop_name, ''), s.stop_id),
                    s.stop_lat,
                    s.stop_lon
             FROM stop_times st
             JOIN stops s ON s.stop_id = st.stop_id
             WHERE st.trip_id = $1
             ORDER BY st.stop_sequence`
	} else {
		locExists, err := hasColumns(ctx, db, "stops", "stop_loc")
		if err != nil {
			return nil, fmt.Errorf("introspect stops stop_loc: %w", err)
		}
		if !locExists["stop_loc"] {
			return nil, fmt.Errorf("stops table missing expected columns (stop_lat/lon or stop_loc)")
		}
		q = `SELECT COALESCE(NULLIF(s.stop_name, ''), s.stop_id),
                    ST_Y(s.stop_loc::geometry),
                    ST_X(s.stop_loc::geometry)
             FROM stop_times st
             JOIN stops s ON s.stop_id = st.stop_id
             WHERE st.trip_id = $1
             ORDER BY st.stop_sequence`
	}
	rows, err := db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, fmt.Errorf("query stop_times: %w", err)
	}
	defer rows.Close()

	var route journey.Route
	for rows.Next() {
		var name string
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&name, &lat, &lon); err != nil {
			return nil, err
		}
		if !lat.Valid || !lon.Valid {
			continue
		}
		route = append(route, journey.Waypoint{Name: name, Lat: lat.Float64, Lng: lon.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := route.Validate(); err != nil {
		return nil, fmt.Errorf("trip %s: %w", tripID, err)
	}
	return route, nil
}

// hasColumns returns a map of requested column names to existence for the
// given table in the connection's current schema.
func hasColumns(ctx context.Context, db *sql.DB, table string, cols ...string) (map[string]bool, error) {
	res := make(map[string]bool, len(cols))
	if len(cols) == 0 {
		return res, nil
	}
	for _, c := range cols {
		res[c] = false
	}
	q := `SELECT column_name FROM information_schema.columns
          WHERE table_schema = current_schema() AND table_name = $1 AND column_name = ANY($2)`
	rows, err := db.QueryContext(ctx, q, table, cols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = true
	}
	return res, rows.Err()
}
