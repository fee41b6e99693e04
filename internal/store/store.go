// Package store is a reference implementation of the catalogue store API,
// persisted in sqlite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mhdb/internal/payload"
)

//go:embed schema.sql
var schema string

// Store errors.
var (
	ErrNoColleges      = errors.New("no colleges provided")
	ErrMissingName     = errors.New("college name is required")
	ErrMissingResource = errors.New("resource service name is required")
)

// Store persists colleges and their resources. Colleges are keyed by name.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at dsn and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BulkUpsert inserts or updates each college by name and replaces its
// resources, all in one transaction.
func (s *Store) BulkUpsert(ctx context.Context, colleges []payload.CollegePayload) (int, error) {
	if len(colleges) == 0 {
		return 0, ErrNoColleges
	}

	for i := range colleges {
		if err := checkCollege(&colleges[i]); err != nil {
			return 0, fmt.Errorf("college[%d]: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := s.now().UTC().Format(time.RFC3339)

	for i := range colleges {
		if err := upsertCollege(ctx, tx, &colleges[i], stamp); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return len(colleges), nil
}

func checkCollege(c *payload.CollegePayload) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}

	for j := range c.Resources {
		if strings.TrimSpace(c.Resources[j].ServiceName) == "" {
			return fmt.Errorf("resource[%d]: %w", j, ErrMissingResource)
		}
	}

	return nil
}

func upsertCollege(ctx context.Context, tx *sql.Tx, c *payload.CollegePayload, stamp string) error {
	var id int64

	err := tx.QueryRowContext(ctx, `
		INSERT INTO colleges (name, location, latitude, longitude, website, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			location = excluded.location,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			website = excluded.website,
			updated_at = excluded.updated_at
		RETURNING id`,
		c.Name, c.Location, nullFloat(c.Latitude), nullFloat(c.Longitude), c.Website, stamp, stamp,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert college %q: %w", c.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE college_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear resources of %q: %w", c.Name, err)
	}

	for _, r := range c.Resources {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO resources (college_id, service_name, description, contact_email, contact_phone,
				contact_website, department, office_hours, location, freshman_notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, r.ServiceName, r.Description, r.ContactEmail, r.ContactPhone,
			r.ContactWebsite, r.Department, r.OfficeHours, r.Location, r.FreshmanNotes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert resource %q of %q: %w", r.ServiceName, c.Name, err)
		}
	}

	return nil
}

// List returns every college with its resources, ordered by id.
func (s *Store) List(ctx context.Context) ([]payload.StoredCollege, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location, latitude, longitude, website
		FROM colleges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query colleges: %w", err)
	}
	defer rows.Close()

	colleges := []payload.StoredCollege{}
	index := map[int]int{}

	for rows.Next() {
		var (
			c        payload.StoredCollege
			lat, lon sql.NullFloat64
		)

		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &lat, &lon, &c.Website); err != nil {
			return nil, fmt.Errorf("failed to scan college: %w", err)
		}

		c.Latitude = nullable(lat)
		c.Longitude = nullable(lon)
		c.Resources = []payload.StoredResource{}

		index[c.ID] = len(colleges)
		colleges = append(colleges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read colleges: %w", err)
	}

	if err := s.attachResources(ctx, colleges, index); err != nil {
		return nil, err
	}

	return colleges, nil
}

func (s *Store) attachResources(ctx context.Context, colleges []payload.StoredCollege, index map[int]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, college_id, service_name, description, contact_email, contact_phone,
			contact_website, department, office_hours, location, freshman_notes
		FROM resources ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r payload.StoredResource

		err := rows.Scan(&r.ID, &r.CollegeID, &r.ServiceName, &r.Description, &r.ContactEmail, &r.ContactPhone,
			&r.ContactWebsite, &r.Department, &r.OfficeHours, &r.Location, &r.FreshmanNotes)
		if err != nil {
			return fmt.Errorf("failed to scan resource: %w", err)
		}

		if i, ok := index[r.CollegeID]; ok {
			colleges[i].Resources = append(colleges[i].Resources, r)
		}
	}

	return rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}

	f := v.Float64

	return &f
}
