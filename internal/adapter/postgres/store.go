// Package postgres reads the shelter directory from PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listSheltersSQL = `
    SELECT name, lat, lon, is_open
    FROM shelters
    ORDER BY name
`

// querier is the subset of *pgxpool.Pool used by Store.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store wraps shelter queries.
type Store struct {
	db   querier
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// LoadShelters returns all shelters ordered by name.
func (s *Store) LoadShelters(ctx context.Context) ([]domain.Shelter, error) {
	rows, err := s.db.Query(ctx, listSheltersSQL)
	if err != nil {
		return nil, fmt.Errorf("query shelters: %w", err)
	}
	defer rows.Close()

	shelters := make([]domain.Shelter, 0)
	for rows.Next() {
		var (
			sh   domain.Shelter
			open *bool
		)
		if err := rows.Scan(&sh.Name, &sh.Lat, &sh.Lon, &open); err != nil {
			return nil, fmt.Errorf("scan shelter: %w", err)
		}
		sh.Name = strings.TrimSpace(sh.Name)
		if sh.Name == "" {
			return nil, &domain.ShelterError{Index: len(shelters), Reason: "missing name"}
		}
		// A NULL open flag is treated as closed.
		sh.Open = open != nil && *open
		shelters = append(shelters, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shelters: %w", err)
	}
	return shelters, nil
}
