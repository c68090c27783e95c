package asset

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

// Repository persists the asset catalog.
type Repository interface {
	CreateIfAbsent(ctx context.Context, a Asset) (Asset, error)
	FindByCode(ctx context.Context, code string) (Asset, error)
	FindActiveByCode(ctx context.Context, code string) (Asset, error)
	List(ctx context.Context) ([]Asset, error)
}

// PostgresRepository stores assets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateIfAbsent inserts the asset unless one with the same code exists,
// returning the stored row either way.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, a Asset) (Asset, error) {
	_, err := r.db.Exec(ctx, `INSERT INTO assets (code, name, description, active)
        VALUES ($1, $2, $3, $4) ON CONFLICT (code) DO NOTHING`,
		a.Code, a.Name, a.Description, a.Active)
	if err != nil {
		return Asset{}, apperr.Internal(err)
	}
	return r.FindByCode(ctx, a.Code)
}

// FindByCode fetches an asset regardless of its active flag.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (Asset, error) {
	row := r.db.QueryRow(ctx, `SELECT id, code, name, description, active, created_at
        FROM assets WHERE code = $1`, code)
	return scanAsset(row, code)
}

// FindActiveByCode fetches an asset only if it is active.
func (r *PostgresRepository) FindActiveByCode(ctx context.Context, code string) (Asset, error) {
	row := r.db.QueryRow(ctx, `SELECT id, code, name, description, active, created_at
        FROM assets WHERE code = $1 AND active`, code)
	return scanAsset(row, code)
}

// List returns the full catalog ordered by code.
func (r *PostgresRepository) List(ctx context.Context) ([]Asset, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, description, active, created_at
        FROM assets ORDER BY code`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Description, &a.Active, &a.CreatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return assets, nil
}

func scanAsset(row pgx.Row, code string) (Asset, error) {
	var a Asset
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Description, &a.Active, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, apperr.NotFound("asset not found: %s", code)
		}
		return Asset{}, apperr.Internal(err)
	}
	return a, nil
}
