package wallet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

// Repository persists wallet rows. Balance mutation is not exposed here; only
// the ledger backends mutate balances, inside one atomic movement.
type Repository interface {
	CreateIfAbsent(ctx context.Context, w Wallet) (Wallet, error)
	Get(ctx context.Context, id int64) (Wallet, error)
	FindUserWallet(ctx context.Context, userID, assetID int64) (Wallet, error)
	FindSystemWallet(ctx context.Context, systemID string, assetID int64) (Wallet, error)
}

const walletColumns = `id, COALESCE(user_id, 0), COALESCE(system_wallet_id, ''), asset_id, balance, version, created_at, updated_at`

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateIfAbsent inserts the wallet unless one already exists for the same
// (owner, asset) pair, returning the stored row either way. Existing balances
// are never overwritten.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, w Wallet) (Wallet, error) {
	userID := nullableID(w.UserID)
	systemID := nullableText(w.SystemWalletID)

	_, err := r.db.Exec(ctx, `INSERT INTO wallets (user_id, system_wallet_id, asset_id, balance, version)
        VALUES ($1, $2, $3, $4, 0) ON CONFLICT DO NOTHING`,
		userID, systemID, w.AssetID, w.Balance)
	if err != nil {
		return Wallet{}, apperr.Internal(err)
	}

	if w.IsSystem() {
		return r.FindSystemWallet(ctx, w.SystemWalletID, w.AssetID)
	}
	return r.FindUserWallet(ctx, w.UserID, w.AssetID)
}

// Get fetches a wallet by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

// FindUserWallet fetches the wallet owned by a user for one asset.
func (r *PostgresRepository) FindUserWallet(ctx context.Context, userID, assetID int64) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets
        WHERE user_id = $1 AND asset_id = $2`, userID, assetID)
	return scanWallet(row)
}

// FindSystemWallet fetches a system pool wallet for one asset.
func (r *PostgresRepository) FindSystemWallet(ctx context.Context, systemID string, assetID int64) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets
        WHERE system_wallet_id = $1 AND asset_id = $2`, systemID, assetID)
	return scanWallet(row)
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var w Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.SystemWalletID, &w.AssetID, &w.Balance, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, apperr.NotFound("wallet not found")
		}
		return Wallet{}, apperr.Internal(err)
	}
	return w, nil
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
