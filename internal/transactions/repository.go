package transactions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

// Repository persists transactions.
type Repository interface {
	Create(ctx context.Context, tx Transaction) (Transaction, error)
	FindByID(ctx context.Context, id int64) (Transaction, error)
	ListByUser(ctx context.Context, userID int64, page Page) ([]Transaction, error)
	Update(ctx context.Context, tx Transaction) (Transaction, error)
	Delete(ctx context.Context, id int64) error
}

const txColumns = `id, user_id, tx_type, category, amount, description, occurred_on, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, tx Transaction) (Transaction, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO transactions (user_id, tx_type, category, amount, description, occurred_on)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		tx.UserID, tx.Type, tx.Category, tx.Amount, tx.Description, tx.OccurredOn,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return Transaction{}, apperr.Internal(err)
	}
	return tx, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, page Page) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+txColumns+` FROM transactions
        WHERE user_id = $1 AND ($2 = '' OR tx_type = $2)
        ORDER BY occurred_on DESC, id DESC LIMIT $3 OFFSET $4`,
		userID, string(page.Type), page.Limit, page.Offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Category, &tx.Amount, &tx.Description, &tx.OccurredOn, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, tx Transaction) (Transaction, error) {
	row := r.db.QueryRow(ctx, `UPDATE transactions
        SET tx_type = $1, category = $2, amount = $3, description = $4, occurred_on = $5, updated_at = now()
        WHERE id = $6 RETURNING `+txColumns,
		tx.Type, tx.Category, tx.Amount, tx.Description, tx.OccurredOn, tx.ID)
	return scanTransaction(row)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("transaction not found")
	}
	return nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Category, &tx.Amount, &tx.Description, &tx.OccurredOn, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, apperr.NotFound("transaction not found")
		}
		return Transaction{}, apperr.Internal(err)
	}
	return tx, nil
}
