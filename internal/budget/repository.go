package budget

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

// Repository persists budgets. One budget per user, category and month is
// enforced by a unique index.
type Repository interface {
	Create(ctx context.Context, b Budget) (Budget, error)
	FindByID(ctx context.Context, id int64) (Budget, error)
	ListByUser(ctx context.Context, userID int64) ([]Budget, error)
	Update(ctx context.Context, b Budget) (Budget, error)
	Delete(ctx context.Context, id int64) error
}

const budgetColumns = `id, user_id, category, month_year, spending_limit, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, b Budget) (Budget, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO budgets (user_id, category, month_year, spending_limit)
        VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		b.UserID, b.Category, b.MonthYear, b.Limit,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Budget{}, apperr.Conflict("budget already exists for %s in %s", b.Category, b.MonthYear)
		}
		return Budget{}, apperr.Internal(err)
	}
	return b, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (Budget, error) {
	row := r.db.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id)
	return scanBudget(row)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]Budget, error) {
	rows, err := r.db.Query(ctx, `SELECT `+budgetColumns+` FROM budgets
        WHERE user_id = $1 ORDER BY month_year DESC, category`, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.MonthYear, &b.Limit, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b Budget) (Budget, error) {
	row := r.db.QueryRow(ctx, `UPDATE budgets
        SET category = $1, month_year = $2, spending_limit = $3, updated_at = now()
        WHERE id = $4 RETURNING `+budgetColumns,
		b.Category, b.MonthYear, b.Limit, b.ID)
	updated, err := scanBudget(row)
	if err != nil && isUniqueViolation(err) {
		return Budget{}, apperr.Conflict("budget already exists for %s in %s", b.Category, b.MonthYear)
	}
	return updated, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("budget not found")
	}
	return nil
}

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.MonthYear, &b.Limit, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Budget{}, apperr.NotFound("budget not found")
		}
		return Budget{}, err
	}
	return b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
