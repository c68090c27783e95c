package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dinoventures/moneymanager/internal/apperr"
)

const uniqueViolationCode = "23505"

const entryColumns = `id, debit_wallet_id, credit_wallet_id, amount, kind, idempotency_key, COALESCE(description, ''), created_at`

// PostgresLedger persists movements in PostgreSQL. Each Move runs in one
// serializable transaction; wallet rows are locked with SELECT ... FOR UPDATE
// in ascending id order regardless of debit/credit role, and the unique index
// on idempotency_key is the final backstop against concurrent duplicates.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Move executes one atomic double-entry movement.
func (l *PostgresLedger) Move(ctx context.Context, p MoveParams) (MoveResult, error) {
	if err := validateMove(p); err != nil {
		return MoveResult{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return MoveResult{}, apperr.Internal(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// A prior entry with this key means the movement already committed.
	if prior, err := findEntryByKey(ctx, tx, p.IdempotencyKey); err == nil {
		return l.replayResult(ctx, prior)
	} else if !apperr.Is(err, apperr.CodeNotFound) {
		return MoveResult{}, err
	}

	// Lock both wallets in ascending id order, never debit-first.
	firstID, secondID := p.DebitWalletID, p.CreditWalletID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	balances := make(map[int64]decimal.Decimal, 2)
	for _, id := range []int64{firstID, secondID} {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return MoveResult{}, apperr.NotFound("wallet not found")
			}
			return MoveResult{}, apperr.Internal(err)
		}
		balances[id] = balance
	}

	if balances[p.DebitWalletID].LessThan(p.Amount) {
		return MoveResult{}, apperr.InsufficientBalance("insufficient balance", balances[p.DebitWalletID], p.Amount)
	}

	debitBalance := balances[p.DebitWalletID].Sub(p.Amount)
	creditBalance := balances[p.CreditWalletID].Add(p.Amount)

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1, version = version + 1, updated_at = now()
        WHERE id = $2`, debitBalance, p.DebitWalletID); err != nil {
		return MoveResult{}, apperr.Internal(err)
	}
	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1, version = version + 1, updated_at = now()
        WHERE id = $2`, creditBalance, p.CreditWalletID); err != nil {
		return MoveResult{}, apperr.Internal(err)
	}

	entry := Entry{
		DebitWalletID:  p.DebitWalletID,
		CreditWalletID: p.CreditWalletID,
		Amount:         p.Amount,
		Kind:           p.Kind,
		IdempotencyKey: p.IdempotencyKey,
		Description:    p.Description,
	}
	err = tx.QueryRow(ctx, `INSERT INTO ledger_entries (debit_wallet_id, credit_wallet_id, amount, kind, idempotency_key, description)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		p.DebitWalletID, p.CreditWalletID, p.Amount, string(p.Kind), p.IdempotencyKey, p.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		// A concurrent submission with the same key won the race; roll back
		// and surface the winner's result instead of a raw uniqueness error.
		if isUniqueViolation(err) {
			_ = tx.Rollback(ctx)
			return l.replayByKey(ctx, p.IdempotencyKey)
		}
		return MoveResult{}, apperr.Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return l.replayByKey(ctx, p.IdempotencyKey)
		}
		return MoveResult{}, apperr.Internal(err)
	}

	return MoveResult{Entry: entry, DebitBalance: debitBalance, CreditBalance: creditBalance}, nil
}

// FindByIdempotencyKey returns the entry recorded under key, if any.
func (l *PostgresLedger) FindByIdempotencyKey(ctx context.Context, key string) (Entry, error) {
	return findEntryByKey(ctx, l.db, key)
}

// WalletEntries returns every entry touching the wallet, newest first.
func (l *PostgresLedger) WalletEntries(ctx context.Context, walletID int64) ([]Entry, error) {
	rows, err := l.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
        WHERE debit_wallet_id = $1 OR credit_wallet_id = $1
        ORDER BY created_at DESC, id DESC`, walletID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.DebitWalletID, &e.CreditWalletID, &e.Amount, &kind,
			&e.IdempotencyKey, &e.Description, &e.CreatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return entries, nil
}

func (l *PostgresLedger) replayByKey(ctx context.Context, key string) (MoveResult, error) {
	prior, err := l.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return MoveResult{}, err
	}
	return l.replayResult(ctx, prior)
}

// replayResult rebuilds a MoveResult from a previously committed entry using
// the wallets' current balances, mirroring what a fresh balance query would
// report.
func (l *PostgresLedger) replayResult(ctx context.Context, prior Entry) (MoveResult, error) {
	debit, err := l.walletBalance(ctx, prior.DebitWalletID)
	if err != nil {
		return MoveResult{}, err
	}
	credit, err := l.walletBalance(ctx, prior.CreditWalletID)
	if err != nil {
		return MoveResult{}, err
	}
	return MoveResult{Entry: prior, DebitBalance: debit, CreditBalance: credit, Replayed: true}, nil
}

func (l *PostgresLedger) walletBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := l.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperr.NotFound("wallet not found")
		}
		return decimal.Zero, apperr.Internal(err)
	}
	return balance, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findEntryByKey(ctx context.Context, q rowQuerier, key string) (Entry, error) {
	var e Entry
	var kind string
	err := q.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE idempotency_key = $1`, key).
		Scan(&e.ID, &e.DebitWalletID, &e.CreditWalletID, &e.Amount, &kind, &e.IdempotencyKey, &e.Description, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, apperr.NotFound("ledger entry not found")
		}
		return Entry{}, apperr.Internal(err)
	}
	e.Kind = Kind(kind)
	return e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
