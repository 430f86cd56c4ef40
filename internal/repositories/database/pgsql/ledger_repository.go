package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/expense_ledger/internal/models"
	"github.com/SscSPs/expense_ledger/internal/utils/mapping"
	"github.com/SscSPs/expense_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionColumns = `transaction_id, owner_id, name, kind, amount, occurred_on, category_id, note,
		       created_at, created_by, last_updated_at, last_updated_by`

type PgxLedgerRepository struct {
	BaseRepository
	lockTimeout time.Duration
}

// newPgxLedgerRepository creates a new repository for transactions and balances.
func newPgxLedgerRepository(pool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		lockTimeout:    lockTimeout,
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

// RunInTx runs fn inside a database transaction. lock_timeout is scoped to the
// transaction, so a blocked FOR UPDATE fails with 55P03 instead of waiting forever.
func (r *PgxLedgerRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Defer rollback in case of error or panic. Ignored once committed.
	defer r.Rollback(ctx, tx)

	if r.lockTimeout > 0 {
		timeout := strconv.FormatInt(r.lockTimeout.Milliseconds(), 10) + "ms"
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return translatePgError(err, "failed to set lock timeout")
		}
	}

	if err := fn(ctx, &pgxLedgerTx{tx: tx}); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// CreateBalanceIfAbsent inserts a zero balance row. The unique owner_id constraint
// makes concurrent bootstraps converge on a single row.
func (r *PgxLedgerRepository) CreateBalanceIfAbsent(ctx context.Context, ownerID string, now time.Time) (bool, error) {
	query := `
		INSERT INTO balances (owner_id, amount, created_at, last_updated_at)
		VALUES ($1, 0, $2, $2)
		ON CONFLICT (owner_id) DO NOTHING;
	`
	tag, err := r.Pool.Exec(ctx, query, ownerID, now)
	if err != nil {
		return false, translatePgError(err, "failed to create balance for owner "+ownerID)
	}
	return tag.RowsAffected() == 1, nil
}

// FindBalanceByOwner retrieves the owner's balance without locking it.
func (r *PgxLedgerRepository) FindBalanceByOwner(ctx context.Context, ownerID string) (*domain.Balance, error) {
	query := `
		SELECT owner_id, amount, created_at, last_updated_at
		FROM balances
		WHERE owner_id = $1;
	`
	var m models.Balance
	err := r.Pool.QueryRow(ctx, query, ownerID).Scan(&m.OwnerID, &m.Amount, &m.CreatedAt, &m.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find balance for owner %s: %w", ownerID, err)
	}
	b := mapping.ToDomainBalance(m)
	return &b, nil
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

// ListTransactionsByOwner retrieves a page of the owner's transactions using token-based pagination.
func (r *PgxLedgerRepository) ListTransactionsByOwner(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = $1`
	// Ordering must be stable; transaction_id breaks ties between rows created in the same instant.
	orderByClause := `ORDER BY occurred_on DESC, created_at DESC, transaction_id DESC`
	args := []interface{}{ownerID}

	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		cursor, decodeErr := pagination.DecodeCursor(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, decodeErr)
		}
		// Tuple comparison is concise and efficient in Postgres
		query += ` AND (occurred_on, created_at, transaction_id) < ($2, $3, $4)`
		args = append(args, cursor.Date, cursor.CreatedAt, cursor.ID)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for owner "+ownerID, err)
	}
	defer rows.Close()

	modelTxns := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row for owner "+ownerID, scanErr)
		}
		modelTxns = append(modelTxns, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows for owner "+ownerID, err)
	}

	var newNextToken *string
	if len(modelTxns) > limit {
		modelTxns = modelTxns[:limit]
		last := modelTxns[len(modelTxns)-1]
		token := pagination.EncodeCursor(pagination.Cursor{Date: last.OccurredOn, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		newNextToken = &token
	}

	return mapping.ToDomainTransactionSlice(modelTxns), newNextToken, nil
}

// SumTransactionEffects recomputes the balance from the transactions table.
func (r *PgxLedgerRepository) SumTransactionEffects(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN kind = 'INCOME' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE owner_id = $1;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, ownerID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions for owner %s: %w", ownerID, err)
	}
	return total, nil
}

// pgxLedgerTx implements portsrepo.LedgerTx over a pgx.Tx.
type pgxLedgerTx struct {
	tx pgx.Tx
}

func (t *pgxLedgerTx) LockBalance(ctx context.Context, ownerID string) (*domain.Balance, error) {
	query := `
		SELECT owner_id, amount, created_at, last_updated_at
		FROM balances
		WHERE owner_id = $1
		FOR UPDATE;
	`
	rows, err := t.tx.Query(ctx, query, ownerID)
	if err != nil {
		return nil, translatePgError(err, "failed to lock balance of owner "+ownerID)
	}
	defer rows.Close()

	locked := make([]models.Balance, 0, 1)
	for rows.Next() {
		var m models.Balance
		if err := rows.Scan(&m.OwnerID, &m.Amount, &m.CreatedAt, &m.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan locked balance row: %w", err)
		}
		locked = append(locked, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, "failed to lock balance of owner "+ownerID)
	}

	if len(locked) != 1 {
		return nil, fmt.Errorf("%w: owner %s has %d balance rows", apperrors.ErrIntegrity, ownerID, len(locked))
	}
	b := mapping.ToDomainBalance(locked[0])
	return &b, nil
}

func (t *pgxLedgerTx) FindTransactionForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 FOR UPDATE;`
	m, err := scanTransaction(t.tx.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translatePgError(err, "failed to lock transaction "+transactionID)
	}
	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

func (t *pgxLedgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	query := `
		INSERT INTO transactions (
			transaction_id, owner_id, name, kind, amount, occurred_on, category_id, note,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := t.tx.Exec(ctx, query,
		m.TransactionID,
		m.OwnerID,
		m.Name,
		m.Kind,
		m.Amount,
		m.OccurredOn,
		m.CategoryID,
		m.Note,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return translatePgError(err, "failed to insert transaction "+m.TransactionID)
	}
	return nil
}

func (t *pgxLedgerTx) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	query := `
		UPDATE transactions
		SET name = $2, kind = $3, amount = $4, occurred_on = $5, category_id = $6, note = $7,
		    last_updated_at = $8, last_updated_by = $9
		WHERE transaction_id = $1;
	`
	tag, err := t.tx.Exec(ctx, query,
		m.TransactionID,
		m.Name,
		m.Kind,
		m.Amount,
		m.OccurredOn,
		m.CategoryID,
		m.Note,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return translatePgError(err, "failed to update transaction "+m.TransactionID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (t *pgxLedgerTx) DeleteTransaction(ctx context.Context, transactionID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1;`, transactionID)
	if err != nil {
		return translatePgError(err, "failed to delete transaction "+transactionID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (t *pgxLedgerTx) SetBalance(ctx context.Context, ownerID string, amount decimal.Decimal, now time.Time) error {
	query := `
		UPDATE balances
		SET amount = $2, last_updated_at = $3
		WHERE owner_id = $1;
	`
	tag, err := t.tx.Exec(ctx, query, ownerID, amount, now)
	if err != nil {
		return translatePgError(err, "failed to update balance of owner "+ownerID)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: balance of owner %s vanished while locked", apperrors.ErrIntegrity, ownerID)
	}
	return nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.OwnerID,
		&m.Name,
		&m.Kind,
		&m.Amount,
		&m.OccurredOn,
		&m.CategoryID,
		&m.Note,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}
