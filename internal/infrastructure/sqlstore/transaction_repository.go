package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"txaudit/internal/domain/transaction"
)

// TransactionRepository implements transaction.Repository.
type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	d := r.db.dialect
	query := `
		INSERT INTO transactions (transaction_type, amount_minor, currency, account_id,
			transaction_timestamp, description, source_system, created_at, created_by_id)
		VALUES (` + placeholders(d, 9) + `)
		RETURNING id
	`

	minor, err := toMinor(params.Amount)
	if err != nil {
		return nil, err
	}

	var id int64
	err = r.db.QueryRowContext(
		ctx, query,
		params.TransactionType, minor, params.Currency, params.AccountID,
		d.timeArg(params.TransactionTimestamp), params.Description, params.SourceSystem,
		d.timeArg(params.CreatedAt), params.CreatedByID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &transaction.Transaction{
		ID:                   id,
		TransactionType:      params.TransactionType,
		Amount:               params.Amount,
		Currency:             params.Currency,
		AccountID:            params.AccountID,
		TransactionTimestamp: params.TransactionTimestamp.UTC(),
		Description:          params.Description,
		SourceSystem:         params.SourceSystem,
		CreatedAt:            params.CreatedAt.UTC(),
		CreatedByID:          params.CreatedByID,
	}, nil
}

func (r *TransactionRepository) Count(ctx context.Context, p transaction.Predicate) (int64, error) {
	query, args := compileCount(r.db.dialect, p)

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func (r *TransactionRepository) Find(ctx context.Context, p transaction.Predicate, w transaction.Window) ([]*transaction.Transaction, error) {
	query, args := compileFind(r.db.dialect, p, w)

	txs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Scan pages through the match set by keyset rather than offset, so rows
// inserted while a report runs cannot shift or repeat earlier batches.
func (r *TransactionRepository) Scan(ctx context.Context, p transaction.Predicate, batchSize int, fn func([]*transaction.Transaction) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	var after *cursor
	for {
		query, args := compileBatch(r.db.dialect, p, after, batchSize)

		batch, err := r.query(ctx, query, args)
		if err != nil {
			return fmt.Errorf("failed to scan transactions: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}

		last := batch[len(batch)-1]
		after = &cursor{Timestamp: last.TransactionTimestamp, ID: last.ID}
	}
}

func (r *TransactionRepository) query(ctx context.Context, query string, args []any) ([]*transaction.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []*transaction.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func scanTransaction(rows *sql.Rows) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var amount int64
	var timestamp, createdAt timeValue
	var description, sourceSystem sql.NullString

	err := rows.Scan(
		&tx.ID, &tx.TransactionType, &amount, &tx.Currency, &tx.AccountID,
		&timestamp, &description, &sourceSystem, &createdAt, &tx.CreatedByID,
	)
	if err != nil {
		return nil, err
	}

	tx.Amount = fromMinor(amount)
	tx.TransactionTimestamp = timestamp.Time
	tx.CreatedAt = createdAt.Time
	if description.Valid {
		tx.Description = &description.String
	}
	if sourceSystem.Valid {
		tx.SourceSystem = &sourceSystem.String
	}
	return &tx, nil
}

func placeholders(d Dialect, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = d.placeholder(i + 1)
	}
	return strings.Join(marks, ", ")
}
