package transaction

import (
	"context"
)

// Repository defines the interface for transaction data access. There is no
// update or delete: the ledger is append-only.
//
// Find and Scan return rows ordered by TransactionTimestamp DESC, ID DESC.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)
	// Count returns the number of rows matching p.
	Count(ctx context.Context, p Predicate) (int64, error)
	// Find returns the rows matching p inside w.
	Find(ctx context.Context, p Predicate, w Window) ([]*Transaction, error)
	// Scan walks every row matching p in batches of at most batchSize and
	// calls fn once per non-empty batch. A non-nil error from fn stops the scan
	// and is returned unchanged.
	Scan(ctx context.Context, p Predicate, batchSize int, fn func(batch []*Transaction) error) error
}
