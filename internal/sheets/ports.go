package sheets

import (
	"context"
	"errors"
	"time"

	"chitieu/internal/core"
)

// ErrUnavailable marks failures of a remote store, as opposed to a
// transaction the store refused.
var ErrUnavailable = errors.New("store unavailable")

// Snapshot is the full transaction list as read from a store. Dropped
// counts source rows that could not be parsed into a transaction.
type Snapshot struct {
	Transactions []core.Transaction
	Dropped      int
	FetchedAt    time.Time
}

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	TransactionReader interface {
		// FetchAll returns every transaction in the store in source order.
		FetchAll(ctx context.Context) (Snapshot, error)
	}

	CategoryReader interface {
		Categories(ctx context.Context) ([]string, error)
	}
)
