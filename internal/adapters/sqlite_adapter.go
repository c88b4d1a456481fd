package adapters

import (
	"context"
	"time"

	"chitieu/internal/core"
	"chitieu/internal/services"
	"chitieu/internal/sheets"
	"chitieu/internal/storage"
)

// SQLiteAdapter exposes the SQLite repository and transaction service
// through the store ports, so HTTP handlers and the report CLI work the
// same on every backend.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.TransactionService
	now     func() time.Time
}

var (
	_ sheets.TransactionWriter = (*SQLiteAdapter)(nil)
	_ sheets.TransactionReader = (*SQLiteAdapter)(nil)
	_ sheets.CategoryReader    = (*SQLiteAdapter)(nil)
)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.TransactionService) *SQLiteAdapter {
	return &SQLiteAdapter{storage: storage, service: service, now: time.Now}
}

// Append saves locally and queues the row for the spreadsheet.
func (a *SQLiteAdapter) Append(ctx context.Context, tx core.Transaction) (string, error) {
	return a.service.CreateTransaction(ctx, tx)
}

// FetchAll reads the local copy. Rows edited outside the app so that their
// date no longer parses are dropped and counted.
func (a *SQLiteAdapter) FetchAll(ctx context.Context) (sheets.Snapshot, error) {
	txs, dropped, err := a.storage.ListTransactions(ctx)
	if err != nil {
		return sheets.Snapshot{}, err
	}
	return sheets.Snapshot{Transactions: txs, Dropped: dropped, FetchedAt: a.now()}, nil
}

func (a *SQLiteAdapter) Categories(ctx context.Context) ([]string, error) {
	return a.storage.Categories(ctx)
}

// Ping reports whether the database answers.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}
