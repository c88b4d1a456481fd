package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chitieu/internal/amqp"
	"chitieu/internal/sheets"
	"chitieu/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Store is the part of the SQLite repository the worker needs.
type Store interface {
	GetTransaction(ctx context.Context, id int64) (*storage.Record, error)
	PendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSync, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Consumer delivers sync messages to a handler until ctx ends.
type Consumer interface {
	ConsumeTransactionSync(ctx context.Context, handler amqp.Handler) error
}

// SyncWorker pushes locally stored transactions to the spreadsheet.
type SyncWorker struct {
	storage   Store
	sheets    sheets.TransactionWriter
	batchSize int

	// mu serialises the check-append-mark sequence so the consumer and the
	// sweep never append the same row twice.
	mu sync.Mutex
}

func NewSyncWorker(storage Store, sheets sheets.TransactionWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{storage: storage, sheets: sheets, batchSize: batchSize}
}

// HandleSyncMessage processes a single transaction sync message. Rows that
// are already synced are skipped so redelivered messages do not duplicate
// spreadsheet rows.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "version", msg.Version)

	_, err := w.syncID(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Requeueing cannot help; drop it.
		slog.WarnContext(ctx, "Sync message for unknown transaction", "id", msg.ID)
		return nil
	}
	return err
}

// ProcessPending syncs up to one batch of rows that were never announced
// or previously failed. It is the backup path for lost messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced int, err error) {
	pending, err := w.storage.PendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		did, err := w.syncID(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			continue
		}
		if did {
			synced++
		}
	}
	return synced, nil
}

// syncID appends one stored row to the sheet unless it is already synced.
// did reports whether an append happened.
func (w *SyncWorker) syncID(ctx context.Context, id int64) (did bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := w.storage.GetTransaction(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get transaction from storage: %w", err)
	}
	if rec.SyncStatus == storage.SyncSynced {
		slog.DebugContext(ctx, "Transaction already synced", "id", id)
		return false, nil
	}
	ref, err := w.sheets.Append(ctx, rec.Transaction)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return false, fmt.Errorf("append to sheets: %w", err)
	}
	if err := w.storage.MarkSynced(ctx, id); err != nil {
		return true, fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction synced to sheets", "id", id, "ref", ref)
	return true, nil
}

// Run syncs pending rows once, then consumes messages and sweeps pending
// rows every interval until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if n, err := w.ProcessPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sync check failed", "error", err)
	} else {
		slog.InfoContext(ctx, "Startup sync check done", "synced", n)
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeTransactionSync(gctx, w.HandleSyncMessage)
		})
	}
	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					if _, err := w.ProcessPending(gctx); err != nil && gctx.Err() == nil {
						slog.ErrorContext(gctx, "Periodic sync failed", "error", err)
					}
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
