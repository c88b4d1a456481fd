package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"chitieu/internal/core"
)

// LocalStore is the durable local side of the SQLite backend.
type LocalStore interface {
	Insert(ctx context.Context, tx core.Transaction) (int64, error)
	Categories(ctx context.Context) ([]string, error)
	Close() error
}

// SyncPublisher announces a stored transaction to the sync worker.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	Close() error
}

// TransactionService saves transactions locally and queues them for the
// spreadsheet. A failed publish never fails the save: the worker's periodic
// sweep picks up rows that were never announced.
type TransactionService struct {
	storage   LocalStore
	publisher SyncPublisher
}

// NewTransactionService builds the service. publisher may be nil when no
// broker is configured.
func NewTransactionService(storage LocalStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{storage: storage, publisher: publisher}
}

// CreateTransaction validates tx against the stored category list, saves it
// and publishes a sync message. The returned reference is the local row id.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	cats, err := s.storage.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("load categories: %w", err)
	}
	if err := tx.Validate(cats); err != nil {
		return "", err
	}
	id, err := s.storage.Insert(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", id)
	} else if err := s.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}

	return strconv.FormatInt(id, 10), nil
}

// Close closes both storage and the publisher.
func (s *TransactionService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
