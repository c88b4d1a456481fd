package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"chitieu/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a transaction id does not exist.
var ErrNotFound = errors.New("transaction not found")

// Sync states of a locally stored transaction.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// Record is a stored transaction with its bookkeeping columns.
type Record struct {
	ID          int64
	Transaction core.Transaction
	CreatedAt   time.Time
	SyncStatus  string
	Version     int64
}

// PendingSync is the minimal data needed to enqueue a sync message.
type PendingSync struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert stores a transaction as pending sync and returns its id.
func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, category, amount, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		tx.Date.String(), tx.Category, tx.Amount.Units, tx.Note, r.now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction id: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"date", tx.Date.String(),
		"category", tx.Category,
		"amount", tx.Amount.Units)
	return id, nil
}

// Append implements sheets.TransactionWriter.
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (string, error) {
	id, err := r.Insert(ctx, tx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// ListTransactions returns every stored transaction in insertion order.
// Rows whose date no longer parses are skipped and counted in dropped.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) (txs []core.Transaction, dropped int, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, category, amount, note FROM transactions ORDER BY id`)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs = []core.Transaction{}
	for rows.Next() {
		var (
			date string
			tx   core.Transaction
		)
		if err := rows.Scan(&date, &tx.Category, &tx.Amount.Units, &tx.Note); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping stored transaction with bad date", "date", date, "error", err)
			dropped++
			continue
		}
		tx.Date = d
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return txs, dropped, nil
}

// GetTransaction retrieves a single transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*Record, error) {
	var (
		rec       Record
		date      string
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, date, category, amount, note, created_at, sync_status, version
		 FROM transactions WHERE id = ?`, id).
		Scan(&rec.ID, &date, &rec.Transaction.Category, &rec.Transaction.Amount.Units,
			&rec.Transaction.Note, &createdAt, &rec.SyncStatus, &rec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	if rec.Transaction.Date, err = core.ParseDate(date); err != nil {
		return nil, fmt.Errorf("stored date %q: %w", date, err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}

// PendingSyncTransactions returns up to limit rows not yet synced, oldest
// first. Rows that previously failed are retried.
func (r *SQLiteRepository) PendingSyncTransactions(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM transactions
		 WHERE sync_status IN (?, ?) ORDER BY id LIMIT ?`,
		SyncPending, SyncError, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var (
			p         PendingSync
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as successfully synced.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncSynced); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having failed to sync.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncError); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ?, version = version + 1 WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Categories returns the stored category list in configured order.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// SeedCategories replaces the category list with names, keeping their order.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, names []string) error {
	names = core.NormalizeCategories(names)
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed categories: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for i, name := range names {
		if _, err := dbtx.ExecContext(ctx,
			`INSERT INTO categories (name, position) VALUES (?, ?)`, name, i); err != nil {
			return fmt.Errorf("insert category %s: %w", name, err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit seed categories: %w", err)
	}
	slog.InfoContext(ctx, "Categories seeded", "count", len(names))
	return nil
}
