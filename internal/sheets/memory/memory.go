package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"chitieu/internal/core"
	ports "chitieu/internal/sheets"
)

var (
	_ ports.TransactionWriter = (*Store)(nil)
	_ ports.TransactionReader = (*Store)(nil)
	_ ports.CategoryReader    = (*Store)(nil)
)

// Store keeps transactions in process memory. It backs local development
// and tests.
type Store struct {
	mu    sync.Mutex
	cats  []string
	items []core.Transaction
	now   func() time.Time
}

func New(cats []string) *Store {
	return &Store{cats: core.NormalizeCategories(cats), now: time.Now}
}

// NewFromFiles seeds categories from base/seed_categories.txt, falling back
// to the default category list when the file is missing or empty.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = core.DefaultCategories
	}
	return New(cats)
}

// Seed appends transactions without validation. Used to preload fixtures.
func (s *Store) Seed(txs ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, txs...)
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := tx.Validate(s.cats); err != nil {
		return "", err
	}
	s.items = append(s.items, tx)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) FetchAll(_ context.Context) (ports.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ports.Snapshot{Transactions: slices.Clone(s.items), FetchedAt: s.now()}, nil
}

func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cats), nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, strings.TrimSpace(sc.Text()))
	}
	return core.NormalizeCategories(out)
}
