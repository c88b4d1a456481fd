package report

import (
	"errors"
	"testing"

	"chitieu/internal/core"
)

func tx(date, category string, amount int64) core.Transaction {
	return core.Transaction{Date: d(date), Category: category, Amount: core.Money{Units: amount}}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx("2024-04-30", "Food", 100),
		tx("2024-05-01", "Food", 200),
		tx("2024-05-03", "Housing", 300),
		tx("2024-05-03", "Legacy", 400),
		tx("2024-05-31", "Transport", 500),
		tx("2024-06-01", "Food", 600),
	}
}

func TestFilterWindowBoundsInclusive(t *testing.T) {
	w, _ := NewWindow(d("2024-05-01"), d("2024-05-31"))
	got, err := Filter(sample(), w, nil)
	if err != nil {
		t.Fatalf("Filter error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 transactions, got %d: %v", len(got), got)
	}
	// Order preserved.
	want := []int64{200, 300, 400, 500}
	for i, tx := range got {
		if tx.Amount.Units != want[i] {
			t.Fatalf("position %d: got %d want %d", i, tx.Amount.Units, want[i])
		}
	}
}

func TestFilterCategories(t *testing.T) {
	w, _ := NewWindow(d("2024-01-01"), d("2024-12-31"))
	all, _ := Filter(sample(), w, nil)
	empty, _ := Filter(sample(), w, []string{})
	if len(all) != len(empty) {
		t.Fatalf("nil and empty category lists must both mean no restriction")
	}

	subsets := [][]string{
		{"Food"},
		{"Food", "Housing"},
		{"Legacy"},
		{"Nothing"},
	}
	for _, cats := range subsets {
		got, err := Filter(sample(), w, cats)
		if err != nil {
			t.Fatalf("Filter error: %v", err)
		}
		if len(got) > len(all) {
			t.Fatalf("category subset %v returned more rows than unrestricted", cats)
		}
		for _, tx := range got {
			if !core.ContainsCategory(cats, tx.Category) {
				t.Fatalf("category %q leaked through filter %v", tx.Category, cats)
			}
		}
	}
	if got, _ := Filter(sample(), w, []string{"Legacy"}); len(got) != 1 {
		t.Fatalf("legacy category should be selectable, got %v", got)
	}
}

func TestFilterInvalidRange(t *testing.T) {
	got, err := Filter(sample(), Window{Start: d("2024-05-02"), End: d("2024-05-01")}, nil)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no output on error, got %v", got)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := sample()
	before := append([]core.Transaction(nil), in...)
	w, _ := NewWindow(d("2024-05-01"), d("2024-05-01"))
	if _, err := Filter(in, w, []string{"Food"}); err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != before[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
}

func TestFilterEmptyInput(t *testing.T) {
	w, _ := NewWindow(d("2024-05-01"), d("2024-05-31"))
	got, err := Filter(nil, w, []string{"Food"})
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v %v", got, err)
	}
}
