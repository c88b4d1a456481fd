package report

import "chitieu/internal/core"

// Filter keeps the transactions dated inside w whose category is in
// categories. An empty categories list means no restriction, so categories
// missing from the configured list still pass through.
//
// The input order is preserved and the input slice is not modified.
func Filter(txs []core.Transaction, w Window, categories []string) ([]core.Transaction, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	var allowed map[string]struct{}
	if len(categories) > 0 {
		allowed = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			allowed[c] = struct{}{}
		}
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !w.Contains(tx.Date) {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[tx.Category]; !ok {
				continue
			}
		}
		out = append(out, tx)
	}
	return out, nil
}
