package core

import "strings"

// DefaultCategories is used when no category list is configured.
var DefaultCategories = []string{
	"Food",
	"Entertainment",
	"Housing",
	"Transport",
	"Shopping",
	"Travel",
	"Health",
	"Gifts",
}

// Uncategorized labels stored rows whose category cell is blank. It is never
// offered for entry.
const Uncategorized = "Uncategorized"

// NormalizeCategories trims names and drops blanks, comments and duplicates,
// preserving the input order.
func NormalizeCategories(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ContainsCategory reports whether name is in the list.
func ContainsCategory(list []string, name string) bool {
	for _, c := range list {
		if c == name {
			return true
		}
	}
	return false
}
