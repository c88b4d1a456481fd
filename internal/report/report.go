// Package report turns a snapshot of transactions into the numbers shown on
// the dashboard: relative date windows, filtering, calendar bucketing and
// summary statistics.
//
// Every function is pure. Inputs are never mutated and no state is kept
// between calls, so callers may cache results however they like.
package report

import "errors"

var (
	// ErrInvalidPeriod is returned for an unknown relative period name.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidRange is returned for a window whose start is after its end.
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidGranularity is returned for an unknown bucketing unit.
	ErrInvalidGranularity = errors.New("invalid granularity")
)
