package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the canonical storage and display format for dates.
const DateFormat = "2006-01-02"

// MaxNoteLength bounds the free-form note attached to a transaction.
const MaxNoteLength = 500

type (
	// Date is a calendar day. The wrapped time is always midnight UTC.
	Date struct {
		time.Time
	}

	// Money is an amount in the smallest unit of the configured currency.
	Money struct {
		Units int64
	}

	// Transaction is a single expense entry. Once stored it is never mutated.
	Transaction struct {
		Date     Date   `json:"date"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Note     string `json:"note,omitempty"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoteTooLong     = errors.New("note too long")
)

// accepted input layouts, tried in order
var dateLayouts = []string{
	DateFormat,
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"02/01/2006",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// NewDate creates a new Date from year, month, day. Out of range values are
// normalized the way time.Date does (e.g. day 0 is the last day of the previous month).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar day in loc. A nil loc means time.Local.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

// ParseDate parses a date in one of the accepted layouts. Any time-of-day
// component is discarded.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// Compare returns -1, 0 or +1 when d is before, equal to or after o.
func (d Date) Compare(o Date) int { return d.Time.Compare(o.Time) }

// DaysUntil returns the number of calendar days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var (
	_ json.Marshaler   = Date{}
	_ json.Unmarshaler = (*Date)(nil)
	_ json.Marshaler   = Money{}
	_ json.Unmarshaler = (*Money)(nil)
)

// MarshalJSON encodes the amount as a bare integer.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Units)
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &m.Units)
}

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the transaction before it is written. When categories is
// non-empty the category must be one of them. Readers never call this:
// legacy rows with unknown categories are kept.
func (t Transaction) Validate(categories []string) error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	cat := strings.TrimSpace(t.Category)
	if cat == "" {
		return ErrEmptyCategory
	}
	if len(categories) > 0 && !ContainsCategory(categories, cat) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, cat)
	}
	if len([]rune(t.Note)) > MaxNoteLength {
		return fmt.Errorf("%w (max %d characters)", ErrNoteTooLong, MaxNoteLength)
	}
	return nil
}
