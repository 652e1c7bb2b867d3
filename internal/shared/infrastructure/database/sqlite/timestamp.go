package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width UTC layout used for every timestamp
// column. Fixed width keeps lexicographic and chronological order equal, so
// range predicates and ORDER BY work on the TEXT values directly.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatNullTimestamp renders t, or NULL when t is nil.
func FormatNullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTimestamp(*t), Valid: true}
}

// ParseTimestamp reads a value written by FormatTimestamp. RFC3339 values
// written by other tools are accepted too.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

// ParseNullTimestamp reads a nullable timestamp column.
func ParseNullTimestamp(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := ParseTimestamp(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
