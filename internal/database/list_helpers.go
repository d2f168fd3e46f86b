package database

import "time"

// IS NULL OR helpers — convert empty Go values to nil so PostgreSQL
// sees NULL and the ($1::type IS NULL OR ...) pattern skips the filter.

func pqString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func pqTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
