package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantPage   int
		wantSize   int
		wantOffset int
		wantErr    bool
	}{
		{"defaults", "/x", 1, 50, 0, false},
		{"page_two", "/x?page=2", 2, 50, 50, false},
		{"custom_size", "/x?page=3&page_size=10", 3, 10, 20, false},
		{"size_capped", "/x?page_size=500", 1, 100, 0, false},
		{"zero_page", "/x?page=0", 0, 0, 0, true},
		{"negative_page", "/x?page=-1", 0, 0, 0, true},
		{"non_numeric", "/x?page=abc", 0, 0, 0, true},
		{"zero_size", "/x?page_size=0", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			p, err := ParsePagination(r)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Page != tt.wantPage || p.PageSize != tt.wantSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", p.Page, p.PageSize, tt.wantPage, tt.wantSize)
			}
			if p.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", p.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Run("without_seconds", func(t *testing.T) {
		got, err := ParseTimestamp("2026-03-15T08:30")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2026, 3, 15, 8, 30, 0, 0, time.Local)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("with_seconds", func(t *testing.T) {
		got, err := ParseTimestamp("2026-03-15T08:30:45")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Second() != 45 {
			t.Errorf("seconds = %d, want 45", got.Second())
		}
	})

	t.Run("rfc3339", func(t *testing.T) {
		got, err := ParseTimestamp("2026-03-15T08:30:45Z")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(time.Date(2026, 3, 15, 8, 30, 45, 0, time.UTC)) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseTimestamp("yesterday"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := ParseTimestamp(""); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestQueryTimeWindow(t *testing.T) {
	t.Run("defaults_to_last_24h", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x", nil)
		start, end, err := QueryTimeWindow(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := end.Sub(start); got != 24*time.Hour {
			t.Errorf("window = %v, want 24h", got)
		}
	})

	t.Run("explicit_bounds", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?start_timestamp=2026-03-01T00:00&end_timestamp=2026-03-02T12:00", nil)
		start, end, err := QueryTimeWindow(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start.Day() != 1 || end.Day() != 2 {
			t.Errorf("start=%v end=%v", start, end)
		}
	})

	t.Run("start_defaults_relative_to_end", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?end_timestamp=2026-03-02T12:00", nil)
		start, end, err := QueryTimeWindow(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := end.Sub(start); got != 24*time.Hour {
			t.Errorf("window = %v, want 24h", got)
		}
	})

	t.Run("invalid_bound", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?start_timestamp=bogus", nil)
		if _, _, err := QueryTimeWindow(r); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
