package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// WriteErrorDetail writes a JSON error response with detail.
func WriteErrorDetail(w http.ResponseWriter, status int, msg, detail string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, Detail: detail})
}

// ListResponse is the standard {items, total} body for filtered reads.
type ListResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 100

	// exportPageSize is the bulk read size used by the spreadsheet exporter.
	exportPageSize = 10000
)

// Pagination holds parsed page-based pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

// Offset converts the 1-based page to a row offset.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePagination extracts page and page_size from query params.
// Pages are 1-based; page_size is capped at 100.
func ParsePagination(r *http.Request) (Pagination, error) {
	p := Pagination{Page: 1, PageSize: defaultPageSize}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page %q: must be an integer >= 1", v)
		}
		p.Page = n
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page_size %q: must be an integer >= 1", v)
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		p.PageSize = n
	}
	return p, nil
}

// timestampLayouts are tried in order when normalizing form timestamps.
// Form inputs often omit seconds ("2006-01-02T15:04").
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp normalizes a form timestamp string to a time.Time.
// Strings without a zone are interpreted in server local time.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// QueryTimeWindow extracts the [start, end] window from query params,
// defaulting to the last 24 hours when bounds are missing.
func QueryTimeWindow(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now()
	if v := r.URL.Query().Get("end_timestamp"); v != "" {
		t, err := ParseTimestamp(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	start := end.Add(-24 * time.Hour)
	if v := r.URL.Query().Get("start_timestamp"); v != "" {
		t, err := ParseTimestamp(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	return start, end, nil
}

// QueryString extracts a non-empty string query parameter.
func QueryString(r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", false
	}
	return v, true
}

// QueryBool reports whether a query parameter parses as true.
func QueryBool(r *http.Request, name string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && b
}

// PathInt extracts an integer from a chi URL parameter.
func PathInt(r *http.Request, name string) (int, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.Atoi(v)
}

// DecodeJSON reads and decodes a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
