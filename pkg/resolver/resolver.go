// Package resolver computes a mock's response from its stored definition
// and the request's query parameters.
//
// Resolution order is fixed: error short-circuit, then delay, then
// key-field filtering, then pagination. Filtering and pagination are
// mutually exclusive outcomes per request; when both are enabled and the
// filter parameter is present, filtering wins.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ohler55/ojg/jp"

	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

// Result is the computed (status, body, delay) triple for one request.
// Body is a decoded JSON value; nil means a JSON null body.
type Result struct {
	Status int
	Body   any
	Delay  time.Duration
}

// Resolve computes the response for a definition and query-parameter set.
// It is a pure function of its inputs: repeated calls with the same
// definition and query produce the same result.
//
// The caller is responsible for suspending for Result.Delay before
// writing the response; see Sleep.
func Resolve(def *mockdef.Definition, query url.Values) Result {
	delay := time.Duration(def.DelayMs) * time.Millisecond

	status := def.Status
	if status == 0 {
		status = mockdef.DefaultStatus
	}

	// Simulated failure: the configured status (or 500) with an error
	// body, before any payload shaping.
	if def.Error {
		if def.Status == 0 {
			status = 500
		}
		return Result{
			Status: status,
			Body:   map[string]any{"error": true, "message": "simulated error"},
			Delay:  delay,
		}
	}

	// Filtering and pagination only apply to collections. The constructor
	// enforces the array shape at write time; if a record slipped past it
	// (edited before the invariant existed), degrade to passthrough
	// rather than panicking on the type assertion.
	items, ok := def.Items()
	if !ok {
		return Result{Status: status, Body: def.Response, Delay: delay}
	}

	if def.FilterEnabled && query.Has(def.KeyField) {
		want := query.Get(def.KeyField)
		if match, found := findByKey(items, def.KeyField, want); found {
			// A match is returned bare, not wrapped in an array, and
			// takes priority over pagination.
			return Result{Status: status, Body: match, Delay: delay}
		}
		// No element matched. The body is null with the configured
		// status; consumers distinguish "no match" from "empty page"
		// by the null body.
		return Result{Status: status, Body: nil, Delay: delay}
	}

	if def.PaginationEnabled {
		limit := parseIntDefault(query.Get("limit"), def.DefaultLimit)
		offset := parseIntDefault(query.Get("offset"), 0)
		return Result{Status: status, Body: paginate(items, offset, limit), Delay: delay}
	}

	return Result{Status: status, Body: def.Response, Delay: delay}
}

// findByKey scans items for the first element whose key-field value
// stringifies equal to want. KeyField may be a dotted path into nested
// objects ("user.id").
func findByKey(items []any, keyField, want string) (any, bool) {
	expr, err := jp.ParseString(normalizePath(keyField))
	if err != nil {
		return nil, false
	}
	for _, item := range items {
		got := expr.First(item)
		if got == nil {
			continue
		}
		if stringify(got) == want {
			return item, true
		}
	}
	return nil, false
}

// normalizePath turns a bare property name or dotted path into a
// JSONPath expression rooted at the element.
func normalizePath(keyField string) string {
	return "$." + keyField
}

// paginate slices items to [offset, offset+limit). Out-of-range offsets
// yield an empty array, not an error.
func paginate(items []any, offset, limit int) []any {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= len(items) {
		return []any{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// parseIntDefault parses a query value as an integer, substituting def
// when the value is absent or malformed.
func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// stringify renders a decoded JSON scalar the way the query string
// represents it. Integral floats print without a fraction so a stored
// {"id": 2} matches ?id=2.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		// YAML-seeded fixtures decode numbers as int.
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Sleep suspends the calling goroutine for d, honoring context
// cancellation: if the request is aborted during a simulated delay the
// wait is abandoned without side effects. A zero or negative d returns
// immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
