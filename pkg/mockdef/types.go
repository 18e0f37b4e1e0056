// Package mockdef defines the stored description of a fake API route:
// its path, status, fixture payload, and the optional query-string
// behaviors (key-field filtering, pagination, delay and error simulation).
package mockdef

import (
	"time"
)

// Default values applied when a definition omits them.
const (
	DefaultStatus   = 200
	DefaultKeyField = "id"
	DefaultLimit    = 10
)

// MaxDelayMs caps the configurable artificial delay so a definition
// cannot pin request goroutines for minutes.
const MaxDelayMs = 60_000

// Definition describes one mock route owned by a platform user.
type Definition struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`

	// Route is the path segment the mock is served under, unique per owner.
	Route string `json:"route"`

	// Method is the HTTP method. Only GET is executable today; the field
	// is stored so authoring clients can round-trip it.
	Method string `json:"method"`

	// Status is the HTTP status returned on resolution.
	Status int `json:"status"`

	// Response is the fixture payload as a decoded JSON value
	// (map, slice, string, float64, bool, or nil).
	Response any `json:"response"`

	// IsArray marks the payload as a collection. A non-array response is
	// wrapped in a single-element array by the constructor; filtering and
	// pagination only apply to collections.
	IsArray bool `json:"isArray"`

	// KeyField is the property name used for equality filtering.
	// Dotted paths (e.g. "user.id") select nested properties.
	KeyField string `json:"keyField"`

	FilterEnabled     bool `json:"filterEnabled"`
	PaginationEnabled bool `json:"paginationEnabled"`

	// DefaultLimit is the page size used when the query string does not
	// carry a valid limit.
	DefaultLimit int `json:"defaultLimit"`

	// DelayMs delays the response by this many milliseconds.
	DelayMs int `json:"delay"`

	// Error short-circuits resolution to an error response with Status
	// (or 500 when unset).
	Error bool `json:"error"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Params carries the client-supplied fields for creating or updating a
// definition. Updates are full-replace: omitted fields fall back to
// their defaults, they do not keep the stored value.
type Params struct {
	Route             string `json:"route"`
	Method            string `json:"method"`
	Status            int    `json:"status"`
	Response          any    `json:"response"`
	IsArray           bool   `json:"isArray"`
	KeyField          string `json:"keyField"`
	FilterEnabled     bool   `json:"filterEnabled"`
	PaginationEnabled bool   `json:"paginationEnabled"`
	DefaultLimit      int    `json:"defaultLimit"`
	DelayMs           int    `json:"delay"`
	Error             bool   `json:"error"`
}

// New builds a Definition from client params, applying defaults and
// enforcing the collection invariant once, at creation: when IsArray is
// set and the payload is not already an array, it is wrapped in a
// single-element array. Call sites never need to remember the rule.
func New(idGen func() string, ownerID string, p Params) (*Definition, error) {
	d := &Definition{
		ID:                idGen(),
		OwnerID:           ownerID,
		Route:             p.Route,
		Method:            p.Method,
		Status:            p.Status,
		Response:          p.Response,
		IsArray:           p.IsArray,
		KeyField:          p.KeyField,
		FilterEnabled:     p.FilterEnabled,
		PaginationEnabled: p.PaginationEnabled,
		DefaultLimit:      p.DefaultLimit,
		DelayMs:           p.DelayMs,
		Error:             p.Error,
		CreatedAt:         time.Now().UTC(),
	}
	d.UpdatedAt = d.CreatedAt
	d.applyDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Update applies client params onto an existing definition, re-applying
// defaults and the collection invariant. The receiver is only written
// once the result validates; a rejected update leaves it untouched.
func (d *Definition) Update(p Params) error {
	next := *d
	next.Route = p.Route
	next.Method = p.Method
	next.Status = p.Status
	next.Response = p.Response
	next.IsArray = p.IsArray
	next.KeyField = p.KeyField
	next.FilterEnabled = p.FilterEnabled
	next.PaginationEnabled = p.PaginationEnabled
	next.DefaultLimit = p.DefaultLimit
	next.DelayMs = p.DelayMs
	next.Error = p.Error
	next.applyDefaults()
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	*d = next
	return nil
}

func (d *Definition) applyDefaults() {
	if d.Method == "" {
		d.Method = "GET"
	}
	if d.Status == 0 {
		d.Status = DefaultStatus
	}
	if d.KeyField == "" {
		d.KeyField = DefaultKeyField
	}
	if d.DefaultLimit <= 0 {
		d.DefaultLimit = DefaultLimit
	}
	if d.IsArray {
		if _, ok := d.Response.([]any); !ok {
			d.Response = []any{d.Response}
		}
	}
}

// Items returns the fixture payload as a collection. The second return
// is false when the definition is not array-shaped at rest, which can
// happen if a record predates the constructor invariant; callers should
// then fall back to passthrough behavior instead of assuming the shape.
func (d *Definition) Items() ([]any, bool) {
	if !d.IsArray {
		return nil, false
	}
	items, ok := d.Response.([]any)
	return items, ok
}
