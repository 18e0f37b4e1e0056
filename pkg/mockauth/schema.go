// Package mockauth implements user-defined mock authentication flows: a
// per-endpoint field schema, signup validation against that schema, and
// login for the synthetic users created through it.
package mockauth

import (
	"fmt"
	"regexp"
	"time"
)

// FieldType is the declared type of a schema field.
type FieldType string

// Supported field types. Adding a type means adding a constant here and
// a checker in typeCheckers; validation dispatch is by lookup.
const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
)

// Field is one entry in an auth schema.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Definition is a named, user-defined namespace exposing synthetic
// signup/login/profile routes, with an ordered field schema.
type Definition struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`

	// Endpoint is the namespace under which signup/login are exposed,
	// unique per owner.
	Endpoint string `json:"endpoint"`

	Fields []Field `json:"fields"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRecord is a synthetic end user created through a mock auth flow.
// Data holds all submitted field values; the password stays in Data as
// submitted because the record is fixture data, not a real credential.
type UserRecord struct {
	ID     string `json:"id"`
	AuthID string `json:"mockAuthId"`

	// Email is unique within the same AuthID.
	Email string `json:"email"`

	Data map[string]any `json:"data"`

	CreatedAt time.Time `json:"createdAt"`
}

// Sanitized returns the record with password-equivalent fields removed
// from Data. Profile and login responses must never echo the password.
func (u *UserRecord) Sanitized() *UserRecord {
	data := make(map[string]any, len(u.Data))
	for k, v := range u.Data {
		if k == "password" {
			continue
		}
		data[k] = v
	}
	return &UserRecord{
		ID:        u.ID,
		AuthID:    u.AuthID,
		Email:     u.Email,
		Data:      data,
		CreatedAt: u.CreatedAt,
	}
}

var endpointRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks the definition's endpoint name and field schema.
func (d *Definition) Validate() error {
	if d.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if !endpointRegex.MatchString(d.Endpoint) {
		return fmt.Errorf("endpoint may only contain letters, digits, '-' and '_'")
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("field name is required")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true
		if _, ok := typeCheckers[f.Type]; !ok {
			return fmt.Errorf("field %s has unknown type: %s", f.Name, f.Type)
		}
	}
	return nil
}
