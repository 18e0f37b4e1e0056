// Package storage provides the record stores backing the authoring API
// and the public mock engine, plus thread-safe in-memory implementations.
//
// Uniqueness constraints (route per owner, endpoint per owner, email per
// auth definition) are enforced here, by the store, not by callers.
package storage

import (
	"errors"

	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

// Store errors. Handlers map these to 404 and 409 envelopes.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// DefinitionStore stores mock definitions.
type DefinitionStore interface {
	// Create stores a new definition. Returns ErrDuplicate when the
	// owner already has a definition with the same route and method.
	Create(d *mockdef.Definition) error

	// Get retrieves a definition by ID.
	Get(id string) (*mockdef.Definition, error)

	// GetByRoute retrieves an owner's definition by route and method.
	GetByRoute(ownerID, route, method string) (*mockdef.Definition, error)

	// ListByOwner returns all of an owner's definitions, oldest first.
	ListByOwner(ownerID string) []*mockdef.Definition

	// Update replaces a stored definition. Returns ErrDuplicate when the
	// new route collides with another definition of the same owner.
	Update(d *mockdef.Definition) error

	// Delete removes a definition by ID.
	Delete(id string) error

	// DeleteAllForOwner removes all of an owner's definitions and
	// returns how many were removed.
	DeleteAllForOwner(ownerID string) int
}

// AuthDefinitionStore stores mock auth schemas.
type AuthDefinitionStore interface {
	// Create stores a new auth definition. Returns ErrDuplicate when the
	// owner already has one with the same endpoint.
	Create(d *mockauth.Definition) error

	// Get retrieves an auth definition by ID.
	Get(id string) (*mockauth.Definition, error)

	// GetByEndpoint retrieves an owner's auth definition by endpoint name.
	GetByEndpoint(ownerID, endpoint string) (*mockauth.Definition, error)

	// ListByOwner returns all of an owner's auth definitions, oldest first.
	ListByOwner(ownerID string) []*mockauth.Definition

	// Update replaces a stored auth definition.
	Update(d *mockauth.Definition) error

	// Delete removes an auth definition and its synthetic users.
	Delete(id string) error
}

// MockUserStore stores the synthetic end users created through mock
// auth flows.
type MockUserStore interface {
	// Create stores a new record. Returns ErrDuplicate when the email is
	// already taken under the same auth definition.
	Create(u *mockauth.UserRecord) error

	// Get retrieves a record by ID.
	Get(id string) (*mockauth.UserRecord, error)

	// GetByEmail retrieves a record by auth definition and email.
	GetByEmail(authID, email string) (*mockauth.UserRecord, error)

	// DeleteAllForAuth removes every record under an auth definition.
	DeleteAllForAuth(authID string) int
}

// AccountStore stores platform accounts.
type AccountStore interface {
	// Create stores a new account. Returns ErrDuplicate when the email
	// or handle is already taken.
	Create(a *account.Account) error

	// Get retrieves an account by ID.
	Get(id string) (*account.Account, error)

	// GetByEmail retrieves an account by email.
	GetByEmail(email string) (*account.Account, error)

	// GetByHandle retrieves an account by public handle.
	GetByHandle(handle string) (*account.Account, error)

	// Update replaces a stored account.
	Update(a *account.Account) error
}

// ResetTokenStore stores hashed password-reset tokens.
type ResetTokenStore interface {
	// Insert stores a token record.
	Insert(t *account.ResetToken)

	// Consume retrieves and removes the token matching hash. Expired
	// tokens are treated as not found.
	Consume(hash []byte) (*account.ResetToken, error)

	// DeleteAllForAccount removes every token for an account.
	DeleteAllForAccount(accountID string)
}
