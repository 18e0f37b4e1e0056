package storage

import (
	"bytes"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

// The stores hand out copies, never their live records. A caller may
// mutate a returned value freely (say, applying an update that is then
// rejected) without the change reaching stored state until Update, and
// concurrent readers never observe a half-applied write. Response
// payloads are shared by the copies; nothing mutates them in place,
// updates replace the whole value.

func cloneDefinition(d *mockdef.Definition) *mockdef.Definition {
	c := *d
	return &c
}

func cloneAuthDefinition(d *mockauth.Definition) *mockauth.Definition {
	c := *d
	c.Fields = slices.Clone(d.Fields)
	return &c
}

func cloneUserRecord(u *mockauth.UserRecord) *mockauth.UserRecord {
	c := *u
	c.Data = maps.Clone(u.Data)
	return &c
}

func cloneAccount(a *account.Account) *account.Account {
	c := *a
	c.PasswordHash = slices.Clone(a.PasswordHash)
	return &c
}

// MemoryDefinitionStore is a thread-safe in-memory DefinitionStore.
type MemoryDefinitionStore struct {
	mu   sync.RWMutex
	defs map[string]*mockdef.Definition
}

// NewMemoryDefinitionStore creates an empty MemoryDefinitionStore.
func NewMemoryDefinitionStore() *MemoryDefinitionStore {
	return &MemoryDefinitionStore{defs: make(map[string]*mockdef.Definition)}
}

func (s *MemoryDefinitionStore) Create(d *mockdef.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.defs {
		if existing.OwnerID == d.OwnerID && existing.Route == d.Route && existing.Method == d.Method {
			return ErrDuplicate
		}
	}
	s.defs[d.ID] = cloneDefinition(d)
	return nil
}

func (s *MemoryDefinitionStore) Get(id string) (*mockdef.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDefinition(d), nil
}

func (s *MemoryDefinitionStore) GetByRoute(ownerID, route, method string) (*mockdef.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.defs {
		if d.OwnerID == ownerID && d.Route == route && d.Method == method {
			return cloneDefinition(d), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryDefinitionStore) ListByOwner(ownerID string) []*mockdef.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*mockdef.Definition, 0)
	for _, d := range s.defs {
		if d.OwnerID == ownerID {
			result = append(result, cloneDefinition(d))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *MemoryDefinitionStore) Update(d *mockdef.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[d.ID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.defs {
		if existing.ID != d.ID && existing.OwnerID == d.OwnerID &&
			existing.Route == d.Route && existing.Method == d.Method {
			return ErrDuplicate
		}
	}
	s.defs[d.ID] = cloneDefinition(d)
	return nil
}

func (s *MemoryDefinitionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[id]; !ok {
		return ErrNotFound
	}
	delete(s.defs, id)
	return nil
}

func (s *MemoryDefinitionStore) DeleteAllForOwner(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, d := range s.defs {
		if d.OwnerID == ownerID {
			delete(s.defs, id)
			n++
		}
	}
	return n
}

// All returns every stored definition. Used by persistence snapshots.
func (s *MemoryDefinitionStore) All() []*mockdef.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*mockdef.Definition, 0, len(s.defs))
	for _, d := range s.defs {
		result = append(result, cloneDefinition(d))
	}
	return result
}

var _ DefinitionStore = (*MemoryDefinitionStore)(nil)

// MemoryAuthDefinitionStore is a thread-safe in-memory AuthDefinitionStore.
type MemoryAuthDefinitionStore struct {
	mu   sync.RWMutex
	defs map[string]*mockauth.Definition

	// users is notified on Delete so synthetic records do not outlive
	// their schema. May be nil.
	users MockUserStore
}

// NewMemoryAuthDefinitionStore creates an empty MemoryAuthDefinitionStore.
// When users is non-nil, deleting a definition also deletes its users.
func NewMemoryAuthDefinitionStore(users MockUserStore) *MemoryAuthDefinitionStore {
	return &MemoryAuthDefinitionStore{
		defs:  make(map[string]*mockauth.Definition),
		users: users,
	}
}

func (s *MemoryAuthDefinitionStore) Create(d *mockauth.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.defs {
		if existing.OwnerID == d.OwnerID && existing.Endpoint == d.Endpoint {
			return ErrDuplicate
		}
	}
	s.defs[d.ID] = cloneAuthDefinition(d)
	return nil
}

func (s *MemoryAuthDefinitionStore) Get(id string) (*mockauth.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAuthDefinition(d), nil
}

func (s *MemoryAuthDefinitionStore) GetByEndpoint(ownerID, endpoint string) (*mockauth.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.defs {
		if d.OwnerID == ownerID && d.Endpoint == endpoint {
			return cloneAuthDefinition(d), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryAuthDefinitionStore) ListByOwner(ownerID string) []*mockauth.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*mockauth.Definition, 0)
	for _, d := range s.defs {
		if d.OwnerID == ownerID {
			result = append(result, cloneAuthDefinition(d))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *MemoryAuthDefinitionStore) Update(d *mockauth.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[d.ID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.defs {
		if existing.ID != d.ID && existing.OwnerID == d.OwnerID && existing.Endpoint == d.Endpoint {
			return ErrDuplicate
		}
	}
	s.defs[d.ID] = cloneAuthDefinition(d)
	return nil
}

func (s *MemoryAuthDefinitionStore) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.defs[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.defs, id)
	users := s.users
	s.mu.Unlock()

	if users != nil {
		users.DeleteAllForAuth(id)
	}
	return nil
}

// All returns every stored auth definition. Used by persistence snapshots.
func (s *MemoryAuthDefinitionStore) All() []*mockauth.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*mockauth.Definition, 0, len(s.defs))
	for _, d := range s.defs {
		result = append(result, cloneAuthDefinition(d))
	}
	return result
}

var _ AuthDefinitionStore = (*MemoryAuthDefinitionStore)(nil)

// MemoryMockUserStore is a thread-safe in-memory MockUserStore.
type MemoryMockUserStore struct {
	mu    sync.RWMutex
	users map[string]*mockauth.UserRecord
}

// NewMemoryMockUserStore creates an empty MemoryMockUserStore.
func NewMemoryMockUserStore() *MemoryMockUserStore {
	return &MemoryMockUserStore{users: make(map[string]*mockauth.UserRecord)}
}

func (s *MemoryMockUserStore) Create(u *mockauth.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.AuthID == u.AuthID && strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	s.users[u.ID] = cloneUserRecord(u)
	return nil
}

func (s *MemoryMockUserStore) Get(id string) (*mockauth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUserRecord(u), nil
}

func (s *MemoryMockUserStore) GetByEmail(authID, email string) (*mockauth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.AuthID == authID && strings.EqualFold(u.Email, email) {
			return cloneUserRecord(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryMockUserStore) DeleteAllForAuth(authID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, u := range s.users {
		if u.AuthID == authID {
			delete(s.users, id)
			n++
		}
	}
	return n
}

// All returns every stored record. Used by persistence snapshots.
func (s *MemoryMockUserStore) All() []*mockauth.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*mockauth.UserRecord, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, cloneUserRecord(u))
	}
	return result
}

var _ MockUserStore = (*MemoryMockUserStore)(nil)

// MemoryAccountStore is a thread-safe in-memory AccountStore.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
}

// NewMemoryAccountStore creates an empty MemoryAccountStore.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]*account.Account)}
}

func (s *MemoryAccountStore) Create(a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, a.Email) || existing.Handle == a.Handle {
			return ErrDuplicate
		}
	}
	s.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (s *MemoryAccountStore) Get(id string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *MemoryAccountStore) GetByEmail(email string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return cloneAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryAccountStore) GetByHandle(handle string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Handle == handle {
			return cloneAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryAccountStore) Update(a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ErrNotFound
	}
	s.accounts[a.ID] = cloneAccount(a)
	return nil
}

// All returns every stored account. Used by persistence snapshots.
func (s *MemoryAccountStore) All() []*account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, cloneAccount(a))
	}
	return result
}

var _ AccountStore = (*MemoryAccountStore)(nil)

// MemoryResetTokenStore is a thread-safe in-memory ResetTokenStore.
type MemoryResetTokenStore struct {
	mu     sync.Mutex
	tokens []*account.ResetToken
}

// NewMemoryResetTokenStore creates an empty MemoryResetTokenStore.
func NewMemoryResetTokenStore() *MemoryResetTokenStore {
	return &MemoryResetTokenStore{}
}

func (s *MemoryResetTokenStore) Insert(t *account.ResetToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, t)
}

func (s *MemoryResetTokenStore) Consume(hash []byte) (*account.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tokens {
		if bytes.Equal(t.Hash, hash) {
			s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
			if t.Expired() {
				return nil, ErrNotFound
			}
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryResetTokenStore) DeleteAllForAccount(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tokens[:0]
	for _, t := range s.tokens {
		if t.AccountID != accountID {
			kept = append(kept, t)
		}
	}
	s.tokens = kept
}

var _ ResetTokenStore = (*MemoryResetTokenStore)(nil)
