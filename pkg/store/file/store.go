// Package file persists the in-memory record stores to a single JSON
// file with debounced background saves. Reset tokens are deliberately
// not persisted; they are short-lived and cheap to re-request.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

// dataVersion is the current data format version, for future migrations.
const dataVersion = 1

// saveDebounce batches rapid mutations into one disk write.
const saveDebounce = 500 * time.Millisecond

// Store wraps the in-memory stores with JSON-file persistence. Mutating
// operations mark the store dirty; a background goroutine writes the
// snapshot after a short debounce.
type Store struct {
	path string
	log  *slog.Logger

	defs      *storage.MemoryDefinitionStore
	auths     *storage.MemoryAuthDefinitionStore
	mockUsers *storage.MemoryMockUserStore
	accounts  *storage.MemoryAccountStore

	saveMu    sync.Mutex
	dirty     atomic.Bool
	saveCh    chan struct{}
	closeCh   chan struct{}
	closedCh  chan struct{}
	closeOnce sync.Once
}

// fileData is the persisted snapshot shape.
type fileData struct {
	Version         int                    `json:"version"`
	Accounts        []persistedAccount     `json:"accounts,omitempty"`
	Definitions     []*mockdef.Definition  `json:"definitions,omitempty"`
	AuthDefinitions []*mockauth.Definition `json:"authDefinitions,omitempty"`
	MockUsers       []*mockauth.UserRecord `json:"mockUsers,omitempty"`
}

// persistedAccount carries the password hash, which the API-facing
// account type never serializes.
type persistedAccount struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// New creates a Store persisting to path.
func New(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	mockUsers := storage.NewMemoryMockUserStore()
	s := &Store{
		path:      path,
		log:       log,
		defs:      storage.NewMemoryDefinitionStore(),
		auths:     storage.NewMemoryAuthDefinitionStore(mockUsers),
		mockUsers: mockUsers,
		accounts:  storage.NewMemoryAccountStore(),
		saveCh:    make(chan struct{}, 1),
		closeCh:   make(chan struct{}),
		closedCh:  make(chan struct{}),
	}
	go s.saveLoop()
	return s
}

// Open loads the snapshot from disk. A missing file is a fresh start,
// not an error.
func (s *Store) Open(_ context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading data file: %w", err)
	}

	var snapshot fileData
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("parsing data file: %w", err)
	}

	for _, pa := range snapshot.Accounts {
		a := &account.Account{
			ID:           pa.ID,
			Handle:       pa.Handle,
			Name:         pa.Name,
			Email:        pa.Email,
			PasswordHash: pa.PasswordHash,
			CreatedAt:    pa.CreatedAt,
			UpdatedAt:    pa.UpdatedAt,
		}
		if err := s.accounts.Create(a); err != nil {
			s.log.Warn("skipping duplicate account in data file", "id", pa.ID)
		}
	}
	for _, d := range snapshot.Definitions {
		if err := s.defs.Create(d); err != nil {
			s.log.Warn("skipping duplicate definition in data file", "id", d.ID)
		}
	}
	for _, d := range snapshot.AuthDefinitions {
		if err := s.auths.Create(d); err != nil {
			s.log.Warn("skipping duplicate auth definition in data file", "id", d.ID)
		}
	}
	for _, u := range snapshot.MockUsers {
		if err := s.mockUsers.Create(u); err != nil {
			s.log.Warn("skipping duplicate mock user in data file", "id", u.ID)
		}
	}

	s.log.Info("data file loaded",
		"accounts", len(snapshot.Accounts),
		"definitions", len(snapshot.Definitions),
		"authDefinitions", len(snapshot.AuthDefinitions),
		"mockUsers", len(snapshot.MockUsers),
	)
	return nil
}

// Definitions returns the persisted definition store.
func (s *Store) Definitions() storage.DefinitionStore {
	return &definitionStore{inner: s.defs, st: s}
}

// AuthDefinitions returns the persisted auth definition store.
func (s *Store) AuthDefinitions() storage.AuthDefinitionStore {
	return &authDefinitionStore{inner: s.auths, st: s}
}

// MockUsers returns the persisted mock user store.
func (s *Store) MockUsers() storage.MockUserStore {
	return &mockUserStore{inner: s.mockUsers, st: s}
}

// Accounts returns the persisted account store.
func (s *Store) Accounts() storage.AccountStore {
	return &accountStore{inner: s.accounts, st: s}
}

// Close flushes pending changes and stops the save goroutine.
func (s *Store) Close(_ context.Context) error {
	s.closeOnce.Do(func() { close(s.closeCh) })
	<-s.closedCh
	return nil
}

// requestSave marks the store dirty and nudges the save goroutine.
func (s *Store) requestSave() {
	s.dirty.Store(true)
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

// saveLoop debounces save requests and performs the final save on close.
func (s *Store) saveLoop() {
	defer close(s.closedCh)
	var timer *time.Timer
	for {
		select {
		case <-s.saveCh:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(saveDebounce, func() {
				if s.dirty.Swap(false) {
					if err := s.doSave(); err != nil {
						s.log.Error("failed to save data file", "error", err)
						s.dirty.Store(true)
					}
				}
			})
		case <-s.closeCh:
			if timer != nil {
				timer.Stop()
			}
			if s.dirty.Swap(false) {
				if err := s.doSave(); err != nil {
					s.log.Error("failed to save data file on close", "error", err)
				}
			}
			return
		}
	}
}

// doSave writes the snapshot atomically (temp file + rename).
func (s *Store) doSave() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := fileData{Version: dataVersion}
	for _, a := range s.accounts.All() {
		snapshot.Accounts = append(snapshot.Accounts, persistedAccount{
			ID:           a.ID,
			Handle:       a.Handle,
			Name:         a.Name,
			Email:        a.Email,
			PasswordHash: a.PasswordHash,
			CreatedAt:    a.CreatedAt,
			UpdatedAt:    a.UpdatedAt,
		})
	}
	snapshot.Definitions = s.defs.All()
	snapshot.AuthDefinitions = s.auths.All()
	snapshot.MockUsers = s.mockUsers.All()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".fauxsmith-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing data file: %w", err)
	}
	return nil
}
