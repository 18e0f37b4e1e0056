package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fauxsmith/fauxsmith/internal/id"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/config"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

type seedStores struct {
	accounts storage.AccountStore
	defs     storage.DefinitionStore
	auths    storage.AuthDefinitionStore
}

// seedFixtures loads every fixture file matching the glob and upserts
// its mocks and auth endpoints. Owner accounts are created on first use
// with a random password; fixtures are for serving, not logging in.
func seedFixtures(pattern string, stores seedStores, log *slog.Logger) error {
	files, err := config.LoadFixtures(pattern)
	if err != nil {
		return err
	}

	for _, f := range files {
		acct, err := ensureAccount(stores.accounts, f.Owner)
		if err != nil {
			return fmt.Errorf("fixture owner %q: %w", f.Owner, err)
		}

		for _, m := range f.Mocks {
			if err := upsertMock(stores.defs, acct.ID, m.Params()); err != nil {
				return fmt.Errorf("fixture mock %q: %w", m.Route, err)
			}
		}
		for _, a := range f.AuthEndpoints {
			if err := upsertAuthEndpoint(stores.auths, acct.ID, a); err != nil {
				return fmt.Errorf("fixture auth endpoint %q: %w", a.Endpoint, err)
			}
		}

		log.Info("fixtures loaded",
			"owner", f.Owner,
			"mocks", len(f.Mocks),
			"authEndpoints", len(f.AuthEndpoints),
		)
	}
	return nil
}

func ensureAccount(accounts storage.AccountStore, handle string) (*account.Account, error) {
	acct, err := accounts.GetByHandle(handle)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	acct = &account.Account{
		ID:        id.New(),
		Handle:    handle,
		Name:      handle,
		Email:     fmt.Sprintf("%s@fixtures.local", handle),
		CreatedAt: time.Now().UTC(),
	}
	acct.UpdatedAt = acct.CreatedAt
	if err := acct.SetPassword(id.Short()); err != nil {
		return nil, err
	}
	if err := accounts.Create(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func upsertMock(defs storage.DefinitionStore, ownerID string, p mockdef.Params) error {
	method := p.Method
	if method == "" {
		method = "GET"
	}
	existing, err := defs.GetByRoute(ownerID, p.Route, method)
	if err == nil {
		if err := existing.Update(p); err != nil {
			return err
		}
		return defs.Update(existing)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	def, err := mockdef.New(id.New, ownerID, p)
	if err != nil {
		return err
	}
	return defs.Create(def)
}

func upsertAuthEndpoint(auths storage.AuthDefinitionStore, ownerID string, f config.FixtureAuthEndpoint) error {
	existing, err := auths.GetByEndpoint(ownerID, f.Endpoint)
	if err == nil {
		existing.Fields = f.Fields
		existing.UpdatedAt = time.Now().UTC()
		if err := existing.Validate(); err != nil {
			return err
		}
		return auths.Update(existing)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	def := &mockauth.Definition{
		ID:        id.New(),
		OwnerID:   ownerID,
		Endpoint:  f.Endpoint,
		Fields:    f.Fields,
		CreatedAt: time.Now().UTC(),
	}
	def.UpdatedAt = def.CreatedAt
	if err := def.Validate(); err != nil {
		return err
	}
	return auths.Create(def)
}
