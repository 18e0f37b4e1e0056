package file

import (
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

// The wrapper types delegate to the in-memory stores and request a
// debounced save after every successful mutation.

type definitionStore struct {
	inner storage.DefinitionStore
	st    *Store
}

func (w *definitionStore) Create(d *mockdef.Definition) error {
	if err := w.inner.Create(d); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

func (w *definitionStore) Get(id string) (*mockdef.Definition, error) {
	return w.inner.Get(id)
}

func (w *definitionStore) GetByRoute(ownerID, route, method string) (*mockdef.Definition, error) {
	return w.inner.GetByRoute(ownerID, route, method)
}

func (w *definitionStore) ListByOwner(ownerID string) []*mockdef.Definition {
	return w.inner.ListByOwner(ownerID)
}

func (w *definitionStore) Update(d *mockdef.Definition) error {
	if err := w.inner.Update(d); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

func (w *definitionStore) Delete(id string) error {
	if err := w.inner.Delete(id); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

func (w *definitionStore) DeleteAllForOwner(ownerID string) int {
	n := w.inner.DeleteAllForOwner(ownerID)
	if n > 0 {
		w.st.requestSave()
	}
	return n
}

var _ storage.DefinitionStore = (*definitionStore)(nil)

type authDefinitionStore struct {
	inner storage.AuthDefinitionStore
	st    *Store
}

func (w *authDefinitionStore) Create(d *mockauth.Definition) error {
	if err := w.inner.Create(d); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

func (w *authDefinitionStore) Get(id string) (*mockauth.Definition, error) {
	return w.inner.Get(id)
}

func (w *authDefinitionStore) GetByEndpoint(ownerID, endpoint string) (*mockauth.Definition, error) {
	return w.inner.GetByEndpoint(ownerID, endpoint)
}

func (w *authDefinitionStore) ListByOwner(ownerID string) []*mockauth.Definition {
	return w.inner.ListByOwner(ownerID)
}

func (w *authDefinitionStore) Update(d *mockauth.Definition) error {
	if err := w.inner.Update(d); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

func (w *authDefinitionStore) Delete(id string) error {
	if err := w.inner.Delete(id); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

var _ storage.AuthDefinitionStore = (*authDefinitionStore)(nil)

type mockUserStore struct {
	inner storage.MockUserStore
	st    *Store
}

func (w *mockUserStore) Create(u *mockauth.UserRecord) error {
	if err := w.inner.Create(u); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

func (w *mockUserStore) Get(id string) (*mockauth.UserRecord, error) {
	return w.inner.Get(id)
}

func (w *mockUserStore) GetByEmail(authID, email string) (*mockauth.UserRecord, error) {
	return w.inner.GetByEmail(authID, email)
}

func (w *mockUserStore) DeleteAllForAuth(authID string) int {
	n := w.inner.DeleteAllForAuth(authID)
	if n > 0 {
		w.st.requestSave()
	}
	return n
}

var _ storage.MockUserStore = (*mockUserStore)(nil)

type accountStore struct {
	inner storage.AccountStore
	st    *Store
}

func (w *accountStore) Create(a *account.Account) error {
	if err := w.inner.Create(a); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

func (w *accountStore) Get(id string) (*account.Account, error) {
	return w.inner.Get(id)
}

func (w *accountStore) GetByEmail(email string) (*account.Account, error) {
	return w.inner.GetByEmail(email)
}

func (w *accountStore) GetByHandle(handle string) (*account.Account, error) {
	return w.inner.GetByHandle(handle)
}

func (w *accountStore) Update(a *account.Account) error {
	if err := w.inner.Update(a); err != nil {
		return err
	}
	w.st.requestSave()
	return nil
}

var _ storage.AccountStore = (*accountStore)(nil)
