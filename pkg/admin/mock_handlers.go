package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fauxsmith/fauxsmith/internal/id"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

func (a *API) handleListMocks(w http.ResponseWriter, r *http.Request) {
	defs := a.stores.Definitions.ListByOwner(accountIDFrom(r.Context()))
	httputil.WriteOK(w, defs, fmt.Sprintf("%d mock(s)", len(defs)))
}

func (a *API) handleCreateMock(w http.ResponseWriter, r *http.Request) {
	var params mockdef.Params
	if err := httputil.DecodeJSON(w, r, &params); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	def, err := mockdef.New(id.New, accountIDFrom(r.Context()), params)
	if err != nil {
		writeDefinitionError(w, err)
		return
	}

	if err := a.stores.Definitions.Create(def); err != nil {
		a.writeStoreError(w, err, "mock not found", "a mock with this route and method already exists")
		return
	}

	a.log.Info("mock created", "mockId", def.ID, "route", def.Route)
	httputil.WriteCreated(w, def, "mock created")
}

func (a *API) handleGetMock(w http.ResponseWriter, r *http.Request) {
	def, ok := a.ownedDefinition(w, r)
	if !ok {
		return
	}
	httputil.WriteOK(w, def, "")
}

func (a *API) handleUpdateMock(w http.ResponseWriter, r *http.Request) {
	def, ok := a.ownedDefinition(w, r)
	if !ok {
		return
	}

	var params mockdef.Params
	if err := httputil.DecodeJSON(w, r, &params); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := def.Update(params); err != nil {
		writeDefinitionError(w, err)
		return
	}

	if err := a.stores.Definitions.Update(def); err != nil {
		a.writeStoreError(w, err, "mock not found", "a mock with this route and method already exists")
		return
	}

	a.log.Info("mock updated", "mockId", def.ID, "route", def.Route)
	httputil.WriteOK(w, def, "mock updated")
}

func (a *API) handleDeleteMock(w http.ResponseWriter, r *http.Request) {
	def, ok := a.ownedDefinition(w, r)
	if !ok {
		return
	}
	if err := a.stores.Definitions.Delete(def.ID); err != nil {
		a.writeStoreError(w, err, "mock not found", "")
		return
	}
	a.log.Info("mock deleted", "mockId", def.ID, "route", def.Route)
	httputil.WriteOK(w, nil, "mock deleted")
}

func (a *API) handleDeleteAllMocks(w http.ResponseWriter, r *http.Request) {
	n := a.stores.Definitions.DeleteAllForOwner(accountIDFrom(r.Context()))
	a.log.Info("mocks deleted", "count", n)
	httputil.WriteOK(w, map[string]any{"deleted": n}, fmt.Sprintf("%d mock(s) deleted", n))
}

// ownedDefinition loads the path's definition and checks it belongs to
// the authenticated account. A foreign ID reads as not found.
func (a *API) ownedDefinition(w http.ResponseWriter, r *http.Request) (*mockdef.Definition, bool) {
	def, err := a.stores.Definitions.Get(r.PathValue("id"))
	if err != nil || def.OwnerID != accountIDFrom(r.Context()) {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			a.log.Error("loading mock", "error", err)
			httputil.WriteInternalError(w)
			return nil, false
		}
		httputil.WriteNotFound(w, "mock not found")
		return nil, false
	}
	return def, true
}

func writeDefinitionError(w http.ResponseWriter, err error) {
	var verr *mockdef.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteValidationErrors(w, []string{verr.Message})
		return
	}
	httputil.WriteBadRequest(w, err.Error())
}
