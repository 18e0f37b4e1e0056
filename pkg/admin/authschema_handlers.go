package admin

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fauxsmith/fauxsmith/internal/id"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
)

type authEndpointRequest struct {
	Endpoint string           `json:"endpoint"`
	Fields   []mockauth.Field `json:"fields"`
}

func (a *API) handleListAuthEndpoints(w http.ResponseWriter, r *http.Request) {
	defs := a.stores.AuthDefs.ListByOwner(accountIDFrom(r.Context()))
	httputil.WriteOK(w, defs, fmt.Sprintf("%d auth endpoint(s)", len(defs)))
}

func (a *API) handleCreateAuthEndpoint(w http.ResponseWriter, r *http.Request) {
	var req authEndpointRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	def := &mockauth.Definition{
		ID:        id.New(),
		OwnerID:   accountIDFrom(r.Context()),
		Endpoint:  req.Endpoint,
		Fields:    req.Fields,
		CreatedAt: time.Now().UTC(),
	}
	def.UpdatedAt = def.CreatedAt

	if err := def.Validate(); err != nil {
		httputil.WriteValidationErrors(w, []string{err.Error()})
		return
	}

	if err := a.stores.AuthDefs.Create(def); err != nil {
		a.writeStoreError(w, err, "auth endpoint not found", "an auth endpoint with this name already exists")
		return
	}

	a.log.Info("auth endpoint created", "authId", def.ID, "endpoint", def.Endpoint)
	httputil.WriteCreated(w, def, "auth endpoint created")
}

func (a *API) handleGetAuthEndpoint(w http.ResponseWriter, r *http.Request) {
	def, ok := a.ownedAuthDefinition(w, r)
	if !ok {
		return
	}
	httputil.WriteOK(w, def, "")
}

func (a *API) handleUpdateAuthEndpoint(w http.ResponseWriter, r *http.Request) {
	def, ok := a.ownedAuthDefinition(w, r)
	if !ok {
		return
	}

	var req authEndpointRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	def.Endpoint = req.Endpoint
	def.Fields = req.Fields
	if err := def.Validate(); err != nil {
		httputil.WriteValidationErrors(w, []string{err.Error()})
		return
	}
	def.UpdatedAt = time.Now().UTC()

	if err := a.stores.AuthDefs.Update(def); err != nil {
		a.writeStoreError(w, err, "auth endpoint not found", "an auth endpoint with this name already exists")
		return
	}

	a.log.Info("auth endpoint updated", "authId", def.ID, "endpoint", def.Endpoint)
	httputil.WriteOK(w, def, "auth endpoint updated")
}

func (a *API) handleDeleteAuthEndpoint(w http.ResponseWriter, r *http.Request) {
	def, ok := a.ownedAuthDefinition(w, r)
	if !ok {
		return
	}
	// Deleting the endpoint cascades to its synthetic users in the store.
	if err := a.stores.AuthDefs.Delete(def.ID); err != nil {
		a.writeStoreError(w, err, "auth endpoint not found", "")
		return
	}
	a.log.Info("auth endpoint deleted", "authId", def.ID, "endpoint", def.Endpoint)
	httputil.WriteOK(w, nil, "auth endpoint deleted")
}

func (a *API) ownedAuthDefinition(w http.ResponseWriter, r *http.Request) (*mockauth.Definition, bool) {
	def, err := a.stores.AuthDefs.Get(r.PathValue("id"))
	if err != nil || def.OwnerID != accountIDFrom(r.Context()) {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			a.log.Error("loading auth endpoint", "error", err)
			httputil.WriteInternalError(w)
			return nil, false
		}
		httputil.WriteNotFound(w, "auth endpoint not found")
		return nil, false
	}
	return def, true
}
