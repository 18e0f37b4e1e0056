package admin

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fauxsmith/fauxsmith/internal/id"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
	"github.com/fauxsmith/fauxsmith/pkg/openapi"
)

// handleImportOpenAPI accepts a raw OpenAPI 3 document and creates one
// mock per documented operation. Routes that already exist are skipped
// and reported, not overwritten.
func (a *API) handleImportOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		httputil.WriteBadRequest(w, "could not read request body")
		return
	}

	paramsList, err := openapi.Import(r.Context(), doc)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	ownerID := accountIDFrom(r.Context())
	var created []*mockdef.Definition
	var skipped []string

	for _, params := range paramsList {
		def, err := mockdef.New(id.New, ownerID, params)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s %s: %v", params.Method, params.Route, err))
			continue
		}
		if err := a.stores.Definitions.Create(def); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				skipped = append(skipped, fmt.Sprintf("%s %s: already exists", def.Method, def.Route))
				continue
			}
			a.log.Error("storing imported mock", "error", err)
			httputil.WriteInternalError(w)
			return
		}
		created = append(created, def)
	}

	a.log.Info("openapi import", "created", len(created), "skipped", len(skipped))
	httputil.WriteCreated(w, map[string]any{
		"created": created,
		"skipped": skipped,
	}, fmt.Sprintf("%d mock(s) imported", len(created)))
}
