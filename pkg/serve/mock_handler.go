package serve

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/resolver"
)

// handleMock serves a stored mock definition: look up by owner handle
// and route, resolve against the query string, honor the artificial
// delay, then write the shaped payload verbatim (no envelope; consumers
// get exactly the fixture shape they configured).
func (e *Engine) handleMock(w http.ResponseWriter, r *http.Request) {
	ownerID, err := e.ownerByHandle(r.PathValue("owner"))
	if err != nil {
		e.writeNotFound(w, err, "unknown owner")
		return
	}

	route := r.PathValue("route")
	def, err := e.stores.Definitions.GetByRoute(ownerID, route, http.MethodGet)
	if err != nil {
		e.writeNotFound(w, err, "no mock at this route")
		return
	}

	result := resolver.Resolve(def, r.URL.Query())

	if result.Delay > 0 {
		if err := resolver.Sleep(r.Context(), result.Delay); err != nil {
			// Client went away during the simulated delay; nothing to write.
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.Status)
	if err := json.NewEncoder(w).Encode(result.Body); err != nil {
		e.log.Error("writing mock response", "route", route, "error", err)
	}
}

func (e *Engine) writeNotFound(w http.ResponseWriter, err error, msg string) {
	if !errors.Is(err, storage.ErrNotFound) {
		e.log.Error("mock lookup failed", "error", err)
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteNotFound(w, msg)
}
