package admin

import (
	"errors"
	"net/http"

	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
)

// writeStoreError maps store errors onto HTTP responses without leaking
// internal detail.
func (a *API) writeStoreError(w http.ResponseWriter, err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httputil.WriteNotFound(w, notFoundMsg)
	case errors.Is(err, storage.ErrDuplicate):
		httputil.WriteConflict(w, conflictMsg)
	default:
		a.log.Error("store operation failed", "error", err)
		httputil.WriteInternalError(w)
	}
}
