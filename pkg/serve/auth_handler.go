package serve

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fauxsmith/fauxsmith/internal/id"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/token"
)

// authFailureMsg is returned for every mock login failure, so a caller
// cannot tell an unknown email from a wrong password.
const authFailureMsg = "invalid email or password"

// authDefinition resolves the path's owner handle and endpoint name to
// the stored auth definition.
func (e *Engine) authDefinition(w http.ResponseWriter, r *http.Request) (*mockauth.Definition, bool) {
	ownerID, err := e.ownerByHandle(r.PathValue("owner"))
	if err != nil {
		e.writeNotFound(w, err, "unknown owner")
		return nil, false
	}
	def, err := e.stores.AuthDefs.GetByEndpoint(ownerID, r.PathValue("endpoint"))
	if err != nil {
		e.writeNotFound(w, err, "unknown auth endpoint")
		return nil, false
	}
	return def, true
}

// handleSignup validates the payload against the endpoint's field schema
// and persists a synthetic user. Every violation is reported in one
// response; validation never stops at the first failure.
func (e *Engine) handleSignup(w http.ResponseWriter, r *http.Request) {
	def, ok := e.authDefinition(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if err := httputil.DecodeJSON(w, r, &payload); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	errs := mockauth.CredentialErrors(payload)
	errs = append(errs, mockauth.ValidateSignup(def.Fields, payload)...)
	if len(errs) > 0 {
		httputil.WriteValidationErrors(w, errs)
		return
	}

	email, _ := mockauth.Credentials(payload)
	user := &mockauth.UserRecord{
		ID:        id.New(),
		AuthID:    def.ID,
		Email:     strings.TrimSpace(email),
		Data:      payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := e.stores.MockUsers.Create(user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httputil.WriteConflict(w, "email already registered")
			return
		}
		e.log.Error("storing mock user", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	raw, err := e.issuer.Issue(user.ID, token.AudienceMockUser)
	if err != nil {
		e.log.Error("issuing mock user token", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	e.log.Info("mock user created", "endpoint", def.Endpoint, "userId", user.ID)
	httputil.WriteCreated(w, map[string]any{
		"token": raw,
		"user":  user.Sanitized(),
	}, "signed up")
}

// handleLogin authenticates a synthetic user. The stored signup payload
// is fixture data, so the comparison is a plain string match against
// what was submitted at signup.
func (e *Engine) handleLogin(w http.ResponseWriter, r *http.Request) {
	def, ok := e.authDefinition(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if err := httputil.DecodeJSON(w, r, &payload); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if errs := mockauth.CredentialErrors(payload); len(errs) > 0 {
		httputil.WriteValidationErrors(w, errs)
		return
	}

	email, password := mockauth.Credentials(payload)
	user, err := e.stores.MockUsers.GetByEmail(def.ID, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteUnauthorized(w, authFailureMsg)
			return
		}
		e.log.Error("looking up mock user", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	stored, _ := user.Data["password"].(string)
	if stored == "" || stored != password {
		httputil.WriteUnauthorized(w, authFailureMsg)
		return
	}

	raw, err := e.issuer.Issue(user.ID, token.AudienceMockUser)
	if err != nil {
		e.log.Error("issuing mock user token", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteOK(w, map[string]any{
		"token": raw,
		"user":  user.Sanitized(),
	}, "logged in")
}

// handleProfile returns a synthetic user's record, password stripped.
// The bearer token must belong to the requested user.
func (e *Engine) handleProfile(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		httputil.WriteUnauthorized(w, "missing or malformed authorization header")
		return
	}

	claims, err := e.issuer.Verify(parts[1], token.AudienceMockUser)
	if err != nil {
		httputil.WriteUnauthorized(w, "invalid or expired token")
		return
	}

	userID := r.PathValue("userId")
	if claims.Subject != userID {
		httputil.WriteUnauthorized(w, "token does not match this user")
		return
	}

	user, err := e.stores.MockUsers.Get(userID)
	if err != nil {
		e.writeNotFound(w, err, "user not found")
		return
	}

	httputil.WriteOK(w, user.Sanitized(), "")
}
