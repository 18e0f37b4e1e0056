package admin

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fauxsmith/fauxsmith/internal/id"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/token"
)

// invalidCredentialsMsg is returned for every login failure. Unknown
// email and wrong password are indistinguishable to the caller.
const invalidCredentialsMsg = "invalid email or password"

var handleRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,31}$`)

type signupRequest struct {
	Handle   string `json:"handle"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	req.Handle = strings.ToLower(strings.TrimSpace(req.Handle))
	req.Email = strings.TrimSpace(req.Email)

	var errs []string
	if !handleRegex.MatchString(req.Handle) {
		errs = append(errs, "handle must be 3-32 characters: lowercase letters, digits, '-' or '_'")
	}
	if req.Name == "" {
		errs = append(errs, "name is required")
	}
	if !account.ValidEmail(req.Email) {
		errs = append(errs, "a valid email address is required")
	}
	if len(errs) > 0 {
		httputil.WriteValidationErrors(w, errs)
		return
	}

	acct := &account.Account{
		ID:        id.New(),
		Handle:    req.Handle,
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	acct.UpdatedAt = acct.CreatedAt
	if err := acct.SetPassword(req.Password); err != nil {
		httputil.WriteValidationErrors(w, []string{err.Error()})
		return
	}

	if err := a.stores.Accounts.Create(acct); err != nil {
		a.writeStoreError(w, err, "account not found", "email or handle already in use")
		return
	}

	if a.mailer.Enabled() {
		go func() {
			if err := a.mailer.Send(acct.Email, "welcome.tmpl", map[string]any{
				"name":   acct.Name,
				"handle": acct.Handle,
			}); err != nil {
				a.log.Error("sending welcome email", "error", err)
			}
		}()
	}

	a.log.Info("account created", "accountId", acct.ID, "handle", acct.Handle)
	httputil.WriteCreated(w, acct, "account created")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	acct, err := a.stores.Accounts.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteUnauthorized(w, invalidCredentialsMsg)
			return
		}
		a.log.Error("looking up account", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	match, err := acct.PasswordMatches(req.Password)
	if err != nil {
		a.log.Error("comparing password", "error", err)
		httputil.WriteInternalError(w)
		return
	}
	if !match {
		httputil.WriteUnauthorized(w, invalidCredentialsMsg)
		return
	}

	raw, err := a.issuer.Issue(acct.ID, token.AudienceAccount)
	if err != nil {
		a.log.Error("issuing token", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteOK(w, map[string]any{
		"token":   raw,
		"account": acct,
	}, "logged in")
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw, _ := bearerToken(r)
	claims, err := a.issuer.Verify(raw, token.AudienceAccount)
	if err != nil {
		httputil.WriteUnauthorized(w, "invalid or expired token")
		return
	}
	a.issuer.Revoke(claims)
	httputil.WriteOK(w, nil, "logged out")
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	acct, err := a.stores.Accounts.Get(accountIDFrom(r.Context()))
	if err != nil {
		a.writeStoreError(w, err, "account not found", "")
		return
	}
	httputil.WriteOK(w, acct, "")
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	// Always answer 200 so the endpoint cannot be used to probe which
	// emails are registered.
	const accepted = "if that email is registered, a reset link is on its way"

	acct, err := a.stores.Accounts.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.log.Error("looking up account", "error", err)
		}
		httputil.WriteOK(w, nil, accepted)
		return
	}

	plaintext, record, err := account.NewResetToken(acct.ID, account.ResetTokenTTL)
	if err != nil {
		a.log.Error("generating reset token", "error", err)
		httputil.WriteInternalError(w)
		return
	}
	a.stores.ResetTokens.Insert(record)

	if a.mailer.Enabled() {
		go func() {
			if err := a.mailer.Send(acct.Email, "password_reset.tmpl", map[string]any{
				"name":  acct.Name,
				"token": plaintext,
			}); err != nil {
				a.log.Error("sending reset email", "error", err)
			}
		}()
	} else {
		// No SMTP configured: surface the token in the log so local
		// setups can still complete the flow.
		a.log.Info("password reset requested", "accountId", acct.ID, "token", plaintext)
	}

	httputil.WriteOK(w, nil, accepted)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if req.Token == "" {
		httputil.WriteValidationErrors(w, []string{"token is required"})
		return
	}

	record, err := a.stores.ResetTokens.Consume(account.HashResetToken(req.Token))
	if err != nil {
		httputil.WriteUnauthorized(w, "invalid or expired reset token")
		return
	}

	acct, err := a.stores.Accounts.Get(record.AccountID)
	if err != nil {
		a.writeStoreError(w, err, "account not found", "")
		return
	}

	if err := acct.SetPassword(req.Password); err != nil {
		httputil.WriteValidationErrors(w, []string{err.Error()})
		return
	}
	acct.UpdatedAt = time.Now().UTC()

	if err := a.stores.Accounts.Update(acct); err != nil {
		a.writeStoreError(w, err, "account not found", "email or handle already in use")
		return
	}
	a.stores.ResetTokens.DeleteAllForAccount(acct.ID)

	a.log.Info("password reset", "accountId", acct.ID)
	httputil.WriteOK(w, nil, "password updated")
}
