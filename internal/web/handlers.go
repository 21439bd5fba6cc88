// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/mail"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// Flash messages shown to users. Taxonomy errors always surface as one of
// these, never as a raw error string.
const (
	msgPasswordMismatch = "Password and Confirm Password must match"
	msgInvalidEmail     = "Enter a valid email address"
	msgEmailTaken       = "This email address is taken, try some other email address"
	msgIncorrectPass    = "Incorrect Password"
	msgNoSuchAccount    = "There is no account with this email address"
	msgNoSuchEmail      = "No account with that email address exists"
	msgTokenInvalid     = "Password reset token is invalid or has expired"
	msgResetMailSent    = "An email has been sent to %s with further instructions"
	msgPasswordChanged  = "Your password has been changed"
)

// Handlers owns the HTTP surface: forms, flows, and the session middleware.
type Handlers struct {
	auth          *auth.Service
	resets        *auth.PasswordResetService
	mailer        mail.Mailer
	views         *Views
	metrics       *observability.Metrics
	logger        *slog.Logger
	baseURL       string
	secureCookies bool
}

// NewHandlers validates dependencies and builds the handler set.
// metrics may be nil; recording is skipped in that case.
func NewHandlers(authSvc *auth.Service, resets *auth.PasswordResetService, mailer mail.Mailer, baseURL string, metrics *observability.Metrics, logger *slog.Logger) (*Handlers, error) {
	if authSvc == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if resets == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("password reset service is required")
	}
	if mailer == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("mailer is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, oops.Code("WEB_INVALID_BASE_URL").With("base_url", baseURL).Errorf("base URL must be absolute")
	}
	if logger == nil {
		logger = slog.Default()
	}

	views, err := NewViews()
	if err != nil {
		return nil, err
	}

	return &Handlers{
		auth:          authSvc,
		resets:        resets,
		mailer:        mailer,
		views:         views,
		metrics:       metrics,
		logger:        logger,
		baseURL:       strings.TrimRight(baseURL, "/"),
		secureCookies: parsed.Scheme == "https",
	}, nil
}

// Router builds the chi router with all routes and middleware attached.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.withSession)

	r.Get("/", h.home)
	r.With(h.requireAuth).Get("/secret/", h.secret)

	r.Get("/signup/", h.signupForm)
	r.Post("/signup/", h.signup)

	r.Get("/login/", h.loginForm)
	r.Post("/login/", h.login)
	r.Get("/logout/", h.logout)

	r.Get("/reset-password/", h.resetRequestForm)
	r.Post("/reset-password/", h.resetRequest)
	r.Get("/reset/{token}/", h.resetForm)
	r.Post("/reset/{token}/", h.resetComplete)

	return r
}

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home", "Home", "")
}

func (h *Handlers) secret(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "secret", "Secret", "")
}

func (h *Handlers) signupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup", "Sign up", "")
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := r.PostFormValue("username")
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	_, err := h.auth.Register(ctx, username, email, password, confirm)
	switch {
	case err == nil:
		h.recordSignup("ok")
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
	case errors.Is(err, auth.ErrPasswordMismatch):
		h.recordSignup("password_mismatch")
		h.flashAndRedirect(w, r, auth.FlashError, msgPasswordMismatch, "/signup/")
	case errors.Is(err, auth.ErrInvalidEmail):
		h.recordSignup("invalid_email")
		h.flashAndRedirect(w, r, auth.FlashError, msgInvalidEmail, "/signup/")
	case errors.Is(err, auth.ErrEmailTaken):
		h.recordSignup("email_taken")
		h.flashAndRedirect(w, r, auth.FlashError, msgEmailTaken, "/signup/")
	default:
		h.recordSignup("error")
		h.internalError(w, "register user", err)
	}
}

func (h *Handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", "Log in", "")
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	session, token, err := h.auth.Login(ctx, email, password, confirm)
	switch {
	case err == nil:
		// Rotate the session: drop the anonymous one and hand out a fresh
		// authenticated token.
		if old := sessionFrom(ctx); old != nil {
			if logoutErr := h.auth.Logout(ctx, old.ID); logoutErr != nil {
				errutil.LogError(h.logger, "drop anonymous session", logoutErr)
			}
		}
		h.setSessionCookie(w, token, session.ExpiresAt)
		h.recordLogin("ok")
		http.Redirect(w, r, "/secret/", http.StatusSeeOther)
	case errors.Is(err, auth.ErrPasswordMismatch):
		h.recordLogin("password_mismatch")
		h.flashAndRedirect(w, r, auth.FlashError, msgPasswordMismatch, "/login/")
	case errors.Is(err, auth.ErrInvalidEmail):
		h.recordLogin("invalid_email")
		h.flashAndRedirect(w, r, auth.FlashError, msgInvalidEmail, "/login/")
	case errors.Is(err, auth.ErrIncorrectPassword):
		h.recordLogin("incorrect_password")
		h.flashAndRedirect(w, r, auth.FlashError, msgIncorrectPass, "/login/")
	case errors.Is(err, auth.ErrUnknownEmail):
		h.recordLogin("unknown_email")
		h.flashAndRedirect(w, r, auth.FlashError, msgNoSuchAccount, "/login/")
	default:
		h.recordLogin("error")
		h.internalError(w, "login", err)
	}
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if session := sessionFrom(ctx); session != nil {
		if err := h.auth.Logout(ctx, session.ID); err != nil {
			errutil.LogError(h.logger, "logout", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) resetRequestForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "reset-password", "Reset password", "")
}

func (h *Handlers) resetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.PostFormValue("email")

	user, token, err := h.resets.RequestReset(ctx, email)
	switch {
	case err == nil:
		// Token is persisted before the mail leaves; a mailer failure fails
		// the request but leaves the stored token usable.
		resetURL := h.baseURL + "/reset/" + token + "/"
		if mailErr := h.mailer.SendResetInstructions(ctx, user.Email, user.Username, resetURL); mailErr != nil {
			observability.RecordMailFailure("instructions")
			h.recordReset("request", "mail_error")
			h.internalError(w, "send reset instructions", mailErr)
			return
		}
		h.recordReset("request", "ok")
		h.flashAndRedirect(w, r, auth.FlashSuccess, fmt.Sprintf(msgResetMailSent, user.Email), "/reset-password/")
	case errors.Is(err, auth.ErrUnknownEmail):
		h.recordReset("request", "unknown_email")
		h.flashAndRedirect(w, r, auth.FlashError, msgNoSuchEmail, "/reset-password/")
	default:
		h.recordReset("request", "error")
		h.internalError(w, "request password reset", err)
	}
}

func (h *Handlers) resetForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	_, err := h.resets.ValidateToken(ctx, token)
	switch {
	case err == nil:
		h.render(w, r, "reset", "Choose a new password", token)
	case errors.Is(err, auth.ErrTokenInvalid):
		h.flashAndRedirect(w, r, auth.FlashError, msgTokenInvalid, "/reset-password/")
	default:
		h.internalError(w, "validate reset token", err)
	}
}

func (h *Handlers) resetComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	user, err := h.resets.CompleteReset(ctx, token, password, confirm)
	switch {
	case err == nil:
		// Confirmation mail is best effort: the password is already changed.
		if mailErr := h.mailer.SendResetConfirmation(ctx, user.Email, user.Username); mailErr != nil {
			observability.RecordMailFailure("confirmation")
			errutil.LogError(h.logger, "send reset confirmation", mailErr)
		}
		h.recordReset("complete", "ok")
		h.flashAndRedirect(w, r, auth.FlashSuccess, msgPasswordChanged, "/login/")
	case errors.Is(err, auth.ErrPasswordMismatch):
		h.recordReset("complete", "password_mismatch")
		h.flashAndRedirect(w, r, auth.FlashError, msgPasswordMismatch, "/reset/"+token+"/")
	case errors.Is(err, auth.ErrTokenInvalid):
		h.recordReset("complete", "token_invalid")
		h.flashAndRedirect(w, r, auth.FlashError, msgTokenInvalid, "/reset-password/")
	default:
		h.recordReset("complete", "error")
		h.internalError(w, "complete password reset", err)
	}
}

// render draws a page, consuming any pending flash message on the session.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, page, title, token string) {
	ctx := r.Context()

	data := pageData{Title: title, Token: token}

	if session := sessionFrom(ctx); session != nil {
		flash, err := h.auth.TakeFlash(ctx, session.ID)
		if err != nil {
			errutil.LogError(h.logger, "take flash", err)
		} else {
			data.Flash = flash
		}

		if session.IsAuthenticated() {
			user, err := h.auth.CurrentUser(ctx, session)
			if err != nil {
				errutil.LogError(h.logger, "load current user", err)
			} else {
				data.User = user
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.Render(w, page, data); err != nil {
		errutil.LogError(h.logger, "render page", err)
	}
}

// flashAndRedirect stores a one-shot flash on the session and redirects.
// A failed flash write is logged but never blocks the redirect.
func (h *Handlers) flashAndRedirect(w http.ResponseWriter, r *http.Request, kind auth.FlashKind, message, location string) {
	ctx := r.Context()
	if session := sessionFrom(ctx); session != nil {
		if err := h.auth.SetFlash(ctx, session.ID, auth.Flash{Kind: kind, Message: message}); err != nil {
			errutil.LogError(h.logger, "set flash", err)
		}
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handlers) internalError(w http.ResponseWriter, msg string, err error) {
	errutil.LogError(h.logger, msg, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handlers) recordSignup(outcome string) {
	if h.metrics != nil {
		h.metrics.SignupsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handlers) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handlers) recordReset(stage, outcome string) {
	if h.metrics != nil {
		h.metrics.ResetsTotal.WithLabelValues(stage, outcome).Inc()
	}
}
