// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides registration, login, logout, and session operations.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	secret   []byte
	logger   *slog.Logger
}

// NewService creates a new Service with a no-op logger.
// Returns an error if any required dependency is missing.
func NewService(users UserRepository, sessions SessionRepository, hasher PasswordHasher, secret []byte) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if len(secret) == 0 {
		return nil, oops.Errorf("session secret is required")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		secret:   secret,
		logger:   slog.New(slog.DiscardHandler),
	}, nil
}

// NewServiceWithLogger creates a new Service with the provided logger.
func NewServiceWithLogger(users UserRepository, sessions SessionRepository, hasher PasswordHasher, secret []byte, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	svc, err := NewService(users, sessions, hasher, secret)
	if err != nil {
		return nil, err
	}
	svc.logger = logger
	return svc, nil
}

// Register creates a new user account. Checks short-circuit in order:
// password mismatch, invalid email, email already taken. No session is
// established; the caller redirects to the login form.
func (s *Service) Register(ctx context.Context, username, email, password, confirm string) (*User, error) {
	if !PasswordsMatch(password, confirm) {
		return nil, ErrPasswordMismatch
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, email, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "new user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.Info("user registered", "user_id", user.ID.String())
	return user, nil
}

// Login authenticates a user and creates a fresh authenticated session.
// Returns the session and its plaintext cookie token.
//
// The credential lookup runs before the form checks, and a password
// mismatch takes priority over the credential outcome. Failure order:
// ErrPasswordMismatch, ErrInvalidEmail, ErrIncorrectPassword,
// ErrUnknownEmail.
func (s *Service) Login(ctx context.Context, email, password, confirm string) (*WebSession, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	verified := false
	if lookupErr == nil {
		valid, verifyErr := s.hasher.Verify(password, user.PasswordHash)
		if verifyErr != nil {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "verify password").
				Wrap(verifyErr)
		}
		verified = valid
	}

	if !PasswordsMatch(password, confirm) {
		return nil, "", ErrPasswordMismatch
	}
	if !ValidEmail(email) {
		return nil, "", ErrInvalidEmail
	}
	if lookupErr == nil && !verified {
		return nil, "", ErrIncorrectPassword
	}
	if lookupErr != nil {
		return nil, "", ErrUnknownEmail
	}

	session, token, err := s.createSession(ctx, &user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", "user_id", user.ID.String(), "session_id", session.ID.String())
	return session, token, nil
}

// BeginSession creates a fresh anonymous session for a first request.
// Returns the session and its plaintext cookie token.
func (s *Service) BeginSession(ctx context.Context) (*WebSession, string, error) {
	return s.createSession(ctx, nil)
}

func (s *Service) createSession(ctx context.Context, userID *ulid.ULID) (*WebSession, string, error) {
	token, tokenHash, err := GenerateSessionToken(s.secret)
	if err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewWebSession(userID, tokenHash, time.Now().Add(SessionTokenExpiry))
	if err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "new web session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// ValidateSession validates a cookie token and returns the session if
// valid. Also updates the LastSeenAt timestamp.
func (s *Service) ValidateSession(ctx context.Context, token string) (*WebSession, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	tokenHash := HashSessionToken(s.secret, token)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, ErrSessionInvalid
	}

	// Update last seen timestamp (best effort, validation succeeds regardless)
	_ = s.sessions.UpdateLastSeen(ctx, session.ID, time.Now()) //nolint:errcheck

	return session, nil
}

// CurrentUser resolves the authenticated user for a session.
// Returns ErrNotFound for anonymous sessions.
func (s *Service) CurrentUser(ctx context.Context, session *WebSession) (*User, error) {
	if session == nil || !session.IsAuthenticated() {
		return nil, ErrNotFound
	}
	user, err := s.users.GetByID(ctx, *session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("SESSION_USER_LOOKUP_FAILED").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	return user, nil
}

// Logout destroys a session. Logging out always succeeds: an already-gone
// session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	err := s.sessions.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// SetFlash stores a one-shot flash message on a session.
func (s *Service) SetFlash(ctx context.Context, sessionID ulid.ULID, flash Flash) error {
	if err := s.sessions.SetFlash(ctx, sessionID, flash); err != nil {
		return oops.Code("SESSION_FLASH_SET_FAILED").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// TakeFlash consumes the pending flash message on a session, if any.
func (s *Service) TakeFlash(ctx context.Context, sessionID ulid.ULID) (*Flash, error) {
	flash, err := s.sessions.TakeFlash(ctx, sessionID)
	if err != nil {
		return nil, oops.Code("SESSION_FLASH_TAKE_FAILED").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return flash, nil
}
