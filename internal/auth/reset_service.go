// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// PasswordResetService handles the two-step password reset flow.
// Sending the instruction and confirmation emails is NOT this service's
// job; the web layer holds the Mailer.
type PasswordResetService struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
	clock  func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService.
// Returns an error if any required dependency is missing.
func NewPasswordResetService(users UserRepository, hasher PasswordHasher) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &PasswordResetService{
		users:  users,
		hasher: hasher,
		logger: slog.New(slog.DiscardHandler),
		clock:  time.Now,
	}, nil
}

// NewPasswordResetServiceWithLogger creates a new PasswordResetService with
// the provided logger.
func NewPasswordResetServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*PasswordResetService, error) {
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	svc, err := NewPasswordResetService(users, hasher)
	if err != nil {
		return nil, err
	}
	svc.logger = logger
	return svc, nil
}

// RequestReset begins a password reset for the account with the given
// email. Generates a token, stores its hash with a one-hour expiry on the
// user record (overwriting any prior token, so at most one is valid at a
// time), and returns the user and plaintext token for the reset email.
// Returns ErrUnknownEmail if no account exists; nothing is persisted.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*User, string, error) {
	token, hash, err := GenerateResetToken()
	if err != nil {
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrUnknownEmail
		}
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	expiresAt := s.clock().Add(ResetTokenExpiry)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "set reset token").
			Wrap(err)
	}

	s.logger.Info("password reset requested", "user_id", user.ID.String())
	return user, token, nil
}

// ValidateToken validates a reset token and returns the associated user.
// Returns ErrTokenInvalid if the token is unknown or expired.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	hash := HashResetToken(token)

	// The lookup predicate carries the not-expired check so an expired
	// token is indistinguishable from an unknown one.
	user, err := s.users.GetByResetTokenHash(ctx, hash, s.clock())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, oops.Code("RESET_VALIDATE_FAILED").
			With("operation", "get user by reset token hash").
			Wrap(err)
	}

	return user, nil
}

// CompleteReset finishes a password reset. The token is re-validated with
// the same not-expired predicate as ValidateToken, since time may have
// passed between the GET and the POST. On success the new credential is
// written and the token pair cleared in the same persisted write, so the
// token can never be reused.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, password, confirm string) (*User, error) {
	user, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !PasswordsMatch(password, confirm) {
		return nil, ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("RESET_COMPLETE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, hash); err != nil {
		return nil, oops.Code("RESET_COMPLETE_FAILED").
			With("operation", "reset password").
			Wrap(err)
	}

	s.logger.Info("password reset completed", "user_id", user.ID.String())
	return user, nil
}
