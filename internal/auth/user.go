// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// emailRegex matches addresses of the form local@host.tld where local and
// host are word characters optionally joined by single dots or hyphens, and
// the top-level labels are 2-3 characters. Input is lower-cased before
// matching. No DNS or MX validation is performed.
var emailRegex = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// ValidEmail reports whether the email is syntactically valid.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(strings.ToLower(email))
}

// PasswordsMatch reports whether a password and its confirmation are equal.
// No complexity requirements are enforced anywhere in the system.
func PasswordsMatch(password, confirm string) bool {
	return password == confirm
}

// User represents a registered account. Email is the login identifier and
// is unique; Username is a display name and is not required to be unique.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string

	// ResetTokenHash and ResetExpiresAt are both set while a password reset
	// is pending and both nil otherwise. A pair with only one side set is an
	// invalid state; repositories write and clear them together.
	ResetTokenHash *string
	ResetExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a validated User instance.
func NewUser(username, email, passwordHash string) (*User, error) {
	if username == "" {
		return nil, oops.Code("USER_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if !ValidEmail(email) {
		return nil, oops.Code("USER_INVALID_EMAIL").With("email", email).Wrap(ErrInvalidEmail)
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasPendingReset returns true if a reset token pair is present.
func (u *User) HasPendingReset() bool {
	return u.ResetTokenHash != nil && u.ResetExpiresAt != nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrEmailTaken if the email is
	// already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByResetTokenHash retrieves the user whose pending reset token hash
	// matches and whose reset expiry is strictly after now.
	// Returns ErrNotFound otherwise.
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*User, error)

	// SetResetToken stores a reset token hash and expiry for a user,
	// overwriting any prior pair so at most one token per user is valid.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error

	// ResetPassword replaces the password hash and clears the reset token
	// pair in the same write, making the token single-use.
	ResetPassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// ClearExpiredResetTokens clears reset token pairs whose expiry has
	// passed and returns the number of affected users.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
