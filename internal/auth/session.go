// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes  = 32             // 32 bytes = 64 hex chars
	SessionTokenExpiry = 24 * time.Hour // 24 hour expiry
)

// FlashKind classifies a flash message.
type FlashKind string

// Flash kinds rendered by the views.
const (
	FlashError   FlashKind = "error"
	FlashSuccess FlashKind = "success"
)

// Flash is a one-shot message stored on a session. It is created by a
// write and consumed (deleted) by the next read.
type Flash struct {
	Kind    FlashKind
	Message string
}

// WebSession represents a server-side session keyed by an opaque cookie
// token. UserID is nil while the session is anonymous.
type WebSession struct {
	ID         ulid.ULID
	UserID     *ulid.ULID
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// NewWebSession creates a validated WebSession instance.
// UserID is optional and may be nil for an anonymous session.
func NewWebSession(userID *ulid.ULID, tokenHash string, expiresAt time.Time) (*WebSession, error) {
	if userID != nil && userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero when provided")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &WebSession{
		ID:         ulid.Make(),
		UserID:     userID,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// IsAuthenticated returns true if the session carries a user identity.
func (s *WebSession) IsAuthenticated() bool {
	return s.UserID != nil
}

// IsExpired returns true if the session has expired.
func (s *WebSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsExpiredAt returns true if the session would be expired at the given time.
// Useful for testing with deterministic time values.
func (s *WebSession) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its keyed hash.
// Returns (plaintext_token, hmac_sha256_hash, error).
// The plaintext token travels in the cookie; only the hash is stored.
func GenerateSessionToken(secret []byte) (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(secret, token)

	return token, hash, nil
}

// HashSessionToken computes the HMAC-SHA256 of a session token keyed by the
// configured session secret. A stolen database dump cannot be replayed as
// cookies without the secret.
func HashSessionToken(secret []byte, token string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// SessionRepository manages web session persistence, including the
// one-shot flash payload attached to each session.
type SessionRepository interface {
	// Create stores a new web session.
	Create(ctx context.Context, session *WebSession) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*WebSession, error)

	// UpdateLastSeen updates the LastSeenAt timestamp for a session.
	UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error

	// SetFlash stores a flash message on a session, replacing any
	// unconsumed one.
	SetFlash(ctx context.Context, id ulid.ULID, flash Flash) error

	// TakeFlash atomically reads and clears the flash message on a
	// session. Returns (nil, nil) when no flash is pending.
	TakeFlash(ctx context.Context, id ulid.ULID) (*Flash, error)

	// Delete removes a session by ID.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByUser removes all sessions for a user.
	DeleteByUser(ctx context.Context, userID ulid.ULID) error

	// DeleteExpired removes all expired sessions and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
