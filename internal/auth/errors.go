// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Flow errors. These are recovered locally by the web layer: each one maps
// to a flash message and a redirect back to the originating form.
var (
	// ErrPasswordMismatch is returned when password and confirm-password differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidEmail is returned when an email fails syntactic validation.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrEmailTaken is returned when registering with an already-registered email.
	ErrEmailTaken = errors.New("email address already registered")

	// ErrIncorrectPassword is returned when login finds the user but the
	// password does not verify.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrUnknownEmail is returned when no account exists for an email.
	ErrUnknownEmail = errors.New("no account with that email address")

	// ErrTokenInvalid is returned when a reset token is unknown or expired.
	ErrTokenInvalid = errors.New("reset token is invalid or has expired")

	// ErrSessionInvalid is returned when a session token is unknown or expired.
	ErrSessionInvalid = errors.New("session is invalid or has expired")
)
