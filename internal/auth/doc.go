// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth provides authentication primitives for Gatehouse.
//
// # Domain Types
//
// Domain types (User, WebSession) should be created using their
// respective constructors:
//   - NewUser - creates a User with validated username, email, and password hash
//   - NewWebSession - creates a WebSession with validated token hash and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - registration, login, logout, session and flash management
//   - PasswordResetService - the two-step password reset flow
//   - Janitor - periodic cleanup of expired sessions and reset tokens
//
// Services are created with New*Service constructors that validate dependencies.
//
// # Error Taxonomy
//
// Flow failures the web layer recovers locally (flash message plus redirect)
// are sentinel errors: ErrPasswordMismatch, ErrInvalidEmail, ErrEmailTaken,
// ErrIncorrectPassword, ErrUnknownEmail, ErrTokenInvalid, ErrSessionInvalid.
// Infrastructure failures are wrapped with oops codes and surface as generic
// errors.
package auth
