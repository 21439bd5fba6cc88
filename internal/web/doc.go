// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package web serves the HTML surface of Gatehouse: registration, login,
// the protected secret page, and the two-step password reset flow.
//
// Every request carries a server-side session resolved from an opaque
// cookie; anonymous sessions exist so flash messages survive the redirect
// dance before login. All form failures surface as one-shot flash messages
// and a redirect back to the originating form; only infrastructure errors
// produce a 500.
package web
