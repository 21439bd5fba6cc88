// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mail provides outbound email delivery for the password reset flow.
package mail

import (
	"context"
	"fmt"
)

// Mailer sends the two password-reset emails. Implementations must not
// retry: a failed send fails the request, and the caller's token state is
// already persisted before the send is attempted.
type Mailer interface {
	// SendResetInstructions emails the reset link to an account holder.
	SendResetInstructions(ctx context.Context, to, username, resetURL string) error

	// SendResetConfirmation emails a confirmation after a completed reset.
	SendResetConfirmation(ctx context.Context, to, username string) error
}

// Subject lines for the reset emails.
const (
	subjectResetInstructions = "Password Reset"
	subjectResetConfirmation = "Password is successfully reset"
)

func resetInstructionsBody(resetURL string) string {
	return fmt.Sprintf("You are receiving this because you (or someone else) have requested the reset of the password. "+
		"Please click on the following link, or paste this into your browser to complete the process of password reset, link -> %s \n\n"+
		"If you did not request this, please ignore this email and your password will remain unchanged.", resetURL)
}

func resetConfirmationBody(to, username string) string {
	return fmt.Sprintf("This is a confirmation that the password for your account %s with username %s has successfully reset", to, username)
}
