// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package mail

import (
	"context"
	"log/slog"
)

// LogMailer logs mail instead of sending it. Used in development when no
// SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogMailer{logger: logger}
}

// SendResetInstructions logs the reset link instead of emailing it.
func (m *LogMailer) SendResetInstructions(ctx context.Context, to, username, resetURL string) error {
	m.logger.InfoContext(ctx, "mail: password reset instructions",
		"to", to,
		"username", username,
		"reset_url", resetURL,
	)
	return nil
}

// SendResetConfirmation logs the confirmation instead of emailing it.
func (m *LogMailer) SendResetConfirmation(ctx context.Context, to, username string) error {
	m.logger.InfoContext(ctx, "mail: password reset confirmation",
		"to", to,
		"username", username,
	)
	return nil
}
