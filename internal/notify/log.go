// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to the log instead of delivering them. The
// message body, including any recovery code, is logged in clear; use it only
// in development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message at INFO.
func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.logger.InfoContext(ctx, "notification",
		"to", to,
		"subject", subject,
		"message", body)
	return nil
}

// Close is a no-op.
func (n *LogNotifier) Close() error { return nil }
