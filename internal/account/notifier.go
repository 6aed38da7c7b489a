// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package account

import (
	"context"
	"fmt"
	"time"
)

// Notifier delivers a message to an account holder. Any non-nil error is a
// failed delivery.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RecoveryMessage renders the subject and body of a recovery code email.
func RecoveryMessage(name, code string, ttl time.Duration) (subject, body string) {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	subject = "Your Agrisetu password reset code"
	body = fmt.Sprintf(
		"%s,\n\nYour password reset code is: %s\n\nThis code will expire in %d minutes.\n\n"+
			"If you did not request a password reset, you can ignore this email.",
		greeting, code, int(ttl.Minutes()),
	)
	return subject, body
}
