// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/textproto"
	"regexp"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"gopkg.in/gomail.v2"

	"github.com/agrisetu/agrisetu/internal/config"
)

const defaultSMTPRetryBase = 500 * time.Millisecond

// mailSender is the part of *gomail.Dialer the notifier uses.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends plain-text email, retrying transient failures with
// exponential backoff. Permanent (5xx) SMTP replies are not retried.
type SMTPNotifier struct {
	sender    mailSender
	from      string
	attempts  uint64
	retryBase time.Duration
	logger    *slog.Logger
}

// NewSMTPNotifier creates an SMTPNotifier for the given server.
func NewSMTPNotifier(cfg config.SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return &SMTPNotifier{
		sender:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:      cfg.From,
		attempts:  attempts,
		retryBase: defaultSMTPRetryBase,
		logger:    logger,
	}
}

// Send delivers one message.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	backoff := retry.WithMaxRetries(n.attempts-1, retry.NewExponential(n.retryBase))

	var attempt uint64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		sendErr := n.sender.DialAndSend(m)
		if sendErr == nil {
			return nil
		}
		if permanent(sendErr) {
			return sendErr
		}
		n.logger.WarnContext(ctx, "smtp delivery attempt failed",
			"to", to,
			"attempt", attempt,
			"max_attempts", n.attempts,
			"error", sendErr)
		return retry.RetryableError(sendErr)
	})
	if err != nil {
		return oops.Code("NOTIFY_DELIVERY_FAILED").
			With("driver", config.DriverSMTP).
			With("to", to).
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}

// Close is a no-op; each Send dials its own connection.
func (n *SMTPNotifier) Close() error { return nil }

// gomail flattens send-phase replies into "gomail: could not send email N: 550 ...".
var wrappedReply = regexp.MustCompile(`: 5\d{2}[ -]`)

func permanent(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code >= 500
	}
	return wrappedReply.MatchString(err.Error())
}
