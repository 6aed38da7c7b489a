// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package notify delivers account messages by SMTP, through an AMQP queue
// consumed by the notification gateway, or to the log for development.
package notify

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/internal/account"
	"github.com/agrisetu/agrisetu/internal/config"
)

// Notifier is an account.Notifier that may hold a connection.
type Notifier interface {
	account.Notifier
	Close() error
}

// New builds the notifier selected by cfg.Driver.
func New(cfg config.NotifyConfig, logger *slog.Logger) (Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case config.DriverSMTP:
		return NewSMTPNotifier(cfg.SMTP, logger), nil
	case config.DriverAMQP:
		return DialAMQP(cfg.AMQP, logger)
	case config.DriverLog:
		return NewLogNotifier(logger), nil
	}
	return nil, oops.Code("NOTIFY_UNKNOWN_DRIVER").With("driver", cfg.Driver).Errorf("unknown notification driver %q", cfg.Driver)
}
