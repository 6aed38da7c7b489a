// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package config loads agrisetu's configuration from built-in defaults, an
// optional YAML file, AGRISETU_ environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"slices"
	"time"

	"github.com/samber/oops"
)

// Notification drivers.
const (
	DriverSMTP = "smtp"
	DriverAMQP = "amqp"
	DriverLog  = "log"
)

// Config is the complete process configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Hasher   HasherConfig   `koanf:"hasher"`
	OTP      OTPConfig      `koanf:"otp"`
	Notify   NotifyConfig   `koanf:"notify"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// DatabaseConfig locates the PostgreSQL database.
type DatabaseConfig struct {
	URL             string        `koanf:"url" jsonschema:"description=PostgreSQL connection URL"`
	MaxConns        int32         `koanf:"max_conns" jsonschema:"minimum=0"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts uint64        `koanf:"connect_attempts" jsonschema:"minimum=1"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Format string `koanf:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// HasherConfig holds the argon2id cost parameters for new digests.
type HasherConfig struct {
	MemoryKiB  uint32 `koanf:"memory_kib" jsonschema:"minimum=8"`
	Iterations uint32 `koanf:"iterations" jsonschema:"minimum=1"`
	Threads    uint8  `koanf:"threads" jsonschema:"minimum=1"`
}

// OTPConfig tunes recovery codes and their sweeper.
type OTPConfig struct {
	TTL                time.Duration `koanf:"ttl"`
	InvalidatePrevious bool          `koanf:"invalidate_previous"`
	Retention          time.Duration `koanf:"retention"`
	SweepInterval      time.Duration `koanf:"sweep_interval"`
}

// NotifyConfig selects and configures the notification driver.
type NotifyConfig struct {
	Driver string     `koanf:"driver" jsonschema:"enum=smtp,enum=amqp,enum=log"`
	SMTP   SMTPConfig `koanf:"smtp"`
	AMQP   AMQPConfig `koanf:"amqp"`
}

// SMTPConfig configures direct email delivery.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" jsonschema:"minimum=1,maximum=65535"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	Attempts uint64 `koanf:"attempts" jsonschema:"minimum=1"`
}

// AMQPConfig configures publishing notifications to a message broker.
type AMQPConfig struct {
	URL   string `koanf:"url"`
	Queue string `koanf:"queue"`
}

// MetricsConfig configures the observability listener and the Pushgateway
// that one-shot commands report credential outcomes to.
type MetricsConfig struct {
	Addr        string `koanf:"addr"`
	Pushgateway string `koanf:"pushgateway" jsonschema:"description=Prometheus Pushgateway URL; empty disables pushing"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			URL:             "postgres://agrisetu@localhost:5432/agrisetu?sslmode=disable",
			MaxConns:        10,
			ConnectTimeout:  10 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{Format: "json", Level: "info"},
		Hasher: HasherConfig{
			MemoryKiB:  64 * 1024,
			Iterations: 1,
			Threads:    4,
		},
		OTP: OTPConfig{
			TTL:           5 * time.Minute,
			Retention:     24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Notify: NotifyConfig{
			Driver: DriverLog,
			SMTP:   SMTPConfig{Port: 587, Attempts: 3},
			AMQP:   AMQPConfig{Queue: "agrisetu.notifications"},
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// Validate reports the first invalid setting as a CONFIG_INVALID error.
func (c *Config) Validate() error {
	switch {
	case c.Database.URL == "":
		return invalid("database.url", "must be set")
	case c.Database.MaxConns < 0:
		return invalid("database.max_conns", "must not be negative")
	case c.Database.ConnectAttempts == 0:
		return invalid("database.connect_attempts", "must be at least 1")
	case !slices.Contains([]string{"json", "text"}, c.Log.Format):
		return invalid("log.format", "must be json or text")
	case !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level):
		return invalid("log.level", "must be debug, info, warn or error")
	case c.Hasher.Iterations == 0:
		return invalid("hasher.iterations", "must be at least 1")
	case c.Hasher.Threads == 0:
		return invalid("hasher.threads", "must be at least 1")
	case c.Hasher.MemoryKiB < 8*uint32(c.Hasher.Threads):
		return invalid("hasher.memory_kib", "must be at least 8 KiB per thread")
	case c.OTP.TTL <= 0:
		return invalid("otp.ttl", "must be positive")
	case c.OTP.Retention < 0:
		return invalid("otp.retention", "must not be negative")
	case c.OTP.SweepInterval <= 0:
		return invalid("otp.sweep_interval", "must be positive")
	}

	switch c.Notify.Driver {
	case DriverSMTP:
		s := c.Notify.SMTP
		switch {
		case s.Host == "":
			return invalid("notify.smtp.host", "must be set for the smtp driver")
		case s.Port < 1 || s.Port > 65535:
			return invalid("notify.smtp.port", "must be a TCP port")
		case s.From == "":
			return invalid("notify.smtp.from", "must be set for the smtp driver")
		case s.Attempts == 0:
			return invalid("notify.smtp.attempts", "must be at least 1")
		}
	case DriverAMQP:
		if c.Notify.AMQP.URL == "" {
			return invalid("notify.amqp.url", "must be set for the amqp driver")
		}
		if c.Notify.AMQP.Queue == "" {
			return invalid("notify.amqp.queue", "must be set for the amqp driver")
		}
	case DriverLog:
	default:
		return invalid("notify.driver", "must be smtp, amqp or log")
	}
	return nil
}

func invalid(field, reason string) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf("%s %s", field, reason)
}
