// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package config

import (
	"os"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/agrisetu/agrisetu/internal/xdg"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore: AGRISETU_DATABASE__URL sets database.url.
const EnvPrefix = "AGRISETU_"

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"database-url":        "database.url",
	"log-format":          "log.format",
	"log-level":           "log.level",
	"metrics-addr":        "metrics.addr",
	"metrics-pushgateway": "metrics.pushgateway",
}

// RegisterFlags adds the config-overriding flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("database-url", d.Database.URL, "PostgreSQL connection URL")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Metrics.Addr, "observability listen address")
	fs.String("metrics-pushgateway", d.Metrics.Pushgateway, "Prometheus Pushgateway URL for credential outcomes")
}

// Load builds the configuration. path names the YAML file; when empty the
// XDG default is used if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path == "" {
		var err error
		if path, err = xdg.ConfigFile(); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "xdg").Wrap(err)
		}
	}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "unmarshal").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"database.url":              d.Database.URL,
		"database.max_conns":        d.Database.MaxConns,
		"database.connect_timeout":  d.Database.ConnectTimeout,
		"database.connect_attempts": d.Database.ConnectAttempts,
		"log.format":                d.Log.Format,
		"log.level":                 d.Log.Level,
		"hasher.memory_kib":         d.Hasher.MemoryKiB,
		"hasher.iterations":         d.Hasher.Iterations,
		"hasher.threads":            d.Hasher.Threads,
		"otp.ttl":                   d.OTP.TTL,
		"otp.invalidate_previous":   d.OTP.InvalidatePrevious,
		"otp.retention":             d.OTP.Retention,
		"otp.sweep_interval":        d.OTP.SweepInterval,
		"notify.driver":             d.Notify.Driver,
		"notify.smtp.port":          d.Notify.SMTP.Port,
		"notify.smtp.attempts":      d.Notify.SMTP.Attempts,
		"notify.amqp.queue":         d.Notify.AMQP.Queue,
		"metrics.addr":              d.Metrics.Addr,
		"metrics.pushgateway":       d.Metrics.Pushgateway,
	}
}
