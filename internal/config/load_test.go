// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisetu/agrisetu/pkg/errutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// isolate keeps the developer's own config file and AGRISETU_ variables out
// of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix) {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
database:
  url: postgres://app@db:5432/agrisetu
  connect_timeout: 3s
otp:
  ttl: 10m
  invalidate_previous: true
notify:
  driver: smtp
  smtp:
    host: smtp.example.com
    from: noreply@agrisetu.in
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://app@db:5432/agrisetu", cfg.Database.URL)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.True(t, cfg.OTP.InvalidatePrevious)
	assert.Equal(t, 587, cfg.Notify.SMTP.Port, "unset keys keep defaults")
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_XDGFile(t *testing.T) {
	isolate(t)
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "agrisetu")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "log:\n  level: warn\n  format: text\nmetrics:\n  addr: 127.0.0.1:9200\n")
	t.Setenv("AGRISETU_LOG__LEVEL", "error")
	t.Setenv("AGRISETU_OTP__TTL", "2m")
	t.Setenv("AGRISETU_HASHER__THREADS", "2")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "debug"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level, "flag beats env and file")
	assert.Equal(t, "text", cfg.Log.Format, "file beats defaults")
	assert.Equal(t, "127.0.0.1:9200", cfg.Metrics.Addr, "unset flag does not clobber file")
	assert.Equal(t, 2*time.Minute, cfg.OTP.TTL, "env beats defaults")
	assert.Equal(t, uint8(2), cfg.Hasher.Threads)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		isolate(t)
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("unknown key rejected by schema", func(t *testing.T) {
		isolate(t)
		_, err := Load(writeConfig(t, "otp:\n  tll: 5m\n"), nil)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})

	t.Run("semantic validation", func(t *testing.T) {
		isolate(t)
		_, err := Load(writeConfig(t, "notify:\n  driver: amqp\n"), nil)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		errutil.AssertErrorContext(t, err, "field", "notify.amqp.url")
	})

	t.Run("bad env value", func(t *testing.T) {
		isolate(t)
		t.Setenv("AGRISETU_OTP__TTL", "soon")
		_, err := Load("", nil)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.url", envKey("AGRISETU_DATABASE__URL"))
	assert.Equal(t, "otp.invalidate_previous", envKey("AGRISETU_OTP__INVALIDATE_PREVIOUS"))
	assert.Equal(t, "notify.smtp.host", envKey("AGRISETU_NOTIFY__SMTP__HOST"))
}
