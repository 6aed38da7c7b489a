// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package xdg resolves XDG Base Directory paths for agrisetu.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "agrisetu"

// ConfigFileName is the file Load looks for when no --config is given.
const ConfigFileName = "config.yaml"

// ConfigDir returns the agrisetu config directory. XDG_CONFIG_HOME wins over
// ~/.config.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// ConfigFile returns the default config file path, or "" when it does not
// exist.
func ConfigFile() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(d, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", oops.Code("XDG_STAT_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}

func dir(envVar, homeRel string) (string, error) {
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, appName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", oops.Code("XDG_NO_HOME").With("env", envVar).Wrap(err)
		}
	}
	return filepath.Join(home, homeRel, appName), nil
}
