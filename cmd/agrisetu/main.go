// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

// Package main is the entry point for the Agrisetu account manager.
package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage returns the message shown to the operator for err: the public
// message when the error carries one, otherwise the error text.
func errorMessage(err error) string {
	return oops.GetPublic(err, err.Error())
}
