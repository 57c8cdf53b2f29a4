/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package version exposes the application version string.
package version

// Version is the semantic version of the GridBoard application.
// It is overridden at release time via -ldflags "-X gridboard/internal/version.Version=...".
var Version = "0.3.0-dev"

// String returns the human-readable version.
func String() string {
	return Version
}
