// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up in
// outbound request paths or database keys. Using these validators prevents
// path traversal and keeps junk identifiers from ever leaving the process.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// resourceNamePattern matches valid pokemon resource identifiers.
// Allows: lowercase letters, digits, hyphens (mr-mime, nidoran-f, porygon-z).
// Numeric ids ("25") match too, the upstream catalog accepts both.
// Max length: 50 characters.
var resourceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{0,49}$`)

// ValidateResourceName validates a pokemon name or id before it is used
// in an upstream request path.
//
// Valid identifiers:
//   - 1-50 characters
//   - Lowercase letters a-z
//   - Digits 0-9
//   - Hyphens (-) for compound names like mr-mime
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateResourceName(name); err != nil {
//	    return nil, fmt.Errorf("invalid name: %w", err)
//	}
//	// Safe to use in the request path
func ValidateResourceName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if !resourceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid name format: %q (must be 1-50 lowercase alphanumeric chars or hyphens)", name)
	}

	return nil
}

// SanitizeResourceName normalizes and validates a pokemon identifier.
// Returns the lowercase name if valid, or an error if invalid.
//
// Use this when you need both validation and normalization:
//
//	safeName, err := validation.SanitizeResourceName(userInput)
//	if err != nil {
//	    return err
//	}
//	// safeName is lowercase and validated
func SanitizeResourceName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if err := ValidateResourceName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
