// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package validation holds small string-sanitization helpers used when
// surfacing carrier-config identifiers (session types, PLMNs, cause
// codes) in logs and the admin API — never in the hot evaluate() path,
// where a malformed rule is dropped by carrierconfig.Parse* instead of
// validated here.
package validation

import (
	"regexp"
	"strings"

	"grimm.is/qns/internal/errors"
)

var (
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	dangerousChars  = []string{";", "|", "&", "$", "`", "(", ")", "<", ">", "\\", "\"", "'", "\n", "\r"}
)

// ValidateIdentifier validates a general identifier (session type name,
// PLMN, carrier ID string) before it is echoed back through the admin API.
func ValidateIdentifier(id string) error {
	if id == "" {
		return errors.New(errors.KindValidation, "identifier cannot be empty")
	}
	if len(id) > 255 {
		return errors.New(errors.KindValidation, "identifier too long (max 255 characters)")
	}
	if !identifierRegex.MatchString(id) {
		return errors.Errorf(errors.KindValidation, "invalid identifier: %s (must be alphanumeric with -_)", id)
	}
	for _, char := range dangerousChars {
		if strings.Contains(id, char) {
			return errors.Errorf(errors.KindValidation, "identifier contains dangerous character: %s", char)
		}
	}
	return nil
}

// SanitizeString strips dangerous characters from a string before
// logging or rendering it (e.g. a raw carrier-config rule string in a
// diagnostic or the admin API response).
func SanitizeString(s string) string {
	for _, char := range dangerousChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
