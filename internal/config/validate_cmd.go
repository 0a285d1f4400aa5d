// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "fmt"

// ValidateOnly loads and validates configuration without constructing or
// starting any component, backing the `--validate-config` CLI flag
// (SUPPLEMENTED FEATURES, grounded in the teacher's config_validate.go
// dry-run convention). It returns the same error Load would, letting the
// caller print "configuration is valid" on a nil result.
func ValidateOnly() error {
	_, err := Load()
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	return nil
}
