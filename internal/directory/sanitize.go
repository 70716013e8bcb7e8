package directory

import (
	"fmt"
	"regexp"
)

// identifierRe is the only character set allowed in values that end up
// as script command-line arguments.
var identifierRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

const maxIdentifierLen = 64

// ValidateIdentifier rejects anything unsafe to interpolate into a
// script invocation. Values carried on stdin as JSON are exempt.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier required")
	}
	if len(id) > maxIdentifierLen {
		return fmt.Errorf("identifier too long: %d > %d", len(id), maxIdentifierLen)
	}
	if !identifierRe.MatchString(id) {
		return fmt.Errorf("invalid identifier: %q", id)
	}
	return nil
}
