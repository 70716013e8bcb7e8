// Package password holds the one account-password complexity policy.
// Every caller (CSV import, bulk password change, single edits) checks
// against this package so the rule cannot drift.
package password

import (
	"errors"
	"unicode"
)

// MinLength is the minimum accepted password length.
const MinLength = 8

// ErrPolicy is returned for any policy violation. The message is shown
// to operators verbatim.
var ErrPolicy = errors.New("password must be at least 8 characters with an uppercase letter, a lowercase letter and a digit")

// Validate checks pw against the policy: at least MinLength characters,
// at least one uppercase letter, one lowercase letter and one digit.
func Validate(pw string) error {
	var upper, lower, digit bool
	n := 0
	for _, r := range pw {
		n++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if n < MinLength || !upper || !lower || !digit {
		return ErrPolicy
	}
	return nil
}
