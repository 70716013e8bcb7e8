// Package csvimport validates bulk user imports before any account is
// created. Validation is all-or-nothing: a single error blocks the
// whole import.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/aulanet-io/ad-console/internal/directory"
	"github.com/aulanet-io/ad-console/internal/password"
)

// FieldCount is the required arity of every row:
// identifier, given name, surname, OU, group.
const FieldCount = 5

// MaxReportedErrors caps the error list shown to operators.
const MaxReportedErrors = 10

var fieldNames = [FieldCount]string{"identifier", "given name", "surname", "OU", "group"}

// Row is one validated CSV row, ready for the batch engine.
type Row struct {
	SamAccountName string
	GivenName      string
	SN             string
	OU             string
	Group          string
}

// Refs are the known referential sets, sourced from the directory
// listings at import time.
type Refs struct {
	OUs    map[string]bool
	Groups map[string]bool
}

// NewRefs builds Refs from plain listings.
func NewRefs(ous, groups []string) Refs {
	r := Refs{OUs: make(map[string]bool, len(ous)), Groups: make(map[string]bool, len(groups))}
	for _, ou := range ous {
		r.OUs[ou] = true
	}
	for _, g := range groups {
		r.Groups[g] = true
	}
	return r
}

// Parse reads raw CSV. Rows keep whatever arity they came with so the
// validator can report wrong field counts per row.
func Parse(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// Validate checks the shared password and every row. It returns the
// usable rows and the capped, deduplicated error list. Rows are only
// usable when the error list is empty.
func Validate(records [][]string, sharedPassword string, refs Refs) ([]Row, []string) {
	// The shared password is a global precondition: if it fails nothing
	// else is even looked at.
	if err := password.Validate(sharedPassword); err != nil {
		return nil, []string{err.Error()}
	}

	var rows []Row
	var errs []string
	seen := make(map[string]bool)

	addErr := func(msg string) {
		if !seen[msg] {
			seen[msg] = true
			errs = append(errs, msg)
		}
	}

	for i, rec := range records {
		line := i + 1

		if len(rec) != FieldCount {
			addErr(fmt.Sprintf("row %d: expected %d fields, got %d", line, FieldCount, len(rec)))
			continue
		}

		trimmed := [FieldCount]string{}
		rowOK := true
		for j, v := range rec {
			trimmed[j] = strings.TrimSpace(v)
			if trimmed[j] == "" {
				addErr(fmt.Sprintf("row %d: missing %s", line, fieldNames[j]))
				rowOK = false
			}
		}
		if !rowOK {
			continue
		}

		if err := directory.ValidateIdentifier(trimmed[0]); err != nil {
			addErr(fmt.Sprintf("row %d: %v", line, err))
			rowOK = false
		}
		if !refs.OUs[trimmed[3]] {
			addErr(fmt.Sprintf("row %d: unknown OU %q", line, trimmed[3]))
			rowOK = false
		}
		if !refs.Groups[trimmed[4]] {
			addErr(fmt.Sprintf("row %d: unknown group %q", line, trimmed[4]))
			rowOK = false
		}
		if !rowOK {
			continue
		}

		rows = append(rows, Row{
			SamAccountName: trimmed[0],
			GivenName:      trimmed[1],
			SN:             trimmed[2],
			OU:             trimmed[3],
			Group:          trimmed[4],
		})
	}

	if len(errs) > 0 {
		return nil, capErrors(errs)
	}
	return rows, nil
}

// capErrors truncates the list at MaxReportedErrors and appends a
// summary line for the rest.
func capErrors(errs []string) []string {
	if len(errs) <= MaxReportedErrors {
		return errs
	}
	extra := len(errs) - MaxReportedErrors
	out := append([]string{}, errs[:MaxReportedErrors]...)
	return append(out, fmt.Sprintf("... and %d more errors", extra))
}
