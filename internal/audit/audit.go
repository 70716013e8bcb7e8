// Package audit writes the tamper-evident trail of directory mutations.
package audit

import "time"

// EventType constants for directory mutations.
const (
	EventUserCreate   = "user.create"
	EventUserUpdate   = "user.update"
	EventUserDelete   = "user.delete"
	EventUserPassword = "user.password"
	EventBulkImport   = "bulk.import"
	EventBulkDelete   = "bulk.delete"
	EventBulkPassword = "bulk.password"
)

// Entry is a single audit record. Target is the samAccountName (or a
// batch summary); Detail never carries passwords. Actor identifies the
// mutation source; the console runs unauthenticated, so it defaults to
// "console" until a fronting proxy injects something better.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Actor     string    `json:"actor"`
	Target    string    `json:"target,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	EntryHash string    `json:"entry_hash"`
}
