// Package directory exposes the lab directory operations backed by the
// external scripts.
package directory

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aulanet-io/ad-console/internal/audit"
	"github.com/aulanet-io/ad-console/internal/cache"
	"github.com/aulanet-io/ad-console/internal/logging"
	"github.com/aulanet-io/ad-console/internal/script"
)

// Script names as shipped with the lab backend.
const (
	ScriptGetUsers     = "getUsers"
	ScriptGetGroups    = "getGroups"
	ScriptGetOUs       = "getOus"
	ScriptGetComputers = "getComputers"
	ScriptGetLogs      = "getLogs"
	ScriptAddUser      = "addUser"
	ScriptEditUser     = "editUser"
	ScriptDeleteUser   = "deleteUser"
	ScriptSetPassword  = "setPassword"
)

// Auditor records mutating operations. Satisfied by audit.Logger.
type Auditor interface {
	Record(eventType, target, detail string)
}

// Service is the domain layer between HTTP handlers and the scripts.
// Listings go through the TTL cache; mutations invalidate the affected
// listing before they return.
type Service struct {
	runner  script.Runner
	cache   *cache.Store
	auditor Auditor
	log     *slog.Logger
}

// NewService wires a directory service. auditor may be nil.
func NewService(runner script.Runner, store *cache.Store, auditor Auditor) *Service {
	return &Service{
		runner:  runner,
		cache:   store,
		auditor: auditor,
		log:     logging.Component("directory"),
	}
}

// Listing runs a read-only listing script through the cache.
func (s *Service) Listing(ctx context.Context, name string) script.Outcome {
	if v, ok := s.cache.Get(name); ok {
		return script.Outcome{Kind: script.KindOK, Data: v}
	}
	out := s.runner.Run(ctx, name, nil)
	if out.Kind == script.KindOK {
		s.cache.Put(name, out.Data)
	}
	return out
}

// Logs fetches and decodes the raw event log.
func (s *Service) Logs(ctx context.Context) ([]LogEntry, script.Outcome) {
	out := s.Listing(ctx, ScriptGetLogs)
	if out.Kind != script.KindOK {
		return nil, out
	}
	var entries []LogEntry
	if err := json.Unmarshal(out.Data, &entries); err != nil {
		s.log.Error("log listing not decodable", "error", err)
		return nil, script.Outcome{
			Kind:    script.KindBadOutput,
			Message: "directory script produced invalid output",
			Details: err.Error(),
		}
	}
	return entries, out
}

// AddUser creates a user. The full record travels on stdin.
func (s *Service) AddUser(ctx context.Context, u User) script.Outcome {
	out := s.runner.Run(ctx, ScriptAddUser, u)
	if out.Kind == script.KindOK {
		s.cache.Invalidate(ScriptGetUsers)
		s.audit(audit.EventUserCreate, u.SamAccountName, "ou="+u.OU)
	}
	return out
}

// EditUser applies a partial update to username.
func (s *Service) EditUser(ctx context.Context, username string, upd UserUpdate) script.Outcome {
	if err := ValidateIdentifier(username); err != nil {
		return script.Outcome{Kind: script.KindScriptError, Message: err.Error()}
	}
	out := s.runner.Run(ctx, ScriptEditUser, upd, username)
	if out.Kind == script.KindOK {
		s.cache.Invalidate(ScriptGetUsers)
		s.audit(audit.EventUserUpdate, username, "")
	}
	return out
}

// DeleteUser removes username. The identifier rides the command line,
// so it must pass sanitization.
func (s *Service) DeleteUser(ctx context.Context, username string) script.Outcome {
	if err := ValidateIdentifier(username); err != nil {
		return script.Outcome{Kind: script.KindScriptError, Message: err.Error()}
	}
	out := s.runner.Run(ctx, ScriptDeleteUser, nil, username)
	if out.Kind == script.KindOK {
		s.cache.Invalidate(ScriptGetUsers)
		var res DeleteResult
		if err := json.Unmarshal(out.Data, &res); err != nil {
			s.log.Warn("deleteUser response not decodable", "user", username, "error", err)
		}
		s.audit(audit.EventUserDelete, username, res.Message)
	}
	return out
}

// SetPassword changes one user's password. The secret travels on stdin.
func (s *Service) SetPassword(ctx context.Context, username, password string) script.Outcome {
	if err := ValidateIdentifier(username); err != nil {
		return script.Outcome{Kind: script.KindScriptError, Message: err.Error()}
	}
	payload := map[string]string{"samAccountName": username, "password": password}
	out := s.runner.Run(ctx, ScriptSetPassword, payload)
	if out.Kind == script.KindOK {
		s.cache.Invalidate(ScriptGetUsers)
		s.audit(audit.EventUserPassword, username, "")
	}
	return out
}

// BulkAudit records a bulk run summary in the audit trail.
func (s *Service) BulkAudit(eventType, detail string) {
	s.audit(eventType, "", detail)
}

func (s *Service) audit(eventType, target, detail string) {
	if s.auditor != nil {
		s.auditor.Record(eventType, target, detail)
	}
}
