package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aulanet-io/ad-console/internal/audit"
	"github.com/aulanet-io/ad-console/internal/batch"
	"github.com/aulanet-io/ad-console/internal/csvimport"
	"github.com/aulanet-io/ad-console/internal/directory"
	"github.com/aulanet-io/ad-console/internal/logging"
	"github.com/aulanet-io/ad-console/internal/password"
	"github.com/aulanet-io/ad-console/internal/script"
	"github.com/aulanet-io/ad-console/internal/sessions"
)

// Handlers holds the gateway's request handlers.
type Handlers struct {
	dir  *directory.Service
	jobs *batch.Registry
	log  *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(dir *directory.Service, jobs *batch.Registry) *Handlers {
	return &Handlers{
		dir:  dir,
		jobs: jobs,
		log:  logging.Component("api"),
	}
}

// writeOutcome maps a script outcome onto the HTTP error taxonomy.
// The OK branch is left to the caller, which knows the payload shape.
func writeOutcome(w http.ResponseWriter, out script.Outcome) {
	switch out.Kind {
	case script.KindScriptError:
		writeErrorDetails(w, http.StatusBadRequest, out.Message, out.Details)
	case script.KindTimeout:
		writeErrorDetails(w, http.StatusGatewayTimeout, out.Message, out.Details)
	case script.KindUnavailable:
		writeError(w, http.StatusServiceUnavailable, out.Message)
	default:
		writeErrorDetails(w, http.StatusInternalServerError, out.Message, out.Details)
	}
}

// ListingHandler serves a cached read-only listing.
func (h *Handlers) ListingHandler(scriptName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := h.dir.Listing(r.Context(), scriptName)
		if out.Kind != script.KindOK {
			writeOutcome(w, out)
			return
		}
		writeRaw(w, http.StatusOK, out.Data)
	}
}

// CreateUserHandler handles POST /api/users.
func (h *Handlers) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var u directory.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if err := directory.ValidateIdentifier(u.SamAccountName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := password.Validate(u.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.dir.AddUser(r.Context(), u)
	if out.Kind != script.KindOK {
		writeOutcome(w, out)
		return
	}
	writeRaw(w, http.StatusOK, out.Data)
}

// UpdateUserHandler handles PUT /api/users/{username}.
func (h *Handlers) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := directory.ValidateIdentifier(username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var upd directory.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if upd.Password != nil {
		if err := password.Validate(*upd.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	out := h.dir.EditUser(r.Context(), username, upd)
	if out.Kind != script.KindOK {
		writeOutcome(w, out)
		return
	}
	writeRaw(w, http.StatusOK, out.Data)
}

// DeleteUserHandler handles DELETE /api/users/{username}.
func (h *Handlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := directory.ValidateIdentifier(username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.dir.DeleteUser(r.Context(), username)
	if out.Kind != script.KindOK {
		writeOutcome(w, out)
		return
	}
	writeRaw(w, http.StatusOK, out.Data)
}

// SessionsHandler handles GET /api/sessions: derive from the raw log.
func (h *Handlers) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	entries, out := h.dir.Logs(r.Context())
	if out.Kind != script.KindOK {
		writeOutcome(w, out)
		return
	}
	writeJSON(w, http.StatusOK, sessions.Derive(entries, time.Now()))
}

// ImportHandler handles POST /api/users/import: validate the CSV and,
// unless dry_run is set, start the sequential creation batch.
func (h *Handlers) ImportHandler(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	records, err := csvimport.Parse(strings.NewReader(req.CSV))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "empty import")
		return
	}

	refs, out := h.loadRefs(r)
	if out != nil {
		writeOutcome(w, *out)
		return
	}

	rows, errs := csvimport.Validate(records, req.Password, refs)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "import blocked by validation", Errors: errs})
		return
	}
	if req.DryRun {
		writeJSON(w, http.StatusOK, map[string]int{"valid_rows": len(rows)})
		return
	}

	items := make([]batch.Item, len(rows))
	for i, row := range rows {
		items[i] = batch.Item{Identifier: row.SamAccountName, Payload: row}
	}

	// The job outlives the HTTP request on purpose: closing the browser
	// tab must not strand a half-created cohort.
	sharedPassword := req.Password
	id := h.jobs.Start(context.WithoutCancel(r.Context()), "import", items, h.createOp(sharedPassword))
	h.dir.BulkAudit(audit.EventBulkImport, fmt.Sprintf("job=%s total=%d", id, len(items)))
	writeJSON(w, http.StatusAccepted, importAccepted{JobID: id, Total: len(items)})
}

// BatchDeleteHandler handles POST /api/users/batch-delete.
func (h *Handlers) BatchDeleteHandler(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	items := make([]batch.Item, len(req.Usernames))
	for i, name := range req.Usernames {
		items[i] = batch.Item{Identifier: name}
	}

	id := h.jobs.Start(context.WithoutCancel(r.Context()), "delete", items, func(ctx context.Context, item batch.Item) error {
		return outcomeErr(h.dir.DeleteUser(ctx, item.Identifier))
	})
	h.dir.BulkAudit(audit.EventBulkDelete, fmt.Sprintf("job=%s total=%d", id, len(items)))
	writeJSON(w, http.StatusAccepted, importAccepted{JobID: id, Total: len(items)})
}

// BatchPasswordHandler handles POST /api/users/batch-password. The
// shared password is a global precondition: it fails the whole batch
// before any item is attempted.
func (h *Handlers) BatchPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req batchPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if len(req.Usernames) == 0 {
		writeError(w, http.StatusBadRequest, "no target users selected")
		return
	}
	if err := password.Validate(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]batch.Item, len(req.Usernames))
	for i, name := range req.Usernames {
		items[i] = batch.Item{Identifier: name}
	}

	pw := req.Password
	id := h.jobs.Start(context.WithoutCancel(r.Context()), "password", items, func(ctx context.Context, item batch.Item) error {
		return outcomeErr(h.dir.SetPassword(ctx, item.Identifier, pw))
	})
	h.dir.BulkAudit(audit.EventBulkPassword, fmt.Sprintf("job=%s total=%d", id, len(items)))
	writeJSON(w, http.StatusAccepted, importAccepted{JobID: id, Total: len(items)})
}

// BatchStatusHandler handles GET /api/batch/{id}.
func (h *Handlers) BatchStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, ok := h.jobs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown batch job")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// createOp builds the per-row operation for a CSV import batch.
func (h *Handlers) createOp(sharedPassword string) batch.Op {
	return func(ctx context.Context, item batch.Item) error {
		row, ok := item.Payload.(csvimport.Row)
		if !ok {
			return fmt.Errorf("bad batch payload for %s", item.Identifier)
		}
		u := directory.User{
			SamAccountName: row.SamAccountName,
			GivenName:      row.GivenName,
			SN:             row.SN,
			Password:       sharedPassword,
			OU:             row.OU,
			Groups:         []string{row.Group},
		}
		return outcomeErr(h.dir.AddUser(ctx, u))
	}
}

// outcomeErr converts a non-OK outcome into a per-item error.
func outcomeErr(out script.Outcome) error {
	if out.Kind == script.KindOK {
		return nil
	}
	if out.Details != "" {
		return fmt.Errorf("%s: %s", out.Message, out.Details)
	}
	return fmt.Errorf("%s", out.Message)
}

// loadRefs fetches the OU and group listings for referential checks.
func (h *Handlers) loadRefs(r *http.Request) (csvimport.Refs, *script.Outcome) {
	var ous, groups []string

	out := h.dir.Listing(r.Context(), directory.ScriptGetOUs)
	if out.Kind != script.KindOK {
		return csvimport.Refs{}, &out
	}
	if err := json.Unmarshal(out.Data, &ous); err != nil {
		bad := script.Outcome{Kind: script.KindBadOutput, Message: "directory script produced invalid output", Details: err.Error()}
		return csvimport.Refs{}, &bad
	}

	out = h.dir.Listing(r.Context(), directory.ScriptGetGroups)
	if out.Kind != script.KindOK {
		return csvimport.Refs{}, &out
	}
	if err := json.Unmarshal(out.Data, &groups); err != nil {
		bad := script.Outcome{Kind: script.KindBadOutput, Message: "directory script produced invalid output", Details: err.Error()}
		return csvimport.Refs{}, &bad
	}

	return csvimport.NewRefs(ous, groups), nil
}
