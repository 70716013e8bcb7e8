package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aulanet-io/ad-console/internal/batch"
)

func TestImportAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/import" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Password != "Secret123" {
			t.Errorf("password not forwarded, got %q", req.Password)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(ImportAccepted{JobID: "job-1", Total: 3})
	}))
	defer srv.Close()

	acc, err := New(srv.URL).Import(ImportRequest{CSV: "a,b,c,d,e\n", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if acc.JobID != "job-1" || acc.Total != 3 {
		t.Errorf("got %+v", acc)
	}
}

func TestImportValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"CSV validation failed","errors":["row 2: missing surname"]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Import(ImportRequest{CSV: "x\n"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 1 || verr.Errors[0] != "row 2: missing surname" {
		t.Errorf("got errors %v", verr.Errors)
	}
}

func TestImportDryRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"valid_rows":5}`))
	}))
	defer srv.Close()

	acc, err := New(srv.URL).Import(ImportRequest{CSV: "x\n", DryRun: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if acc.JobID != "" || acc.Total != 5 {
		t.Errorf("got %+v", acc)
	}
}

func TestJobStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/batch/job-9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"job-9","kind":"import","total":4,"completed":2,"percent":50,"done":false}`))
	}))
	defer srv.Close()

	snap, err := New(srv.URL).JobStatus("job-9")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if snap.Percent != 50 || snap.Done {
		t.Errorf("got %+v", snap)
	}
}

func TestJobStatusDecodesGatewayResult(t *testing.T) {
	// Serve a snapshot marshaled with the gateway's own types so the
	// client's mirror stays in lockstep with the wire format.
	gatewaySnap := batch.Snapshot{
		ID:        "job-3",
		Kind:      "import",
		Total:     2,
		Completed: 2,
		Percent:   100,
		Done:      true,
		Result: &batch.Result{
			Total:     2,
			Completed: 2,
			Succeeded: []batch.ItemSuccess{{Identifier: "AL002"}},
			Errors:    []batch.ItemError{{Identifier: "AL001", ErrorMessage: "ya existe"}},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gatewaySnap)
	}))
	defer srv.Close()

	snap, err := New(srv.URL).JobStatus("job-3")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if snap.Result == nil {
		t.Fatal("result not decoded")
	}
	if len(snap.Result.Succeeded) != 1 || snap.Result.Succeeded[0].Identifier != "AL002" {
		t.Errorf("succeeded = %+v", snap.Result.Succeeded)
	}
	if len(snap.Result.Errors) != 1 {
		t.Fatalf("errors = %+v", snap.Result.Errors)
	}
	if got := snap.Result.Errors[0].Message; got != "ya existe" {
		t.Errorf("decoded error message = %q, want %q", got, "ya existe")
	}
	if snap.Result.Errors[0].Identifier != "AL001" {
		t.Errorf("decoded error identifier = %q", snap.Result.Errors[0].Identifier)
	}
}

func TestJobStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown job"}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL).JobStatus("nope"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	if err := New(srv.URL).Health(); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestHealthDownGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	srv.Close()

	if err := New(srv.URL).Health(); err == nil {
		t.Fatal("expected error for unreachable gateway")
	}
}
