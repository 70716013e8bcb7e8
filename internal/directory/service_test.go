package directory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aulanet-io/ad-console/internal/cache"
	"github.com/aulanet-io/ad-console/internal/script"
)

// fakeRunner returns queued outcomes and records invocations.
type fakeRunner struct {
	outcomes []script.Outcome
	calls    []call
}

type call struct {
	name  string
	stdin any
	args  []string
}

func (f *fakeRunner) Run(_ context.Context, name string, stdin any, args ...string) script.Outcome {
	f.calls = append(f.calls, call{name: name, stdin: stdin, args: args})
	if len(f.outcomes) == 0 {
		return script.Outcome{Kind: script.KindOK, Data: json.RawMessage(`{}`)}
	}
	out := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return out
}

func ok(data string) script.Outcome {
	return script.Outcome{Kind: script.KindOK, Data: json.RawMessage(data)}
}

// fakeAuditor records audit calls.
type fakeAuditor struct {
	events  []string
	targets []string
	details []string
}

func (f *fakeAuditor) Record(eventType, target, detail string) {
	f.events = append(f.events, eventType)
	f.targets = append(f.targets, target)
	f.details = append(f.details, detail)
}

func TestListingCachesSuccess(t *testing.T) {
	r := &fakeRunner{outcomes: []script.Outcome{ok(`["a"]`)}}
	svc := NewService(r, cache.New(time.Minute), nil)

	first := svc.Listing(context.Background(), ScriptGetGroups)
	second := svc.Listing(context.Background(), ScriptGetGroups)

	if first.Kind != script.KindOK || second.Kind != script.KindOK {
		t.Fatal("expected OK outcomes")
	}
	if len(r.calls) != 1 {
		t.Errorf("script ran %d times, want 1", len(r.calls))
	}
	if string(second.Data) != `["a"]` {
		t.Errorf("cached data = %s", second.Data)
	}
}

func TestListingDoesNotCacheErrors(t *testing.T) {
	r := &fakeRunner{outcomes: []script.Outcome{
		{Kind: script.KindBadOutput, Message: "directory script failed"},
		ok(`[]`),
	}}
	svc := NewService(r, cache.New(time.Minute), nil)

	if out := svc.Listing(context.Background(), ScriptGetUsers); out.Kind != script.KindBadOutput {
		t.Fatalf("kind = %v", out.Kind)
	}
	if out := svc.Listing(context.Background(), ScriptGetUsers); out.Kind != script.KindOK {
		t.Fatalf("kind = %v", out.Kind)
	}
	if len(r.calls) != 2 {
		t.Errorf("script ran %d times, want 2", len(r.calls))
	}
}

func TestDeleteUserInvalidatesUsersListing(t *testing.T) {
	r := &fakeRunner{outcomes: []script.Outcome{
		ok(`[{"samAccountName":"AL001"}]`),
		ok(`{"success":true,"message":"deleted"}`),
		ok(`[]`),
	}}
	svc := NewService(r, cache.New(time.Minute), nil)

	svc.Listing(context.Background(), ScriptGetUsers)
	if out := svc.DeleteUser(context.Background(), "AL001"); out.Kind != script.KindOK {
		t.Fatalf("delete failed: %v", out.Message)
	}

	out := svc.Listing(context.Background(), ScriptGetUsers)
	if string(out.Data) != `[]` {
		t.Errorf("stale listing after delete: %s", out.Data)
	}
	if len(r.calls) != 3 {
		t.Errorf("script ran %d times, want 3", len(r.calls))
	}
}

func TestDeleteUserAuditsScriptMessage(t *testing.T) {
	r := &fakeRunner{outcomes: []script.Outcome{
		ok(`{"success":true,"message":"removed from CC"}`),
	}}
	aud := &fakeAuditor{}
	svc := NewService(r, cache.New(time.Minute), aud)

	if out := svc.DeleteUser(context.Background(), "AL001"); out.Kind != script.KindOK {
		t.Fatalf("delete failed: %v", out.Message)
	}

	if len(aud.events) != 1 {
		t.Fatalf("audit records = %d, want 1", len(aud.events))
	}
	if aud.targets[0] != "AL001" {
		t.Errorf("audit target = %q", aud.targets[0])
	}
	if aud.details[0] != "removed from CC" {
		t.Errorf("audit detail = %q, want script message", aud.details[0])
	}
}

func TestDeleteUserRejectsUnsafeIdentifier(t *testing.T) {
	r := &fakeRunner{}
	svc := NewService(r, cache.New(time.Minute), nil)

	out := svc.DeleteUser(context.Background(), "AL001; rm -rf /")
	if out.Kind != script.KindScriptError {
		t.Fatalf("kind = %v", out.Kind)
	}
	if len(r.calls) != 0 {
		t.Error("no script should run for an unsafe identifier")
	}
}

func TestFailedDeleteKeepsCache(t *testing.T) {
	r := &fakeRunner{outcomes: []script.Outcome{
		ok(`[{"samAccountName":"AL001"}]`),
		{Kind: script.KindScriptError, Message: "no existe"},
	}}
	svc := NewService(r, cache.New(time.Minute), nil)

	svc.Listing(context.Background(), ScriptGetUsers)
	svc.DeleteUser(context.Background(), "AL002")

	out := svc.Listing(context.Background(), ScriptGetUsers)
	if len(r.calls) != 2 {
		t.Errorf("script ran %d times, want 2 (listing still cached)", len(r.calls))
	}
	if string(out.Data) != `[{"samAccountName":"AL001"}]` {
		t.Errorf("listing = %s", out.Data)
	}
}

func TestLogsDecodes(t *testing.T) {
	r := &fakeRunner{outcomes: []script.Outcome{
		ok(`[{"user":"AL001","event":"connect","ip":"10.0.0.5","lab":"B12","date":"2026-03-02T08:00:00Z","details":""}]`),
	}}
	svc := NewService(r, cache.New(time.Minute), nil)

	entries, out := svc.Logs(context.Background())
	if out.Kind != script.KindOK {
		t.Fatalf("kind = %v", out.Kind)
	}
	if len(entries) != 1 || entries[0].User != "AL001" || entries[0].Event != EventConnect {
		t.Errorf("entries = %+v", entries)
	}
}

func TestValidateIdentifier(t *testing.T) {
	for _, id := range []string{"AL001", "jose.garcia", "user_name", "a-b.c"} {
		if err := ValidateIdentifier(id); err != nil {
			t.Errorf("ValidateIdentifier(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", "a b", "x;y", "$(reboot)", "ñandu", "a/b"} {
		if err := ValidateIdentifier(id); err == nil {
			t.Errorf("ValidateIdentifier(%q) should fail", id)
		}
	}
}
