package api

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aulanet-io/ad-console/internal/directory"
)

func TestLiveSessionsPushesReport(t *testing.T) {
	r := newStubRunner()
	r.on(directory.ScriptGetLogs, okOut(`[
		{"user":"AL001","event":"connect","ip":"10.0.0.5","lab":"B12","date":"2026-03-02T08:00:00Z"}
	]`))
	ts := newTestServer(t, r)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v (resp=%v)", err, resp)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var report struct {
		Active []struct {
			Username string `json:"username"`
			Status   string `json:"status"`
		} `json:"active_sessions"`
	}
	if err := conn.ReadJSON(&report); err != nil {
		t.Fatal(err)
	}
	if len(report.Active) != 1 || report.Active[0].Username != "AL001" || report.Active[0].Status != "active" {
		t.Errorf("report = %+v", report)
	}
}

func TestLiveSessionsClientHangup(t *testing.T) {
	r := newStubRunner()
	r.on(directory.ScriptGetLogs, okOut(`[]`))
	ts := newTestServer(t, r)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The handler must notice the hangup and return; the test server's
	// cleanup Close would block on a leaked hijacked connection.
	conn.Close()
}
