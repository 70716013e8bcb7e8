// Package sessions derives connection sessions from the flat lab event
// log. Nothing here is persisted; every fetch recomputes from scratch.
package sessions

import (
	"sort"
	"time"

	"github.com/aulanet-io/ad-console/internal/directory"
	"github.com/aulanet-io/ad-console/internal/logging"
)

// Status of a derived session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session pairs a connect with its disconnect for one (user, ip) key.
// EndTime is nil while the session is active; Duration for an active
// session is measured against the anchor passed to Derive, so callers
// displaying a live value recompute it locally from StartTime.
type Session struct {
	Username  string     `json:"username"`
	IP        string     `json:"ip"`
	Lab       string     `json:"lab"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Duration  int64      `json:"duration"` // seconds
	Status    Status     `json:"status"`
}

// Report is the derivation result.
type Report struct {
	Active    []Session `json:"active_sessions"`
	Completed []Session `json:"completed_sessions"`
	// Orphaned counts disconnect events with no unpaired connect.
	// They are dropped from the report but surfaced here so a client
	// can flag the anomaly.
	Orphaned int `json:"orphaned_disconnects,omitempty"`
}

// Derive pairs connect/disconnect events per (user, ip) key. Pairing is
// FIFO: when several connects precede one disconnect, the oldest
// unpaired connect closes first. Entries with an empty IP group under
// the bare user key. now anchors active-session durations.
func Derive(entries []directory.LogEntry, now time.Time) Report {
	log := logging.Component("sessions")

	// Chronological order first; the log is not guaranteed sorted.
	sorted := make([]directory.LogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	type key struct{ user, ip string }
	open := make(map[key][]Session) // FIFO queues of unclosed sessions

	report := Report{Active: []Session{}, Completed: []Session{}}

	for _, e := range sorted {
		k := key{user: e.User, ip: e.IP}
		switch e.Event {
		case directory.EventConnect:
			open[k] = append(open[k], Session{
				Username:  e.User,
				IP:        e.IP,
				Lab:       e.Lab,
				StartTime: e.Date,
			})
		case directory.EventDisconnect:
			queue := open[k]
			if len(queue) == 0 {
				report.Orphaned++
				log.Warn("orphaned disconnect dropped", "user", e.User, "ip", e.IP, "date", e.Date)
				continue
			}
			s := queue[0]
			open[k] = queue[1:]
			end := e.Date
			s.EndTime = &end
			s.Duration = int64(end.Sub(s.StartTime).Seconds())
			s.Status = StatusCompleted
			report.Completed = append(report.Completed, s)
		default:
			// Non-connection events carry no session information.
		}
	}

	for _, queue := range open {
		for _, s := range queue {
			s.Duration = int64(now.Sub(s.StartTime).Seconds())
			s.Status = StatusActive
			report.Active = append(report.Active, s)
		}
	}

	// Deterministic output regardless of map iteration.
	sort.Slice(report.Active, func(i, j int) bool {
		return report.Active[i].StartTime.Before(report.Active[j].StartTime)
	})
	sort.Slice(report.Completed, func(i, j int) bool {
		return report.Completed[i].StartTime.Before(report.Completed[j].StartTime)
	})
	return report
}
