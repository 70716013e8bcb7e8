package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aulanet-io/ad-console/internal/poll"
	"github.com/aulanet-io/ad-console/internal/script"
	"github.com/aulanet-io/ad-console/internal/sessions"
)

// liveInterval is the base cadence of the session feed.
const liveInterval = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Cross-origin policy is enforced by the CORS middleware config;
	// the lab dashboards connect from a single configured origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveSessionsHandler handles GET /api/sessions/live: it upgrades to a
// websocket and pushes a freshly derived session report on every poll
// tick until the client goes away.
func (h *Handlers) LiveSessionsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain control frames; a read error means the client hung up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	p := poll.New(liveInterval)
	p.Run(ctx, func(ctx context.Context) error {
		entries, out := h.dir.Logs(ctx)
		if out.Kind != script.KindOK {
			// Transient backend trouble: keep the socket, let the
			// poller back off.
			return outcomeErr(out)
		}
		report := sessions.Derive(entries, time.Now())
		if err := conn.WriteJSON(report); err != nil {
			cancel()
			return err
		}
		return nil
	})
}
