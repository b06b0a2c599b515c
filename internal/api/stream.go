package api

import (
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/hackgods/clinic-scheduling/internal/notify"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

// streamMessage is what the notification stream sends to clients.
type streamMessage struct {
	Type         string                `json:"type"` // "history", "notification"
	Notification *notify.Notification  `json:"notification,omitempty"`
	History      []notify.Notification `json:"history,omitempty"`
}

// notificationStreamHandler pushes feed notifications over a WebSocket. The
// recent history is sent first, then every notification as it happens.
func notificationStreamHandler(feed *notify.Feed, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if feed == nil {
			writeError(w, http.StatusServiceUnavailable, "stream_disabled", "notification feed is not configured")
			return
		}
		websocket.Handler(func(conn *websocket.Conn) {
			serveStream(conn, feed, logger)
		}).ServeHTTP(w, r)
	}
}

func serveStream(conn *websocket.Conn, feed *notify.Feed, logger *logging.Logger) {
	updates, cancel := feed.Subscribe(32)
	defer cancel()

	if err := websocket.JSON.Send(conn, streamMessage{Type: "history", History: feed.Recent(20)}); err != nil {
		return
	}

	// the client never sends anything meaningful; a read error means it left
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard any
		for {
			if err := websocket.JSON.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	logger.Debug("notification stream opened", "remote", conn.Request().RemoteAddr)
	for {
		select {
		case <-closed:
			logger.Debug("notification stream closed")
			return
		case n, ok := <-updates:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, streamMessage{Type: "notification", Notification: &n}); err != nil {
				logger.Debug("notification stream send failed", "error", err)
				return
			}
		}
	}
}
