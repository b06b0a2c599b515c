package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/hackgods/clinic-scheduling/internal/notify"
)

func TestNotificationStream(t *testing.T) {
	s := newTestServer(t, nil)
	s.feed.Success(context.Background(), "warm-up")

	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/stream"
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	var first streamMessage
	require.NoError(t, websocket.JSON.Receive(conn, &first))
	assert.Equal(t, "history", first.Type)
	require.Len(t, first.History, 1)
	assert.Equal(t, "warm-up", first.History[0].Message)

	ok, err := s.svc.Cancel(context.Background(), "appt_1")
	require.NoError(t, err)
	require.True(t, ok)

	var next streamMessage
	require.NoError(t, websocket.JSON.Receive(conn, &next))
	assert.Equal(t, "notification", next.Type)
	require.NotNil(t, next.Notification)
	assert.Equal(t, notify.LevelSuccess, next.Notification.Level)
}

func TestNotificationStream_NoFeed(t *testing.T) {
	h := NewRouter(RouterConfig{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
