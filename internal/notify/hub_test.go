package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubReachability(t *testing.T) {
	h := NewHub()
	assert.False(t, h.Reachable("u1"))

	s := &session{send: make(chan Notification, 1)}
	h.attach("u1", s)
	assert.True(t, h.Reachable("u1"))
	assert.False(t, h.Reachable("u2"))

	h.detach("u1", s)
	assert.False(t, h.Reachable("u1"))
}

func TestHubPushFansOutToAllSessions(t *testing.T) {
	h := NewHub()
	s1 := &session{send: make(chan Notification, 1)}
	s2 := &session{send: make(chan Notification, 1)}
	h.attach("u1", s1)
	h.attach("u1", s2)

	require.NoError(t, h.Push("u1", MoodCheck()))
	for _, s := range []*session{s1, s2} {
		select {
		case n := <-s.send:
			assert.Equal(t, "mood_check", n.Kind)
		default:
			t.Fatal("session did not receive push")
		}
	}
}

func TestHubPushDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	s := &session{send: make(chan Notification)} // unbuffered, nobody reading
	h.attach("u1", s)

	done := make(chan struct{})
	go func() {
		h.Push("u1", MoodCheck())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on slow session")
	}
}

func TestHubServeDeliversOverWebsocket(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "u1")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Reachable("u1") }, time.Second, 10*time.Millisecond)

	require.NoError(t, h.Push("u1", DailyDigest()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var n Notification
	require.NoError(t, json.Unmarshal(payload, &n))
	assert.Equal(t, "newsletter", n.Kind)
	assert.Contains(t, n.Title, "Daily Finance Digest")
}
