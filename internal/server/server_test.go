package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/sbgecom/internal/bridge"
	"github.com/muurk/sbgecom/internal/logs"
	"github.com/muurk/sbgecom/internal/protocol"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	srv := New(Config{}, hub, func() any { return map[string]int{"events": 7} })
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return hub, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub, ts := newTestServer(t)
	a, b := dial(t, ts), dial(t, ts)
	waitForClients(t, hub, 2)

	frame := protocol.Frame{ID: logs.EKFEulerID, Payload: []byte{1, 2}}
	if err := hub.Publish(context.Background(), bridge.NewEvent("ins", frame, nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	for i, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var e bridge.Event
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("client %d ReadJSON() error = %v", i, err)
		}
		if e.Name != "EKF_EULER" || e.Device != "ins" || len(e.Payload) != 2 {
			t.Errorf("client %d got %+v", i, e)
		}
	}
	if hub.Stats().Broadcast != 1 {
		t.Errorf("Broadcast = %d, want 1", hub.Stats().Broadcast)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub, ts := newTestServer(t)
	conn := dial(t, ts)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	c := &client{addr: "test", send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	e := bridge.NewEvent("ins", protocol.Frame{ID: logs.StatusID}, nil)
	for range 2 {
		if err := hub.Publish(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	if hub.ClientCount() != 0 || hub.Stats().Dropped != 1 {
		t.Errorf("clients = %d dropped = %d, want 0 and 1", hub.ClientCount(), hub.Stats().Dropped)
	}
	if _, ok := <-c.send; !ok {
		t.Error("queued event was lost")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel still open after drop")
	}
}

func TestStatusEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		path   string
		status int
		check  func(t *testing.T, body []byte)
	}{
		{
			path:   "/healthz",
			status: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				if string(body) != "ok" {
					t.Errorf("body = %q, want ok", body)
				}
			},
		},
		{
			path:   "/stats",
			status: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var got struct {
					Hub    HubStats       `json:"hub"`
					Bridge map[string]int `json:"bridge"`
				}
				if err := json.Unmarshal(body, &got); err != nil {
					t.Fatalf("body %s: %v", body, err)
				}
				if got.Bridge["events"] != 7 {
					t.Errorf("bridge stats = %v", got.Bridge)
				}
			},
		},
		{path: "/missing", status: http.StatusNotFound, check: func(*testing.T, []byte) {}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			tt.check(t, body)
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, NewHub(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
