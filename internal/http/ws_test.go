package http_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T) *websocket.Conn {
	t.Helper()

	router, _, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestWebsocketEchoesTextFrames(t *testing.T) {
	conn := dialWS(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var reply struct {
		Data string `json:"data"`
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if reply.Data != "message received" {
		t.Fatalf("reply = %q, want %q", reply.Data, "message received")
	}
}

func TestWebsocketIgnoresBinaryFrames(t *testing.T) {
	conn := dialWS(t)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("binary write failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("after binary")); err != nil {
		t.Fatalf("text write failed: %v", err)
	}

	// the one reply that arrives belongs to the text frame; the binary
	// frame produced nothing
	var reply struct {
		Data string `json:"data"`
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Data != "message received" {
		t.Fatalf("reply = %q, want %q", reply.Data, "message received")
	}

	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn.ReadJSON(&reply); err == nil {
		t.Fatal("binary frame produced an unexpected reply")
	}
}
