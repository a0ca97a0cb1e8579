package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestClient starts a WebSocket server running serve and returns a client
// wrapped around the dialing side.
func dialTestClient(t *testing.T, maxMessageSize int64, serve func(conn *websocket.Conn)) *WebSocketClient {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	client := NewWebSocketClient(conn, 7, maxMessageSize)
	t.Cleanup(func() { client.Close() })
	return client
}

// TestWebSocketClient_ReadMessage_SkipsBlank tests that blank frames are
// skipped in a loop rather than surfaced to the caller.
func TestWebSocketClient_ReadMessage_SkipsBlank(t *testing.T) {
	client := dialTestClient(t, 0, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(""))
		conn.WriteMessage(websocket.TextMessage, []byte("   "))
		conn.WriteMessage(websocket.TextMessage, []byte("\n\n\n"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"turn","response":"I wept."}`))
		time.Sleep(100 * time.Millisecond)
	})

	var req wsRequest
	if err := client.ReadMessage(&req); err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if req.Op != opTurn || req.Response != "I wept." {
		t.Errorf("Unexpected request: %+v", req)
	}
}

func TestWebSocketClient_ReadMessage_Malformed(t *testing.T) {
	client := dialTestClient(t, 0, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("turn please"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"sheet"}`))
		time.Sleep(100 * time.Millisecond)
	})

	var req wsRequest
	err := client.ReadMessage(&req)
	var malformed errMalformedMessage
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected errMalformedMessage, got %v", err)
	}
	if !errors.Is(err, errBadRequest) {
		t.Error("Malformed messages should map to a bad request")
	}

	// The connection survives a malformed frame.
	if err := client.ReadMessage(&req); err != nil {
		t.Fatalf("ReadMessage after malformed frame failed: %v", err)
	}
	if req.Op != opSheet {
		t.Errorf("Expected sheet op, got %q", req.Op)
	}
}

func TestWebSocketClient_ReadLimit(t *testing.T) {
	client := dialTestClient(t, 16, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"turn","response":"far too long for the limit"}`))
		time.Sleep(100 * time.Millisecond)
	})

	var req wsRequest
	err := client.ReadMessage(&req)
	if err == nil {
		t.Fatal("Expected an error for an oversized message")
	}
	var malformed errMalformedMessage
	if errors.As(err, &malformed) {
		t.Errorf("Oversized message should close the connection, got %v", err)
	}
}

func TestWebSocketClient_WriteJSON(t *testing.T) {
	received := make(chan string, 1)
	client := dialTestClient(t, 0, func(conn *websocket.Conn) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			received <- ""
			return
		}
		received <- string(msg)
	})

	if err := client.WriteJSON(wsReply{Op: opHello, ConnectionID: client.ID()}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	msg := <-received
	if !strings.Contains(msg, `"op":"hello"`) || !strings.Contains(msg, client.ID()) {
		t.Errorf("Unexpected message: %q", msg)
	}
}

func TestWebSocketClient_Identity(t *testing.T) {
	client := dialTestClient(t, 0, func(conn *websocket.Conn) {
		time.Sleep(50 * time.Millisecond)
	})
	other := dialTestClient(t, 0, func(conn *websocket.Conn) {
		time.Sleep(50 * time.Millisecond)
	})

	if client.ID() == "" || client.ID() == other.ID() {
		t.Errorf("Expected distinct non-empty ids, got %q and %q", client.ID(), other.ID())
	}
	if client.VampireID() != 7 {
		t.Errorf("Expected vampire 7, got %d", client.VampireID())
	}
	if client.RemoteAddr() == "" {
		t.Error("RemoteAddr should not be empty")
	}
}
