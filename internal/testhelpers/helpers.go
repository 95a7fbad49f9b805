// Package testhelpers provides common utilities and helper functions for
// testing the walkie-talkie relay.
//
// It provides functions for dialing test servers, exchanging wire events and
// asserting on what a connection receives, to reduce duplication in the
// transport tests.
package testhelpers

import (
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// TestOrigin is the Origin header sent by ConnectWebSocket.
const TestOrigin = "http://localhost:3000"

// Event is a decoded wire event.
type Event = map[string]any

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// BuildWebSocketURL turns an httptest server URL into the WebSocket endpoint URL.
func BuildWebSocketURL(serverURL, path string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + path
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// ConnectWebSocket creates a WebSocket connection to the specified URL.
// It returns the connection or an error if connection fails.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	return ConnectWebSocketWithOrigin(url, TestOrigin)
}

// ConnectWebSocketWithOrigin dials url sending origin; an empty origin omits
// the header.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, error) {
	return Dial(url, origin, nil)
}

// Dial connects with an optional TLS configuration for wss:// URLs.
func Dial(url, origin string, tlsConfig *tls.Config) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
		TLSClientConfig:  tlsConfig,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// MustConnect dials url and fails the test on error. The connection is
// closed when the test ends.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, err := ConnectWebSocket(url)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent writes event as one JSON text frame.
func SendEvent(t *testing.T, conn *websocket.Conn, event Event) {
	t.Helper()
	if err := conn.WriteJSON(event); err != nil {
		t.Fatalf("Failed to send %v: %v", event["type"], err)
	}
}

// ReceiveEvent reads one frame and decodes it as a JSON object.
func ReceiveEvent(conn *websocket.Conn, timeout time.Duration) (Event, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return event, nil
}

// MustReceive reads one event and fails the test if none arrives within a second.
func MustReceive(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	event, err := ReceiveEvent(conn, time.Second)
	if err != nil {
		t.Fatalf("Expected an event: %v", err)
	}
	return event
}

// ExpectNoMessage fails the test if conn receives anything within wait. The
// read deadline error is permanent, so this must be the last read on conn.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Errorf("Expected no message, got %s", data)
	}
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
