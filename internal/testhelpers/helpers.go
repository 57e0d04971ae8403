// Package testhelpers provides common utilities for testing the chat server.
//
// It wraps the gorilla dialer with the origin header the server expects and
// reads protocol frames with deadlines so tests never hang on a silent
// connection.
package testhelpers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every blocking read in these helpers.
const DefaultTimeout = 2 * time.Second

// Frame is a decoded server frame.
type Frame struct {
	Event string          `json:"event"`
	ID    uint64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is the data of a message frame.
type Message struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// User is one roomData entry.
type User struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// RoomData is the data of a roomData frame.
type RoomData struct {
	Room  string `json:"room"`
	Users []User `json:"users"`
}

// Ack is the data of an ack frame.
type Ack struct {
	Error string `json:"error,omitempty"`
}

// WebSocketURL turns an httptest server URL into its /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err, "create request")

	resp, err := client.Do(req)
	require.NoError(t, err, "make request")

	return resp
}

// ConnectWebSocket dials url with the given Origin header.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials url and registers the connection for closing.
func MustConnect(t *testing.T, url, origin string) *websocket.Conn {
	t.Helper()
	conn, _, err := ConnectWebSocket(url, origin)
	require.NoError(t, err, "dial %s", url)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendFrame writes one protocol frame.
func SendFrame(t *testing.T, conn *websocket.Conn, event string, id uint64, data any) {
	t.Helper()
	frame := map[string]any{"event": event, "data": data}
	if id != 0 {
		frame["id"] = id
	}
	require.NoError(t, conn.WriteJSON(frame))
}

// ReadFrame reads the next frame, failing the test after DefaultTimeout.
func ReadFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(DefaultTimeout)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// ExpectMessage reads a frame and checks it is the given message.
func ExpectMessage(t *testing.T, conn *websocket.Conn, user, text string) {
	t.Helper()
	frame := ReadFrame(t, conn)
	require.Equal(t, "message", frame.Event, "frame: %s", frame.Data)
	var msg Message
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	require.Equal(t, Message{User: user, Text: text}, msg)
}

// ExpectRoomData reads a frame and checks it is the given roster.
func ExpectRoomData(t *testing.T, conn *websocket.Conn, room string, users ...User) {
	t.Helper()
	frame := ReadFrame(t, conn)
	require.Equal(t, "roomData", frame.Event, "frame: %s", frame.Data)
	var data RoomData
	require.NoError(t, json.Unmarshal(frame.Data, &data))
	require.Equal(t, room, data.Room)
	require.Equal(t, users, data.Users)
}

// ExpectAck reads a frame and checks it acknowledges id with errText.
func ExpectAck(t *testing.T, conn *websocket.Conn, id uint64, errText string) {
	t.Helper()
	frame := ReadFrame(t, conn)
	require.Equal(t, "ack", frame.Event, "frame: %s", frame.Data)
	require.Equal(t, id, frame.ID)
	var ack Ack
	require.NoError(t, json.Unmarshal(frame.Data, &ack))
	require.Equal(t, errText, ack.Error)
}

// ExpectNoFrame fails if anything arrives within timeout.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no frame, got %s", data)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected read timeout, got %v", err)
	}
}

// ExpectClosed waits for the server to close conn.
func ExpectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(DefaultTimeout)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatalf("connection still open after %s", DefaultTimeout)
			}
			return
		}
	}
}
