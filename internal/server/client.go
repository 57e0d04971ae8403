// Package server manages individual WebSocket clients, handling read/write
// pumps, protocol dispatch, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/chat"
)

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Client represents a WebSocket client connection in the chat system.
// It owns the connection's chat session and the buffered channel feeding
// its write pump.
type Client struct {
	id      chat.ConnectionID
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	relay   *chat.Relay
	session *chat.Session
	addr    string
	log     *slog.Logger

	maxMessageSize int64
	pongWait       time.Duration
	writeWait      time.Duration
	pingPeriod     time.Duration

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Client with a fresh connection id and an
// Unjoined chat session. The send channel is buffered to absorb bursts.
func NewClient(conn *websocket.Conn, hub *Hub, relay *chat.Relay, addr string, cfg *Config) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	id := chat.ConnectionID(uuid.NewString())

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, cfg.SendBufferSize),
		hub:            hub,
		relay:          relay,
		session:        relay.NewSession(id),
		addr:           addr,
		log:            hub.log.With("connectionId", id, "addr", addr),
		maxMessageSize: cfg.MaxMessageSize,
		pongWait:       cfg.PongWait,
		writeWait:      cfg.WriteWait,
		pingPeriod:     cfg.pingPeriod(),
	}
}

// ID returns the connection id assigned at upgrade time.
func (c *Client) ID() chat.ConnectionID { return c.id }

// GetSendChan returns the client's send channel for reading outgoing messages.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// Send queues data for the write pump without blocking. A client whose
// buffer is full is considered too slow and is disconnected.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.log.Warn("send buffer full; dropping client")
		go c.closeConnection()
		return errSendBufferFull
	}
}

// closeSend closes the send channel once, which stops the write pump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
		c.log.Warn("error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
			c.log.Warn("error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// handleReadError logs the read failure at a level matching how expected it is.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("message exceeded maximum size", "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Debug("client disconnected", "error", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug("client connection closed", "error", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn("unexpected WebSocket close", "error", err)
	default:
		c.log.Warn("WebSocket read error", "error", err)
	}
}

// handleFrame decodes one inbound frame, applies it to the session, and
// acknowledges it.
func (c *Client) handleFrame(raw []byte) {
	var frame chat.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.log.Debug("invalid frame", "error", err)
		c.ack(0, chat.AckInvalidPayload)
		return
	}

	switch frame.Event {
	case chat.EventJoin:
		var payload chat.JoinPayload
		if err := decodeData(frame.Data, &payload); err != nil {
			c.ack(frame.ID, chat.AckInvalidPayload)
			return
		}
		err := c.relay.Join(c.session, payload.Name, payload.Room)
		c.ack(frame.ID, chat.AckError(chat.EventJoin, err))

	case chat.EventSendMessage:
		var payload chat.SendMessagePayload
		if err := decodeData(frame.Data, &payload); err != nil {
			c.ack(frame.ID, chat.AckInvalidPayload)
			return
		}
		err := c.relay.SendMessage(c.session, payload.Text)
		c.ack(frame.ID, chat.AckError(chat.EventSendMessage, err))

	default:
		c.log.Debug("unknown event", "event", frame.Event)
		c.ack(frame.ID, chat.AckUnknownEvent)
	}
}

func (c *Client) ack(id uint64, errText string) {
	data, err := chat.AckEvent(id, errText).Encode()
	if err != nil {
		c.log.Error("encode ack", "error", err)
		return
	}
	if err := c.Send(data); err != nil {
		c.log.Debug("ack not delivered", "error", err)
	}
}

// decodeData leaves v untouched when the frame carried no data.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (c *Client) readPump() {
	defer func() {
		c.relay.Disconnect(c.session)
		c.hub.Unregister(c)
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		c.handleFrame(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("error closing connection", "error", err)
	}
}

// handleMessage writes one outgoing frame and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		c.log.Warn("error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing message", "error", err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing close message", "error", err)
		}
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		c.log.Warn("error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Debug("error writing ping message", "error", err)
		return false
	}
	return true
}
