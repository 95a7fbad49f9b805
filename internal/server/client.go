// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/walkietalkie/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one WebSocket connection. It implements relay.Connection and
// reports its lifecycle to a Lifecycle.
type Client struct {
	id             string
	conn           *websocket.Conn
	lifecycle      Lifecycle
	log            *slog.Logger
	addr           string
	listener       string
	maxMessageSize int64
	rateLimiter    *rateLimiter
	burst          int
	interval       time.Duration

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient creates a Client for conn with a fresh UUID. The send queue and
// read limit come from cfg.
func NewClient(conn *websocket.Conn, lifecycle Lifecycle, cfg Config, addr, listener string, log *slog.Logger) *Client {
	if conn != nil {
		conn.SetReadLimit(int64(cfg.MaxMessageSize))
	}
	id := uuid.NewString()

	return &Client{
		id:             id,
		conn:           conn,
		lifecycle:      lifecycle,
		log:            log.With("conn", id, "addr", addr, "listener", listener),
		addr:           addr,
		listener:       listener,
		maxMessageSize: int64(cfg.MaxMessageSize),
		rateLimiter:    newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitInterval),
		burst:          cfg.RateLimitBurst,
		interval:       cfg.RateLimitInterval,
		send:           make(chan []byte, cfg.SendBufferSize),
	}
}

// ID returns the connection identity.
func (c *Client) ID() string {
	return c.id
}

// Listener names the listener that accepted the connection.
func (c *Client) Listener() string {
	return c.listener
}

// Send queues payload for the write pump without blocking.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears down the underlying connection. The read pump then reports the
// closure to the lifecycle.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Start announces the client and launches its pumps.
func (c *Client) Start() {
	c.lifecycle.Opened(c)
	go c.writePump()
	go c.readPump()
}

// closeQueue stops accepting payloads and lets the write pump drain and exit.
func (c *Client) closeQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("Error setting initial read deadline", "err", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("Error setting read deadline in pong handler", "err", err)
		}
		return nil
	})
}

// classifyReadError logs err and returns it when the connection ended
// abnormally, or nil for an orderly close.
func (c *Client) classifyReadError(err error) error {
	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warn("Message exceeded maximum size", "limit", c.maxMessageSize)
		return err
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Info("Client disconnected", "reason", err)
		return nil
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.log.Info("Client connection closed", "reason", err)
		return nil
	}

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		c.log.Warn("Unexpected WebSocket close", "err", err)
		return err
	}

	c.log.Warn("WebSocket read error", "err", err)
	return err
}

// checkRateLimit verifies if the client has exceeded rate limits
// and returns true if the message should be processed. Control events
// never spend tokens.
func (c *Client) checkRateLimit(raw []byte) bool {
	typ := relay.PeekType(raw)
	if typ.Control() {
		return true
	}
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.log.Warn("Rate limit exceeded; discarding message", "type", typ, "burst", c.burst, "interval", c.interval)
		return false
	}
	return true
}

func (c *Client) readPump() {
	var readErr error
	defer func() {
		c.closeQueue()
		if readErr != nil {
			c.lifecycle.Failed(c, readErr)
		} else {
			c.lifecycle.Closed(c)
		}
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			readErr = c.classifyReadError(err)
			return
		}

		if !c.checkRateLimit(raw) {
			continue
		}

		c.lifecycle.Message(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
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
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error closing connection", "err", err)
		}
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Debug("Error setting write deadline", "err", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Debug("Error writing close message", "err", err)
		}
	}
	return false
}

// writeTextMessage writes one event per frame; peers parse each frame as a
// single JSON object.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error writing message", "err", err)
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Debug("Error setting write deadline for ping", "err", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Warn("Error writing ping message", "err", err)
		return false
	}
	return true
}
