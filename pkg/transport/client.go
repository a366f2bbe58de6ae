// Package transport maintains one logical WebSocket connection to the
// deployment server. Messages sent while disconnected are queued and
// replayed in FIFO order on reconnect; unexpected closes trigger exponential
// backoff reconnection up to a bounded attempt count.
//
// There is no package-level singleton: each Client is an explicit instance
// owned by whatever needs one connection per target URL, and Disconnect is
// the teardown for test isolation.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"studio/pkg/logx"
	"studio/pkg/proto"
)

// Default connection constants.
const (
	DefaultDialTimeout          = 10 * time.Second
	DefaultWriteWait            = 10 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultMaxReconnectAttempts = 5
)

// ConnState is the client's connection lifecycle state.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// Config configures the transport client.
type Config struct {
	// URL is the WebSocket endpoint URL.
	URL string

	// Headers are sent during the WebSocket handshake.
	Headers http.Header

	// DialTimeout is the handshake timeout. Defaults to DefaultDialTimeout.
	DialTimeout time.Duration

	// WriteWait is the write deadline for each message. Defaults to DefaultWriteWait.
	WriteWait time.Duration

	// ReconnectBaseDelay is the initial backoff delay; it doubles on each
	// consecutive failed attempt. Defaults to DefaultReconnectBaseDelay.
	ReconnectBaseDelay time.Duration

	// MaxReconnectAttempts caps consecutive automatic reconnect attempts.
	// Exceeding the cap stops retrying silently; the caller must observe the
	// disconnected state and call Connect again. Defaults to
	// DefaultMaxReconnectAttempts.
	MaxReconnectAttempts int
}

func (c *Config) defaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.WriteWait == 0 {
		c.WriteWait = DefaultWriteWait
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
}

// Handle identifies one registered listener. Cancel removes exactly that
// listener and no others.
type Handle struct {
	cancel func()
	once   sync.Once
}

// Cancel removes the listener.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Client is a reconnecting WebSocket client.
type Client struct {
	cfg    Config
	logger *logx.Logger

	mu      sync.Mutex
	writeMu sync.Mutex // serializes writes (gorilla/websocket requirement)

	conn        *websocket.Conn
	state       ConnState
	queue       [][]byte // Unbounded while disconnected; flushed FIFO on connect
	intentional bool

	reconnectTimer    *time.Timer
	reconnectAttempts int

	nextListenerID      int
	connectListeners    map[int]func()
	disconnectListeners map[int]func(err error)
	messageListeners    map[int]func(data []byte)
}

// NewClient creates a disconnected client for the configured URL.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		cfg:                 cfg,
		logger:              logx.NewLogger("transport"),
		state:               StateDisconnected,
		connectListeners:    make(map[int]func()),
		disconnectListeners: make(map[int]func(err error)),
		messageListeners:    make(map[int]func(data []byte)),
	}
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ReconnectAttempts returns the consecutive automatic reconnect attempts made
// since the last successful connection.
func (c *Client) ReconnectAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectAttempts
}

// QueuedMessages returns the number of messages waiting for a connection.
func (c *Client) QueuedMessages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Connect establishes the connection, flushes any messages queued while
// disconnected in FIFO order, and starts the read pump. It resolves once the
// underlying channel is open.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateConnecting {
		c.mu.Unlock()
		return fmt.Errorf("connect already in progress")
	}
	c.state = StateConnecting
	c.intentional = false
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, c.cfg.Headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.reconnectAttempts = 0
	c.mu.Unlock()

	// Flush the offline queue before announcing the connection ready.
	c.flushQueue(conn)

	c.logger.Info("connected to %s", c.cfg.URL)
	go c.readPump(conn)
	c.fireConnect()
	return nil
}

// flushQueue drains the offline queue in FIFO order and marks the connection
// ready. A Send can land on the queue while a flush pass is writing, so the
// loop re-checks under the lock and only announces ready once a pass finds
// the queue empty.
func (c *Client) flushQueue(conn *websocket.Conn) {
	for {
		c.mu.Lock()
		pending := c.queue
		c.queue = nil
		if len(pending) == 0 {
			c.state = StateConnected
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		for _, data := range pending {
			if writeErr := c.write(conn, data); writeErr != nil {
				c.logger.Warn("failed to flush queued message: %v", writeErr)
			}
		}
	}
}

// Send transmits the message immediately when connected; otherwise it appends
// to the offline queue. The queue is unbounded: a long disconnect grows it
// without limit, which is accepted for the single-session message volumes
// this client carries.
func (c *Client) Send(msg any) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateConnected || c.conn == nil {
		c.queue = append(c.queue, data)
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.mu.Unlock()

	return c.write(conn, data)
}

// Subscribe joins a session channel. Channel membership is server-enforced;
// the client does not track it.
func (c *Client) Subscribe(channel string) error {
	return c.Send(proto.NewChannelMsg(proto.MsgTypeSubscribe, channel))
}

// Unsubscribe leaves a session channel.
func (c *Client) Unsubscribe(channel string) error {
	return c.Send(proto.NewChannelMsg(proto.MsgTypeUnsubscribe, channel))
}

// Disconnect closes the connection intentionally. Any scheduled reconnect is
// canceled and no further automatic reconnection occurs until Connect is
// called again.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	wasConnected := c.state == StateConnected
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
		_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
		c.writeMu.Unlock()
		_ = conn.Close()
	}

	if wasConnected {
		c.fireDisconnect(nil)
	}
}

// OnConnect registers a listener fired after each successful connection.
func (c *Client) OnConnect(fn func()) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListenerID
	c.nextListenerID++
	c.connectListeners[id] = fn
	return &Handle{cancel: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.connectListeners, id)
	}}
}

// OnDisconnect registers a listener fired when the connection drops. err is
// nil for caller-initiated disconnects.
func (c *Client) OnDisconnect(fn func(err error)) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListenerID
	c.nextListenerID++
	c.disconnectListeners[id] = fn
	return &Handle{cancel: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.disconnectListeners, id)
	}}
}

// OnMessage registers a listener fired for each received message.
func (c *Client) OnMessage(fn func(data []byte)) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListenerID
	c.nextListenerID++
	c.messageListeners[id] = fn
	return &Handle{cancel: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.messageListeners, id)
	}}
}

func (c *Client) write(conn *websocket.Conn, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// readPump reads until the connection drops, then hands off to the
// disconnect path.
func (c *Client) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}
		c.fireMessage(data)
	}
}

// handleClose runs when the read pump observes a closed connection. A stale
// pump (the client already moved to a newer connection) is ignored.
func (c *Client) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	intentional := c.intentional
	c.mu.Unlock()

	_ = conn.Close()

	if intentional {
		return
	}

	c.logger.Warn("connection lost: %v", err)
	c.fireDisconnect(err)
	c.scheduleReconnect()
}

// scheduleReconnect arms the backoff timer for the next automatic attempt.
// The delay doubles per consecutive attempt; once the attempt cap is
// exceeded, retrying stops silently.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.intentional {
		return
	}
	if c.reconnectAttempts >= c.cfg.MaxReconnectAttempts {
		c.logger.Warn("giving up after %d reconnect attempts", c.reconnectAttempts)
		return
	}

	delay := c.cfg.ReconnectBaseDelay << c.reconnectAttempts
	c.reconnectAttempts++
	attempt := c.reconnectAttempts

	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.logger.Debug("reconnect attempt %d/%d", attempt, c.cfg.MaxReconnectAttempts)
		if err := c.reconnect(); err != nil {
			c.scheduleReconnect()
		}
	})
}

// reconnect is Connect minus the attempt-counter reset on entry, so the
// backoff sequence survives failed attempts.
func (c *Client) reconnect() error {
	c.mu.Lock()
	if c.intentional || c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, c.cfg.Headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.reconnectAttempts = 0
	c.mu.Unlock()

	c.flushQueue(conn)

	c.logger.Info("reconnected to %s", c.cfg.URL)
	go c.readPump(conn)
	c.fireConnect()
	return nil
}

func (c *Client) fireConnect() {
	for _, fn := range c.snapshotConnectListeners() {
		fn()
	}
}

func (c *Client) fireDisconnect(err error) {
	c.mu.Lock()
	listeners := make([]func(error), 0, len(c.disconnectListeners))
	for _, fn := range c.disconnectListeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(err)
	}
}

func (c *Client) fireMessage(data []byte) {
	c.mu.Lock()
	listeners := make([]func([]byte), 0, len(c.messageListeners))
	for _, fn := range c.messageListeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(data)
	}
}

func (c *Client) snapshotConnectListeners() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	listeners := make([]func(), 0, len(c.connectListeners))
	for _, fn := range c.connectListeners {
		listeners = append(listeners, fn)
	}
	return listeners
}
