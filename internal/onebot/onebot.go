// Package onebot implements a OneBot v11 forward WebSocket client: it receives
// events from the implementation (NapCat and compatibles), dispatches them to a
// handler chain and performs echo-correlated action calls.
package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultCallTimeout       = 10 * time.Second
	defaultReconnectInterval = 5 * time.Second
	handshakeTimeout         = 10 * time.Second
	pingInterval             = 30 * time.Second
	readTimeout              = 90 * time.Second
	writeTimeout             = 10 * time.Second
)

// HandlerFunc handles one inbound event.
type HandlerFunc func(ctx context.Context, ev *Event)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// ConnectFunc runs after every successful (re)connect.
type ConnectFunc func(ctx context.Context, c *Client)

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sends the token as a Bearer Authorization header.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCallTimeout bounds how long Call waits for a response.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithReconnectInterval sets the delay between connection attempts.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnectInterval = d
		}
	}
}

// WithDefaultHandler sets the handler every event is dispatched to.
func WithDefaultHandler(h HandlerFunc) Option {
	return func(c *Client) { c.defaultHandler = h }
}

// WithMiddlewares wraps the default handler. The first middleware is the outermost.
func WithMiddlewares(mw ...Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, mw...) }
}

// WithOnConnect registers a hook that runs in its own goroutine after each
// connect. Events of that connection are not dispatched until every hook has
// returned; action responses are delivered meanwhile so hooks may call actions.
func WithOnConnect(fn ConnectFunc) Option {
	return func(c *Client) { c.onConnect = append(c.onConnect, fn) }
}

// Client is a OneBot v11 forward WebSocket client.
type Client struct {
	url               string
	token             string
	logger            *slog.Logger
	dialer            *websocket.Dialer
	callTimeout       time.Duration
	reconnectInterval time.Duration

	defaultHandler HandlerFunc
	middlewares    []Middleware
	handler        HandlerFunc
	onConnect      []ConnectFunc

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan *APIResponse

	handlers sync.WaitGroup
}

// New creates a client for the implementation listening at url.
func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("onebot websocket url cannot be empty")
	}

	c := &Client{
		url:               url,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		callTimeout:       defaultCallTimeout,
		reconnectInterval: defaultReconnectInterval,
		pending:           make(map[string]chan *APIResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "onebot")
	c.dialer = &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	c.buildHandler()

	return c, nil
}

// SetDefaultHandler replaces the default handler after construction, for
// handlers that need the client itself. It must be called before Start.
func (c *Client) SetDefaultHandler(h HandlerFunc) {
	c.defaultHandler = h
	c.buildHandler()
}

func (c *Client) buildHandler() {
	handler := c.defaultHandler
	if handler == nil {
		handler = func(context.Context, *Event) {}
	}
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}
	c.handler = handler
}

// Start connects and serves events until ctx is cancelled, reconnecting after
// every dropped connection. It waits for in-flight handlers before returning.
func (c *Client) Start(ctx context.Context) {
	defer c.handlers.Wait()

	for {
		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.WarnContext(ctx, "Failed to connect to OneBot, retrying", "url", c.url, "error", err, "retry_in", c.reconnectInterval)
		} else {
			c.logger.InfoContext(ctx, "Connected to OneBot", "url", c.url)
			ready := c.runOnConnect(ctx)
			err = c.serve(ctx, conn, ready)
			c.drop(conn)
			if ctx.Err() != nil {
				c.logger.InfoContext(ctx, "OneBot connection closed on shutdown")
				return
			}
			c.logger.WarnContext(ctx, "OneBot connection lost, reconnecting", "error", err, "retry_in", c.reconnectInterval)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectInterval):
		}
	}
}

// Connected reports whether a connection is currently open.
func (c *Client) Connected() bool {
	return c.currentConn() != nil
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return conn, nil
}

// runOnConnect starts the connect hooks and returns a channel that is closed
// once all of them have returned.
func (c *Client) runOnConnect(ctx context.Context) <-chan struct{} {
	ready := make(chan struct{})
	var wg sync.WaitGroup
	for _, fn := range c.onConnect {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx, c)
		}()
	}
	go func() {
		wg.Wait()
		close(ready)
	}()
	return ready
}

// serve reads frames until the connection fails or ctx is cancelled. Events
// wait for ready before reaching the handler.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn, ready <-chan struct{}) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	go c.pinger(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		c.handleFrame(ctx, data, ready)
	}
}

func (c *Client) pinger(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("Ping failed, stopping pinger", "error", err)
				return
			}
		}
	}
}

// drop forgets conn and fails every call still waiting on it.
func (c *Client) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()

	c.pendingMu.Lock()
	for echo, ch := range c.pending {
		close(ch)
		delete(c.pending, echo)
	}
	c.pendingMu.Unlock()
}

func (c *Client) currentConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) handleFrame(ctx context.Context, data []byte, ready <-chan struct{}) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.WarnContext(ctx, "Failed to decode OneBot frame", "error", err, "payload", truncate(string(data), 200))
		return
	}

	if f.PostType == "" {
		if len(f.Echo) > 0 && string(f.Echo) != "null" {
			c.deliverResponse(ctx, data)
			return
		}
		c.logger.DebugContext(ctx, "Ignoring OneBot frame without post_type or echo", "payload", truncate(string(data), 200))
		return
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.logger.WarnContext(ctx, "Failed to decode OneBot event", "error", err, "post_type", f.PostType)
		return
	}

	if ev.PostType == PostTypeMetaEvent {
		c.logger.DebugContext(ctx, "Meta event", "meta_event_type", ev.MetaEventType, "sub_type", ev.SubType)
		return
	}

	c.handlers.Add(1)
	go func() {
		defer c.handlers.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.ErrorContext(ctx, "Event handler panicked", "panic", r, "post_type", ev.PostType)
			}
		}()
		select {
		case <-ready:
		case <-ctx.Done():
			return
		}
		c.handler(ctx, &ev)
	}()
}

func (c *Client) deliverResponse(ctx context.Context, data []byte) {
	var resp APIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.WarnContext(ctx, "Failed to decode OneBot action response", "error", err)
		return
	}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	ch, ok := c.pending[resp.Echo.String()]
	if !ok {
		c.logger.DebugContext(ctx, "Action response without waiter", "echo", resp.Echo, "status", resp.Status)
		return
	}
	select {
	case ch <- &resp:
	default:
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// ErrNotConnected is returned by Call when no connection is open.
var ErrNotConnected = errors.New("onebot: not connected")
