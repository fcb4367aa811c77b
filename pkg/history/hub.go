package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	oerrors "github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/router"
)

// MessageType is the type field of a wire message.
type MessageType string

const (
	TypeURL   MessageType = "url"
	TypeAck   MessageType = "ack"
	TypeError MessageType = "error"
	TypePush  MessageType = "push"
)

// Message is exchanged with history clients.
type Message struct {
	Type  MessageType `json:"type"`
	URL   string      `json:"url,omitempty"`
	Code  string      `json:"code,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Observer is notified of client and message activity. *middleware.Metrics
// implements it.
type Observer interface {
	ClientConnected()
	ClientDisconnected()
	MessageReceived(kind string)
	MessageSent(kind string)
}

type nopObserver struct{}

func (nopObserver) ClientConnected()       {}
func (nopObserver) ClientDisconnected()    {}
func (nopObserver) MessageReceived(string) {}
func (nopObserver) MessageSent(string)     {}

// client owns one connection. Only writeLoop writes to conn; gorilla
// connections allow one writer at a time.
type client struct {
	id     string
	conn   *websocket.Conn
	outbox chan Message
	done   chan struct{}
	once   sync.Once
}

// enqueue hands msg to the write loop without blocking. It reports false
// when the client is closed or its outbox is full.
func (c *client) enqueue(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.outbox <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() bool {
	closed := false
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
		closed = true
	})
	return closed
}

// writeLoop drains the outbox until the client is dropped.
func (c *client) writeLoop(h *Hub) {
	for {
		select {
		case msg := <-c.outbox:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("history encode failed", "client_id", c.id, "error", err)
				continue
			}
			if h.writeTimeout > 0 {
				c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("history write failed", "client_id", c.id, "error", err)
				h.drop(c)
				return
			}
			h.observer.MessageSent(string(msg.Type))
		case <-c.done:
			return
		}
	}
}

// Hub manages history clients for one root router.
type Hub struct {
	root     *router.Router
	logger   *slog.Logger
	observer Observer
	upgrader websocket.Upgrader

	navTimeout   time.Duration
	writeTimeout time.Duration
	sendBuffer   int

	mu          sync.RWMutex
	clients     map[*client]struct{}
	unsubscribe func()
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger. Defaults to the router's logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithObserver sets the activity observer.
func WithObserver(o Observer) Option {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithCheckOrigin sets the upgrade origin check. By default only
// same-origin requests are accepted.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = check }
}

// WithNavigationTimeout bounds each client-requested navigation.
// Zero means no limit beyond the connection's lifetime.
func WithNavigationTimeout(d time.Duration) Option {
	return func(h *Hub) { h.navTimeout = d }
}

// WithSendBuffer sets how many messages may wait for one client's writer.
// A client whose buffer is full when a push arrives is disconnected.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// NewHub creates a hub bound to the root of r. It starts pushing URLs at
// once; call Close to detach.
func NewHub(r *router.Router, opts ...Option) *Hub {
	root := r.Root()
	if root == nil {
		root = r
	}
	h := &Hub{
		root:         root,
		logger:       root.Logger(),
		observer:     nopObserver{},
		writeTimeout: 10 * time.Second,
		sendBuffer:   16,
		clients:      make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.unsubscribe = root.Subscribe(h.push)
	return h
}

// ServeHTTP upgrades the request and serves the client until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("history upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := h.register(conn)
	h.logger.Debug("history client connected", "client_id", c.id, "remote", r.RemoteAddr)
	go c.writeLoop(h)
	defer h.drop(c)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, Message{Type: TypeError, Error: "malformed message"})
			continue
		}
		h.observer.MessageReceived(string(msg.Type))
		h.handle(r.Context(), c, msg)
	}
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		outbox: make(chan Message, h.sendBuffer),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.observer.ClientConnected()
	return c
}

func (h *Hub) handle(ctx context.Context, c *client, msg Message) {
	switch msg.Type {
	case TypeURL:
		if h.navTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.navTimeout)
			defer cancel()
		}
		if err := h.root.NavigateByURL(ctx, msg.URL); err != nil {
			h.reply(c, Message{Type: TypeError, URL: msg.URL, Code: oerrors.CodeOf(err), Error: err.Error()})
			return
		}
		reply := Message{Type: TypeAck, URL: msg.URL}
		if cur := h.root.Current(); cur != nil {
			reply.URL = cur.URL()
		}
		h.reply(c, reply)
	default:
		h.reply(c, Message{Type: TypeError, Error: "unsupported message type " + string(msg.Type)})
	}
}

// reply queues msg behind any pending pushes, waiting for room so the
// reading goroutine slows down with its own client.
func (h *Hub) reply(c *client, msg Message) {
	select {
	case c.outbox <- msg:
	case <-c.done:
	}
}

// push queues the root's committed URL for every client. It never waits
// on a client; one whose outbox is full is dropped.
func (h *Hub) push(instr *router.Instruction) {
	if instr == nil {
		return
	}
	msg := Message{Type: TypePush, URL: instr.URL()}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(msg) {
			h.logger.Debug("history client too slow", "client_id", c.id)
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok || !c.close() {
		return
	}
	h.observer.ClientDisconnected()
	h.logger.Debug("history client disconnected", "client_id", c.id)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops pushing and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	for _, c := range clients {
		h.drop(c)
	}
}
