package gateway

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gokul1818/foodOrderAdmin/internal/metrics"
	"github.com/gokul1818/foodOrderAdmin/internal/notify"
)

const writeDeadline = 5 * time.Second

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	conn  *websocket.Conn
	errCh chan error
}

type unregisterCmd struct {
	baseHubCmd
	conn *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	data []byte
}

type sendCmd struct {
	baseHubCmd
	conn *websocket.Conn
	data []byte
}

type hubStopCmd struct {
	baseHubCmd
}

// --- Per-connection writer ---

// clientWriter serializes all writes to one connection; the hub loop only
// queues and never touches the socket itself.
type clientWriter struct {
	conn    *websocket.Conn
	queue   chan []byte
	closing chan struct{}
}

func startClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:    conn,
		queue:   make(chan []byte, 16),
		closing: make(chan struct{}),
	}
	go cw.writeLoop()
	return cw
}

func (cw *clientWriter) writeLoop() {
	for {
		select {
		case msg := <-cw.queue:
			if err := cw.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("Console client write failed", "error", err)
				return
			}
		case <-cw.closing:
			return
		}
	}
}

// enqueue reports false when the client's buffer is full, which the hub treats
// as a slow client.
func (cw *clientWriter) enqueue(data []byte) bool {
	select {
	case cw.queue <- data:
		return true
	default:
		return false
	}
}

func (cw *clientWriter) stop() {
	close(cw.closing)
	cw.conn.Close()
}

// --- Hub ---

// Hub fans toast and session events out to every connected console shell.
// A single goroutine owns the client set; slow clients are evicted rather
// than allowed to stall the rest.
type Hub struct {
	cmdCh      chan hubCmd
	clients    map[*websocket.Conn]*clientWriter
	maxClients int
	done       chan struct{}
}

func NewHub(maxClients int) *Hub {
	h := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clients:    make(map[*websocket.Conn]*clientWriter),
		maxClients: maxClients,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.conn)
		case broadcastCmd:
			h.handleBroadcast(c.data)
		case sendCmd:
			h.handleSend(c.conn, c.data)
		case hubStopCmd:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting console client: max connections reached", "max_clients", h.maxClients)
		c.conn.Close()
		c.errCh <- errMaxClients
		return
	}

	h.clients[c.conn] = startClientWriter(c.conn)
	metrics.GatewayConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Console client connected", "total_clients", len(h.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.GatewayConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Console client disconnected", "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(data []byte) {
	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		if !cw.enqueue(data) {
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow console client")
		metrics.GatewaySlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleSend(conn *websocket.Conn, data []byte) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}
	if !cw.enqueue(data) {
		slog.Warn("Disconnecting slow console client")
		metrics.GatewaySlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	for conn, cw := range h.clients {
		cw.stop()
		delete(h.clients, conn)
	}
	metrics.GatewayConnectedClients.Set(0)
}

// --- Public API ---

// Register adds a connection to the hub. The reply wait also watches done: a
// command that raced shutdown into the buffered channel is never drained, and
// the caller must not hang on it.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	select {
	case h.cmdCh <- registerCmd{conn: conn, errCh: errCh}:
		select {
		case err := <-errCh:
			return err
		case <-h.done:
			return errHubStopped
		}
	case <-h.done:
		return errHubStopped
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.cmdCh <- unregisterCmd{conn: conn}:
	case <-h.done:
	}
}

// BroadcastToast pushes a toast event to every connected shell.
func (h *Hub) BroadcastToast(event notify.ToastEvent) {
	data, ok := encodeToastEvent(event)
	if !ok {
		return
	}
	select {
	case h.cmdCh <- broadcastCmd{data: data}:
	case <-h.done:
	}
}

// SendToast pushes a toast event to a single connection, used to replay
// on-screen toasts to a shell that connects mid-flight without re-sending them
// to everyone else.
func (h *Hub) SendToast(conn *websocket.Conn, event notify.ToastEvent) {
	data, ok := encodeToastEvent(event)
	if !ok {
		return
	}
	select {
	case h.cmdCh <- sendCmd{conn: conn, data: data}:
	case <-h.done:
	}
}

func encodeToastEvent(event notify.ToastEvent) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal toast event", "error", err)
		return nil, false
	}
	return data, true
}

func (h *Hub) Stop() {
	select {
	case h.cmdCh <- hubStopCmd{}:
		<-h.done
	case <-h.done:
	}
}
