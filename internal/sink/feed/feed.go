// Package feed serves decoded events to local websocket clients and accepts
// device switch commands from them.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/log"
	"firestige.xyz/bpsniff/internal/metrics"
)

const (
	Name = "websocket"

	clientBuffer = 256
	writeWait    = 5 * time.Second
)

// Controller receives device switch requests from clients.
type Controller interface {
	SwitchDevice(index int)
}

type clientMessage struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

type helloMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.send) }) }

// Feed is a Sink that broadcasts every event to all connected clients as a
// JSON envelope text message. A client that cannot keep up is disconnected.
type Feed struct {
	addr     string
	path     string
	ctrl     Controller
	upgrader websocket.Upgrader
	log      *logrus.Entry

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

// New creates a feed listening on addr and serving websocket upgrades on
// path. ctrl may be nil, in which case commands are ignored.
func New(addr, path string, ctrl Controller) *Feed {
	if path == "" {
		path = "/events"
	}
	return &Feed{
		addr: addr,
		path: path,
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log:     log.WithComponent("feed"),
		clients: make(map[string]*client),
	}
}

func (f *Feed) Name() string { return Name }

// Handler returns the HTTP handler serving the feed path.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(f.path, f.serveWS)
	return mux
}

// Run serves the feed until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return fmt.Errorf("feed listen %s: %w", f.addr, err)
	}
	srv := &http.Server{Handler: f.Handler(), ReadHeaderTimeout: 5 * time.Second}
	f.log.WithField("addr", ln.Addr().String()).WithField("path", f.path).Info("starting event feed")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("feed server shutdown failed: %w", err)
	}
	f.log.Info("event feed stopped")
	return nil
}

// Send broadcasts evs to every client without blocking.
func (f *Feed) Send(_ context.Context, evs []event.Event) error {
	msgs := make([][]byte, 0, len(evs))
	for _, ev := range evs {
		data, err := event.Marshal(ev)
		if err != nil {
			f.log.WithError(err).WithField("type", ev.Kind()).Warn("skipping event")
			continue
		}
		msgs = append(msgs, data)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.clients {
		for _, msg := range msgs {
			select {
			case c.send <- msg:
				continue
			default:
			}
			f.log.WithField("client", id).Warn("client too slow, disconnecting")
			f.removeLocked(c)
			break
		}
	}
	return nil
}

// Close disconnects all clients and rejects new ones.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for _, c := range f.clients {
		f.removeLocked(c)
	}
	return nil
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientBuffer)}
	hello, _ := json.Marshal(helloMessage{Type: "hello", ClientID: c.id})
	c.send <- hello

	if !f.add(c) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}
	go f.writePump(c)
	f.readPump(c)
}

func (f *Feed) add(c *client) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.clients[c.id] = c
	metrics.FeedClients.Set(float64(len(f.clients)))
	f.log.WithField("client", c.id).WithField("remote", c.conn.RemoteAddr().String()).Info("client connected")
	return true
}

func (f *Feed) remove(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(c)
}

func (f *Feed) removeLocked(c *client) {
	if _, ok := f.clients[c.id]; !ok {
		return
	}
	delete(f.clients, c.id)
	c.close()
	metrics.FeedClients.Set(float64(len(f.clients)))
	f.log.WithField("client", c.id).Info("client disconnected")
}

func (f *Feed) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			f.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (f *Feed) readPump(c *client) {
	defer f.remove(c)
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			f.log.WithField("client", c.id).WithError(err).Debug("discarding malformed message")
			continue
		}

		switch msg.Type {
		case "switch_device":
			if msg.Index == nil || f.ctrl == nil {
				continue
			}
			f.log.WithField("client", c.id).WithField("index", *msg.Index).Info("device switch requested")
			f.ctrl.SwitchDevice(*msg.Index)
		default:
			f.log.WithField("client", c.id).WithField("type", msg.Type).Debug("ignoring message")
		}
	}
}
