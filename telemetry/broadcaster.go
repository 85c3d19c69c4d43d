package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/simlab/core"
	"github.com/lixenwraith/simlab/engine"
	"github.com/lixenwraith/simlab/status"
)

const writeTimeout = time.Second

// Frame is one telemetry message
type Frame struct {
	Time    time.Time               `json:"time"`
	Stats   engine.PerformanceStats `json:"stats"`
	Metrics status.Snapshot         `json:"metrics"`
	Energy  float64                 `json:"energy"`
	Bodies  int                     `json:"bodies"`
}

// Command is a control message sent by a client; nil fields are left unchanged
type Command struct {
	Pause         *bool    `json:"pause,omitempty"`
	TargetRate    *float64 `json:"targetRate,omitempty"`
	FixedTimeStep *bool    `json:"fixedTimeStep,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local tooling, any origin
	},
}

// Broadcaster fans JSON frames out to websocket clients on /ws
type Broadcaster struct {
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex // per-connection write lock

	onCommand func(Command)

	server *http.Server
	wg     sync.WaitGroup
}

// NewBroadcaster creates a broadcaster; onCommand may be nil
func NewBroadcaster(onCommand func(Command)) *Broadcaster {
	return &Broadcaster{
		clients:   make(map[*websocket.Conn]*sync.Mutex),
		onCommand: onCommand,
	}
}

// Handler returns the HTTP handler serving /ws
func (b *Broadcaster) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWebSocket)
	return mux
}

// ListenAndServe binds addr and serves in the background; returns the bound address
func (b *Broadcaster) ListenAndServe(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("telemetry listen %s: %w", addr, err)
	}
	b.server = &http.Server{Handler: b.Handler(), ReadHeaderTimeout: 5 * time.Second}

	b.wg.Add(1)
	core.Go(func() {
		defer b.wg.Done()
		if err := b.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("telemetry: serve: %v", err)
		}
	})
	log.Printf("telemetry: serving ws://%s/ws", ln.Addr())
	return ln.Addr().String(), nil
}

// Close shuts the server down and disconnects clients
func (b *Broadcaster) Close() error {
	var err error
	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err = b.server.Shutdown(ctx)
	}

	b.clientsMu.Lock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
	b.clientsMu.Unlock()

	b.wg.Wait()
	return err
}

// Clients returns the number of connected clients
func (b *Broadcaster) Clients() int {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("telemetry: upgrade error:", err)
		return
	}
	defer conn.Close()

	b.clientsMu.Lock()
	b.clients[conn] = &sync.Mutex{}
	b.clientsMu.Unlock()
	defer func() {
		b.clientsMu.Lock()
		delete(b.clients, conn)
		b.clientsMu.Unlock()
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("telemetry: read error:", err)
			}
			return
		}
		if b.onCommand != nil {
			b.onCommand(cmd)
		}
	}
}

// Publish writes v as JSON to every client, dropping clients whose write fails
func (b *Broadcaster) Publish(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("telemetry encode: %w", err)
	}

	b.clientsMu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range b.clients {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := conn.WriteMessage(websocket.TextMessage, data)
		mu.Unlock()
		if err != nil {
			log.Printf("telemetry: dropping client %s: %v", conn.RemoteAddr(), err)
			failed = append(failed, conn)
		}
	}
	b.clientsMu.RUnlock()

	if len(failed) > 0 {
		b.clientsMu.Lock()
		for _, conn := range failed {
			conn.Close()
			delete(b.clients, conn)
		}
		b.clientsMu.Unlock()
	}
	return nil
}

// Run publishes source() every interval until ctx is done
func (b *Broadcaster) Run(ctx context.Context, source func() any, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if b.Clients() == 0 {
				continue
			}
			if err := b.Publish(source()); err != nil {
				log.Printf("telemetry: %v", err)
			}
		}
	}
}
