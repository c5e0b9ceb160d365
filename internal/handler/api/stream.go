package api

import (
	"net/http"
	"sync"
	"time"

	"SigPulse/internal/domain/models"
	xlogger "SigPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 5 * time.Second
	clientBuf  = 8
	maxClients = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SignalStream fans completed analyses out to websocket subscribers.
// Slow clients are dropped rather than allowed to stall the loop.
type SignalStream struct {
	logger *xlogger.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan *models.Analysis
}

// NewSignalStream creates an empty stream hub.
func NewSignalStream(l *xlogger.Logger) *SignalStream {
	return &SignalStream{
		logger:  l,
		clients: make(map[*streamClient]struct{}),
	}
}

// Serve upgrades the connection and streams analyses until the client
// disconnects.
func (s *SignalStream) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &streamClient{
		conn: conn,
		send: make(chan *models.Analysis, clientBuf),
	}

	s.mu.Lock()
	if len(s.clients) >= maxClients {
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.clients[client] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("ws client connected", xlogger.Int("clients", n))

	go s.writeLoop(client)
	s.readLoop(client)
	return nil
}

// Broadcast queues the analysis for every connected client. Clients whose
// buffers are full miss this update.
func (s *SignalStream) Broadcast(analysis *models.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		select {
		case client.send <- analysis:
		default:
		}
	}
}

// Count returns the number of connected clients.
func (s *SignalStream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects all clients.
func (s *SignalStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		close(client.send)
		client.conn.Close()
		delete(s.clients, client)
	}
}

func (s *SignalStream) writeLoop(client *streamClient) {
	for analysis := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.conn.WriteJSON(analysis); err != nil {
			s.drop(client)
			return
		}
	}
}

// readLoop drains control frames and detects disconnects.
func (s *SignalStream) readLoop(client *streamClient) {
	defer s.drop(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *SignalStream) drop(client *streamClient) {
	s.mu.Lock()
	_, ok := s.clients[client]
	if ok {
		delete(s.clients, client)
		close(client.send)
	}
	n := len(s.clients)
	s.mu.Unlock()

	if ok {
		client.conn.Close()
		s.logger.Info("ws client disconnected", xlogger.Int("clients", n))
	}
}
