package websocket

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/autostream-x/autostream-agent/logger"
	"github.com/autostream-x/autostream-agent/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // operator console runs on a different port
	},
}

// replayLimit bounds how many recent events a newly connected console
// receives.
const replayLimit = 100

// OperatorServer streams agent events to operator consoles over
// WebSocket. Recent events are buffered so a console connecting
// mid-conversation still sees context.
type OperatorServer struct {
	hub    *Hub
	port   int
	server *http.Server

	mu     sync.Mutex
	recent []*types.OperatorLog

	log *logger.Logger
}

// NewOperatorServer creates a server listening on the given port.
func NewOperatorServer(port int) *OperatorServer {
	return &OperatorServer{
		hub:  NewHub(),
		port: port,
		log:  logger.Component("websocket"),
	}
}

// Start begins serving /ws. Non-blocking.
func (s *OperatorServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	go s.hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("operator server stopped", err)
		}
	}()

	s.log.Infof("operator event stream listening on :%d/ws", s.port)
	return nil
}

// Stop closes the server.
func (s *OperatorServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// BroadcastEvent fans an event out to all connected consoles and
// records it in the replay buffer.
func (s *OperatorServer) BroadcastEvent(event *types.OperatorLog) {
	s.mu.Lock()
	s.recent = append(s.recent, event)
	if len(s.recent) > replayLimit {
		s.recent = s.recent[len(s.recent)-replayLimit:]
	}
	s.mu.Unlock()

	data, err := types.NewWebSocketMessage(event.Type, event).ToJSON()
	if err != nil {
		s.log.Error("marshal operator event", err)
		return
	}
	s.hub.Broadcast(data)
}

// BroadcastError reports a failure the end user was shielded from.
func (s *OperatorServer) BroadcastError(sessionID, content string) {
	event := types.NewOperatorLog(types.EventError, sessionID, content)
	event.Level = "error"
	s.BroadcastEvent(event)
}

func (s *OperatorServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrade failed", err)
		return
	}

	client := NewClient(s.hub, conn)
	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	// Replay buffered events to the new console.
	s.mu.Lock()
	replay := make([]*types.OperatorLog, len(s.recent))
	copy(replay, s.recent)
	s.mu.Unlock()

	for _, event := range replay {
		if data, err := types.NewWebSocketMessage(event.Type, event).ToJSON(); err == nil {
			select {
			case client.send <- data:
			default:
			}
		}
	}
}
