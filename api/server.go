// Package api exposes the chat endpoint and the static demo UI.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/autostream-x/autostream-agent/agent"
	"github.com/autostream-x/autostream-agent/logger"
	"github.com/autostream-x/autostream-agent/session"
	"github.com/autostream-x/autostream-agent/types"
)

// Server handles chat traffic. Turns within one session run
// sequentially; different sessions proceed in parallel.
type Server struct {
	agent    *agent.SalesAgent
	sessions session.Store
	static   string

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	log *logger.Logger
}

// NewServer creates a Server. staticDir may be empty to disable the
// demo UI.
func NewServer(a *agent.SalesAgent, store session.Store, staticDir string) *Server {
	return &Server{
		agent:    a,
		sessions: store,
		static:   staticDir,
		locks:    make(map[string]*sync.Mutex),
		log:      logger.Component("api"),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.static != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.static))))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			http.Redirect(w, r, "/static/index.html", http.StatusFound)
		})
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseChatRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, types.ChatResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, types.ChatResponse{Error: "message is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	// One turn at a time per session.
	lock := s.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	st, ok := s.sessions.Get(req.SessionID)
	if !ok {
		st = session.NewState()
	}

	next, reply, err := s.agent.HandleTurn(r.Context(), req.SessionID, st, req.Message)
	if err != nil {
		// State is not stored, so the failed turn leaves no trace.
		s.log.WithField("session_id", req.SessionID).Error("turn failed", err)
		writeJSON(w, http.StatusInternalServerError, types.ChatResponse{
			SessionID: req.SessionID,
			Error:     "something went wrong",
		})
		return
	}

	s.sessions.Put(req.SessionID, next)
	writeJSON(w, http.StatusOK, types.ChatResponse{
		Response:  reply,
		SessionID: req.SessionID,
	})
}

// parseChatRequest accepts the canonical JSON body and tolerates a
// bare-string body for quick curl testing.
func parseChatRequest(r *http.Request) (types.ChatRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return types.ChatRequest{}, err
	}

	var req types.ChatRequest
	if err := json.Unmarshal(body, &req); err == nil {
		return req, nil
	}

	var msg string
	if err := json.Unmarshal(body, &msg); err == nil {
		return types.ChatRequest{Message: msg}, nil
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" && !strings.HasPrefix(trimmed, "{") {
		return types.ChatRequest{Message: trimmed}, nil
	}
	return types.ChatRequest{}, errInvalidBody
}

var errInvalidBody = errors.New("invalid request body")

func (s *Server) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
