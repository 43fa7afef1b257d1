package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autostream-x/autostream-agent/agent"
	"github.com/autostream-x/autostream-agent/session"
	"github.com/autostream-x/autostream-agent/types"
)

// scriptedLLM drives the agent through the API without a provider.
type scriptedLLM struct {
	intent string
	err    error
}

func (s *scriptedLLM) Chat(ctx context.Context, system, user string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(system, "intent classifier") {
		return s.intent, nil
	}
	return "scripted answer", nil
}

type nopKnowledge struct{}

func (nopKnowledge) FetchContext(ctx context.Context, query string) (string, error) {
	return "context", nil
}

type nopSink struct{}

func (nopSink) Submit(ctx context.Context, name, email, platform string) (string, error) {
	return "Lead captured successfully.", nil
}

func newTestServer(llm *scriptedLLM) (*Server, session.Store) {
	store := session.NewMemoryStore()
	a := agent.New(llm, nopKnowledge{}, nopSink{})
	return NewServer(a, store, ""), store
}

func postChat(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, types.ChatResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp types.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v (%s)", err, rec.Body.String())
	}
	return rec, resp
}

func TestChatAssignsSessionID(t *testing.T) {
	srv, store := newTestServer(&scriptedLLM{intent: "GREETING"})
	h := srv.Handler()

	rec, resp := postChat(t, h, `{"message": "hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if resp.SessionID == "" {
		t.Fatal("server should assign a session id")
	}
	if !strings.Contains(resp.Response, "AutoStream assistant") {
		t.Errorf("response = %q", resp.Response)
	}
	if _, ok := store.Get(resp.SessionID); !ok {
		t.Error("session not stored")
	}
}

func TestChatReusesSession(t *testing.T) {
	srv, store := newTestServer(&scriptedLLM{intent: "GREETING"})
	h := srv.Handler()

	_, first := postChat(t, h, `{"message": "hi"}`)
	_, second := postChat(t, h, `{"session_id": "`+first.SessionID+`", "message": "hello again"}`)

	if second.SessionID != first.SessionID {
		t.Errorf("session id changed: %q vs %q", first.SessionID, second.SessionID)
	}
	st, _ := store.Get(first.SessionID)
	if len(st.History) != 4 {
		t.Errorf("history length = %d, want 4", len(st.History))
	}
}

func TestChatEmptyMessage(t *testing.T) {
	srv, _ := newTestServer(&scriptedLLM{intent: "GREETING"})
	rec, resp := postChat(t, srv.Handler(), `{"message": "  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if resp.Error == "" {
		t.Error("expected error message")
	}
}

func TestChatBareStringBody(t *testing.T) {
	srv, _ := newTestServer(&scriptedLLM{intent: "GREETING"})
	rec, resp := postChat(t, srv.Handler(), `just plain text`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if resp.Response == "" {
		t.Error("expected a reply for a bare-string body")
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(&scriptedLLM{intent: "GREETING"})
	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestTurnErrorDoesNotPersistState(t *testing.T) {
	llm := &scriptedLLM{intent: "GREETING"}
	srv, store := newTestServer(llm)
	h := srv.Handler()

	_, first := postChat(t, h, `{"message": "hi"}`)

	llm.err = context.DeadlineExceeded
	rec, resp := postChat(t, h, `{"session_id": "`+first.SessionID+`", "message": "are you there?"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Error != "something went wrong" {
		t.Errorf("error = %q", resp.Error)
	}

	st, _ := store.Get(first.SessionID)
	if len(st.History) != 2 {
		t.Errorf("failed turn leaked into history: %d turns", len(st.History))
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(&scriptedLLM{intent: "GREETING"})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
