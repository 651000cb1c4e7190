// Package muxtest provides an in-memory stand-in for the Mux live stream API.
package muxtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TokenID     = "test-token-id"
	TokenSecret = "test-token-secret"
)

type stream struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	StreamKey       string              `json:"stream_key"`
	PlaybackIDs     []map[string]string `json:"playback_ids"`
	LatencyMode     string              `json:"latency_mode"`
	ReconnectWindow float64             `json:"reconnect_window"`
	CreatedAt       string              `json:"created_at"`
}

// Server records calls and serves create/get for live streams.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	streams     map[string]*stream
	createCalls int
	getCalls    int
	lastCreate  map[string]interface{}
	failStatus  int
}

func NewServer() *Server {
	s := &Server{streams: make(map[string]*stream)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Seed registers an existing stream and returns its id.
func (s *Server) Seed(status string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := newStream(status)
	s.streams[st.ID] = st
	return st.ID
}

func (s *Server) SetStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streams[id]; ok {
		st.Status = status
	}
}

// FailWith makes every subsequent call answer with code; 0 restores normal behaviour.
func (s *Server) FailWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = code
}

func (s *Server) CreateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCalls
}

func (s *Server) GetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}

// LastCreateBody returns the decoded body of the most recent create call.
func (s *Server) LastCreateBody() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCreate
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const prefix = "/video/v1/live-streams"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusNotFound, "not_found", "unknown path")
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch {
	case r.Method == http.MethodPost && id == "":
		s.createCalls++
	case r.Method == http.MethodGet && id != "":
		s.getCalls++
	default:
		writeError(w, http.StatusMethodNotAllowed, "invalid_parameters", "method not allowed")
		return
	}

	if user, pass, ok := r.BasicAuth(); !ok || user != TokenID || pass != TokenSecret {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized request")
		return
	}
	if s.failStatus != 0 {
		writeError(w, s.failStatus, "server_error", "injected failure")
		return
	}

	if r.Method == http.MethodPost {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameters", err.Error())
			return
		}
		s.lastCreate = body
		st := newStream("idle")
		if lm, ok := body["latency_mode"].(string); ok {
			st.LatencyMode = lm
		}
		if rw, ok := body["reconnect_window"].(float64); ok {
			st.ReconnectWindow = rw
		}
		s.streams[st.ID] = st
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": st})
		return
	}

	st, ok := s.streams[id]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "The requested resource either doesn't exist or you don't have access to it.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": st})
}

func newStream(status string) *stream {
	return &stream{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Status:    status,
		StreamKey: uuid.NewString(),
		PlaybackIDs: []map[string]string{
			{"id": strings.ReplaceAll(uuid.NewString(), "-", ""), "policy": "public"},
		},
		LatencyMode:     "low",
		ReconnectWindow: 60,
		CreatedAt:       strconv.FormatInt(time.Now().Unix(), 10),
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, typ, msg string) {
	writeJSON(w, code, map[string]interface{}{
		"error": map[string]interface{}{
			"type":     typ,
			"messages": []string{msg},
		},
	})
}
