// Package queuetest provides an in-memory runqy server for tests.
package queuetest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Task is a task held by the fake server.
type Task struct {
	ID      string
	Queue   string
	State   string
	Timeout int64
	Payload map[string]any
	Result  any
	LastErr string
}

// Request is a request received by the fake server.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server is a runqy queue API backed by memory.
type Server struct {
	apiKey    string
	snakeCase bool
	failure   *failure
	logger    *slog.Logger

	mu       sync.Mutex
	tasks    map[string]*Task
	order    []string
	requests []Request
	nextID   int

	http *httptest.Server
}

type failure struct {
	status int
	body   string
}

// Option configures a Server.
type Option func(*Server)

// WithSnakeCase makes GET /queue/{id} answer with snake_case field names
// under "info" instead of Go-style names under "Info".
func WithSnakeCase() Option {
	return func(s *Server) { s.snakeCase = true }
}

// WithFailure makes every authenticated request fail with status and body.
func WithFailure(status int, body string) Option {
	return func(s *Server) { s.failure = &failure{status: status, body: body} }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer starts a fake server that accepts apiKey as its bearer token.
// Call Close when done.
func NewServer(apiKey string, opts ...Option) *Server {
	s := &Server{
		apiKey: apiKey,
		tasks:  make(map[string]*Task),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.http = httptest.NewServer(s.Router())
	return s
}

// Router returns the HTTP handler of the fake API.
func (s *Server) Router() chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(s.record)
	router.Use(requestLogging(s.logger))
	router.Use(bearerAuth(s.apiKey))

	router.Post("/queue/add", s.handleAdd)
	router.Get("/queue/{task_id}", s.handleGet)
	return router
}

// URL returns the base URL of the server.
func (s *Server) URL() string { return s.http.URL }

// Close shuts the server down.
func (s *Server) Close() { s.http.Close() }

// Put stores t, replacing any task with the same ID.
func (s *Server) Put(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	cp := t
	s.tasks[t.ID] = &cp
}

// Complete marks a task completed with result.
func (s *Server) Complete(id string, result any) error {
	return s.update(id, func(t *Task) {
		t.State = "completed"
		t.Result = result
		t.LastErr = ""
	})
}

// Fail marks a task failed with msg.
func (s *Server) Fail(id, msg string) error {
	return s.update(id, func(t *Task) {
		t.State = "failed"
		t.LastErr = msg
	})
}

// Task returns a copy of the task with id.
func (s *Server) Task(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Tasks returns all tasks in submission order.
func (s *Server) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) update(id string, fn func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("unknown task %q", id)
	}
	fn(t)
	return nil
}

type addRequest struct {
	Queue   string         `json:"queue"`
	Timeout int64          `json:"timeout"`
	Data    map[string]any `json:"data"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if s.failure != nil {
		http.Error(w, s.failure.body, s.failure.status)
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Queue) == "" {
		http.Error(w, "queue is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.nextID++
	t := &Task{
		ID:      fmt.Sprintf("task-%d", s.nextID),
		Queue:   req.Queue,
		State:   "pending",
		Timeout: req.Timeout,
		Payload: req.Data,
	}
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"info": map[string]any{
			"id":    t.ID,
			"queue": t.Queue,
			"state": t.State,
		},
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.failure != nil {
		http.Error(w, s.failure.body, s.failure.status)
		return
	}

	id, err := url.PathUnescape(chi.URLParam(r, "task_id"))
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}
	t, ok := s.Task(id)
	if !ok {
		http.Error(w, fmt.Sprintf("task %s not found", id), http.StatusNotFound)
		return
	}

	// Results and payloads travel as JSON text, the way the server stores them.
	result := ""
	if t.Result != nil {
		raw, _ := json.Marshal(t.Result)
		result = string(raw)
	}
	payload, _ := json.Marshal(t.Payload)

	if s.snakeCase {
		writeJSON(w, http.StatusOK, map[string]any{
			"info": map[string]any{
				"id":       t.ID,
				"queue":    t.Queue,
				"state":    t.State,
				"result":   result,
				"last_err": t.LastErr,
				"payload":  string(payload),
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"Info": map[string]any{
			"ID":      t.ID,
			"Queue":   t.Queue,
			"State":   t.State,
			"Result":  result,
			"LastErr": t.LastErr,
			"Payload": string(payload),
		},
	})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("request completed",
					"request_id", chimiddleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// bearerAuth rejects requests whose Authorization header does not carry key.
func bearerAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || token != key {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
