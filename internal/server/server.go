// Package server wires the HTTP surface together: the WebSocket chat
// endpoint, the auth endpoints, static pages and health.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/mkroghdk/letzchat/internal/auth"
	"github.com/mkroghdk/letzchat/internal/chat"
	"github.com/mkroghdk/letzchat/internal/presence"
	"github.com/mkroghdk/letzchat/internal/ws"
	"github.com/redis/go-redis/v9"
)

// Server is the main HTTP server for LetzChat.
type Server struct {
	addr       string
	mux        *http.ServeMux
	httpServer *http.Server

	registry *presence.Registry
	hub      *ws.Hub
	chat     *chat.Service

	users      *auth.UserStore
	sessions   auth.SessionStore
	auth       *auth.Handler
	staticDir  string
	sessionTTL time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithRedis stores sessions in Redis instead of memory.
func WithRedis(client redis.Cmdable) Option {
	return func(s *Server) {
		s.sessions = auth.NewRedisStore(client, s.sessionTTL)
	}
}

// WithUserStore enables credential auth backed by the given store. The
// chat endpoint then requires a valid session and uses its verified
// username; without a store, clients are trusted to name themselves.
func WithUserStore(users *auth.UserStore) Option {
	return func(s *Server) {
		s.users = users
	}
}

// WithStaticDir serves the login, signup and chat pages from dir.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithSessionTTL sets how long a login session stays valid.
// Must precede WithRedis to take effect for the Redis backend.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = ttl
	}
}

// New creates a Server listening on addr.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:       addr,
		mux:        http.NewServeMux(),
		registry:   presence.NewRegistry(),
		sessionTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = auth.NewMemoryStore(s.sessionTTL)
	}

	s.hub = ws.NewHub(s.registry)
	s.chat = chat.NewService(s.registry, s.hub)
	if s.users != nil {
		s.auth = auth.NewHandler(s.users, s.sessions)
	}

	s.routes()
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	return s
}

func (s *Server) routes() {
	var credentials ws.Credentials
	if s.auth != nil {
		credentials = s.auth.UserFromRequest
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /ws", ws.NewHandler(s.hub, s.chat, credentials))
	s.mux.HandleFunc("POST /signup", s.withAuth((*auth.Handler).HandleSignup))
	s.mux.HandleFunc("POST /login", s.withAuth((*auth.Handler).HandleLogin))
	s.mux.HandleFunc("GET /logout", s.withAuth((*auth.Handler).HandleLogout))
	s.mux.HandleFunc("/", s.handleStatic)
}

// withAuth adapts an auth.Handler method, answering 503 when the server
// runs without a user store.
func (s *Server) withAuth(fn func(*auth.Handler, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			http.Error(w, "auth is not configured", http.StatusServiceUnavailable)
			return
		}
		fn(s.auth, w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatic serves the web pages. The chat page requires a session
// when auth is enabled; the index redirects logged-in users to it.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.staticDir == "" {
		http.NotFound(w, r)
		return
	}

	loggedIn := s.auth == nil
	if s.auth != nil {
		_, loggedIn = s.auth.UserFromRequest(r)
	}

	switch r.URL.Path {
	case "/":
		if loggedIn {
			http.Redirect(w, r, "/chat.html", http.StatusSeeOther)
			return
		}
		http.ServeFile(w, r, filepath.Join(s.staticDir, "login.html"))
	case "/chat.html":
		if !loggedIn {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.ServeFile(w, r, filepath.Join(s.staticDir, "chat.html"))
	default:
		http.FileServer(http.Dir(s.staticDir)).ServeHTTP(w, r)
	}
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, drains in-flight ones, and closes
// every WebSocket connection with a going-away status.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.hub.Shutdown()
	return err
}
