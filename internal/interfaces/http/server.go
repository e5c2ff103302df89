// Package http is the inbound API surface: router, middleware chain,
// and the JSON handlers over the application services.
package http

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Sirimanoj/finguru/internal/application"
	"github.com/Sirimanoj/finguru/internal/config"
	"github.com/Sirimanoj/finguru/internal/metrics"
	"github.com/Sirimanoj/finguru/internal/notify"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxUserID
)

// requestTimeout bounds every API request; generous enough for one
// upstream model call.
const requestTimeout = 35 * time.Second

// Deps are the collaborators the server routes to.
type Deps struct {
	Accounts     *application.AccountsService
	Budgets      *application.BudgetService
	Gamification *application.GamificationService
	Chat         *application.ChatService
	Hub          *notify.Hub
	Metrics      *metrics.Registry
	Version      string
	// MediaDir, when set, is served read-only under /media/.
	MediaDir string
}

// Server is the HTTP front of the service.
type Server struct {
	router *mux.Router
	server *http.Server
	deps   Deps
	config config.ServerConfig
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		config: cfg,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.accessLogMiddleware)
	s.router.Use(s.corsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	// The websocket upgrade must not run under the timeout or JSON
	// middleware; it only needs auth.
	s.router.HandleFunc("/ws", s.requireUser(s.handleWS)).Methods(http.MethodGet)

	if s.deps.MediaDir != "" {
		s.router.PathPrefix("/media/").Handler(
			http.StripPrefix("/media/", http.FileServer(http.Dir(s.deps.MediaDir)))).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.timeoutMiddleware)
	api.Use(s.jsonContentTypeMiddleware)
	api.Use(s.authMiddleware)

	api.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.handlePutProfile).Methods(http.MethodPut)
	api.HandleFunc("/profile/avatar", s.handleUploadAvatar).Methods(http.MethodPost)
	api.HandleFunc("/avatars", s.handleAvatars).Methods(http.MethodGet)
	api.HandleFunc("/personas", s.handlePersonas).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handlePutSettings).Methods(http.MethodPut)

	api.HandleFunc("/budget/months", s.handleBudgetMonths).Methods(http.MethodGet)
	api.HandleFunc("/budget/preview", s.handleBudgetPreview).Methods(http.MethodPost)
	api.HandleFunc("/budget/{month}", s.handleGetBudget).Methods(http.MethodGet)
	api.HandleFunc("/budget/{month}", s.handlePutBudget).Methods(http.MethodPut)
	api.HandleFunc("/budget/{month}/breakdown", s.handleBudgetBreakdown).Methods(http.MethodGet)

	api.HandleFunc("/checkin", s.handleCheckIn).Methods(http.MethodPost)
	api.HandleFunc("/gamification", s.handleGamification).Methods(http.MethodGet)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleAddExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPatch)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/goals", s.handleListGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.handleAddGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id}", s.handleUpdateGoal).Methods(http.MethodPatch)
	api.HandleFunc("/goals/{id}", s.handleDeleteGoal).Methods(http.MethodDelete)

	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/chat/history", s.handleChatHistory).Methods(http.MethodGet)
	api.HandleFunc("/chat/history/{id}", s.handleDeleteChatMessage).Methods(http.MethodDelete)
	api.HandleFunc("/voice", s.handleVoice).Methods(http.MethodPost)

	s.router.NotFoundHandler = s.withRequestID(http.HandlerFunc(s.handleNotFound))
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return s.withRequestID(next)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), ctxRequestID, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		duration := time.Since(start)

		log.Debug().
			Str("request_id", requestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Str("remote", r.RemoteAddr).
			Msg("request")

		if s.deps.Metrics != nil {
			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			s.deps.Metrics.ObserveRequest(route, statusClass(wrapper.statusCode), duration)
		}
	})
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// authMiddleware trusts the X-User-ID header set by the fronting proxy
// after it has verified the session token. The profile row is created
// on first sight.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			s.writeError(w, r, http.StatusUnauthorized, "missing_user", "X-User-ID header is required")
			return
		}
		if _, err := s.deps.Accounts.EnsureProfile(r.Context(), userID, r.Header.Get("X-User-Email")); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "profile_init_failed", "could not initialize user profile")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser is the auth check for routes outside the api subrouter.
func (s *Server) requireUser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			s.writeError(w, r, http.StatusUnauthorized, "missing_user", "X-User-ID header is required")
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxUserID, userID)))
	}
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxRequestID).(string); ok {
		return id
	}
	return "unknown"
}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Addr()).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade reach the underlying connection.
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}
