package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lectio-dev/lectio/pkg/usecase"
	"github.com/lectio-dev/lectio/pkg/utils/logging"
	"github.com/lectio-dev/lectio/pkg/utils/safe"
)

// SessionHeader carries the agent session ID. It takes precedence over the session_id body field.
const SessionHeader = "X-Session-ID"

const defaultMaxBodyBytes = 1 << 20

type Server struct {
	router       *chi.Mux
	uc           *usecase.UseCases
	maxBodyBytes int64
}

type Options func(*Server)

// WithMaxBodyBytes limits the size of JSON request bodies
func WithMaxBodyBytes(n int64) Options {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		uc:           uc,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Post("/test", s.compareHandler)
	r.Get("/test/fields", fieldsHandler)

	r.Post("/query", s.queryHandler)
	r.Post("/query-agent", s.queryAgentHandler)
	r.Post("/query-agent-reset", s.resetSessionHandler)
	r.Delete("/query-agent-session", s.deleteSessionHandler)
	r.Get("/query-agent-sessions", s.sessionsHandler)

	r.Get("/record-ids", s.recordIDsHandler)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	safe.WriteJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
