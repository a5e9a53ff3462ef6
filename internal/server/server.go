package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fieldstream/ingest-gateway/internal/auth"
	"github.com/fieldstream/ingest-gateway/internal/proxy"
)

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	http   *http.Server
}

type Options struct {
	Port           int
	RequestTimeout time.Duration
	MaxRequestSize int64
	RequiredScope  string
}

// New assembles the gateway router. Topic routes run the full pipeline in
// fixed order: decompression wrapping, size limiting, authentication, then
// (for writes) envelope validation, before the request is handed to the
// forwarder.
func New(opts Options, logger *slog.Logger, resolver *auth.Resolver, forwarder *proxy.Forwarder) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(opts.RequestTimeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "ingest-gateway")
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", forwarder.ServeHTTP)

	r.Route("/topics", func(t chi.Router) {
		t.Use(DecompressMiddleware)
		t.Use(SizeLimitMiddleware(opts.MaxRequestSize))
		t.Use(AuthMiddleware(resolver, opts.RequiredScope, logger))
		t.Get("/", forwarder.ServeHTTP)
		t.Get("/{topic}", forwarder.ServeHTTP)
		t.With(AvroContentMiddleware(logger)).Post("/{topic}", forwarder.ServeHTTP)
	})

	return &Server{
		Router: r,
		Port:   opts.Port,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}
	s.logger.Info("starting server", slog.Int("port", s.Port))
	return s.http.ListenAndServe()
}

// Shutdown stops accepting new requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
