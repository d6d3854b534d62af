package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"steppetalk/internal/application"
	"steppetalk/internal/domain"
	"steppetalk/internal/metrics"
)

// DefaultMaxUploadBytes is the largest audio file accepted by /stt.
const DefaultMaxUploadBytes = 25 << 20

// Assistant is the set of use cases the HTTP API exposes.
type Assistant interface {
	Health() application.HealthStatus
	SessionCount() int
	Translate(ctx context.Context, req application.TranslateRequest) (*application.TranslateResponse, error)
	Chat(ctx context.Context, req application.ChatRequest) (*application.ChatResponse, error)
	Session(id string) application.SessionView
	ClearSession(id string)
	Speak(ctx context.Context, req application.SpeechRequest) ([]byte, string, error)
	SpeakRaw(ctx context.Context, req application.RawSpeechRequest) (*application.RawSpeechResponse, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (*application.TranscriptResponse, error)
	TranscribeRaw(ctx context.Context, req domain.PCMRequest) (*application.TranscriptResponse, error)
}

// Options configures the HTTP server. Zero values fall back to defaults.
type Options struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64
	// RateLimit applies per client IP to the routes that reach the
	// provider. A zero RPS disables it.
	RateLimit RateLimitOptions
	// TrustProxy replaces the connection address with the one reported by
	// X-Forwarded-For, X-Real-IP or True-Client-IP.
	TrustProxy   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	opts    Options
	app     Assistant
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  *chi.Mux
	limiter *RateLimiter
	server  *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(opts Options, app Assistant, m *metrics.Metrics, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 90 * time.Second
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		opts:    opts,
		app:     app,
		metrics: m,
		logger:  logger,
		router:  chi.NewRouter(),
		limiter: NewRateLimiter(opts.RateLimit),
	}
	s.routes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/ping", s.handlePing)
	r.Get("/session/{id}", s.handleGetSession)
	r.Delete("/session/{id}", s.handleDeleteSession)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/translate", s.handleTranslate)
		r.Post("/chat", s.handleChat)
		r.Post("/tts", s.handleTTS)
		r.Post("/tts_raw", s.handleTTSRaw)
		r.Post("/stt", s.handleSTT)
		r.Post("/stt_raw", s.handleSTTRaw)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", s.opts.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
