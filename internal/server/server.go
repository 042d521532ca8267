// Package server runs an HTTP relay that accepts CLEF events and hands
// them to a Writer, typically a pipeline feeding Slack outputs.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/slackline/internal/decode/clef"
	"github.com/crimson-sun/slackline/internal/model"
)

const (
	defaultMaxBodyBytes    = 10 << 20
	defaultShutdownTimeout = 10 * time.Second

	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-Id"
)

// Writer receives decoded events.
type Writer interface {
	Write(ctx context.Context, event model.LogEvent) error
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps the (decompressed) request body. Default: 10MB.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithAllowOrigins enables CORS for the given origins. "*" allows any.
func WithAllowOrigins(origins ...string) Option {
	return func(s *Server) { s.allowOrigins = origins }
}

// WithRateLimit caps accepted requests per second across all clients.
// Requests over the limit get 429. Default: unlimited.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(r, burst) }
}

// Server is the ingest relay.
type Server struct {
	w            Writer
	decoder      *clef.Decoder
	engine       *gin.Engine
	maxBodyBytes int64
	allowOrigins []string
	limiter      *rate.Limiter
}

// New builds the router. Call gin.SetMode before New to change gin's mode.
func New(w Writer, opts ...Option) *Server {
	s := &Server{
		w:            w,
		decoder:      clef.NewDecoder(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))
	if len(s.allowOrigins) > 0 {
		r.Use(cors.New(corsConfig(s.allowOrigins)))
	}

	r.GET("/healthz", s.health)
	v1 := r.Group("/api/v1")
	v1.POST("/events", s.submitEvents)

	s.engine = r
	return s
}

// Handler returns the router for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ingest relay listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down ingest relay")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Content-Encoding", RequestIDHeader},
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(RequestIDHeader),
		)
	}
}
