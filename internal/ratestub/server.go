// Package ratestub serves a local stand-in for the public rate endpoint so
// the TUI can run without network access.
package ratestub

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/fxlive/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options tunes the stub's behaviour.
type Options struct {
	// Jitter is the maximum relative deviation applied to each quote, so
	// consecutive refreshes visibly move. 0 disables it.
	Jitter float64
	// FailEvery makes every Nth rate request fail with a bare 503. 0 disables it.
	FailEvery int
}

// Server provides the stub rate API.
type Server struct {
	addr      string
	table     *RateTable
	opts      Options
	logger    *zap.Logger
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time

	requests atomic.Int64
	registry *prometheus.Registry
	served   *prometheus.CounterVec
}

// NewServer creates a stub server.
func NewServer(addr string, table *RateTable, opts Options, logger *zap.Logger) *Server {
	if addr == "" {
		addr = model.DefaultStubAddr
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	registry := prometheus.NewRegistry()
	served := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fxstub_rate_requests_total",
		Help: "Rate lookups served by the stub, by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(served)

	return &Server{
		addr:      addr,
		table:     table,
		opts:      opts,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
		registry:  registry,
		served:    served,
	}
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/rate/public", s.handleRate)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	return r
}

// Start binds the listen address. Call Serve to handle requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()
	s.logger.Info("stub rate service listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Serve handles requests until Stop is called. It returns nil after a clean
// shutdown and the serve error otherwise.
func (s *Server) Serve() error {
	if s.server == nil || s.listener == nil {
		return errors.New("ratestub: Serve called before Start")
	}
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving stub rate API: %w", err)
	}
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	// Shutdown only closes listeners that Serve has taken over.
	if s.listener != nil {
		_ = s.listener.Close()
	}
	return err
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"base":       s.table.Base,
		"currencies": len(s.table.Rates),
	})
}

type rateQuery struct {
	Sell string `form:"sellCurrency" binding:"required,alpha,len=3"`
	Buy  string `form:"buyCurrency" binding:"required,alpha,len=3"`
}

func (s *Server) handleRate(c *gin.Context) {
	n := s.requests.Add(1)
	if id := c.GetHeader("X-Request-Id"); id != "" {
		c.Header("X-Request-Id", id)
	}

	if s.opts.FailEvery > 0 && n%int64(s.opts.FailEvery) == 0 {
		s.served.WithLabelValues("injected_failure").Inc()
		c.Status(http.StatusServiceUnavailable)
		return
	}

	var q rateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.served.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"detail": "sellCurrency and buyCurrency must be 3-letter currency codes"})
		return
	}

	rate, ok := s.table.Cross(q.Sell, q.Buy)
	if !ok {
		s.served.WithLabelValues("unsupported").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Unsupported currency pair: %s/%s", q.Sell, q.Buy)})
		return
	}

	if s.opts.Jitter > 0 {
		rate *= 1 + (rand.Float64()*2-1)*s.opts.Jitter
	}

	s.served.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"sellCurrency": q.Sell,
		"buyCurrency":  q.Buy,
		"retailRate":   math.Round(rate*1e6) / 1e6,
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
