// Package server serves the interactive graph page and its live websocket
// sessions. Every session gets its own view built from the active payload.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/TFMV/forcegraph/config"
	"github.com/TFMV/forcegraph/ingest"
	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/view"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP front end of forcegraph
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *store
	engine   *gin.Engine
	sessions atomic.Int64
}

// New creates a server for payload. The payload must already load.
func New(cfg *config.Config, payload *ingest.Payload, logger *slog.Logger) (*Server, error) {
	if payload == nil {
		return nil, errors.New("server: nil payload")
	}
	if _, err := payload.Graph(); err != nil {
		return nil, errors.Wrap(err, "server: payload")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:   cfg,
		log:   logger,
		store: newStore(payload),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Reload replaces the active payload. Every open session swaps its view.
func (s *Server) Reload(payload *ingest.Payload) error {
	if _, err := payload.Graph(); err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		return errors.Wrap(err, "reload")
	}
	version := s.store.Set(payload)
	reloadsTotal.WithLabelValues("ok").Inc()
	s.log.Info("payload reloaded", "version", version, "nodes", len(payload.Nodes), "links", len(payload.Links))
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", s.handleIndex)
	r.GET("/api/graph", s.handleAPIGraph)
	r.GET("/scene.svg", s.handleSnapshot)
	r.GET("/ws", s.handleSocket)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// newView builds a view over a fresh graph of the active payload
func (s *Server) newView() (*view.View, uint64, error) {
	g, version, err := s.store.Graph()
	if err != nil {
		return nil, 0, err
	}
	opts := s.cfg.ViewOptions()
	opts.OnTick = func(d time.Duration) {
		ticksTotal.Inc()
		tickDuration.Observe(d.Seconds())
	}
	return view.New(g, opts), version, nil
}

// handleIndex renders the interactive page
func (s *Server) handleIndex(c *gin.Context) {
	v, _, err := s.newView()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	page, err := v.Render(&render.PageRenderer{Title: s.cfg.Render.Title, SocketPath: "/ws"})
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// handleAPIGraph returns the active payload as JSON
func (s *Server) handleAPIGraph(c *gin.Context) {
	payload, version := s.store.Get()
	c.Header("X-Payload-Version", strconv.FormatUint(version, 10))
	c.JSON(http.StatusOK, payload)
}

var contentTypes = map[string]string{
	"svg":   "image/svg+xml",
	"ascii": "text/plain; charset=utf-8",
	"json":  "application/json",
}

// handleSnapshot settles a fresh view and renders it. The format query
// parameter selects svg (default), ascii or json.
func (s *Server) handleSnapshot(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "svg"))
	renderer, err := render.GetRenderer(format)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	v, _, err := s.newView()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	ticks, converged := v.Settle(c.Request.Context(), s.cfg.Simulation.MaxTicks)
	s.log.Debug("snapshot settled", "ticks", ticks, "converged", converged)

	out, err := v.Render(renderer)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, contentTypes[format], out)
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  uint64 `json:"version"`
	Nodes    int    `json:"nodes"`
	Links    int    `json:"links"`
	Sessions int64  `json:"sessions"`
}

func (s *Server) handleHealth(c *gin.Context) {
	payload, version := s.store.Get()
	c.JSON(http.StatusOK, healthResponse{
		Status:   "ok",
		Version:  version,
		Nodes:    len(payload.Nodes),
		Links:    len(payload.Links),
		Sessions: s.sessions.Load(),
	})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	s.log.Warn("request failed", "path", c.Request.URL.Path, "status", status, "error", err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// Run serves HTTP on the configured address until ctx is done, then shuts
// down gracefully. With watching enabled it also reloads the payload file
// whenever it changes.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  s.cfg.Server.IdleTimeout.Duration,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	if s.cfg.Server.Watch && s.cfg.Server.Payload != "" {
		w, err := newWatcher(s.cfg.Server.Payload, s.cfg.Server.WatchDebounce.Duration, s.reloadFile, s.log)
		if err != nil {
			return errors.Wrap(err, "watch payload")
		}
		defer w.Stop()
		go w.Run(ctx)
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// reloadFile decodes the payload file again. A bad file keeps the previous payload.
func (s *Server) reloadFile(path string) {
	payload, err := ingest.ProcessFile(path, s.cfg.Server.Format)
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		s.log.Error("payload reload failed, keeping previous payload", "path", path, "error", err)
		return
	}
	if err := s.Reload(payload); err != nil {
		s.log.Error("payload reload failed, keeping previous payload", "path", path, "error", err)
	}
}
