package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ruteri/wireserver-ready-agent/interfaces"
)

type HTTPServerConfig struct {
	ListenAddr  string
	EnablePprof bool
	Log         *slog.Logger

	// GoalState is served on /machine?comp=goalstate and expected back in reports.
	GoalState interfaces.GoalState

	// ExtraInstances are listed as further role instances in the goal state.
	ExtraInstances []string

	// FailGoalStateRequests is the number of goal-state requests answered with 500
	// before the goal state is served.
	FailGoalStateRequests int64

	// FailHealthRequests is the number of health reports answered with 500 before
	// reports are accepted.
	FailHealthRequests int64

	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
}

// Validate checks the fields needed to serve.
func (c *HTTPServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("ListenAddr required")
	}
	if c.Log == nil {
		return fmt.Errorf("Log required")
	}
	if c.FailGoalStateRequests < 0 || c.FailHealthRequests < 0 {
		return fmt.Errorf("failure counts must not be negative")
	}
	return nil
}

type Server struct {
	cfg *HTTPServerConfig
	log *slog.Logger

	srv     *http.Server
	handler *Handler
}

func New(cfg *HTTPServerConfig) (srv *Server, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}

	srv = &Server{
		cfg:     cfg,
		log:     cfg.Log,
		handler: handler,
	}

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.getRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

// Handler returns the routed handler, for use with httptest.
func (srv *Server) Handler() http.Handler {
	return srv.srv.Handler
}

func (srv *Server) getRouter() http.Handler {
	mux := chi.NewRouter()

	mux.With(srv.httpLogger).Get("/machine", srv.handler.HandleMachineGet)
	mux.With(srv.httpLogger).Post("/machine", srv.handler.HandleMachinePost)

	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

// handleReadinessCheck reports whether a readiness report has been accepted.
func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !srv.handler.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// ReportsReceived returns the number of accepted readiness reports.
func (srv *Server) ReportsReceived() int64 {
	return srv.handler.reportsReceived.Load()
}

// LastReport returns the body of the last accepted readiness report.
func (srv *Server) LastReport() []byte {
	return srv.handler.LastReport()
}

func (srv *Server) RunInBackground() {
	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

func (srv *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}
}
