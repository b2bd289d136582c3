package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/extract"
	"github.com/spigell/jobpilot/internal/matching"
	"github.com/spigell/jobpilot/internal/models"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router *mux.Router
	api    *mux.Router
	logger *zap.Logger
}

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	s := &Server{
		router: r,
		api:    r.PathPrefix("/api").Subrouter(),
		logger: logger,
	}

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.Use(s.metricsMiddleware, s.loggingMiddleware)

	return s
}

// RegisterRoute adds a route under /api.
func (s *Server) RegisterRoute(path string, handler http.HandlerFunc, methods ...string) {
	s.api.HandleFunc(path, handler).Methods(methods...)
}

// RegisterRootRoute adds a route outside of /api.
func (s *Server) RegisterRootRoute(path string, handler http.HandlerFunc, methods ...string) {
	s.router.HandleFunc(path, handler).Methods(methods...)
}

// UseAPI installs middleware for the /api routes only.
func (s *Server) UseAPI(mw ...mux.MiddlewareFunc) {
	s.api.Use(mw...)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Warn("encoding response", zap.Error(err))
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Error writes err with the status it maps to.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.JSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}
	s.JSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, matching.ErrValidation), errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
