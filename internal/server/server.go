// Package server exposes conversion over HTTP.
//
// POST /convert takes a JSON document as the request body and responds with
// {"structCode": "..."}. The optional name query parameter sets the root
// type name.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/negroni"
	"golang.org/x/sync/singleflight"

	"github.com/mcncl/jsonstruct/internal/config"
	"github.com/mcncl/jsonstruct/internal/emit"
	"github.com/mcncl/jsonstruct/internal/errors"
	"github.com/mcncl/jsonstruct/internal/parser"
)

// DefaultRootName names the root type when a request does not.
const DefaultRootName = "Data"

const shutdownTimeout = 10 * time.Second

// Server converts JSON request bodies into Go declarations.
type Server struct {
	cfg      config.ServerConfig
	emitter  *emit.Emitter
	cache    *resultCache
	group    singleflight.Group
	metrics  *metrics
	registry *prometheus.Registry
	router   *mux.Router
	logger   *slog.Logger
}

type convertResponse struct {
	StructCode string `json:"structCode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a Server from cfg. A nil logger uses slog.Default.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := newResultCache(cfg.Server.CacheSize)
	if err != nil {
		return nil, errors.NewConfigError("invalid server.cache_size", err)
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg.Server,
		emitter:  emit.New(cfg),
		cache:    cache,
		metrics:  newMetrics(registry),
		registry: registry,
		router:   mux.NewRouter(),
		logger:   logger,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/convert", s.handleConvert()).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth()).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.Use(s.logMiddleware)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.NewTransportError("server stopped", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.NewTransportError("graceful shutdown failed", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.NewTransportError("server stopped", err)
	}
	return nil
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := negroni.NewResponseWriter(w)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", ww.Status(),
			"bytes", ww.Size(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	}
}

func (s *Server) handleConvert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				s.metrics.conversions.WithLabelValues(resultTooLarge).Inc()
				s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: errors.ErrBodyTooLarge.Error()})
				return
			}
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}

		rootName := r.URL.Query().Get("name")
		if rootName == "" {
			rootName = DefaultRootName
		}

		code, cached, err := s.convert(rootName, body)
		if err != nil {
			if !errors.IsInvalidInput(err) {
				s.logger.Error("conversion failed", "error", err)
				s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
				return
			}
			s.metrics.conversions.WithLabelValues(resultInvalid).Inc()
			s.logger.Debug("conversion rejected", "error", err)
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid input: " + err.Error()})
			return
		}

		if cached {
			s.metrics.conversions.WithLabelValues(resultCached).Inc()
		} else {
			s.metrics.conversions.WithLabelValues(resultOK).Inc()
		}
		s.writeJSON(w, http.StatusOK, convertResponse{StructCode: code})
	}
}

// convert returns the declarations for body, consulting the cache first.
// Concurrent identical requests share one conversion.
func (s *Server) convert(rootName string, body []byte) (string, bool, error) {
	key := cacheKey(rootName, body)
	if code, ok := s.cache.Get(key); ok {
		return code, true, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		value, err := parser.ParseBytes(body)
		if err != nil {
			return "", err
		}
		code := s.emitter.Emit(value, rootName)
		s.metrics.duration.Observe(time.Since(start).Seconds())
		s.metrics.inputBytes.Observe(float64(len(body)))
		s.cache.Put(key, code)
		return code, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
