package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"github.com/camel-workshop/tester/internal/auth"
	"github.com/camel-workshop/tester/internal/checks"
	"github.com/camel-workshop/tester/internal/models"
	"github.com/camel-workshop/tester/internal/version"
)

//go:embed openapi.json docs.html
var staticFS embed.FS

const maxBodyBytes = 1 << 20

// Runner executes one suite run.
type Runner interface {
	Run(ctx context.Context, runID string, req models.Request) *checks.Report
}

type Server struct {
	log    *slog.Logger
	runner Runner
	ready  func() error

	// WriteTimeout must outlast a full suite run, cluster session included.
	WriteTimeout  time.Duration
	ShutdownGrace time.Duration
}

// New returns a server running suites with runner. ready, if set, gates /readyz.
func New(l *slog.Logger, runner Runner, ready func() error) *Server {
	return &Server{log: l, runner: runner, ready: ready, WriteTimeout: 6 * time.Minute, ShutdownGrace: 10 * time.Second}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handlers.ProxyHeaders)
	r.Use(s.withAccessLog)
	r.Use(instrument)
	r.Use(withCORS)
	r.Use(recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusFound)
	})
	r.Get("/docs", s.handleDocs)
	r.Get("/openapi.json", s.handleOpenAPI)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.handleReady)
	r.With(s.withJSON).Get("/version", s.handleVersion)
	r.Handle("/metrics", promHandler())
	r.With(s.withJSON).Post("/testApp", s.handleTestApp)
	return r
}

func (s *Server) withJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// withCORS lets browser based workshop tooling call the tester from any origin
// with any request header.
var withCORS = cors.Handler(cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	},
	AllowedHeaders:   []string{"*"},
	ExposedHeaders:   []string{"X-Run-ID"},
	AllowCredentials: true,
})

// recoverer ensures handler panics don't crash the server; returns 500 and logs minimal info
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withAccessLog logs method, path, status code and duration for every request
func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		defer func() {
			s.log.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.code),
				slog.String("remote", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("duration", time.Since(start).String()))
		}()
		next.ServeHTTP(sw, r)
	})
}

func (s *Server) handleTestApp(w http.ResponseWriter, r *http.Request) {
	req, err := models.DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"error": "invalid request", "detail": ve.Causes()})
			return
		}
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)
	s.inspectAccount(runID, req)

	rep := s.runner.Run(r.Context(), runID, *req)
	s.log.Info("run finished", slog.String("run", runID), slog.Bool("passed", rep.Passed()), slog.Int("failed", len(rep.Failed())))
	json.NewEncoder(w).Encode(rep)
}

// inspectAccount logs who the account token belongs to and fills in the
// project from the token when the request left it empty.
func (s *Server) inspectAccount(runID string, req *models.Request) {
	log := s.log.With(slog.String("run", runID), slog.String("target", req.BaseURL), slog.String("workload", req.Workload()))
	id, filled := auth.ResolveProject(req)
	if id == nil {
		log.Info("run started", slog.String("account", "unknown"))
		return
	}
	if filled {
		log.Info("project taken from account token", slog.String("project", req.OpenshiftProject))
	}
	if id.Expired(time.Now()) {
		log.Warn("account token has expired", slog.Time("expired_at", id.ExpiresAt))
	}
	log.Info("run started", slog.String("account", id.Subject), slog.String("project", req.OpenshiftProject))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	type resp struct {
		Service   string `json:"service"`
		Version   string `json:"version"`
		Build     string `json:"gitCommit"`
		BuildDate string `json:"buildDate"`
	}
	json.NewEncoder(w).Encode(resp{Service: "tester", Version: version.Version, Build: version.Build, BuildDate: version.BuildDate})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		http.Error(w, "suite not ready", http.StatusServiceUnavailable)
		return
	}
	if s.ready != nil {
		if err := s.ready(); err != nil {
			http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	b, err := openAPIDocument()
	if err != nil {
		s.log.Error("openapi document", slog.String("error", err.Error()))
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

// openAPIDocument fills the Request component of the embedded document from
// the schema the endpoint validates with.
var openAPIDocument = sync.OnceValues(func() ([]byte, error) {
	raw, err := staticFS.ReadFile("openapi.json")
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("openapi.json: %w", err)
	}
	components, _ := doc["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)
	if schemas == nil {
		return nil, errors.New("openapi.json: components.schemas missing")
	}
	req := models.Schema()
	delete(req, "$schema")
	req["example"] = models.Example
	schemas["Request"] = req
	return json.MarshalIndent(doc, "", "  ")
})

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	b, _ := staticFS.ReadFile("docs.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(b)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), s.ShutdownGrace)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
