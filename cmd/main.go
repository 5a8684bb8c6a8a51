package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"guide-a11y/internal/analyzer"
	"guide-a11y/internal/config"
	"guide-a11y/internal/report"
	"guide-a11y/internal/service"
)

type contextKey string

const requestIDKey contextKey = "request_id"

type server struct {
	logger *slog.Logger
	svc    *service.Service
	tmpl   *template.Template
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: service.ParseLevel(os.Getenv("LOG_LEVEL")),
	}))

	if err := run(logger); err != nil {
		logger.Error("Server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.PathFromEnv(""))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tmpl, err := template.ParseFiles(cfg.Server.Template)
	if err != nil {
		return fmt.Errorf("failed to parse page template %s: %w", cfg.Server.Template, err)
	}

	svc := service.New(ctx, logger, cfg)
	defer svc.Close()

	srv := &server{logger: logger, svc: svc, tmpl: tmpl}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("Server starting...", slog.String("addr", cfg.Server.Addr))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogging)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan", s.handleScan).Methods(http.MethodGet)
	api.HandleFunc("/guide", s.handleGuide).Methods(http.MethodGet)
	api.HandleFunc("/locate", s.handleLocate).Methods(http.MethodGet)
	api.HandleFunc("/rules", s.handleRules).Methods(http.MethodGet)

	return r
}

func (s *server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := context.WithValue(r.Context(), requestIDKey, uuid.New().String())

		next.ServeHTTP(w, r.WithContext(ctx))

		s.requestLogger(ctx).InfoContext(ctx, "Request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (s *server) requestLogger(ctx context.Context) *slog.Logger {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return s.logger.With(slog.String("request_id", id))
	}

	return s.logger
}

type TemplateData struct {
	URL   string
	Mode  string
	Error string
	Page  *report.Page
	Guide *report.Guide
}

func clientError(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}

func (s *server) serverError(w http.ResponseWriter, err error) {
	trace := string(debug.Stack())
	s.logger.Error("Internal Server Error", slog.Any("error", err), slog.String("trace", trace))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := TemplateData{Mode: "page"}

	if r.Method == http.MethodPost {
		ctx := r.Context()
		logger := s.requestLogger(ctx)

		data.URL = r.FormValue("url")
		if r.FormValue("mode") == "guide" {
			data.Mode = "guide"
		}

		if err := validateURL(data.URL); err != nil {
			data.Error = err.Error()
		} else if data.Mode == "guide" {
			guide, err := s.svc.Scanner.AuditGuide(ctx, logger, data.URL)
			if err != nil {
				logger.WarnContext(ctx, "Guide audit failed", slog.String("url", data.URL), slog.Any("error", err))
				data.Error = "Failed to audit the guide. The URL might be unreachable or the content invalid."
			} else {
				g := s.svc.Reports.Guide(guide)
				data.Guide = &g
			}
		} else {
			page := s.svc.Reports.Page(s.svc.Scanner.ScanPage(ctx, logger, analyzer.PageDescriptor{URL: data.URL}))
			if page.Failed() {
				logger.WarnContext(ctx, "Analysis failed for URL", slog.String("url", data.URL), slog.String("error", page.Error))
				data.Error = "Failed to analyze the page. The URL might be unreachable or the content invalid."
			} else {
				data.Page = &page
			}
		}
	}

	if err := s.tmpl.Execute(w, data); err != nil {
		s.serverError(w, err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if err := validateURL(target); err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	page := s.svc.Reports.Page(s.svc.Scanner.ScanPage(ctx, s.requestLogger(ctx), analyzer.PageDescriptor{URL: target}))

	status := http.StatusOK
	if page.Failed() {
		status = http.StatusBadGateway
	}

	writeJSON(w, status, page)
}

func (s *server) handleGuide(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if err := validateURL(target); err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	guide, err := s.svc.Scanner.AuditGuide(ctx, s.requestLogger(ctx), target)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, s.svc.Reports.Guide(guide))
}

type locateResponse struct {
	Selector string                `json:"selector"`
	Found    bool                  `json:"found"`
	Matches  int                   `json:"matches"`
	Elements []analyzer.ElementRef `json:"elements"`
}

func (s *server) handleLocate(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	selector := r.URL.Query().Get("selector")

	if err := validateURL(target); err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	if selector == "" {
		clientError(w, http.StatusBadRequest, "selector is required")
		return
	}

	ctx := r.Context()

	refs, err := s.svc.Scanner.LocatePage(ctx, s.requestLogger(ctx), target, selector)

	switch {
	case errors.Is(err, analyzer.ErrSelectorNotFound):
		writeJSON(w, http.StatusOK, locateResponse{Selector: selector, Elements: []analyzer.ElementRef{}})
	case errors.Is(err, analyzer.ErrInvalidSelector):
		clientError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, locateResponse{Selector: selector, Found: true, Matches: len(refs), Elements: refs})
	}
}

func (s *server) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog.Entries())
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q: an absolute http or https url is required", raw)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}
