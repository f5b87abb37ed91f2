package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/internal/config"
	"github.com/jpeetla/executive-web-scraper/internal/model"
	"github.com/jpeetla/executive-web-scraper/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve executive lookups over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer env.Close()

		var metricsHandler http.Handler
		if env.Metrics != nil {
			metricsHandler = env.Metrics.Handler()
		}

		handler := newRouter(routerConfig{
			Run:            newLeadRunner(env).run,
			Metrics:        metricsHandler,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: config.Timeout(cfg.Server.RequestTimeoutS, 5*time.Minute),
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// routerConfig wires the HTTP handlers. Metrics may be nil.
type routerConfig struct {
	Run            resolveFunc
	Metrics        http.Handler
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type scrapeRequest struct {
	CompanyName string `json:"company_name"`
}

type scrapeResponse struct {
	CompanyName string `json:"company_name"`
	model.RunResult
}

func newRouter(rc routerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rc.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/scrape", func(w http.ResponseWriter, req *http.Request) {
		var body scrapeRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		name := strings.TrimSpace(body.CompanyName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "company_name is required")
			return
		}

		ctx := req.Context()
		if rc.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, rc.RequestTimeout)
			defer cancel()
		}

		result, err := rc.Run(ctx, model.Lead{Domain: name})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, pipeline.ErrInvalidIdentifier) {
				status = http.StatusBadRequest
			}
			zap.L().Error("scrape request failed", zap.String("company", name), zap.Error(err))
			writeError(w, status, err.Error())
			return
		}
		if result.Executives == nil {
			result.Executives = []model.Executive{}
		}
		writeJSON(w, http.StatusOK, scrapeResponse{CompanyName: name, RunResult: result})
	})

	if rc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rc.Metrics)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
