package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/metrics"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

const maxBodyBytes = 10 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for pipeline runs and scoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		env, err := initPipeline(ctx, "serve", metrics.New(reg))
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type runRequest struct {
	Keywords []string `json:"keywords"`
	Budget   *int     `json:"budget,omitempty"`
}

// buildRouter wires the API routes. A nil env serves health and metrics
// only; the pipeline routes answer 503.
func buildRouter(env *pipelineEnv, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", func(w http.ResponseWriter, r *http.Request) {
			if env == nil || env.Scorer == nil {
				writeError(w, http.StatusServiceUnavailable, "scorer not initialized")
				return
			}
			var leads []model.Lead
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&leads); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			ranked := pipeline.Rescore(env.Scorer, leads)
			if ranked == nil {
				ranked = []model.Lead{}
			}
			writeJSON(w, http.StatusOK, ranked)
		})

		r.Post("/runs", func(w http.ResponseWriter, r *http.Request) {
			if env == nil || env.Pipeline == nil {
				writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
				return
			}
			var req runRequest
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if len(req.Keywords) == 0 {
				writeError(w, http.StatusBadRequest, "keywords are required")
				return
			}
			if req.Budget != nil && *req.Budget < 0 {
				writeError(w, http.StatusBadRequest, "budget must be >= 0")
				return
			}

			p := env.Pipeline
			if req.Budget != nil && env.Enricher != nil {
				p = p.WithEnricher(env.Enricher.WithBudget(*req.Budget))
			}

			timeout := time.Duration(cfg.Server.RunTimeoutSecs) * time.Second
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			result, err := p.Run(ctx, req.Keywords)
			if result == nil {
				zap.L().Error("api run failed", zap.Strings("keywords", req.Keywords), zap.Error(err))
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			if err != nil {
				zap.L().Warn("api run interrupted, returning partial results",
					zap.String("run_id", result.RunID),
					zap.Error(err),
				)
			}
			writeJSON(w, http.StatusOK, result)
		})
	})

	return r
}

func allowedOrigins() []string {
	if cfg == nil || len(cfg.Server.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.Server.AllowedOrigins
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
