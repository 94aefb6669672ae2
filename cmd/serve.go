package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP search API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env, cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
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

// newRouter builds the API routes over an initialized engine environment.
func newRouter(env *engineEnv, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", handleHealth(env))
	r.Post("/search", handleSearch(env))
	r.Get("/runs", handleListRuns(env))
	r.Get("/runs/{id}", handleGetRun(env))
	r.Get("/metrics", handleMetrics(env))

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

func handleHealth(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := env.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"store":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// searchAPIRequest is the POST /search body.
type searchAPIRequest struct {
	Query         string `json:"query"`
	Country       string `json:"country,omitempty"`
	DateFrom      string `json:"date_from,omitempty"`
	DateTo        string `json:"date_to,omitempty"`
	BypassRanking bool   `json:"bypass_ranking,omitempty"`
	NoCache       bool   `json:"no_cache,omitempty"`
}

func (a searchAPIRequest) toModel(defaults model.Flags) (model.SearchRequest, error) {
	req := model.SearchRequest{
		Query:   a.Query,
		Country: a.Country,
		Flags:   defaults,
	}
	req.Flags.BypassRanking = req.Flags.BypassRanking || a.BypassRanking

	var err error
	if req.DateFrom, err = parseDateFlag(a.DateFrom); err != nil {
		return req, err
	}
	if req.DateTo, err = parseDateFlag(a.DateTo); err != nil {
		return req, err
	}
	return req, nil
}

func handleSearch(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body searchAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req, err := body.toModel(cfg.Search.Flags)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx := r.Context()

		if !body.NoCache {
			if cached := env.Cache.Get(ctx, req); cached != nil {
				cached.Telemetry.CacheHit = true
				writeJSON(w, http.StatusOK, cached)
				return
			}
		}

		run, err := env.Store.CreateRun(ctx, req)
		if err != nil {
			zap.L().Error("create run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "persisting run failed")
			return
		}

		result, err := env.Orchestrator.Run(ctx, req)
		if err != nil {
			_ = env.Store.CompleteRun(ctx, run.ID, model.RunStatusFailed, nil)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := env.Store.CompleteRun(ctx, run.ID, runStatusFor(result), result); err != nil {
			zap.L().Warn("persisting run result failed", zap.Error(err))
		}
		if !body.NoCache {
			env.Cache.Put(ctx, req, result)
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleListRuns(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := runFilterFromQuery(r)

		runs, err := env.Store.ListRuns(r.Context(), filter)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "listing runs failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
	}
}

func handleGetRun(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func handleMetrics(env *engineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := 24
		if h := r.URL.Query().Get("hours"); h != "" {
			if _, err := fmt.Sscanf(h, "%d", &hours); err != nil || hours <= 0 {
				writeError(w, http.StatusBadRequest, "hours must be a positive integer")
				return
			}
		}

		snap, err := env.Collector.Collect(r.Context(), hours)
		if err != nil {
			zap.L().Error("metrics collection failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "metrics collection failed")
			return
		}

		writeJSON(w, http.StatusOK, snap)
	}
}
