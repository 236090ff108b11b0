// Package httpapi serves the read-only reporting surface and the two mutation
// paths the dashboard is allowed: outcome recording and recommendation intake.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/overseerhq/overseer/internal/insight"
	"github.com/overseerhq/overseer/internal/knowledge"
	"github.com/overseerhq/overseer/internal/learning"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/internal/store/postgres"
	"github.com/overseerhq/overseer/pkg/models"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server (home dir, listen addr, API key, DB, metrics).
type ServerOptions struct {
	Home           string
	Addr           string
	APIKey         string       // if set, require X-API-Key header or query api_key
	DBDriver       string       // "sqlite" (default) or "postgres"
	DBURL          string       // for postgres: connection string (or set DATABASE_URL env)
	MetricsHandler http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
	Seed           bool         // if true, load demo data on startup
}

// App holds the HTTP server, SSE hub, store, and the aggregation components
// behind the routes.
type App struct {
	Server *http.Server
	Hub    *SSEHub
	Store  store.Store
	Home   string

	miner  *insight.Miner
	ledger *learning.Ledger
	intake *knowledge.Intake
}

// NewApp creates the HTTP app (server, hub, store) and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	hub := NewSSEHub()
	mux := http.NewServeMux()

	var st store.Store
	var err error
	if opts.DBDriver == "postgres" {
		st, err = postgres.Open(opts.DBURL)
	} else {
		st, err = store.Open(opts.Home)
	}
	if err != nil {
		return nil, err
	}
	if opts.Seed {
		if err := st.SeedDemo(context.Background()); err != nil {
			slog.Warn("demo seed failed", "err", err)
		}
	}

	app := &App{
		Hub:    hub,
		Store:  st,
		Home:   opts.Home,
		miner:  &insight.Miner{Store: st},
		ledger: &learning.Ledger{Store: st},
		intake: knowledge.NewIntake(st),
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			metrics, _ := st.ListBotMetrics(r.Context())
			_, _ = fmt.Fprintf(w, "# TYPE overseer_bot_outcomes_total counter\n")
			for _, m := range metrics {
				_, _ = fmt.Fprintf(w, "overseer_bot_outcomes_total{bot=%q,result=\"succeeded\"} %d\n", m.BotRole, m.Succeeded)
				_, _ = fmt.Fprintf(w, "overseer_bot_outcomes_total{bot=%q,result=\"failed\"} %d\n", m.BotRole, m.Failed)
			}
		})
	}

	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Config{Home: opts.Home})
	})

	mux.HandleFunc("/api/events", hub.Handler())

	mux.HandleFunc("/api/bots/", app.handleBots)
	mux.HandleFunc("/api/leads/", app.handleLeads)
	mux.HandleFunc("/api/subordinates/", app.handleSubordinates)
	mux.HandleFunc("/api/escalations", app.handleEscalations)
	mux.HandleFunc("/api/outcomes", app.handleOutcomes)
	mux.HandleFunc("/api/recommendations", app.handleRecommendations)

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "overseer")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		_ = st.Close()
	})
	app.Server = srv
	return app, nil
}

// handleBots serves /api/bots/{role}/metrics and /api/bots/{role}/insights.
func (a *App) handleBots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	role, rest, ok := splitRolePath(r.URL.Path, "/api/bots/")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	switch rest {
	case "metrics":
		rep, err := a.miner.BotMetrics(r.Context(), role, time.Now())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, rep)
	case "insights":
		insights, err := a.miner.CrossSubordinateInsights(r.Context(), role)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, insights)
	case "learning":
		records, err := a.Store.ListLearningRecordsByBot(r.Context(), role)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, records)
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
	}
}

// handleLeads serves /api/leads/{role}/reviews.
func (a *App) handleLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	role, rest, ok := splitRolePath(r.URL.Path, "/api/leads/")
	if !ok || rest != "reviews" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	records, err := a.Store.ListReviewRecords(r.Context(), role, models.DefaultReviewTaskLimit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, records)
}

// handleSubordinates serves /api/subordinates/{role}/amendments.
func (a *App) handleSubordinates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	role, rest, ok := splitRolePath(r.URL.Path, "/api/subordinates/")
	if !ok || rest != "amendments" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	amds, err := a.Store.ListAmendments(r.Context(), role, models.DefaultReviewTaskLimit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, amds)
}

// handleEscalations serves GET /api/escalations?status=pending.
func (a *App) handleEscalations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.EscalationPending
	}
	esc, err := a.Store.ListEscalations(r.Context(), status, models.DefaultReviewTaskLimit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, esc)
}

// handleOutcomes is the single mutation path for evaluation results:
// POST /api/outcomes records an amendment outcome into the learning ledger.
func (a *App) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body models.OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.AmendmentID == "" {
		writeJSONError(w, http.StatusBadRequest, "amendment_id required")
		return
	}
	if err := a.ledger.RecordOutcome(r.Context(), body.AmendmentID, body.Succeeded, body.VarianceBefore, body.VarianceAfter, time.Now()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.Hub.PublishJSON(map[string]any{
		"type":         "outcome",
		"amendment_id": body.AmendmentID,
		"succeeded":    body.Succeeded,
	})
	writeJSON(w, map[string]any{"ok": true})
}

// handleRecommendations is the validated intake path:
// POST /api/recommendations submits a knowledge-bot candidate.
func (a *App) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var rec models.Recommendation
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	stored, violations, err := a.intake.Submit(r.Context(), rec, time.Now())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"violations": msgs})
		return
	}
	writeJSON(w, stored)
}

// splitRolePath extracts {role} and the trailing segment from prefix/{role}/rest.
func splitRolePath(path, prefix string) (role, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
