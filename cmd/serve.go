package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/keywords"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/monitoring"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initOutreach(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{
			runner:       env.Orchestrator,
			sink:         env.Sink,
			store:        env.Store,
			keywordsFile: cfg.Outreach.KeywordsFile,
			lookbackHrs:  cfg.Monitoring.LookbackWindowHours,
			baseCtx:      ctx,
		}
		defer api.wait()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.routes(cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		if cfg.Monitoring.Enabled && env.Store != nil {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(env.Store),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
			g.Go(func() error {
				checker.Run(gctx)
				return nil
			})
		}
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// keywordRunner is the part of the orchestrator the API drives.
type keywordRunner interface {
	RunKeyword(ctx context.Context, keyword string, sink outreach.Sink) (int, error)
	RunBatch(ctx context.Context, keywords []string, sink outreach.Sink) (model.BatchSummary, error)
}

// apiServer serves the outreach HTTP API. Only one batch runs at a time.
type apiServer struct {
	runner       keywordRunner
	sink         outreach.Sink
	store        store.Store // nil when no store is configured
	keywordsFile string
	lookbackHrs  int
	// baseCtx outlives individual requests; background batches use it.
	baseCtx context.Context

	batchRunning atomic.Bool
	wg           sync.WaitGroup
}

// wait blocks until any background batch returns.
func (s *apiServer) wait() { s.wg.Wait() }

func (s *apiServer) routes(origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/outreach/keyword", s.handleKeyword)
		r.Post("/outreach/batch", s.handleBatch)
		r.Get("/runs", s.handleRuns)
		r.Get("/leads", s.handleLeads)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleKeyword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	saved, err := s.runner.RunKeyword(r.Context(), keyword, s.sink)
	if err != nil {
		zap.L().Error("api: keyword run failed", zap.String("keyword", keyword), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keyword":    keyword,
		"savedLeads": saved,
	})
}

// handleBatch starts a batch in the background. The body may list keywords;
// otherwise they are read from the configured keywords file.
func (s *apiServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keywords []string `json:"keywords"`
	}
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return
	}

	kws := keywords.Clean(req.Keywords)
	if len(kws) == 0 {
		loaded, err := keywords.Load(r.Context(), s.keywordsFile, keywords.Options{})
		if err != nil {
			zap.L().Error("api: load keywords failed", zap.String("file", s.keywordsFile), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load keywords file")
			return
		}
		kws = loaded
	}
	if len(kws) == 0 {
		writeError(w, http.StatusBadRequest, "no keywords to run")
		return
	}

	if !s.batchRunning.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "a batch is already running")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.batchRunning.Store(false)

		summary, err := s.runner.RunBatch(s.baseCtx, kws, s.sink)
		if err != nil {
			zap.L().Error("api: batch stopped", zap.Error(err))
			return
		}
		zap.L().Info("api: batch complete",
			zap.Int("keywords", summary.Keywords),
			zap.Int("failed", summary.Failed),
			zap.Int("rows", summary.Rows),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   "accepted",
		"keywords": len(kws),
	})
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}
	q := r.URL.Query()
	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{
		Keyword: q.Get("keyword"),
		Limit:   queryInt(q.Get("limit")),
		Offset:  queryInt(q.Get("offset")),
	})
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []model.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *apiServer) handleLeads(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}
	q := r.URL.Query()
	minScore, _ := strconv.ParseFloat(q.Get("min_score"), 64)
	rows, err := s.store.ListRows(r.Context(), store.RowFilter{
		Keyword:      q.Get("keyword"),
		MinLeadScore: minScore,
		Limit:        queryInt(q.Get("limit")),
	})
	if err != nil {
		zap.L().Error("api: list leads failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list leads")
		return
	}
	if rows == nil {
		rows = []model.OutputRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}
	hours := queryInt(r.URL.Query().Get("hours"))
	if hours == 0 {
		hours = s.lookbackHrs
	}
	if hours <= 0 {
		hours = 24
	}
	snap, err := monitoring.NewCollector(s.store).Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("api: collect stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not collect stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}

func queryInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
