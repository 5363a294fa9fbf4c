// matchpickd is the match analysis daemon. It serves graded pick
// recommendations over HTTP, streams new picks over WebSocket and keeps the
// popular-match slate pre-computed in the background.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/matchpick/matchpick/pkg/analysis"
	"github.com/matchpick/matchpick/pkg/config"
	"github.com/matchpick/matchpick/pkg/metrics"
	"github.com/matchpick/matchpick/pkg/oracle"
	"github.com/matchpick/matchpick/pkg/pick"
	"github.com/matchpick/matchpick/pkg/provider"
	"github.com/matchpick/matchpick/pkg/store"
	"github.com/matchpick/matchpick/pkg/streaming"
)

var (
	// Flags
	configPath = flag.String("config", "", "Path to YAML config file")
	httpAddr   = flag.String("http", "", "HTTP listen address (overrides config)")
	dataDir    = flag.String("data", "", "Badger data directory (overrides config; empty = in-memory)")
	noSweep    = flag.Bool("no-sweep", false, "Disable the background pre-compute sweep")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting matchpick daemon")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d, err := newDaemon(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}
	defer d.store.Close()

	go d.hub.Run(ctx)

	if !*noSweep {
		if err := d.scheduler.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer d.scheduler.Stop()
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      d.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis calls can wait on the oracle
	}
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Daemon running (data=%s, sweep=%v)", storeLabel(cfg.DataDir), !*noSweep)
	log.Printf("WebSocket streaming available at ws://%s/ws/picks", cfg.HTTPAddr)

	<-sigCh
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	cancel()
	log.Println("Goodbye!")
}

type daemon struct {
	cfg       *config.Config
	store     store.Store
	service   *analysis.Service
	scheduler *analysis.Scheduler
	metrics   *metrics.EngineMetrics
	hub       *streaming.Hub
}

func newDaemon(cfg *config.Config) (*daemon, error) {
	d := &daemon{
		cfg:     cfg,
		metrics: metrics.NewEngineMetrics(),
		hub:     streaming.NewHub(streaming.Config{}),
	}

	if cfg.DataDir != "" {
		s, err := store.OpenBadger(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		d.store = s
	} else {
		log.Println("No data directory configured - records are kept in memory only")
		d.store = store.NewMemoryStore()
	}

	var providerOpts []provider.ClientOption
	if cfg.Provider.BaseURL != "" {
		providerOpts = append(providerOpts, provider.WithBaseURL(cfg.Provider.BaseURL))
	}
	if cfg.Provider.RateLimit > 0 {
		providerOpts = append(providerOpts, provider.WithRateLimit(cfg.Provider.RateLimit, cfg.Provider.Burst))
	}
	ctxProvider := provider.NewClient(providerOpts...)

	apiKey := cfg.Oracle.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	oracleOpts := []oracle.GeminiOption{
		oracle.WithModel(cfg.Oracle.Model),
		oracle.WithSampling(cfg.Oracle.Temperature, cfg.Oracle.TopP),
	}
	if cfg.Oracle.BaseURL != "" {
		oracleOpts = append(oracleOpts, oracle.WithBaseURL(cfg.Oracle.BaseURL))
	}
	oracleClient := oracle.NewGeminiClient(apiKey, oracleOpts...)

	svc, err := analysis.NewService(analysis.Config{
		Provider:  ctxProvider,
		Oracle:    oracleClient,
		Store:     d.store,
		Metrics:   d.metrics,
		RetryWait: cfg.Sweep.RetryWait,
	})
	if err != nil {
		return nil, err
	}
	d.service = svc

	svc.OnRecordCreated(func(rec *store.Record) {
		d.hub.BroadcastPick(rec)
	})

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	d.scheduler = analysis.NewScheduler(analysis.SchedulerConfig{
		Service:  svc,
		Provider: ctxProvider,
		Interval: cfg.Sweep.Interval,
		Location: loc,
	})

	return d, nil
}

func (d *daemon) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/matches/{matchID}/pick", d.handleGetPick)
	mux.HandleFunc("GET /api/matches/{matchID}/pick/latest", d.handleGetLatest)

	mux.Handle("GET /metrics", d.metrics.Handler())
	mux.HandleFunc("GET /ws/picks", d.hub.ServeWS)

	return mux
}

// pickResponse is the API shape for a graded analysis.
type pickResponse struct {
	Analyzing bool          `json:"analyzing,omitempty"`
	Record    *store.Record `json:"record,omitempty"`
	Verdict   pick.Verdict  `json:"verdict"`
}

// handleGetPick returns the pick for a match, consulting the oracle when the
// current odds state has no record yet.
func (d *daemon) handleGetPick(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseInt(r.PathValue("matchID"), 10, 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	q := r.URL.Query()
	refresh := q.Get("refresh") == "true"
	req := parseMarkets(q.Get("markets"))

	graded, err := d.service.GetOrCreate(r.Context(), matchID, q.Get("sportsType"), req, refresh, parseOverrides(q))
	if err != nil {
		log.Printf("[HTTP] match %d: %v", matchID, err)
		httpError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, pickResponse{
		Analyzing: graded.Record == nil,
		Record:    graded.Record,
		Verdict:   graded.Verdict,
	})
}

// handleGetLatest serves the stored pick without ever calling the oracle.
func (d *daemon) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseInt(r.PathValue("matchID"), 10, 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	graded, err := d.service.GetExisting(r.Context(), matchID, parseOverrides(r.URL.Query()))
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpError(w, http.StatusNotFound, "no analysis for match")
		return
	case err != nil:
		log.Printf("[HTTP] match %d: %v", matchID, err)
		httpError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, pickResponse{Record: graded.Record, Verdict: graded.Verdict})
}

// parseMarkets reads a comma-separated market list; empty means all.
func parseMarkets(s string) pick.RequestedMarkets {
	if s == "" {
		return pick.AllMarkets()
	}
	var req pick.RequestedMarkets
	for _, name := range strings.Split(s, ",") {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "FULL_TIME_1X2":
			req.FullTime1x2 = true
		case "OVER_UNDER":
			req.OverUnder = true
		case "HANDICAP":
			req.Handicap = true
		}
	}
	if !req.FullTime1x2 && !req.OverUnder && !req.Handicap {
		return pick.AllMarkets()
	}
	return req
}

// parseOverrides extracts caller-supplied score and status from the query.
func parseOverrides(q map[string][]string) *provider.Overrides {
	get := func(key string) string {
		if vs := q[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	ov := &provider.Overrides{
		Status: get("status"),
		Result: get("result"),
	}
	if v, err := strconv.Atoi(get("scoreHome")); err == nil {
		ov.ScoreHome = &v
	}
	if v, err := strconv.Atoi(get("scoreAway")); err == nil {
		ov.ScoreAway = &v
	}
	if ov.ScoreHome == nil && ov.ScoreAway == nil && ov.Status == "" && ov.Result == "" {
		return nil
	}
	return ov
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func storeLabel(dataDir string) string {
	if dataDir == "" {
		return "memory"
	}
	return dataDir
}
