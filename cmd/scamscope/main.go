package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scamscope/scamscope/internal/config"
	"github.com/scamscope/scamscope/internal/httpapi"
	"github.com/scamscope/scamscope/internal/observability"
	"github.com/scamscope/scamscope/internal/pipeline"
	"github.com/scamscope/scamscope/internal/ratelimit"
	"github.com/scamscope/scamscope/internal/report"
	"github.com/scamscope/scamscope/internal/urlcheck"
	"github.com/scamscope/scamscope/internal/verdict"
)

func main() {
	// Best-effort: a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if cfg.IdentifierSecret == "" {
		// Quotas survive only as long as the process without a configured
		// secret; fine for dev, set RATE_LIMIT_IDENTIFIER_SECRET in prod.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("generate identifier secret: %v", err)
		}
		cfg.IdentifierSecret = hex.EncodeToString(buf)
		log.Printf("RATE_LIMIT_IDENTIFIER_SECRET not set; using ephemeral per-process secret")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	counterStore, err := ratelimit.NewCounterStore(ctx, cfg.DatabaseURL, cfg.RateLimitWindow)
	if err != nil {
		log.Fatalf("rate counter store init failed: %v", err)
	}
	defer counterStore.Close()

	reportStore, err := report.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("report store init failed: %v", err)
	}
	defer reportStore.Close()

	gate := ratelimit.NewGate(counterStore, ratelimit.GateConfig{
		Window:       cfg.RateLimitWindow,
		MaxRequests:  cfg.RateLimitMax,
		FailOpen:     cfg.RateLimitFailOpen,
		StoreTimeout: cfg.RateLimitStoreTimeout,
	})

	var checker urlcheck.Checker
	if cfg.SafeBrowsingAPIKey != "" {
		checker = urlcheck.NewReputationChecker(urlcheck.ReputationConfig{
			APIKey:    cfg.SafeBrowsingAPIKey,
			Endpoint:  cfg.SafeBrowsingEndpoint,
			Timeout:   cfg.URLCheckTimeout,
			CacheTTL:  cfg.URLCheckCacheTTL,
			CacheSize: cfg.URLCheckCacheSize,
		})
		log.Printf("url checker: reputation lookup enabled")
	} else {
		checker = urlcheck.Disabled{}
		log.Printf("url checker: disabled (no SAFEBROWSING_API_KEY), all URLs classify as unknown")
	}

	var generator verdict.Generator
	if cfg.OpenAIAPIKey != "" {
		generator = verdict.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.VerdictTimeout)
		log.Printf("verdict generator: openai")
	} else {
		generator = verdict.Heuristic{}
		log.Printf("verdict generator: heuristic (no OPENAI_API_KEY)")
	}

	svc := pipeline.New(gate, checker, generator, reportStore, metrics, cfg.AnalysisDeadline)

	api := httpapi.New(cfg, svc, reportStore)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
