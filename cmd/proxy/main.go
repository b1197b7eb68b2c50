package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rkilchmn/openrouter-free-scanner/internal/catalog"
	"github.com/rkilchmn/openrouter-free-scanner/internal/config"
	"github.com/rkilchmn/openrouter-free-scanner/internal/health"
	"github.com/rkilchmn/openrouter-free-scanner/internal/logger"
	"github.com/rkilchmn/openrouter-free-scanner/internal/platform/otel"
	"github.com/rkilchmn/openrouter-free-scanner/internal/proxy"
	"github.com/rkilchmn/openrouter-free-scanner/internal/server"
	"github.com/rkilchmn/openrouter-free-scanner/internal/server/validator"
	"github.com/rkilchmn/openrouter-free-scanner/internal/store/cache"
	"github.com/rkilchmn/openrouter-free-scanner/internal/store/sqlite"
)

func main() {
	flags := pflag.NewFlagSet("proxy", pflag.ExitOnError)
	flags.String("port", "8080", "Port to run the server on")
	flags.Int("limit", 0, "Limit the number of models to use")
	flags.String("name", "", "Filter models by name (substring)")
	flags.Int("min-context-length", 0, "Filter by minimum context length")
	flags.String("provider", "", "Filter by provider")
	flags.String("sort-by", "context_length", "Sort models by field")
	flags.Bool("reverse", true, "Reverse sort order")
	flags.StringSlice("require-params", nil, "Only use models supporting all of these request parameters")
	flags.Int("error-threshold", health.DefaultErrorThreshold, "Consecutive errors before a model is disabled")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	traceWriter := io.Writer(io.Discard)
	if os.Getenv("TRACE_STDOUT") == "1" {
		traceWriter = os.Stdout
	}
	shutdownTracer, err := otel.InitTracer("openrouter-free-proxy", log, traceWriter)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	validator.InitValidator()

	// Optional persistence: redis snapshot store and sqlite health journal.
	var snapshots cache.Service = cache.NewMemoryCache()
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory snapshot store", zap.Error(err))
		} else {
			snapshots = redisCache
			defer redisCache.Close()
		}
	}

	var journal *sqlite.Journal
	trackerOpts := []health.TrackerOption{}
	if cfg.Journal.Enabled {
		journal, err = sqlite.NewJournal(cfg.Journal.Path)
		if err != nil {
			log.Fatal("failed to open health journal", zap.Error(err))
		}
		defer journal.Close()
		trackerOpts = append(trackerOpts, health.WithJournal(journal))
	}

	// Catalog: fetch once up front, then refresh in the background.
	clientOpts := []catalog.ClientOption{}
	if cfg.Catalog.IncludeRouters {
		clientOpts = append(clientOpts, catalog.WithRouters())
	}
	client := catalog.NewClient(cfg.Upstream.BaseURL, clientOpts...)
	candidates := catalog.NewCache(client, catalog.Criteria{
		Name:             cfg.Catalog.Name,
		Provider:         cfg.Catalog.Provider,
		MinContextLength: cfg.Catalog.MinContextLength,
		RequireParams:    cfg.Catalog.RequireParams,
		Limit:            cfg.Catalog.Limit,
	}, cfg.Catalog.SortBy, cfg.Catalog.Reverse, catalog.WithSnapshotStore(snapshots))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := candidates.Bootstrap(ctx); err != nil {
		log.Fatal("could not fetch models from OpenRouter", zap.Error(err))
	}
	models := candidates.Current()
	if len(models) == 0 {
		log.Fatal("no models match the specified criteria")
	}
	log.Info("loaded free models", zap.Int("count", len(models)))
	for i, m := range models {
		if i >= 10 {
			log.Info(fmt.Sprintf("... and %d more", len(models)-10))
			break
		}
		log.Info("candidate", zap.Int("priority", i+1), zap.String("model", m.ID),
			zap.Int("context_length", m.ContextLength))
	}

	go candidates.Run(ctx, cfg.Catalog.RefreshInterval)

	tracker := health.NewTracker(cfg.Router.ErrorThreshold, trackerOpts...)
	defer tracker.Close()
	upstream := proxy.NewUpstream(cfg.Upstream.BaseURL, cfg.Upstream.Referer, cfg.Upstream.Title, cfg.Router.AttemptTimeout)
	engine := proxy.NewRouter(candidates, tracker, upstream, proxy.Config{
		SameModelRetries: cfg.Router.SameModelRetries,
		RequestDeadline:  cfg.Router.RequestDeadline,
		AttemptTimeout:   cfg.Router.AttemptTimeout,
		Backoff: proxy.BackoffPolicy{
			Initial: cfg.Router.BackoffInitial,
			Max:     cfg.Router.BackoffMax,
			Factor:  cfg.Router.BackoffFactor,
			Jitter:  cfg.Router.BackoffJitter,
		},
	})

	srv := server.New(cfg, log, engine, candidates, tracker, journal)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info("proxy server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("models_endpoint", fmt.Sprintf("http://localhost:%s/v1/models", cfg.Server.Port)),
			zap.String("chat_endpoint", fmt.Sprintf("http://localhost:%s/v1/chat/completions", cfg.Server.Port)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
