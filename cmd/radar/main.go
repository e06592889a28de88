package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-token-radar/internal/adapter"
	"solana-token-radar/internal/config"
	"solana-token-radar/internal/discovery"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/queue"
	"solana-token-radar/internal/queue/memq"
	"solana-token-radar/internal/queue/redisq"
	"solana-token-radar/internal/ratelimit"
	"solana-token-radar/internal/scheduler"
	"solana-token-radar/internal/scoring"
	sigengine "solana-token-radar/internal/signal"
	"solana-token-radar/internal/solana"
	"solana-token-radar/internal/stage"
	"solana-token-radar/internal/storage"
	chstore "solana-token-radar/internal/storage/clickhouse"
	"solana-token-radar/internal/storage/memory"
	"solana-token-radar/internal/storage/migrations"
	pgstore "solana-token-radar/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (defaults apply when empty)")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", "", "Solana WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	redisAddr := flag.String("redis-addr", "", "Redis address for the task queue")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for the snapshot archive (empty to disable)")
	marketURL := flag.String("market-url", "", "Market data aggregator base URL")
	securityURL := flag.String("security-url", "", "Security scan service base URL")
	creatorURL := flag.String("creator-url", "", "Creator history service base URL")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage and queue instead of PostgreSQL/Redis")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[radar] ", log.LstdFlags|log.Lshortfile)

	// .env fills in flags left empty; explicit flags win.
	if err := godotenv.Load(); err == nil {
		logger.Println("Loaded .env")
	}
	fillFromEnv(rpcEndpoint, "RPC_ENDPOINT")
	fillFromEnv(wsEndpoint, "WS_ENDPOINT")
	fillFromEnv(postgresDSN, "POSTGRES_DSN")
	fillFromEnv(redisAddr, "REDIS_ADDR")
	fillFromEnv(clickhouseDSN, "CLICKHOUSE_DSN")
	fillFromEnv(marketURL, "MARKET_DATA_URL")
	fillFromEnv(securityURL, "SECURITY_SCAN_URL")
	fillFromEnv(creatorURL, "CREATOR_HISTORY_URL")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("Load config: %v", err)
		}
		cfg = loaded
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, cfg, runOptions{
		rpcEndpoint:   *rpcEndpoint,
		wsEndpoint:    *wsEndpoint,
		postgresDSN:   *postgresDSN,
		redisAddr:     *redisAddr,
		clickhouseDSN: *clickhouseDSN,
		marketURL:     *marketURL,
		securityURL:   *securityURL,
		creatorURL:    *creatorURL,
		useMemory:     *useMemory,
	})

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

type runOptions struct {
	rpcEndpoint   string
	wsEndpoint    string
	postgresDSN   string
	redisAddr     string
	clickhouseDSN string
	marketURL     string
	securityURL   string
	creatorURL    string
	useMemory     bool
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, opts runOptions) error {
	if opts.rpcEndpoint == "" {
		return fmt.Errorf("--rpc-endpoint is required")
	}
	if opts.wsEndpoint == "" {
		return fmt.Errorf("--ws-endpoint is required")
	}
	if !opts.useMemory && opts.postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if !opts.useMemory && opts.redisAddr == "" {
		return fmt.Errorf("--redis-addr is required (use --use-memory for the in-memory queue)")
	}

	rpc := solana.NewHTTPClient(opts.rpcEndpoint)

	// Stores.
	var tokenStore storage.TokenStore = memory.NewTokenStore()
	var snapshotStore storage.SnapshotStore = memory.NewSnapshotStore()
	var signalStore storage.SignalStore = memory.NewSignalStore()

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("apply postgres migrations: %w", err)
		}

		tokenStore = pgstore.NewTokenStore(pool)
		snapshotStore = pgstore.NewSnapshotStore(pool)
		signalStore = pgstore.NewSignalStore(pool)
	}

	// Queue.
	var taskQueue queue.Queue
	if opts.useMemory {
		taskQueue = memq.New(cfg.ClaimLease().Milliseconds())
	} else {
		q, err := redisq.New(ctx, redisq.Options{
			Addr:    opts.redisAddr,
			LeaseMs: cfg.ClaimLease().Milliseconds(),
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer q.Close()
		taskQueue = q
	}

	// Optional snapshot archive.
	var archive scheduler.Archiver
	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("prepare clickhouse: %w", err)
		}
		defer conn.Close()
		archive = chstore.NewSnapshotArchiveStore(conn)
	}

	// Adapters. The two on-chain adapters always run; the external REST
	// adapters require their base URLs.
	adapters := map[string]adapter.Adapter{
		"mint_inspector": adapter.NewMintInspector(rpc),
		"sell_probe":     adapter.NewSellProbe(rpc, nil),
	}
	if opts.marketURL != "" {
		adapters["market_data"] = adapter.NewMarketData(opts.marketURL)
	}
	if opts.securityURL != "" {
		adapters["security_scan"] = adapter.NewSecurityScan(opts.securityURL)
	}
	if opts.creatorURL != "" {
		adapters["creator_history"] = adapter.NewCreatorHistory(opts.creatorURL)
	}

	registry, err := stage.NewRegistry(cfg.Stages, adapters)
	if err != nil {
		return fmt.Errorf("build stage registry: %w", err)
	}

	limits := ratelimit.NewRegistry(cfg.RateLimits)

	scorerV2 := scoring.New("v2", cfg.Scoring.V2Weights, cfg.Scoring.MinCoreMetrics, cfg.Scoring.CapScore)
	scorerV3 := scoring.New("v3", cfg.Scoring.V3Weights, cfg.Scoring.MinCoreMetrics, cfg.Scoring.CapScore)
	comparator := scoring.NewComparator(cfg.Scoring.DivergenceThreshold, logger, nil)
	signalEngine := sigengine.NewEngine(cfg.Signal)

	pool, err := scheduler.New(scheduler.Options{
		Queue:        taskQueue,
		Registry:     registry,
		Limits:       limits,
		Tokens:       tokenStore,
		Snapshots:    snapshotStore,
		Signals:      signalStore,
		Archive:      archive,
		ScorerV2:     scorerV2,
		ScorerV3:     scorerV3,
		Comparator:   comparator,
		SignalEngine: signalEngine,
		Notifier:     &sigengine.LogNotifier{Logger: logger},
		Config:       cfg,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("build worker pool: %w", err)
	}

	sweeper := sigengine.NewSweeper(signalStore, cfg.Decay, logger, func(_, to domain.SignalStatus) {
		observability.RecordDecayDowngrade(string(to))
	})

	source, err := discovery.NewWSTokenSource(ctx, opts.wsEndpoint, nil, logger)
	if err != nil {
		return fmt.Errorf("open discovery source: %w", err)
	}
	defer source.Close()

	listener := discovery.NewListener(tokenStore, taskQueue, cfg.Stages[string(domain.StagePrescreen)], logger)

	errCh := make(chan error, 3)
	go func() { errCh <- pool.Run(ctx) }()
	go func() { errCh <- sweeper.Run(ctx) }()
	go func() { errCh <- listener.Run(ctx, source) }()

	logger.Printf("Radar running: %d workers, %d stages", cfg.Workers, len(cfg.Stages))
	return <-errCh
}

func fillFromEnv(flagValue *string, key string) {
	if *flagValue == "" {
		*flagValue = os.Getenv(key)
	}
}
