// Command sweep runs one decay pass plus stale-claim recovery and exits.
// Useful from cron against a deployment whose daemon has the periodic
// sweeper disabled, and for ad-hoc cleanup after an outage.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/queue/redisq"
	"solana-token-radar/internal/signal"
	"solana-token-radar/internal/storage/migrations"
	pgstore "solana-token-radar/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (defaults apply when empty)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	redisAddr := flag.String("redis-addr", "", "Redis address for the task queue (empty to skip claim recovery)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall run deadline")

	flag.Parse()

	logger := log.New(os.Stdout, "[sweep] ", log.LstdFlags)

	if err := godotenv.Load(); err == nil {
		logger.Println("Loaded .env")
	}
	if *postgresDSN == "" {
		*postgresDSN = os.Getenv("POSTGRES_DSN")
	}
	if *redisAddr == "" {
		*redisAddr = os.Getenv("REDIS_ADDR")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("Load config: %v", err)
		}
		cfg = loaded
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Apply postgres migrations: %v", err)
	}

	sweeper := signal.NewSweeper(pgstore.NewSignalStore(pool), cfg.Decay, logger, nil)
	downgraded, err := sweeper.DecayStale(ctx, time.Now())
	if err != nil {
		logger.Fatalf("Decay sweep: %v", err)
	}
	logger.Printf("Downgraded %d decisions", downgraded)

	if *redisAddr != "" {
		q, err := redisq.New(ctx, redisq.Options{
			Addr:    *redisAddr,
			LeaseMs: cfg.ClaimLease().Milliseconds(),
		})
		if err != nil {
			logger.Fatalf("Connect to redis: %v", err)
		}
		defer q.Close()

		freed, err := q.ReleaseStaleClaims(ctx, time.Now().UnixMilli())
		if err != nil {
			logger.Fatalf("Release stale claims: %v", err)
		}
		logger.Printf("Released %d stale claims", freed)
	}
}
