// Package main runs the fitcoach MCP server over stdio, for local assistant
// use. The service mounts the same server at /mcp over streamable HTTP.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/fitcoach/internal/coaching"
	coachingmcp "github.com/2beens/fitcoach/internal/coaching/mcp"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/db"
	"github.com/2beens/fitcoach/internal/logging"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the protocol, logs go to the file or stderr
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
	})
	if cfg.LogsPath == "" {
		log.SetOutput(os.Stderr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("FITCOACH_POSTGRES_PASS"),
		MaxConns:   cfg.PostgresMaxConns,
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	coreParams := coaching.NewCoreParams{
		Repo:           training.NewRepo(dbPool),
		Config:         cfg,
		MetricsManager: metrics.NewManager("fitcoach", "mcp_stdio", metrics.SetupPrometheus()),
	}
	serverParams := coachingmcp.NewServerParams{
		MetricsManager:          coreParams.MetricsManager,
		AnalysisRateLimitPerMin: cfg.AnalysisRateLimitPerMin,
	}

	// shares the sweep lock and rate limits with the service when redis is up
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("FITCOACH_REDIS_PASS"),
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis not available, sweeps are serialized only in this process: %s", err)
	} else {
		coreParams.RedisClient = rdb
		serverParams.RateLimiter = redis_rate.NewLimiter(rdb)
	}

	serverParams.Core = coaching.NewCore(coreParams)
	server := coachingmcp.NewServer(serverParams)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
