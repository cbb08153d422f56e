package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/2beens/fitcoach/internal"
	"github.com/2beens/fitcoach/internal/config"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	serverPort  = 9300
	metricsPort = 9302
	serverHost  = "127.0.0.1"

	testDBName     = "fitcoach"
	testDBPassword = "postgres"
)

var (
	serverEndpoint  = fmt.Sprintf("http://%s:%d", serverHost, serverPort)
	metricsEndpoint = fmt.Sprintf("http://%s:%d/metrics", serverHost, metricsPort)
)

// Env runs postgres and redis in docker and a fitcoach server against them.
type Env struct {
	DB         *sql.DB
	dockerPool *dockertest.Pool
	server     *internal.Server
	cancel     context.CancelFunc
	teardown   []func()
}

func newEnv() (*Env, error) {
	env := &Env{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	var err error
	env.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("create dockertest pool: %w", err)
	}
	env.dockerPool.MaxWait = time.Minute

	if err = env.dockerPool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("ping dockertest pool: %w", err)
	}

	redisPort, err := env.redisSetup()
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("setup redis: %w", err)
	}

	pgPort, err := env.postgresSetup()
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("setup postgres: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel

	cfg := getTestConfig(redisPort, pgPort)
	env.server, err = internal.NewServer(ctx, internal.NewServerParams{
		Config:                  cfg,
		VersionInfo:             "test-version-info",
		PostgresPassword:        testDBPassword,
		RedisPassword:           "",
		HoneycombTracingEnabled: false,
	})
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("new server: %w", err)
	}

	env.server.Serve(ctx, cfg.Host, cfg.Port)

	return env, nil
}

func (e *Env) Cleanup() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.server != nil {
		e.server.GracefulShutdown()
	}
	if e.DB != nil {
		_ = e.DB.Close()
	}
	for _, teardown := range e.teardown {
		teardown()
	}
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Environment:              "test",
		Host:                     serverHost,
		Port:                     serverPort,
		LogLevel:                 "debug",
		LogToStdout:              true,
		RedisHost:                "localhost",
		RedisPort:                redisPort,
		PostgresHost:             "localhost",
		PostgresPort:             postgresPort,
		PostgresDBName:           testDBName,
		PostgresUser:             "postgres",
		PrometheusMetricsHost:    serverHost,
		PrometheusMetricsPort:    strconv.Itoa(metricsPort),
		LearningSweepIntervalMin: 60,
		LearningSweepConcurrency: 2,
		SweepLockTTLSec:          30,
		AnalysisRateLimitPerMin:  10,
		ReportCacheSizeMB:        1,
		ReportCacheTTLSec:        60,
		McpRateLimitPerMin:       600,
	}
}

func (e *Env) redisSetup() (string, error) {
	redisResource, err := e.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %w", err)
	}

	e.teardown = append(e.teardown, func() {
		if err := redisResource.Close(); err != nil {
			log.Printf("close redis resource: %s", err)
		}
	})

	return redisResource.GetPort("6379/tcp"), nil
}

func (e *Env) postgresSetup() (string, error) {
	pgResource, err := e.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=" + testDBPassword,
			"POSTGRES_DB=" + testDBName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %w", err)
	}

	e.teardown = append(e.teardown, func() {
		if err := pgResource.Close(); err != nil {
			log.Printf("close postgres resource: %s", err)
		}
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf(
		"postgres://postgres:%s@localhost:%s/%s?sslmode=disable",
		testDBPassword, pgPort, testDBName,
	)

	// postgres accepts connections a while after the container starts
	if err := e.dockerPool.Retry(func() error {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return err
		}
		e.DB = db
		return nil
	}); err != nil {
		return "", fmt.Errorf("connect to postgres: %w", err)
	}

	return pgPort, nil
}
