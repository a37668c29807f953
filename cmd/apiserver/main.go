// Command apiserver runs the ArchIntel HTTP API: note ingestion, entity
// lookups, and health/metrics endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/infrastructure/database/redis"
	"github.com/turtacn/ArchIntel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ArchIntel/internal/infrastructure/store/postgres"
	httpapi "github.com/turtacn/ArchIntel/internal/interfaces/http"
	"github.com/turtacn/ArchIntel/internal/interfaces/http/handlers"
	"github.com/turtacn/ArchIntel/internal/oracle"
	"github.com/turtacn/ArchIntel/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "apiserver:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.NewLogger(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log = log.Named("apiserver")
	log.Info("starting", logging.String("version", config.Version))

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.AppMetrics
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		})
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	conn, err := postgres.NewConnection(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()
	if cfg.Postgres.MigrationPath != "" {
		if err := conn.RunMigrations(cfg.Postgres.MigrationPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	st := postgres.NewDocumentStore(conn, log)

	var cache redis.Cache
	checkers := []handlers.HealthChecker{storeChecker{st: st}}
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		cache = redis.NewCache(client, log)
		checkers = append(checkers, cacheChecker{cache: cache})
	}

	chat := oracle.NewChatOracle(cfg.Oracle, log)
	search := oracle.NewWebSearchOracle(cfg.WebSearch, cache, log)
	pipe := pipeline.New(st, chat, chat, search, cfg.Pipeline, metrics, log)

	var publisher handlers.NotePublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("init kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = producer
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		NotesHandler:     handlers.NewNotesHandler(pipe, publisher, st, log),
		EntitiesHandler:  handlers.NewEntitiesHandler(st, log),
		HealthHandler:    handlers.NewHealthHandler(config.Version, checkers...),
		Logger:           log,
		Metrics:          metrics,
		MetricsCollector: collector,
	})
	server := httpapi.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	log.Info("listening", logging.Int("port", cfg.Server.Port))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", logging.String("signal", sig.String()))
	}

	return server.Stop(context.Background())
}
