// Command worker consumes submitted notes from Kafka, runs each one through
// the ingestion pipeline, and publishes the resulting entity events.
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
	"github.com/turtacn/ArchIntel/internal/oracle"
	"github.com/turtacn/ArchIntel/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
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
	log = log.Named("worker")
	log.Info("starting", logging.String("version", config.Version))

	var metrics *prometheus.AppMetrics
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            "worker",
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
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		cache = redis.NewCache(client, log)
	}

	chat := oracle.NewChatOracle(cfg.Oracle, log)
	search := oracle.NewWebSearchOracle(cfg.WebSearch, cache, log)
	pipe := pipeline.New(st, chat, chat, search, cfg.Pipeline, metrics, log)

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("init kafka producer: %w", err)
	}
	defer producer.Close()

	h := newNoteHandler(pipe, producer, log)
	consumer, err := kafka.NewConsumer(cfg.Kafka, []string{kafka.TopicNoteSubmitted}, h.handle, log)
	if err != nil {
		return fmt.Errorf("init kafka consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	log.Info("consuming", logging.String("topic", kafka.TopicNoteSubmitted))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("shutting down", logging.String("signal", sig.String()))

	cancel()
	return consumer.Stop()
}
