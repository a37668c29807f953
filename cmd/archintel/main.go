// Command archintel is the operator CLI: ingest notes from files or stdin
// and inspect resolved entities, without running the API server.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/infrastructure/database/redis"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/store/memory"
	"github.com/turtacn/ArchIntel/internal/infrastructure/store/postgres"
	"github.com/turtacn/ArchIntel/internal/interfaces/cli"
	"github.com/turtacn/ArchIntel/internal/oracle"
	"github.com/turtacn/ArchIntel/internal/pipeline"
	"github.com/turtacn/ArchIntel/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "archintel:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg *config.Config
	var err error
	if path := os.Getenv("ARCHINTEL_CONFIG"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The CLI stays quiet on stderr unless the operator asks for more.
	level := cfg.Log.Level
	if os.Getenv("ARCHINTEL_LOG_LEVEL") == "" {
		level = "warn"
	}
	log, err := logging.NewLogger(logging.Config{
		Level:       level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log = log.Named("cli")

	// Without a configured database the CLI runs fully in memory, which is
	// enough for single-shot ingestion dry runs.
	var st store.DocumentStore = memory.NewStore()
	if cfg.Postgres.Host != "" {
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
		st = postgres.NewDocumentStore(conn, log)
	}

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
	pipe := pipeline.New(st, chat, chat, search, cfg.Pipeline, nil, log)

	root := cli.NewRootCmd(cli.Deps{
		Processor: pipe,
		Store:     st,
		Logger:    log,
		Version:   config.Version,
	})
	return root.Execute()
}
