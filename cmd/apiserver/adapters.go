package main

import (
	"context"

	"github.com/turtacn/ArchIntel/internal/infrastructure/database/redis"
	"github.com/turtacn/ArchIntel/internal/store"
)

// storeChecker reports document-store health for the readiness probe.
type storeChecker struct {
	st store.DocumentStore
}

func (c storeChecker) Name() string                    { return "postgres" }
func (c storeChecker) Check(ctx context.Context) error { return c.st.Ping(ctx) }

type cacheChecker struct {
	cache redis.Cache
}

func (c cacheChecker) Name() string                    { return "redis" }
func (c cacheChecker) Check(ctx context.Context) error { return c.cache.Ping(ctx) }
