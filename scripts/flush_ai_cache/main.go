package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/noah-isme/hr-onboarding-api/internal/repository"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	"github.com/noah-isme/hr-onboarding-api/pkg/cache"
	"github.com/noah-isme/hr-onboarding-api/pkg/config"
	"github.com/noah-isme/hr-onboarding-api/pkg/logger"
)

// flush_ai_cache drops shared model responses from Redis, e.g. after a prompt change.
// Example: go run ./scripts/flush_ai_cache -pattern 'llm:response:*'
func main() {
	var pattern string
	flag.StringVar(&pattern, "pattern", "llm:response:*", "Redis key pattern to delete")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	if client == nil {
		log.Fatal("redis is disabled, nothing to flush")
	}

	repo := repository.NewCacheRepository(client, logr)
	defer repo.Close() //nolint:errcheck

	if err := service.NewCacheService(repo, nil, 0, logr, true).Invalidate(ctx, pattern); err != nil {
		log.Fatalf("flush failed: %v", err)
	}
	log.Printf("flushed keys matching %s", pattern)
}
