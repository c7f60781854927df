package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vaxwatch/vaxwatch/internal/cache"
	"github.com/vaxwatch/vaxwatch/internal/dashboard"
	"github.com/vaxwatch/vaxwatch/internal/httpapi"
	"github.com/vaxwatch/vaxwatch/internal/registry"
	"github.com/vaxwatch/vaxwatch/internal/telemetry"
)

func main() {
	dbFlag := flag.String("cache-db", "", "path to SQLite cache database (overrides VAXWATCH_CACHE_DB env var)")
	flag.Parse()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "trials-server")
	if err != nil {
		log.Fatalf("telemetry setup: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	cacheCfg := cache.Config{TTL: envDuration("VAXWATCH_CACHE_TTL", cache.DefaultTTL)}

	// Resolve cache path: --cache-db flag > VAXWATCH_CACHE_DB env > in-memory.
	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("VAXWATCH_CACHE_DB")
	}

	var store cache.Store
	if dbPath != "" {
		ss, err := cache.NewSQLiteStore(dbPath, cacheCfg)
		if err != nil {
			log.Fatalf("failed to initialize sqlite cache (%s): %v", dbPath, err)
		}
		store = ss
		log.Printf("using sqlite cache at %s", dbPath)
	} else {
		store = cache.NewMemory(cacheCfg)
		log.Printf("using in-memory cache")
	}
	defer store.Close()

	client := registry.NewClient(registry.Config{
		BaseURL:      envString("VAXWATCH_REGISTRY_URL", registry.DefaultBaseURL),
		PageSize:     envInt("VAXWATCH_PAGE_SIZE", registry.MaxPageSize),
		PageInterval: envDuration("VAXWATCH_PAGE_INTERVAL", registry.DefaultPageInterval),
	})
	svc := dashboard.NewService(registry.NewCached(client, store))

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewServer(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("trials-server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func envString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
