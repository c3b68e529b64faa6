package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keithyco/shopping-cart-api/internal/cart"
	"github.com/keithyco/shopping-cart-api/internal/catalog"
	"github.com/keithyco/shopping-cart-api/internal/config"
	httphandler "github.com/keithyco/shopping-cart-api/internal/delivery/http"
	kafkadelivery "github.com/keithyco/shopping-cart-api/internal/delivery/kafka"
	"github.com/keithyco/shopping-cart-api/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, cleanup, err := initStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}
	defer cleanup()

	var onChange cart.ChangeFunc
	var kafkaClient *kgo.Client

	if cfg.EventsEnabled == "true" {
		kafkaClient, err = kgo.NewClient(
			kgo.SeedBrokers(strings.Split(cfg.KafkaBrokers, ",")...),
			kgo.ClientID(cfg.KafkaClientID),
		)
		if err != nil {
			log.Fatalf("Failed to create kafka client: %v", err)
		}

		if err := kafkadelivery.EnsureTopics(ctx, kafkaClient, cfg); err != nil {
			log.Printf("Warning: failed to ensure topics: %v", err)
		}

		publisher := kafkadelivery.NewPublisher(kafkaClient)
		onChange = func(sessionID string, c *cart.Cart) {
			publisher.CartChanged(sessionID, c.Snapshot(), c.Totals())
		}
	}

	manager := cart.NewManager(snapshots, onChange)
	products := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTTL())
	handler := httphandler.NewHandler(manager, products)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	handler.Routes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	if kafkaClient != nil {
		kafkaClient.Close()
	}

	wg.Wait()
	log.Println("Shutdown complete")
}

// initStore picks the snapshot backend from config and returns it together
// with its teardown.
func initStore(ctx context.Context, cfg *config.Config) (store.SnapshotStore, func(), error) {
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := initDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := store.RunMigrations(ctx, pool, "db/migrations"); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Println("Using postgres snapshot store")
		return store.NewPostgres(pool), pool.Close, nil

	case "memory":
		log.Println("Using in-memory snapshot store")
		return store.NewMemory(), func() {}, nil

	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("unable to ping redis: %w", err)
		}
		log.Println("Using redis snapshot store")
		return store.NewRedis(client), func() { client.Close() }, nil
	}
}

func initDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}
