package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/video-social-service/internal/api"
	"github.com/UkralStul/video-social-service/internal/auth"
	"github.com/UkralStul/video-social-service/internal/config"
	"github.com/UkralStul/video-social-service/internal/lock"
	"github.com/UkralStul/video-social-service/internal/logging"
	"github.com/UkralStul/video-social-service/internal/realtime"
	"github.com/UkralStul/video-social-service/internal/service"
	"github.com/UkralStul/video-social-service/internal/storage"
	"github.com/UkralStul/video-social-service/internal/storage/inmemory"
	"github.com/UkralStul/video-social-service/internal/storage/postgres"
	"github.com/UkralStul/video-social-service/internal/supervisor"
	"github.com/nats-io/nats.go"
	goredislib "github.com/redis/go-redis/v9"
)

func main() {
	storageType := flag.String("storage", "", "Storage type (in-memory or postgres), overrides storage.driver")
	flag.Parse()

	cfg, err := loadConfig(*storageType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("server stopped with error")
	}
	logging.Info().Msg("server stopped")
}

func loadConfig(storageOverride string) (*config.Config, error) {
	if storageOverride != "" {
		// Флаг сильнее файла и окружения
		if err := os.Setenv("APP_STORAGE_DRIVER", storageOverride); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	locks, closeLocks := openLocker(cfg.Redis)
	defer closeLocks()

	jwt, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	sup := supervisor.New("video-social", supervisor.Config{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})

	hub := realtime.NewHub()
	sup.Add(hub)

	relay, closeRelay, err := openRelay(cfg.NATS, hub)
	if err != nil {
		return err
	}
	defer closeRelay()
	if relay != nil {
		hub.SetRelay(relay)
		sup.Add(relay)
	}

	svc := service.New(store, locks, hub, service.Options{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		RetryInterval: cfg.Retry.Interval,
		WatchCooldown: cfg.Retry.WatchCooldown,
	})

	if cfg.Storage.Driver == config.StorageInMemory && cfg.Storage.SeedMockData {
		// Заполним данными для тестов
		if err := fillWithMockData(ctx, svc, jwt); err != nil {
			return fmt.Errorf("fill mock data: %w", err)
		}
	}

	router := api.NewRouter(api.Deps{
		Service:     svc,
		Store:       store,
		Hub:         hub,
		Verifier:    jwt,
		Issuer:      jwt,
		Relay:       relay,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	sup.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	logging.Info().
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Bool("redis_locks", cfg.Redis.Enabled).
		Bool("nats_relay", relay != nil).
		Msg("starting server")

	return sup.Serve(ctx)
}

func openStore(cfg config.StorageConfig) (storage.Storage, func(), error) {
	if cfg.Driver != config.StoragePostgres {
		return inmemory.New(), func() {}, nil
	}

	store, err := postgres.New(cfg.DSN, cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close postgres")
		}
	}, nil
}

func openLocker(cfg config.RedisConfig) (lock.Locker, func()) {
	if !cfg.Enabled {
		return lock.NewLocal(), func() {}
	}

	client := goredislib.NewClient(&goredislib.Options{Addr: cfg.Addr})
	return lock.NewRedis(client, cfg.Prefix, cfg.LockTTL), func() {
		if err := client.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

// openRelay подключает межэкземплярную доставку. Без nats.enabled возвращает nil.
func openRelay(cfg config.NATSConfig, hub *realtime.Hub) (*realtime.Relay, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}

	url := cfg.URL
	shutdown := func() {}
	if cfg.EmbeddedServer {
		ns, err := realtime.StartEmbeddedNATS("127.0.0.1", -1)
		if err != nil {
			return nil, nil, err
		}
		url = ns.ClientURL()
		shutdown = ns.Shutdown
		logging.Info().Str("url", url).Msg("embedded NATS server started")
	}

	nc, err := nats.Connect(url,
		nats.Name("video-social-relay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	relay := realtime.NewRelay(nc, hub, realtime.RelayConfig{
		Prefix:      cfg.Prefix,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	})
	return relay, func() {
		nc.Close()
		shutdown()
	}, nil
}
