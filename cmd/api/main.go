package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/teamsite/roster-api/internal/adapters/httpapi"
	memidempotency "github.com/teamsite/roster-api/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/teamsite/roster-api/internal/adapters/memory/memberrepo"
	mongoadapter "github.com/teamsite/roster-api/internal/adapters/mongo"
	mongomemberrepo "github.com/teamsite/roster-api/internal/adapters/mongo/memberrepo"
	postgres "github.com/teamsite/roster-api/internal/adapters/postgres"
	pgidempotency "github.com/teamsite/roster-api/internal/adapters/postgres/idempotency"
	pgmemberrepo "github.com/teamsite/roster-api/internal/adapters/postgres/memberrepo"
	"github.com/teamsite/roster-api/internal/app/members"
	platformclock "github.com/teamsite/roster-api/internal/platform/clock"
	"github.com/teamsite/roster-api/internal/platform/config"
	"github.com/teamsite/roster-api/internal/platform/logging"
	idempotencyport "github.com/teamsite/roster-api/internal/ports/out/idempotency"
	memberrepoport "github.com/teamsite/roster-api/internal/ports/out/memberrepo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	memberRepo, idemStore, cleanup, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	memberSvc := members.NewService(memberRepo, platformclock.NewSystem())
	api := httpapi.NewServer(memberSvc, idemStore)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Logger:     log,
		Registry:   reg,
		AdminToken: cfg.AdminToken,
	})
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN is not set; write routes are open")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr), zap.String("storage", string(cfg.StorageBackend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg config.ServerConfig, log *zap.Logger) (memberrepoport.Repository, idempotencyport.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.DBAutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
			log.Info("postgres migrations applied")
		}
		return pgmemberrepo.NewRepo(pool), pgidempotency.NewStore(pool), pool.Close, nil

	case config.StorageMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		client, err := mongoadapter.Connect(connectCtx, cfg.MongoURI, mongoadapter.ClientOptions{ConnectTimeout: 10 * time.Second})
		if err != nil {
			return nil, nil, nil, err
		}
		repo := mongomemberrepo.NewRepo(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(connectCtx); err != nil {
			log.Warn("creating mongo indexes failed", zap.Error(err))
		}
		disconnect := func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			_ = client.Disconnect(dctx)
		}
		// Replayable create responses are kept in memory for the mongo backend.
		return repo, memidempotency.NewStore(), disconnect, nil

	default:
		return memmemberrepo.NewRepo(), memidempotency.NewStore(), func() {}, nil
	}
}
