package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GregMSThompson/dashboard-backend/internal/bootstrap"
	"github.com/GregMSThompson/dashboard-backend/internal/client/httpsource"
	"github.com/GregMSThompson/dashboard-backend/internal/config"
	"github.com/GregMSThompson/dashboard-backend/internal/crypto"
	"github.com/GregMSThompson/dashboard-backend/internal/handlers"
	"github.com/GregMSThompson/dashboard-backend/internal/response"
	"github.com/GregMSThompson/dashboard-backend/internal/router"
	"github.com/GregMSThompson/dashboard-backend/internal/services"
	"github.com/GregMSThompson/dashboard-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
	fetcher := httpsource.New(cfg.HTTPSourceTimeout, cfg.MaxSourceRows)
	cache, err := services.NewSnapshotCache(cfg.SourceCacheSize)
	exitOnError("snapshot cache init failed", err, bs.Log)
	defer cache.Close()

	// stores
	dstore := store.NewDashboardStore(bs.Firestore)
	sstore := store.NewDataSourceStore(bs.Firestore)

	// services
	sserv := services.NewDataSourceService(sstore, dstore, fetcher, kmsHelper, cache, services.DataSourceOptions{
		MaxRows:  cfg.MaxSourceRows,
		CacheTTL: cfg.SourceCacheTTL,
	})
	dserv := services.NewDashboardService(dstore, sserv)

	// response handler
	rh := response.New(bs.Log)

	// dependencies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.DashboardSvc = dserv
	deps.DataSourceSvc = sserv

	// router
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			bs.Log.Error("server shutdown failed", "error", err)
		}
	}()

	bs.Log.Info("server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitOnError("server start failed", err, bs.Log)
	}
}
