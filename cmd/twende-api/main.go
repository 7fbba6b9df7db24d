// Entry point: loads config, wires stores and services, serves the API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twende/internal/config"
	apihttp "twende/internal/http"
	"twende/internal/infra"
	"twende/internal/logger"
	"twende/internal/maps"
	"twende/internal/modules/directory"
	"twende/internal/modules/matching"
	"twende/internal/modules/notify"
	"twende/internal/modules/pricing"
	"twende/internal/modules/ride"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("TWENDE_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.WithError(err).Fatal("firebase init")
	}

	oracle, err := maps.NewGoogleOracle(cfg.Maps.APIKey, cfg.Maps.Timeout)
	if err != nil {
		log.WithError(err).Fatal("maps init")
	}

	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.WithError(err).Fatal("postgres connect")
	}
	defer pool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	directorySvc := directory.NewService(
		directory.NewPGStore(pool),
		directory.NewRedisLocationStore(redisClient),
	)
	pricingSvc := pricing.NewService(pricing.NewPGStore(pool))
	matchingSvc := matching.NewService(directorySvc)
	notifySvc := notify.NewService(notify.NewPGStore(pool), log)
	rideSvc := ride.NewService(
		ride.NewPGStore(pool),
		oracle,
		pricingSvc,
		directorySvc,
		matchingSvc,
		notifySvc,
	)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Rides:     rideSvc,
		Directory: directorySvc,
		Pricing:   pricingSvc,
		Notify:    notifySvc,
		Verifier:  verifier,
		Log:       log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("twende api listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server exited")
	}
}
