package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"moviecatalog/configs"
	"moviecatalog/internal/controller/auth"
	"moviecatalog/internal/controller/catalog"
	"moviecatalog/internal/controller/watchlist"
	"moviecatalog/internal/dataset"
	handler "moviecatalog/internal/handler/http"
	"moviecatalog/internal/repository"
	"moviecatalog/internal/repository/database"
	"moviecatalog/internal/repository/memory"
	"moviecatalog/pkg/limiter"
	"moviecatalog/pkg/logging"
	"moviecatalog/pkg/metrics"
	"moviecatalog/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const serviceName = "moviecatalog"

func main() {
	logConfig := zap.NewProductionConfig()
	log, err := logConfig.Build()
	if err != nil {
		panic(err)
	}
	log = log.With(zap.String(logging.FieldService, serviceName))

	f, err := os.Open("defaults.yaml")
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("failed to close file", zap.Error(err))
		}
	}()
	var cfg configs.ServiceConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic(err)
	}
	secret := cfg.Auth.Secret
	if s := os.Getenv("CATALOG_AUTH_SECRET"); s != "" {
		secret = s
	}

	log.Info("Starting the service", zap.Int(logging.FieldPort, cfg.API.Port))

	ctx, cancel := context.WithCancel(context.Background())

	tp, err := tracing.NewOTLPProvider(ctx, cfg.Tracing.OTLPEndpoint, serviceName)
	if err != nil {
		log.Fatal("Failed to initialize tracing provider", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("Failed to shutdown tracing provider", zap.Error(err))
		}
	}()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var repo repository.Repository
	switch cfg.Repository.Backend {
	case "memory":
		memoryRepo := memory.New(log)
		if err := dataset.PopulateMemory(ctx, cfg.Dataset.Path, memoryRepo, log); err != nil {
			log.Fatal("Failed to populate the in-memory repository", zap.Error(err))
		}
		repo = memoryRepo
	case "database":
		databaseRepo, err := database.Open(cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to open the database repository", zap.Error(err))
		}
		defer func() {
			if err := databaseRepo.DB().Close(); err != nil {
				log.Warn("Failed to close the database", zap.Error(err))
			}
		}()
		repo = databaseRepo
	default:
		log.Fatal("Unknown repository backend", zap.String("backend", cfg.Repository.Backend))
	}

	scope, closer := metrics.NewMetricsReporter(log, serviceName, cfg.Metrics.Port)
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn("Failed to close Prometheus reporter scope", zap.Error(err))
		}
	}()

	catalogCtrl := catalog.New(repo)
	authCtrl := auth.New(repo, func() []byte { return []byte(secret) }, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	watchlistCtrl := watchlist.New(repo)
	h := handler.New(catalogCtrl, authCtrl, watchlistCtrl, scope, log)

	mux := nethttp.NewServeMux()
	h.Register(mux)
	l := limiter.New(log, cfg.Limiter.Limit, cfg.Limiter.Burst)
	srv := &nethttp.Server{
		Addr:    fmt.Sprintf(":%d", cfg.API.Port),
		Handler: l.Middleware(mux),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := <-sigChan
		cancel()
		log.Info("Got signal, attempting graceful shutdown", zap.Stringer(logging.FieldSignal, s))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown the HTTP server", zap.Error(err))
		}
		log.Info("Gracefully stopped the HTTP server")
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		panic(err)
	}
	wg.Wait()
}
