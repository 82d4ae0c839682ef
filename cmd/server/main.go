package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damon-houk/currency-widget/internal/application/service"
	"github.com/damon-houk/currency-widget/internal/config"
	"github.com/damon-houk/currency-widget/internal/domain/repository"
	"github.com/damon-houk/currency-widget/internal/infrastructure/api"
	"github.com/damon-houk/currency-widget/internal/infrastructure/cache"
	"github.com/damon-houk/currency-widget/internal/infrastructure/chart"
	"github.com/damon-houk/currency-widget/internal/infrastructure/db"
	"github.com/damon-houk/currency-widget/internal/infrastructure/handler"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/metrics"
	"github.com/damon-houk/currency-widget/internal/infrastructure/middleware"
	"github.com/damon-houk/currency-widget/internal/infrastructure/view"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetDefaultLogger().Fatal("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log := logger.NewJSONLogger(os.Stdout, cfg.LogLevel)
	logger.SetDefaultLogger(log)

	log.Info("Starting currency widget", map[string]interface{}{
		"port":          cfg.Port,
		"store_backend": cfg.StoreBackend,
		"rate_api_url":  cfg.RateAPIURL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store", map[string]interface{}{
			"backend": cfg.StoreBackend,
			"error":   err.Error(),
		})
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing store", map[string]interface{}{"error": err.Error()})
		}
	}()

	m := metrics.New()

	// Initialize infrastructure
	localCache := cache.NewLocalCache(store, log, m)
	rateClient := api.NewRateAPIClient(&http.Client{Timeout: cfg.HTTPTimeout}, log,
		api.WithRatesURL(cfg.RateAPIURL),
		api.WithHistoricalURL(cfg.HistoricalAPIURL),
		api.WithMetrics(m),
	)

	// Initialize services
	conversionService := service.NewConversionService(rateClient, log, m)
	preferenceService := service.NewPreferenceService(localCache, log)
	historicalService := service.NewHistoricalService(rateClient, localCache, log)
	currencyService := service.NewCurrencyService(rateClient, localCache, cfg.DisplayCurrencies, cfg.PopularPairs, log)

	widget := view.New(conversionService, preferenceService, currencyService, chart.NewChartJSRenderer(), log, m)
	if _, err := widget.Load(ctx); err != nil {
		log.Fatal("Failed to load view", map[string]interface{}{"error": err.Error()})
	}

	// Initialize handlers
	widgetHandler := handler.NewWidgetHandler(widget, currencyService, historicalService, preferenceService, log)
	pageHandler := handler.NewPageHandler(widget, time.Now(), log)

	// Setup router
	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware(m))
	widgetHandler.RegisterRoutes(router)
	pageHandler.RegisterRoutes(router)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestIDMiddleware(middleware.LoggingMiddleware(log)(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

// openStore opens the configured KeyValueStore backend
func openStore(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := db.NewRedisClient(ctx, db.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return db.NewRedisStore(client, cfg.RedisPrefix), nil
	case config.StoreMemory:
		return cache.NewMemoryStore(), nil
	default:
		badgerDB, err := db.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return db.NewBadgerStore(badgerDB), nil
	}
}
