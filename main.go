package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundledger/backend/src/config"
	"github.com/fundledger/backend/src/database"
	"github.com/fundledger/backend/src/handlers"
	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/metrics"
	"github.com/fundledger/backend/src/processors"
	"github.com/fundledger/backend/src/services"
	"github.com/patrickmn/go-cache"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Fund ledger backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.MustRunMigrations()
	defer database.DB.Close()

	reportCache := cache.New(config.Cfg.DashboardCacheTTL, services.CacheCleanupInterval)
	recorder := metrics.NewRecorder()

	serviceOpts := []services.Option{
		services.WithMetrics(recorder),
		services.WithFetchConcurrency(config.Cfg.DashboardFetchConcurrency),
	}
	investmentService := services.NewInvestmentService(database.DB, reportCache, serviceOpts...)
	exitService := services.NewExitService(database.DB, reportCache, serviceOpts...)
	dashboardService := services.NewDashboardService(database.DB, processors.NewPortfolioMetricsProcessor(), reportCache, serviceOpts...)

	investmentHandler := handlers.NewInvestmentHandler(investmentService, exitService)
	exitHandler := handlers.NewExitHandler(exitService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, investmentService, exitService, config.Cfg.DisplayCurrency)

	router := handlers.NewRouter(config.Cfg, recorder, investmentHandler, exitHandler, dashboardHandler)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.L.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
}
