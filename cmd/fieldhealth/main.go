package main

import (
	"fmt"
	"os"

	"fieldhealth-service/internal/acquisition"
	"fieldhealth-service/internal/advisory"
	"fieldhealth-service/internal/auth"
	"fieldhealth-service/internal/client"
	"fieldhealth-service/internal/config"
	"fieldhealth-service/internal/db"
	"fieldhealth-service/internal/health"
	httphandler "fieldhealth-service/internal/http"
	"fieldhealth-service/internal/http/middleware"
	"fieldhealth-service/internal/logger"
	"fieldhealth-service/internal/profile"
	"fieldhealth-service/internal/repository"
	"fieldhealth-service/internal/service"
	"fieldhealth-service/internal/trend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	registry := profile.DefaultRegistry()

	fieldRepo := repository.NewFieldRepository(database)
	metricRepo := repository.NewMetricRepository(database)
	advisoryRepo := repository.NewAdvisoryRepository(database)

	sentinelClient := client.NewSentinelClient(cfg)
	weatherClient := client.NewWeatherClient(cfg)
	acquirer := acquisition.NewOrchestrator(
		sentinelClient,
		sentinelClient,
		weatherClient,
		cfg.Acquisition.WeatherDays,
		appLogger,
	)

	classifier := health.NewClassifier(registry)
	predictor := trend.NewPredictor()
	engine := advisory.NewEngine(registry)

	fieldService := service.NewFieldService(fieldRepo)
	analysisService := service.NewAnalysisService(
		database, fieldRepo, metricRepo, advisoryRepo,
		acquirer, classifier, predictor, engine, appLogger,
	)
	historyService := service.NewHistoryService(fieldRepo, metricRepo, classifier)
	advisoryService := service.NewAdvisoryService(fieldRepo, advisoryRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(fieldService, analysisService, historyService, advisoryService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting field health service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
