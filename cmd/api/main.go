package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/compose"
	"studio/internal/http/handlers"
	"studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/geoip"
	"studio/internal/middleware"
	"studio/internal/providers/caption"
	"studio/internal/providers/genai"
	"studio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	compositor, err := compose.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure compositor")
	}

	geminiClient, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure gemini client")
	}
	var suggester caption.Suggester = caption.NewStaticSuggester()
	if cfg.GeminiAPIKey != "" {
		suggester = caption.NewGeminiSuggester(geminiClient)
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := &handlers.App{
		Logger:     logger,
		Config:     cfg,
		SQL:        runner,
		Store:      store,
		Compositor: compositor,
		Captions:   suggester,
		Sessions:   handlers.NewSessionManager(),
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          middleware.Logger(logger),
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		AllowedOrigins:  nil,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
