package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/config"
	"github.com/benbeisheim/checkers-backend/internal/controller"
	"github.com/benbeisheim/checkers-backend/internal/logging"
	"github.com/benbeisheim/checkers-backend/internal/metrics"
	"github.com/benbeisheim/checkers-backend/internal/render"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/benbeisheim/checkers-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
)

func main() {
	configDir := flag.String("config", ".", "directory containing checkers.json")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)

	store, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create storage")
	}
	if err := store.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to init storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	recorder, err := metrics.NewRecorder()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create metrics")
	}
	renderer := render.New(cfg.Render.CellSize, cfg.Render.Theme)

	// Initialize services
	gameManager := service.NewGameManager(log)
	gameService := service.NewGameService(gameManager, store, recorder, renderer, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go gameManager.Run(ctx, cfg.Matchmaking.Interval)

	// Initialize controllers
	gameController := controller.NewGameController(gameService)
	wsController := controller.NewWebSocketController(gameService, log)

	// handlers keep request values (player IDs, game IDs) beyond the request
	app := fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	app.Use(logging.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	controller.RegisterRoutes(app, gameController, wsController, splitOrigins(cfg.Server.AllowOrigins), log)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("storage", cfg.Storage.Type).
		Msg("server starting")
	if err := app.Listen(cfg.Server.Addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
