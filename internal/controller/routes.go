package controller

import (
	"github.com/benbeisheim/checkers-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

// RegisterRoutes mounts the REST API under /api and the sockets under /ws.
// Every route requires a player ID.
func RegisterRoutes(app *fiber.App, gc *GameController, wsc *WebSocketController, origins []string, log zerolog.Logger) {
	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}

	// Set up WebSocket routes
	sockets := app.Group("/ws", middleware.EnsurePlayerID(log), middleware.WebSocketUpgrade())
	sockets.Get("/game/:gameId", websocket.New(wsc.HandleConnection, wsConfig))
	sockets.Get("/matchmaking", websocket.New(wsc.HandleMatchmaking, wsConfig))

	// Set up REST routes
	api := app.Group("/api", middleware.EnsurePlayerID(log))

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gc.JoinMatchmaking)
	gameRoutes.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	gameRoutes.Get("/matchmaking/status", gc.MatchmakingStatus)
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Post("/join/:gameId", gc.JoinGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Post("/:gameId/click", gc.Click)
	gameRoutes.Get("/:gameId/board.png", gc.BoardImage)
	gameRoutes.Get("/:gameId/history", gc.History)
}
