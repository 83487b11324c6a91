package controller

import (
	"bytes"
	"errors"

	"github.com/benbeisheim/checkers-backend/internal/middleware"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrNotSeated):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrGameFull),
		errors.Is(err, model.ErrGameExists),
		errors.Is(err, model.ErrAlreadyQueued),
		errors.Is(err, model.ErrNotYourTurn),
		errors.Is(err, model.ErrWaitingOpponent):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrOffBoard),
		errors.Is(err, model.ErrInvalidClick),
		errors.Is(err, model.ErrInvalidMode):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// CreateGame starts a game and seats the caller. ?mode=local makes a
// hot-seat game where the caller plays both sides.
func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)
	mode := model.Mode(utils.CopyString(c.Query("mode")))

	gameID, color, err := gc.gameService.CreateGame(c.UserContext(), mode, playerID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
		"color":   color,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := middleware.PlayerID(c)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(gameState)
}

// Click applies a click given as {"rank","file"} or as a pixel {"x","y"}
// on the rendered board image.
func (gc *GameController) Click(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := middleware.PlayerID(c)

	var click model.WSClick
	if err := c.BodyParser(&click); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid click body",
		})
	}

	result, err := gc.gameService.HandleClick(c.UserContext(), gameID, playerID, click)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

// BoardImage renders the board as a PNG. ?flip=true draws it from
// player2's side.
func (gc *GameController) BoardImage(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	var buf bytes.Buffer
	if err := gc.gameService.RenderBoard(gameID, c.QueryBool("flip"), &buf); err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

func (gc *GameController) History(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	history, err := gc.gameService.History(gameID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"game_id": gameID,
		"moves":   history,
	})
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)

	if err := gc.gameService.JoinMatchmaking(playerID); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)

	if !gc.gameService.LeaveMatchmaking(playerID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Player is not queued",
		})
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}

// MatchmakingStatus lets a player queued over REST find the game they were
// matched into. A match is reported once.
func (gc *GameController) MatchmakingStatus(c *fiber.Ctx) error {
	return c.JSON(gc.gameService.MatchmakingStatus(middleware.PlayerID(c)))
}
