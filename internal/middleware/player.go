package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"
)

const (
	PlayerIDHeader = "X-Player-ID"
	PlayerIDQuery  = "playerId"

	LocalsPlayerID = "playerID"
	maxPlayerIDLen = 64
)

// EnsurePlayerID reads the browser's player ID from the X-Player-ID header,
// or the playerId query parameter for websocket clients that cannot set
// headers, and stores it in the request locals.
func EnsurePlayerID(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if PlayerID(c) != "" {
			return c.Next()
		}

		playerID := strings.TrimSpace(c.Get(PlayerIDHeader))
		if playerID == "" {
			playerID = strings.TrimSpace(c.Query(PlayerIDQuery))
		}

		if playerID == "" {
			log.Debug().Str("path", c.Path()).Msg("request without player id")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		}
		if len(playerID) > maxPlayerIDLen {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Player ID is too long",
			})
		}

		// the header bytes belong to fasthttp and are reused by the next request
		c.Locals(LocalsPlayerID, utils.CopyString(playerID))
		return c.Next()
	}
}

// PlayerID returns the ID stored by EnsurePlayerID, or "".
func PlayerID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsPlayerID).(string)
	return id
}
