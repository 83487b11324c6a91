package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/checkers-backend/internal/middleware"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/benbeisheim/checkers-backend/internal/ws"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

var errUnknownMessage = errors.New("unknown message type")

type WebSocketController struct {
	gameService *service.GameService
	log         zerolog.Logger
}

func NewWebSocketController(gameService *service.GameService, log zerolog.Logger) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
		log:         log,
	}
}

// safeConn serializes writes: the read loop answers errors while game
// broadcasts arrive from other goroutines.
type safeConn struct {
	mu   sync.Mutex
	conn model.Conn
}

func (s *safeConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeConn) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *safeConn) Close() error {
	return s.conn.Close()
}

func playerIDOf(c *websocket.Conn) string {
	id, _ := c.Locals(middleware.LocalsPlayerID).(string)
	return id
}

// HandleConnection serves /ws/game/:gameId. The socket receives the game
// state after every change and may send click messages.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	// the socket outlives the upgrade request and its buffers
	gameID := utils.CopyString(c.Params("gameId"))
	playerID := playerIDOf(c)
	log := wsc.log.With().Str("game", gameID).Str("player", playerID).Logger()
	conn := &safeConn{conn: c}

	if err := wsc.gameService.RegisterConnection(gameID, playerID, conn); err != nil {
		log.Warn().Err(err).Msg("failed to register connection")
		_ = conn.WriteJSON(ws.ErrorMessage(err.Error()))
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, conn)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("connection closed")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug().Err(err).Msg("parse error")
			_ = conn.WriteJSON(ws.ErrorMessage("malformed message"))
			continue
		}

		if err := wsc.handleMessage(context.Background(), gameID, playerID, msg); err != nil {
			log.Debug().Err(err).Str("type", string(msg.Type)).Msg("message rejected")
			_ = conn.WriteJSON(ws.ErrorMessage(err.Error()))
		}
	}
}

func (wsc *WebSocketController) handleMessage(ctx context.Context, gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeClick:
		var click model.WSClick
		if err := json.Unmarshal(msg.Payload, &click); err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidClick, err)
		}
		// the new state reaches every socket through the game broadcast
		_, err := wsc.gameService.HandleClick(ctx, gameID, playerID, click)
		return err
	default:
		return fmt.Errorf("%w: %s", errUnknownMessage, msg.Type)
	}
}

// HandleMatchmaking serves /ws/matchmaking. The player is queued and the
// socket gets one matchFound message, after which it is closed.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := playerIDOf(c)
	log := wsc.log.With().Str("player", playerID).Logger()

	ch := make(chan model.MatchFoundEvent, 1)
	delivered := wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	// a match made while the player had no socket is already in ch
	if !delivered {
		if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
			log.Error().Err(err).Msg("failed to join matchmaking")
			_ = c.WriteJSON(ws.ErrorMessage(err.Error()))
			return
		}
	}

	// the only thing read from this socket is its closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			// replaced by a newer matchmaking socket
			return
		}
		msg, err := ws.NewMessage(ws.MessageTypeMatchFound, event)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode match")
			return
		}
		if err := c.WriteJSON(msg); err != nil {
			log.Warn().Err(err).Str("game", event.GameID).Msg("failed to send match")
		}
	case <-closed:
		log.Debug().Msg("matchmaking socket closed while queued")
	}
}
