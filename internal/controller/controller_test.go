package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/metrics"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/render"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/benbeisheim/checkers-backend/internal/storage"
	"github.com/benbeisheim/checkers-backend/internal/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app *fiber.App
	gm  *service.GameManager
	svc *service.GameService
	wsc *WebSocketController
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	rec, err := metrics.NewRecorder()
	require.NoError(t, err)
	gm := service.NewGameManager(zerolog.Nop())
	svc := service.NewGameService(gm, storage.NewMemory(), rec, render.New(10, render.DefaultTheme), zerolog.Nop())
	gc := NewGameController(svc)
	wsc := NewWebSocketController(svc, zerolog.Nop())

	app := fiber.New()
	RegisterRoutes(app, gc, wsc, nil, zerolog.Nop())
	return &testServer{app: app, gm: gm, svc: svc, wsc: wsc}
}

func (s *testServer) do(t *testing.T, method, target, playerID, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (s *testServer) createGame(t *testing.T, playerID, query string) string {
	t.Helper()
	resp, data := s.do(t, "POST", "/api/game/create"+query, playerID, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	var out struct {
		GameID string          `json:"game_id"`
		Color  checkers.Player `json:"color"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotEmpty(t, out.GameID)
	require.Equal(t, checkers.Player1, out.Color)
	return out.GameID
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrGameNotFound, fiber.StatusNotFound},
		{fmt.Errorf("game x: %w", model.ErrGameNotFound), fiber.StatusNotFound},
		{model.ErrNotSeated, fiber.StatusForbidden},
		{model.ErrGameFull, fiber.StatusConflict},
		{model.ErrNotYourTurn, fiber.StatusConflict},
		{model.ErrWaitingOpponent, fiber.StatusConflict},
		{model.ErrAlreadyQueued, fiber.StatusConflict},
		{model.ErrOffBoard, fiber.StatusBadRequest},
		{model.ErrInvalidClick, fiber.StatusBadRequest},
		{model.ErrInvalidMode, fiber.StatusBadRequest},
		{errors.New("disk on fire"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRequiresPlayerID(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, "POST", "/api/game/create", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateJoinAndPlay(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "alice", "")

	resp, data := s.do(t, "POST", "/api/game/join/"+gameID, "bob", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	assert.JSONEq(t, `{"message":"Game joined","color":"player2"}`, string(data))

	resp, _ = s.do(t, "POST", "/api/game/join/"+gameID, "carol", "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/game/"+gameID+"/click", "bob", `{"rank":5,"file":1}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/game/"+gameID+"/click", "carol", `{"rank":2,"file":0}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, data = s.do(t, "POST", "/api/game/"+gameID+"/click", "alice", `{"rank":2,"file":0}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	assert.JSONEq(t, `{"outcome":"selected"}`, string(data))

	resp, data = s.do(t, "GET", "/api/game/"+gameID, "carol", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var state struct {
		ToMove     checkers.Player     `json:"toMove"`
		Selected   *checkers.Position  `json:"selectedSquare"`
		LegalMoves []checkers.Position `json:"legalMoves"`
	}
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, checkers.Player1, state.ToMove)
	require.NotNil(t, state.Selected)
	assert.Equal(t, checkers.Position{Rank: 2, File: 0}, *state.Selected)
	assert.Equal(t, []checkers.Position{{Rank: 3, File: 1}}, state.LegalMoves)

	// pixel click on b4 with a 10px board
	resp, data = s.do(t, "POST", "/api/game/"+gameID+"/click", "alice", `{"x":15,"y":45}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	var result struct {
		Outcome string `json:"outcome"`
		Entry   struct {
			Number int          `json:"number"`
			Ply    checkers.Ply `json:"ply"`
		} `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "moved", result.Outcome)
	assert.Equal(t, 1, result.Entry.Number)
	assert.Equal(t, checkers.Position{Rank: 3, File: 1}, result.Entry.Ply.To)

	resp, data = s.do(t, "GET", "/api/game/"+gameID+"/history", "carol", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history struct {
		GameID string               `json:"game_id"`
		Moves  []model.HistoryEntry `json:"moves"`
	}
	require.NoError(t, json.Unmarshal(data, &history))
	assert.Equal(t, gameID, history.GameID)
	require.Len(t, history.Moves, 1)
	assert.Equal(t, checkers.Player1, history.Moves[0].Ply.Player)
}

func TestSeatsSurviveLaterRequests(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "alice", "")
	resp, _ := s.do(t, "POST", "/api/game/join/"+gameID, "bobby", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// same-length IDs reuse the same header bytes in the request buffer
	for i := 0; i < 3; i++ {
		resp, _ = s.do(t, "GET", "/api/game/"+gameID, "zzzzz", "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, data := s.do(t, "GET", "/api/game/"+gameID, "carol", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var state struct {
		Players struct {
			Player1 struct {
				Name string `json:"name"`
			} `json:"player1"`
			Player2 struct {
				Name string `json:"name"`
			} `json:"player2"`
		} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, "alice", state.Players.Player1.Name)
	assert.Equal(t, "bobby", state.Players.Player2.Name)

	resp, _ = s.do(t, "POST", "/api/game/"+gameID+"/click", "zzzzz", `{"rank":2,"file":0}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, data = s.do(t, "POST", "/api/game/"+gameID+"/click", "alice", `{"rank":2,"file":0}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	assert.JSONEq(t, `{"outcome":"selected"}`, string(data))
}

func TestCreateGame_ModeSurvivesLaterRequests(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "alice", "?mode=local")
	s.do(t, "GET", "/api/game/"+gameID+"?mode=zzzzz", "alice", "")

	resp, data := s.do(t, "GET", "/api/game/"+gameID, "alice", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var state struct {
		Mode model.Mode `json:"mode"`
	}
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, model.ModeLocal, state.Mode)
}

func TestClick_BadInput(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "alice", "?mode=local")

	resp, _ := s.do(t, "POST", "/api/game/"+gameID+"/click", "alice", `{"x":500,"y":5}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/game/"+gameID+"/click", "alice", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/game/"+gameID+"/click", "alice", `{"rank":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// off-board squares are ignored, not rejected
	resp, data := s.do(t, "POST", "/api/game/"+gameID+"/click", "alice", `{"rank":9,"file":0}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"outcome":"ignored"}`, string(data))
}

func TestCreateGame_InvalidMode(t *testing.T) {
	s := newTestServer(t)
	resp, data := s.do(t, "POST", "/api/game/create?mode=blitz", "alice", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "unknown game mode")
}

func TestGameNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/api/game/nope", "/api/game/nope/board.png", "/api/game/nope/history"} {
		resp, _ := s.do(t, "GET", target, "alice", "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, target)
	}
	resp, _ := s.do(t, "POST", "/api/game/join/nope", "alice", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBoardImage(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "alice", "")

	resp, data := s.do(t, "GET", "/api/game/"+gameID+"/board.png?flip=true", "alice", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))
}

func TestMatchmakingRoutes(t *testing.T) {
	s := newTestServer(t)

	resp, data := s.do(t, "POST", "/api/game/matchmaking/join", "alice", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"queued"}`, string(data))

	resp, _ = s.do(t, "POST", "/api/game/matchmaking/join", "alice", "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/game/matchmaking/leave", "alice", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/game/matchmaking/leave", "alice", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMatchmakingStatusRoute(t *testing.T) {
	s := newTestServer(t)

	resp, data := s.do(t, "GET", "/api/game/matchmaking/status", "alice", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"idle"}`, string(data))

	s.do(t, "POST", "/api/game/matchmaking/join", "alice", "")
	resp, data = s.do(t, "GET", "/api/game/matchmaking/status", "alice", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"queued"}`, string(data))

	s.do(t, "POST", "/api/game/matchmaking/join", "bobby", "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.gm.Run(ctx, time.Millisecond)

	var status model.MatchStatus
	for deadline := time.Now().Add(2 * time.Second); status.Status != model.MatchStatusMatched; {
		require.True(t, time.Now().Before(deadline), "no match within timeout")
		_, data = s.do(t, "GET", "/api/game/matchmaking/status", "bobby", "")
		require.NoError(t, json.Unmarshal(data, &status))
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, checkers.Player2, status.Color)

	// the reported game is real and bobby holds a seat in it
	resp, data = s.do(t, "GET", "/api/game/"+status.GameID, "bobby", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"name":"bobby"`)
}

func TestWebSocketRoutesRequireUpgrade(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, "GET", "/ws/matchmaking", "alice", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

type recordingConn struct {
	mu       sync.Mutex
	messages []ws.Message
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v.(ws.Message))
	return nil
}

func (c *recordingConn) WriteMessage(int, []byte) error { return nil }
func (c *recordingConn) Close() error                   { return nil }

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func TestHandleMessage(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	gameID, _, err := s.svc.CreateGame(ctx, model.ModeLocal, "alice")
	require.NoError(t, err)

	observer := &recordingConn{}
	require.NoError(t, s.svc.RegisterConnection(gameID, "alice", &safeConn{conn: observer}))
	initial := observer.count()

	click, err := ws.NewMessage(ws.MessageTypeClick, map[string]int{"rank": 2, "file": 0})
	require.NoError(t, err)
	require.NoError(t, s.wsc.handleMessage(ctx, gameID, "alice", click))
	assert.Equal(t, initial+1, observer.count())

	err = s.wsc.handleMessage(ctx, gameID, "alice", ws.Message{Type: ws.MessageTypeClick, Payload: json.RawMessage(`"a3"`)})
	assert.ErrorIs(t, err, model.ErrInvalidClick)

	err = s.wsc.handleMessage(ctx, gameID, "alice", ws.Message{Type: "resign"})
	assert.ErrorIs(t, err, errUnknownMessage)

	other, err := ws.NewMessage(ws.MessageTypeClick, map[string]int{"rank": 2, "file": 0})
	require.NoError(t, err)
	err = s.wsc.handleMessage(ctx, gameID, "mallory", other)
	assert.ErrorIs(t, err, model.ErrNotSeated)
}
