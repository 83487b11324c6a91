package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/metrics"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/benbeisheim/checkers-backend/internal/render"
	"github.com/benbeisheim/checkers-backend/internal/storage"
	"github.com/rs/zerolog"
)

// GameService is what the controllers talk to. It drives the live games
// through the GameManager and records them in storage.
type GameService struct {
	gameManager *GameManager
	store       storage.Backend
	metrics     *metrics.Recorder
	renderer    *render.Renderer
	log         zerolog.Logger
}

// NewGameService also makes the service the manager's match hook, so it
// must be called before the manager's Run loop starts.
func NewGameService(gameManager *GameManager, store storage.Backend, rec *metrics.Recorder, renderer *render.Renderer, log zerolog.Logger) *GameService {
	gs := &GameService{
		gameManager: gameManager,
		store:       store,
		metrics:     rec,
		renderer:    renderer,
		log:         log,
	}
	gameManager.onMatch = gs.GameRecorded
	return gs
}

// CreateGame starts a new game and seats creatorID on it when given. In
// local mode the creator holds both sides.
func (gs *GameService) CreateGame(ctx context.Context, mode model.Mode, creatorID string) (string, checkers.Player, error) {
	switch mode {
	case "":
		mode = model.ModeOnline
	case model.ModeOnline, model.ModeLocal:
	default:
		return "", checkers.NoPlayer, fmt.Errorf("%q: %w", mode, model.ErrInvalidMode)
	}

	gameID := gs.gameManager.newID()
	game, err := gs.gameManager.CreateGame(gameID, mode)
	if err != nil {
		return "", checkers.NoPlayer, fmt.Errorf("failed to create game: %w", err)
	}

	side := checkers.NoPlayer
	if creatorID != "" {
		if side, err = game.AddPlayer(creatorID); err != nil {
			return "", checkers.NoPlayer, err
		}
	}
	gs.saveGame(game)
	gs.metrics.GameCreated(ctx, string(mode))
	gs.log.Info().Str("game", gameID).Str("mode", string(mode)).Int("games", gs.gameManager.GameCount()).Msg("game created")
	return gameID, side, nil
}

// GameRecorded saves a game created elsewhere, e.g. by matchmaking.
func (gs *GameService) GameRecorded(game *model.Game) {
	gs.saveGame(game)
	gs.metrics.GameCreated(context.Background(), string(game.Mode))
}

func (gs *GameService) JoinGame(gameID string, playerID string) (checkers.Player, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return checkers.NoPlayer, err
	}
	side, err := game.AddPlayer(playerID)
	if err != nil {
		return checkers.NoPlayer, err
	}
	gs.saveGame(game)
	game.Broadcast()
	return side, nil
}

func (gs *GameService) saveGame(game *model.Game) {
	rec := &storage.GameRecord{
		ID:        game.ID,
		Mode:      string(game.Mode),
		CreatedAt: game.CreatedAt,
	}
	for _, p := range game.Players() {
		switch p.Side {
		case checkers.Player1:
			rec.Player1 = p.ID
		case checkers.Player2:
			rec.Player2 = p.ID
		}
	}
	if err := gs.store.SaveGame(rec); err != nil {
		gs.log.Error().Err(err).Str("game", game.ID).Msg("failed to save game")
	}
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) MatchmakingStatus(playerID string) model.MatchStatus {
	return gs.gameManager.MatchmakingStatus(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

// ResolveClick turns a click into a board square. Pixel clicks are mapped
// through the renderer's geometry.
func (gs *GameService) ResolveClick(click model.WSClick) (checkers.Position, error) {
	if pos, ok := click.Square(); ok {
		return pos, nil
	}
	if !click.IsPixel() {
		return checkers.Position{}, model.ErrInvalidClick
	}
	pos, ok := gs.renderer.PositionAt(*click.X, *click.Y, click.Flip)
	if !ok {
		return checkers.Position{}, fmt.Errorf("pixel (%.0f,%.0f): %w", *click.X, *click.Y, model.ErrOffBoard)
	}
	return pos, nil
}

// HandleClick applies a click from playerID. Completed moves are stored and
// counted; a storage failure is logged and does not undo the move.
func (gs *GameService) HandleClick(ctx context.Context, gameID string, playerID string, click model.WSClick) (model.ClickResult, error) {
	pos, err := gs.ResolveClick(click)
	if err != nil {
		return model.ClickResult{}, err
	}

	_, result, err := gs.gameManager.Click(gameID, playerID, pos)
	if err != nil {
		return model.ClickResult{}, err
	}

	switch result.Outcome {
	case checkers.Ignored:
		gs.metrics.Ignored(ctx)
	case checkers.Moved:
		e := result.Entry
		gs.metrics.Ply(ctx, e.Ply)
		if err := gs.store.RecordPly(storage.NewPlyRecord(gameID, e.Number, e.Ply, e.At, e.Took)); err != nil {
			gs.log.Error().Err(err).Str("game", gameID).Int("ply", e.Number).Msg("failed to record ply")
		}
	}
	return result, nil
}

// RenderBoard writes the game's board as a PNG.
func (gs *GameService) RenderBoard(gameID string, flip bool, w io.Writer) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return gs.renderer.EncodePNG(w, game.State(), flip)
}

// History returns the moves of a game. Live games answer from memory;
// games no longer held by this process are read back from storage.
func (gs *GameService) History(gameID string) ([]model.HistoryEntry, error) {
	if game, err := gs.gameManager.GetGame(gameID); err == nil {
		return game.History(), nil
	}

	if _, err := gs.store.GetGame(gameID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("game %s: %w", gameID, model.ErrGameNotFound)
		}
		return nil, err
	}
	plies, err := gs.store.ListPlies(gameID)
	if err != nil {
		return nil, err
	}
	entries := make([]model.HistoryEntry, 0, len(plies))
	for _, p := range plies {
		entries = append(entries, model.HistoryEntry{
			Number: p.Number,
			Ply:    p.Ply(),
			At:     p.PlayedAt,
			Took:   time.Duration(p.TookMs) * time.Millisecond,
		})
	}
	return entries, nil
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) bool {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
