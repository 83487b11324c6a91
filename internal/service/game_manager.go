package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GameManager owns the live games and the matchmaking queue.
type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan model.MatchFoundEvent
	pending          map[string]model.MatchFoundEvent // matches nobody was listening for
	mu               sync.RWMutex

	log     zerolog.Logger
	newID   func() string
	onMatch func(*model.Game) // called after matchmaking seats both players
}

type ManagerOption func(*GameManager)

// WithIDGenerator replaces uuid game IDs, mostly for tests.
func WithIDGenerator(newID func() string) ManagerOption {
	return func(gm *GameManager) { gm.newID = newID }
}

func NewGameManager(log zerolog.Logger, opts ...ManagerOption) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan model.MatchFoundEvent),
		pending:          make(map[string]model.MatchFoundEvent),
		log:              log,
		newID:            func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(gm)
	}
	return gm
}

// Run pairs queued players every interval until ctx is done.
func (gm *GameManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for gm.matchOnce() {
			}
		}
	}
}

// matchOnce seats the two longest waiting players in a new game and tells
// both of them. It reports whether a pair was made.
func (gm *GameManager) matchOnce() bool {
	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		return false
	}

	game := model.NewGame(gm.newID(), model.ModeOnline, gm.log)
	p1Color, err := game.AddPlayer(player1)
	if err != nil {
		gm.log.Error().Err(err).Str("player", player1).Msg("error adding player to matched game")
		return true
	}
	p2Color, err := game.AddPlayer(player2)
	if err != nil {
		gm.log.Error().Err(err).Str("player", player2).Msg("error adding player to matched game")
		return true
	}

	gm.mu.Lock()
	gm.games[game.ID] = game
	sent1 := gm.notifyMatchLocked(player1, model.MatchFoundEvent{GameID: game.ID, Color: p1Color})
	sent2 := gm.notifyMatchLocked(player2, model.MatchFoundEvent{GameID: game.ID, Color: p2Color})
	gm.mu.Unlock()

	gm.log.Info().
		Str("game", game.ID).
		Str("player1", player1).
		Str("player2", player2).
		Int("games", gm.GameCount()).
		Msg("match found")
	if !sent1 || !sent2 {
		gm.log.Info().Str("game", game.ID).Msg("match held until the player asks for it")
	}
	if gm.onMatch != nil {
		gm.onMatch(game)
	}
	return true
}

// notifyMatchLocked sends the event and retires the channel. Without a
// listening channel the event is kept as pending for MatchmakingStatus or
// the next matchmaking socket. Called with mu held.
func (gm *GameManager) notifyMatchLocked(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		gm.pending[playerID] = event
		return false
	}
	delete(gm.matchingChannels, playerID)
	if !deliver(ch, event) {
		gm.pending[playerID] = event
		return false
	}
	return true
}

// deliver sends event on ch without blocking and closes ch either way.
func deliver(ch chan model.MatchFoundEvent, event model.MatchFoundEvent) bool {
	defer close(ch)
	select {
	case ch <- event:
		return true
	default:
		return false
	}
}

// RegisterMatchmakingChannel sets where the match for playerID will be
// delivered. An earlier channel for the same player is closed. If a match
// is already waiting it goes to ch right away, ch is closed, and the
// result is true: the player must not be queued again.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	if event, ok := gm.pending[playerID]; ok {
		if deliver(ch, event) {
			delete(gm.pending, playerID)
			gm.log.Debug().Str("player", playerID).Str("game", event.GameID).Msg("pending match delivered")
			return true
		}
		return false
	}
	gm.matchingChannels[playerID] = ch
	gm.log.Debug().Str("player", playerID).Msg("matchmaking channel registered")
	return false
}

// MatchmakingStatus reports where playerID stands in matchmaking. A pending
// match is handed out once; after that the player is idle again.
func (gm *GameManager) MatchmakingStatus(playerID string) model.MatchStatus {
	gm.mu.Lock()
	event, ok := gm.pending[playerID]
	if ok {
		delete(gm.pending, playerID)
	}
	gm.mu.Unlock()

	switch {
	case ok:
		return model.MatchStatus{Status: model.MatchStatusMatched, GameID: event.GameID, Color: event.Color}
	case gm.queue.Contains(playerID):
		return model.MatchStatus{Status: model.MatchStatusQueued}
	default:
		return model.MatchStatus{Status: model.MatchStatusIdle}
	}
}

// UnregisterMatchmakingChannel forgets ch for playerID and takes the player
// out of the queue. A channel already replaced by a newer one is left alone.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	current, exists := gm.matchingChannels[playerID]
	if !exists || current != ch {
		return
	}
	delete(gm.matchingChannels, playerID)
	close(current)
	gm.queue.RemovePlayer(playerID)
	gm.log.Debug().Str("player", playerID).Msg("matchmaking channel unregistered")
}

func (gm *GameManager) CreateGame(gameID string, mode model.Mode) (*model.Game, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return nil, fmt.Errorf("game %s: %w", gameID, model.ErrGameExists)
	}

	game := model.NewGame(gameID, mode, gm.log)
	gm.games[gameID] = game
	return game, nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("game %s: %w", gameID, model.ErrGameNotFound)
	}
	return game, nil
}

func (gm *GameManager) GameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (checkers.Player, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return checkers.NoPlayer, err
	}
	return game.AddPlayer(playerID)
}

// JoinMatchmaking queues playerID. A match still waiting to be picked up is
// dropped: the player asked for a new one.
func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(playerID); err != nil {
		return err
	}
	gm.mu.Lock()
	delete(gm.pending, playerID)
	gm.mu.Unlock()
	gm.log.Info().Str("player", playerID).Int("queued", gm.queue.Size()).Msg("player joined matchmaking")
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

func (gm *GameManager) Click(gameID string, playerID string, pos checkers.Position) (*model.Game, model.ClickResult, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, model.ClickResult{}, err
	}
	result, err := game.Click(playerID, pos)
	return game, result, err
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}
