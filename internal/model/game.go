package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/benbeisheim/checkers-backend/internal/ws"
	"github.com/rs/zerolog"
)

type Mode string

const (
	// ModeOnline seats two different players.
	ModeOnline Mode = "online"
	// ModeLocal seats the creator on both sides, like a single browser tab
	// passed between two people.
	ModeLocal Mode = "local"
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// Game wraps one checkers position with its seats, clocks, move history and
// observers. Every engine call happens under mu, so a game processes one
// click at a time.
type Game struct {
	ID        string
	Mode      Mode
	CreatedAt time.Time

	mu          sync.Mutex
	state       checkers.State
	seats       map[checkers.Player]*seat
	history     []HistoryEntry
	sound       Sound
	turnStarted time.Time
	version     uint64 // bumped under mu for every snapshot sent out
	connections *GameConnections
	now         func() time.Time
	log         zerolog.Logger

	broadcastMu sync.Mutex
	sent        uint64 // newest version broadcast, guarded by broadcastMu
}

type GameOption func(*Game)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) GameOption {
	return func(g *Game) { g.now = now }
}

// WithState starts the game from a custom position.
func WithState(s checkers.State) GameOption {
	return func(g *Game) { g.state = s }
}

func NewGame(id string, mode Mode, log zerolog.Logger, opts ...GameOption) *Game {
	g := &Game{
		ID:          id,
		Mode:        mode,
		state:       checkers.NewState(),
		connections: NewGameConnections(),
		now:         time.Now,
		log:         log.With().Str("game", id).Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.CreatedAt = g.now()
	g.seats = newSeats(g.now)
	return g
}

// AddPlayer seats playerID and returns the side they play. Joining twice
// returns the side already held. In local mode the first player takes both
// sides.
func (g *Game) AddPlayer(playerID string) (checkers.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if side, ok := g.sideOf(playerID); ok {
		return side, nil
	}

	p1, p2 := g.seats[checkers.Player1], g.seats[checkers.Player2]
	switch {
	case p1.playerID == "":
		p1.playerID = playerID
		if g.Mode == ModeLocal {
			p2.playerID = playerID
		}
	case p2.playerID == "":
		p2.playerID = playerID
	default:
		return checkers.NoPlayer, ErrGameFull
	}

	side, _ := g.sideOf(playerID)
	g.log.Info().Str("player", playerID).Stringer("side", side).Msg("player seated")
	if g.ready() {
		g.turnStarted = g.now()
		g.seats[g.state.Turn()].clock.Start()
	}
	return side, nil
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.sideOf(playerID)
	return ok
}

// CanSpectate reports whether a connection from a non-seated player is
// allowed: only while a seat is still open.
func (g *Game) CanSpectate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return !g.ready()
}

func (g *Game) Players() []Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Player
	for _, side := range [...]checkers.Player{checkers.Player1, checkers.Player2} {
		if id := g.seats[side].playerID; id != "" {
			out = append(out, Player{ID: id, Side: side})
		}
	}
	return out
}

// sideOf returns the first side held by playerID. In local mode that is
// Player1 even though both sides are held.
func (g *Game) sideOf(playerID string) (checkers.Player, bool) {
	for _, side := range [...]checkers.Player{checkers.Player1, checkers.Player2} {
		if g.seats[side].playerID != "" && g.seats[side].playerID == playerID {
			return side, true
		}
	}
	return checkers.NoPlayer, false
}

func (g *Game) ready() bool {
	return g.seats[checkers.Player1].playerID != "" && g.seats[checkers.Player2].playerID != ""
}

// Click feeds a board click from playerID into the engine. The player must
// hold the side to move. Clicks the engine ignores return an Ignored
// outcome and no error.
func (g *Game) Click(playerID string, pos checkers.Position) (ClickResult, error) {
	g.mu.Lock()

	turn := g.state.Turn()
	if _, ok := g.sideOf(playerID); !ok {
		g.mu.Unlock()
		return ClickResult{}, ErrNotSeated
	}
	if !g.ready() {
		g.mu.Unlock()
		return ClickResult{}, ErrWaitingOpponent
	}
	if g.seats[turn].playerID != playerID {
		g.mu.Unlock()
		return ClickResult{}, fmt.Errorf("%s to move: %w", turn, ErrNotYourTurn)
	}

	outcome, ply := g.state.Click(pos)
	result := ClickResult{Outcome: outcome}
	var boardDump string
	switch outcome {
	case checkers.Ignored:
		g.mu.Unlock()
		return result, nil
	case checkers.Selected:
		g.sound = SoundNone
	case checkers.Moved:
		result.Entry = g.recordPly(*ply)
		if g.log.GetLevel() <= zerolog.DebugLevel {
			boardDump = g.state.String()
		}
	}
	snapshot, version := g.versionedSnapshot()
	g.mu.Unlock()
	g.publish(snapshot, version)

	if outcome == checkers.Moved {
		e := result.Entry
		g.log.Info().
			Int("ply", e.Number).
			Stringer("player", e.Ply.Player).
			Stringer("from", e.Ply.From).
			Stringer("to", e.Ply.To).
			Bool("jump", e.Ply.Jump).
			Bool("promoted", e.Ply.Promoted).
			Msg("move applied")
		if boardDump != "" {
			g.log.Debug().Msgf("board after ply %d:\n%s", e.Number, boardDump)
		}
	}
	return result, nil
}

// recordPly updates clocks, history and sound after a completed move.
// Called with mu held.
func (g *Game) recordPly(ply checkers.Ply) *HistoryEntry {
	now := g.now()
	g.seats[ply.Player].clock.Stop()
	g.seats[g.state.Turn()].clock.Start()

	entry := HistoryEntry{
		Number: len(g.history) + 1,
		Ply:    ply,
		At:     now,
		Took:   now.Sub(g.turnStarted),
	}
	g.turnStarted = now
	g.history = append(g.history, entry)
	g.sound = soundFor(ply)
	return &entry
}

// State returns a copy of the engine state.
func (g *Game) State() checkers.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Game) History() []HistoryEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]HistoryEntry(nil), g.history...)
}

// RegisterConnection attaches a socket for a seated player, or for a
// spectator while a seat is open, and pushes the current state to everyone.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	if !g.IsPlayerInGame(playerID) && !g.CanSpectate() {
		return fmt.Errorf("connect %s: %w", playerID, ErrGameFull)
	}

	g.connections.mu.Lock()
	if old, exists := g.connections.connections[playerID]; exists {
		// a reconnecting browser replaces its stale socket
		old.Close()
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	g.log.Debug().Str("player", playerID).Int("connections", g.ConnectionCount()).Msg("connection registered")

	// versioned after the socket is in the map: any newer broadcast reaches it
	g.Broadcast()
	return nil
}

// UnregisterConnection removes conn for playerID unless it has already been
// replaced by a newer connection.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		delete(g.connections.connections, playerID)
		g.log.Debug().Str("player", playerID).Int("connections", len(g.connections.connections)).Msg("connection unregistered")
	}
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}

// Broadcast pushes the current state to every connection.
func (g *Game) Broadcast() {
	g.mu.Lock()
	snapshot, version := g.versionedSnapshot()
	g.mu.Unlock()
	g.publish(snapshot, version)
}

// versionedSnapshot is snapshot plus a fresh version. Called with mu held.
func (g *Game) versionedSnapshot() (GameState, uint64) {
	g.version++
	return g.snapshot(), g.version
}

// publish broadcasts state unless a newer version already went out, so
// sockets never see the game go backwards.
func (g *Game) publish(state GameState, version uint64) {
	g.broadcastMu.Lock()
	defer g.broadcastMu.Unlock()
	if version <= g.sent {
		return
	}
	g.sent = version
	g.broadcastState(state)
}

func (g *Game) broadcastState(state GameState) {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, state)
	if err != nil {
		g.log.Error().Err(err).Msg("failed to encode game state")
		return
	}

	g.connections.mu.RLock()
	activeConnections := make(map[string]Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range activeConnections {
		if err := conn.WriteJSON(msg); err != nil {
			g.log.Warn().Err(err).Str("player", playerID).Msg("failed to send state, dropping connection")
			g.UnregisterConnection(playerID, conn)
		}
	}
}
