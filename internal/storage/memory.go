package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory keeps records in process memory. Everything is lost on restart.
type Memory struct {
	mu     sync.RWMutex
	games  map[string]GameRecord
	plies  map[string][]PlyRecord
	nextID uint
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		games: make(map[string]GameRecord),
		plies: make(map[string][]PlyRecord),
		now:   time.Now,
	}
}

func (m *Memory) Init() error  { return nil }
func (m *Memory) Close() error { return nil }

func (m *Memory) SaveGame(g *GameRecord) error {
	if g == nil || g.ID == "" {
		return fmt.Errorf("save game: missing id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.games[g.ID]; ok {
		g.CreatedAt = existing.CreatedAt
	} else if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	m.games[g.ID] = *g
	return nil
}

func (m *Memory) GetGame(id string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return &g, nil
}

func (m *Memory) RecordPly(p *PlyRecord) error {
	if p == nil || p.GameID == "" {
		return fmt.Errorf("record ply: missing game id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p.ID = m.nextID
	m.plies[p.GameID] = append(m.plies[p.GameID], *p)
	return nil
}

func (m *Memory) ListPlies(gameID string) ([]PlyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plies := append([]PlyRecord{}, m.plies[gameID]...)
	sort.SliceStable(plies, func(i, j int) bool { return plies[i].Number < plies[j].Number })
	return plies, nil
}
