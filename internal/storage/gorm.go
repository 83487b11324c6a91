package storage

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormBackend stores records through GORM. The same code serves SQLite and
// Postgres; only the dialector differs.
type GormBackend struct {
	db  *gorm.DB
	log zerolog.Logger
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// OpenSQLite opens a SQLite database at path. An empty path uses a shared
// in-memory database.
func OpenSQLite(path string, log zerolog.Logger) (*GormBackend, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	if path == "" {
		log.Info().Msg("Using SQLite DB in memory")
	} else {
		log.Info().Str("path", path).Msg("Using local SQLite DB")
	}
	return NewGormBackend(db, log), nil
}

func OpenPostgres(dsn string, log zerolog.Logger) (*GormBackend, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	log.Info().Msg("Connected to Postgres DB")
	return NewGormBackend(db, log), nil
}

func NewGormBackend(db *gorm.DB, log zerolog.Logger) *GormBackend {
	return &GormBackend{db: db, log: log}
}

// Init creates or migrates the tables.
func (b *GormBackend) Init() error {
	if err := b.db.AutoMigrate(&GameRecord{}, &PlyRecord{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *GormBackend) SaveGame(g *GameRecord) error {
	if g == nil || g.ID == "" {
		return fmt.Errorf("save game: missing id")
	}
	err := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "player1", "player2", "updated_at"}),
	}).Create(g).Error
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

func (b *GormBackend) GetGame(id string) (*GameRecord, error) {
	var g GameRecord
	err := b.db.Where("id = ?", id).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}
	return &g, nil
}

func (b *GormBackend) RecordPly(p *PlyRecord) error {
	if p == nil || p.GameID == "" {
		return fmt.Errorf("record ply: missing game id")
	}
	if err := b.db.Create(p).Error; err != nil {
		return fmt.Errorf("record ply %d of %s: %w", p.Number, p.GameID, err)
	}
	return nil
}

func (b *GormBackend) ListPlies(gameID string) ([]PlyRecord, error) {
	plies := []PlyRecord{}
	err := b.db.Where("game_id = ?", gameID).Order("number asc").Find(&plies).Error
	if err != nil {
		return nil, fmt.Errorf("list plies of %s: %w", gameID, err)
	}
	return plies, nil
}
