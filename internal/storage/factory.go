package storage

import (
	"fmt"

	"github.com/benbeisheim/checkers-backend/internal/config"
	"github.com/rs/zerolog"
)

// New creates a storage backend based on configuration. The backend is not
// initialized yet; callers run Init.
func New(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	log = log.With().Str("storage", cfg.Type).Logger()
	switch cfg.Type {
	case "postgres":
		return OpenPostgres(cfg.Postgres.DSN, log)
	case "sqlite":
		return OpenSQLite(cfg.SQLite.Path, log)
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
