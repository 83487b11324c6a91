package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/render"
	"github.com/spf13/viper"
)

const (
	FileName  = "checkers"
	EnvPrefix = "CHECKERS"
)

type ServerConfig struct {
	Addr         string `json:"addr" mapstructure:"addr"`
	AllowOrigins string `json:"allowOrigins" mapstructure:"allowOrigins"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type PostgresConfig struct {
	DSN string `json:"dsn" mapstructure:"dsn"`
}

// StorageConfig selects where played games are recorded.
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

type RenderConfig struct {
	CellSize int          `json:"cellSize" mapstructure:"cellSize"`
	Theme    render.Theme `json:"theme" mapstructure:"theme"`
}

type MatchmakingConfig struct {
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

type Config struct {
	Server      ServerConfig      `json:"server" mapstructure:"server"`
	Log         LogConfig         `json:"log" mapstructure:"log"`
	Storage     StorageConfig     `json:"storage" mapstructure:"storage"`
	Render      RenderConfig      `json:"render" mapstructure:"render"`
	Matchmaking MatchmakingConfig `json:"matchmaking" mapstructure:"matchmaking"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.allowOrigins", "http://localhost:5173")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlite.path", "checkers.db")
	v.SetDefault("storage.postgres.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=checkers sslmode=disable")

	v.SetDefault("render.cellSize", render.DefaultCellSize)
	v.SetDefault("render.theme.squareDark", render.DefaultTheme.SquareDark)
	v.SetDefault("render.theme.squareLight", render.DefaultTheme.SquareLight)
	v.SetDefault("render.theme.player1", render.DefaultTheme.Player1)
	v.SetDefault("render.theme.player2", render.DefaultTheme.Player2)
	v.SetDefault("render.theme.outline", render.DefaultTheme.Outline)
	v.SetDefault("render.theme.selected", render.DefaultTheme.Selected)
	v.SetDefault("render.theme.candidate", render.DefaultTheme.Candidate)

	v.SetDefault("matchmaking.interval", "1s")
}

// Load reads checkers.json from configDir if present, applies CHECKERS_*
// environment overrides and defaults, and returns the typed configuration.
// A missing file is not an error; a malformed one is.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Type {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Render.CellSize <= 0 {
		return fmt.Errorf("render.cellSize must be positive, got %d", c.Render.CellSize)
	}
	if c.Matchmaking.Interval <= 0 {
		return fmt.Errorf("matchmaking.interval must be positive, got %s", c.Matchmaking.Interval)
	}
	return nil
}
