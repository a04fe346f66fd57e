package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// MongoURIEnv overrides mongo.uri so credentials can stay out of the file.
const MongoURIEnv = "CHATLENS_MONGO_URI"

type Config struct {
	ExportRoot string       `toml:"export_root"`
	DBPath     string       `toml:"db_path"`
	LogLevel   string       `toml:"log_level"`
	Mongo      MongoConfig  `toml:"mongo"`
	Server     ServerConfig `toml:"server"`
}

type MongoConfig struct {
	URI                    string        `toml:"uri"`
	Database               string        `toml:"database"`
	Attempts               int           `toml:"attempts"`
	RetryDelay             time.Duration `toml:"retry_delay"`
	ServerSelectionTimeout time.Duration `toml:"server_selection_timeout"`
}

// Enabled reports whether records should also go to the document store.
func (m MongoConfig) Enabled() bool {
	return m.URI != ""
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(home, ".config", "chatlens", "config.toml"), home)
}

// LoadFile applies defaults, then the TOML file at cfgPath if it exists,
// then environment overrides.
func LoadFile(cfgPath, home string) (*Config, error) {
	cfg := Default(home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if uri := os.Getenv(MongoURIEnv); uri != "" {
		cfg.Mongo.URI = uri
	}

	// expand ~ in paths
	cfg.ExportRoot = expandHome(cfg.ExportRoot, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if cfg.Mongo.Attempts < 1 {
		cfg.Mongo.Attempts = 1
	}

	return cfg, nil
}

func Default(home string) *Config {
	return &Config{
		ExportRoot: filepath.Join(home, "chat-exports"),
		DBPath:     filepath.Join(home, ".config", "chatlens", "chatlens.db"),
		LogLevel:   "info",
		Mongo: MongoConfig{
			Database:               "chat_data",
			Attempts:               3,
			RetryDelay:             5 * time.Second,
			ServerSelectionTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
