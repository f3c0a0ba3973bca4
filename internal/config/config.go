package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "simply.db"
	DefaultLogName        = "simply.log"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "SIMPLY_CONFIG"
)

type Keymap struct {
	Quit   string `toml:"quit"`
	Submit string `toml:"submit"`
	Clear  string `toml:"clear"`
}

type Config struct {
	DBPath          string `toml:"db_path"`
	LogFile         string `toml:"log_file"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	OverdueInterval string `toml:"overdue_interval"`
	Notify          bool   `toml:"notify"`
	Keys            Keymap `toml:"keys"`
}

// ResolveConfigPath returns $SIMPLY_CONFIG or the per-user default.
func ResolveConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "simply", DefaultConfigFileName), nil
}

func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Decode(data)
}

// Write stores cfg at path, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Encode(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Decode parses TOML and fills unset fields with defaults.
func Decode(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("decode config: %w", err)
	}
	def := Default()
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.OverdueInterval == "" {
		cfg.OverdueInterval = def.OverdueInterval
	}
	if cfg.Keys.Quit == "" {
		cfg.Keys.Quit = def.Keys.Quit
	}
	if cfg.Keys.Submit == "" {
		cfg.Keys.Submit = def.Keys.Submit
	}
	if cfg.Keys.Clear == "" {
		cfg.Keys.Clear = def.Keys.Clear
	}
	return cfg, nil
}

// ScanInterval parses overdue_interval.
func (c Config) ScanInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.OverdueInterval)
	if err != nil {
		return 0, fmt.Errorf("overdue_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("overdue_interval: must be positive, got %s", d)
	}
	return d, nil
}

// ResolvePath makes a relative path from the config relative to the
// directory holding the config file.
func ResolvePath(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "file:") {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

func Default() Config {
	return Config{
		DBPath:          DefaultDBName,
		LogFile:         DefaultLogName,
		LogLevel:        "info",
		LogFormat:       "text",
		OverdueInterval: "1s",
		Notify:          true,
		Keys: Keymap{
			Quit:   "ctrl+c",
			Submit: "enter",
			Clear:  "esc",
		},
	}
}
