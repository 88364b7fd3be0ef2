// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Unset keys stay nil.
type FileConfig struct {
	Timer   TimerConfig   `toml:"timer"`
	Stats   StatsConfig   `toml:"stats"`
	Ranking RankingConfig `toml:"ranking"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// TimerConfig maps live timer settings.
type TimerConfig struct {
	Event    *string `toml:"event"`
	Cube     *int64  `toml:"cube"`
	Scramble *bool   `toml:"scramble"`
}

// StatsConfig maps defaults for the stats report and browser.
type StatsConfig struct {
	Event  *string `toml:"event"`
	Since  *string `toml:"since"`
	Last   *int    `toml:"last"`
	Window *int    `toml:"window"`
}

// RankingConfig maps ranking client settings.
type RankingConfig struct {
	URL            *string `toml:"url"`
	PersonURL      *string `toml:"person-url"`
	Offline        *bool   `toml:"offline"`
	TimeoutSeconds *int    `toml:"timeout-seconds"`
	CacheTTLHours  *int    `toml:"cache-ttl-hours"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr *string `toml:"addr"`
}

// StorageConfig maps database settings.
type StorageConfig struct {
	Path *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Load reads the config file and applies environment overrides on top of it.
func Load(path string) (FileConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return FileConfig{}, err
	}
	envCfg, err := LoadEnv()
	if err != nil {
		return FileConfig{}, err
	}
	envCfg.Apply(&cfg)
	return cfg, nil
}
