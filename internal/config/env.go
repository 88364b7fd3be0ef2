package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from CUBELOG_* environment variables.
type EnvConfig struct {
	DB         string `env:"CUBELOG_DB"`
	LogLevel   string `env:"CUBELOG_LOG_LEVEL"`
	Offline    *bool  `env:"CUBELOG_OFFLINE"`
	RankingURL string `env:"CUBELOG_RANKING_URL"`
	Addr       string `env:"CUBELOG_ADDR"`
}

// LoadEnv parses the environment overrides.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Apply copies every set override into cfg.
func (e EnvConfig) Apply(cfg *FileConfig) {
	setString(&cfg.Storage.Path, e.DB)
	setString(&cfg.Log.Level, e.LogLevel)
	setString(&cfg.Ranking.URL, e.RankingURL)
	setString(&cfg.Server.Addr, e.Addr)
	if e.Offline != nil {
		v := *e.Offline
		cfg.Ranking.Offline = &v
	}
}

func setString(target **string, value string) {
	if value == "" {
		return
	}
	v := value
	*target = &v
}
