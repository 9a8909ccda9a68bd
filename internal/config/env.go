package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds overrides read from the environment. Zero values mean unset.
type Env struct {
	DataDir       string `env:"WIDTHLAB_DATA"      envDefault:"./runs"`
	LogLevel      string `env:"WIDTHLAB_LOG_LEVEL" envDefault:"info"`
	Calls         int    `env:"WIDTHLAB_CALLS"`
	MaxIterations int    `env:"WIDTHLAB_MAX_ITER"`
	Seed          uint64 `env:"WIDTHLAB_SEED"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply copies the set integration overrides into cfg.
func (e Env) Apply(cfg *Config) {
	if e.Calls > 0 {
		cfg.Integration.Calls = e.Calls
	}
	if e.MaxIterations > 0 {
		cfg.Integration.MaxIterations = e.MaxIterations
	}
	if e.Seed > 0 {
		cfg.Integration.Seed = e.Seed
	}
}

// ParseLevel accepts the slog level names, case-insensitively and with
// offsets such as "debug+2". Empty means info; "warning" is kept as an alias.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q: %w", s, err)
	}
	return lvl, nil
}
