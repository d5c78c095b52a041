// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration. Every field has a working
// default except the external provider credentials, which switch their
// features off when absent.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"SCOREBOARD_ADDR" envDefault:":8080"`
	// DBPath locates the SQLite database file.
	DBPath string `env:"SCOREBOARD_DB_PATH" envDefault:"scoreboard.db"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"SCOREBOARD_LOG_LEVEL" envDefault:"info"`

	// GeminiAPIKey enables AI commentary when set; unset runs
	// template-only.
	GeminiAPIKey   string        `env:"SCOREBOARD_GEMINI_API_KEY"`
	GeminiEndpoint string        `env:"SCOREBOARD_GEMINI_ENDPOINT"`
	GeminiTimeout  time.Duration `env:"SCOREBOARD_GEMINI_TIMEOUT" envDefault:"10s"`

	// TTSEnabled turns Polly synthesis on. Credentials come from the
	// standard AWS environment.
	TTSEnabled bool          `env:"SCOREBOARD_TTS_ENABLED" envDefault:"false"`
	TTSRegion  string        `env:"SCOREBOARD_TTS_REGION" envDefault:"us-east-1"`
	TTSVoice   string        `env:"SCOREBOARD_TTS_VOICE" envDefault:"Joanna"`
	TTSEngine  string        `env:"SCOREBOARD_TTS_ENGINE" envDefault:"neural"`
	TTSTimeout time.Duration `env:"SCOREBOARD_TTS_TIMEOUT" envDefault:"15s"`
	AudioDir   string        `env:"SCOREBOARD_AUDIO_DIR" envDefault:"audio"`

	// HeartbeatInterval and SweepInterval drive the broadcast hub
	// keep-alive loops.
	HeartbeatInterval time.Duration `env:"SCOREBOARD_HEARTBEAT_INTERVAL" envDefault:"15s"`
	SweepInterval     time.Duration `env:"SCOREBOARD_SWEEP_INTERVAL" envDefault:"30s"`

	// ShutdownGrace bounds graceful shutdown.
	ShutdownGrace time.Duration `env:"SCOREBOARD_SHUTDOWN_GRACE" envDefault:"10s"`
}

// FromEnv parses configuration from the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
