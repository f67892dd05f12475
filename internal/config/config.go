package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"taskboard/pkg/circuitbreaker"
	"taskboard/pkg/config"
)

// ServerConfig configures cmd/server, the task and note store.
type ServerConfig struct {
	DB     config.DBConfig     `yaml:"db"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`
	Log    config.LogConfig    `yaml:"log"`
}

// BoardConfig configures cmd/board, the headless board client.
type BoardConfig struct {
	Board Board              `yaml:"board"`
	MQ    config.MQConfig    `yaml:"mq"`
	Redis config.RedisConfig `yaml:"redis"`
	Log   config.LogConfig   `yaml:"log"`
}

type Board struct {
	OwnerID         string                `yaml:"owner_id"`
	StoreURL        string                `yaml:"store_url"`
	Token           string                `yaml:"token"`
	RequestTimeout  time.Duration         `yaml:"request_timeout"`
	AutosaveDelay   time.Duration         `yaml:"autosave_delay"`
	RefreshInterval time.Duration         `yaml:"refresh_interval"`
	DedupeAlerts    bool                  `yaml:"dedupe_alerts"`
	AlertSession    string                `yaml:"alert_session"`
	AlertTTL        time.Duration         `yaml:"alert_ttl"`
	Timezone        string                `yaml:"timezone"`
	AudioCue        bool                  `yaml:"audio_cue"`
	DragPolicy      string                `yaml:"drag_policy"`
	Breaker         circuitbreaker.Config `yaml:"breaker"`
}

// Location resolves Timezone; "" and "Local" mean the host zone.
func (b Board) Location() (*time.Location, error) {
	switch strings.TrimSpace(b.Timezone) {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(b.Timezone)
}

func LoadServer() (*ServerConfig, error) {
	var cfg ServerConfig
	if _, err := config.LoadInto(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"), &cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideLogFromEnv(&cfg.Log)

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":5000"
	}
	return &cfg, nil
}

func LoadBoard() (*BoardConfig, error) {
	var cfg BoardConfig
	if _, err := config.LoadInto(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"), &cfg); err != nil {
		return nil, fmt.Errorf("load board config: %w", err)
	}

	overrideBoardFromEnv(&cfg.Board)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideLogFromEnv(&cfg.Log)

	if cfg.Board.StoreURL == "" {
		cfg.Board.StoreURL = "http://127.0.0.1:5000"
	}
	if cfg.Board.AlertSession == "" {
		cfg.Board.AlertSession = cfg.Board.OwnerID
	}
	return &cfg, nil
}

func overrideBoardFromEnv(b *Board) {
	if owner := os.Getenv("BOARD_OWNER_ID"); owner != "" {
		b.OwnerID = owner
	}
	if url := os.Getenv("TASK_STORE_URL"); url != "" {
		b.StoreURL = url
	}
	if token := os.Getenv("BOARD_TOKEN"); token != "" {
		b.Token = token
	}
	if tz := os.Getenv("BOARD_TIMEZONE"); tz != "" {
		b.Timezone = tz
	}
	b.AutosaveDelay = config.GetEnvDuration("BOARD_AUTOSAVE_DELAY", b.AutosaveDelay)
	b.RefreshInterval = config.GetEnvDuration("BOARD_REFRESH_INTERVAL", b.RefreshInterval)
	b.DedupeAlerts = config.GetEnvBool("BOARD_DEDUPE_ALERTS", b.DedupeAlerts)
	b.AudioCue = config.GetEnvBool("BOARD_AUDIO_CUE", b.AudioCue)
}
