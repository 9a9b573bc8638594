package main

import (
	"fmt"
	"os"
	"time"

	"codearena/internal/exec"
	"codearena/internal/game"
	"codearena/internal/middleware"
	"codearena/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultSessionDuration = 5 * time.Minute
	defaultHandSize        = 5

	defaultExecTimeLimit = 2 * time.Second
	defaultMemoryMB      = 256
	defaultStackMB       = 8
	defaultOutputMB      = 1
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// GameConfig holds session rules.
type GameConfig struct {
	SessionDuration time.Duration `yaml:"sessionDuration"`
	HandSize        int           `yaml:"handSize"`
}

// SandboxConfig holds submission execution settings.
type SandboxConfig struct {
	HelperPath    string        `yaml:"helperPath"`
	TimeLimit     time.Duration `yaml:"timeLimit"`
	CPUTimeMs     int64         `yaml:"cpuTimeMs"`
	MemoryMB      int64         `yaml:"memoryMB"`
	StackMB       int64         `yaml:"stackMB"`
	OutputMB      int64         `yaml:"outputMB"`
	EnableSeccomp bool          `yaml:"enableSeccomp"`
}

// CatalogConfig holds challenge catalog settings. An empty dir means the
// embedded default catalog.
type CatalogConfig struct {
	Dir string `yaml:"dir"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Server  ServerConfig          `yaml:"server"`
	Logger  logger.Config         `yaml:"logger"`
	Game    GameConfig            `yaml:"game"`
	Sandbox SandboxConfig         `yaml:"sandbox"`
	Catalog CatalogConfig         `yaml:"catalog"`
	CORS    middleware.CORSConfig `yaml:"cors"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Game.SessionDuration <= 0 {
		cfg.Game.SessionDuration = defaultSessionDuration
	}
	if cfg.Game.HandSize <= 0 {
		cfg.Game.HandSize = defaultHandSize
	}
	if cfg.Sandbox.TimeLimit <= 0 {
		cfg.Sandbox.TimeLimit = defaultExecTimeLimit
	}
	if cfg.Sandbox.CPUTimeMs <= 0 {
		cfg.Sandbox.CPUTimeMs = cfg.Sandbox.TimeLimit.Milliseconds()
	}
	if cfg.Sandbox.MemoryMB <= 0 {
		cfg.Sandbox.MemoryMB = defaultMemoryMB
	}
	if cfg.Sandbox.StackMB <= 0 {
		cfg.Sandbox.StackMB = defaultStackMB
	}
	if cfg.Sandbox.OutputMB <= 0 {
		cfg.Sandbox.OutputMB = defaultOutputMB
	}
	return &cfg, nil
}

func (c SandboxConfig) toEngineConfig() exec.Config {
	return exec.Config{
		HelperPath: c.HelperPath,
		TimeLimit:  c.TimeLimit,
		Limits: exec.ResourceLimit{
			CPUTimeMs: c.CPUTimeMs,
			MemoryMB:  c.MemoryMB,
			StackMB:   c.StackMB,
			OutputMB:  c.OutputMB,
		},
		EnableSeccomp: c.EnableSeccomp,
	}
}

func (c GameConfig) toSessionConfig() game.Config {
	return game.Config{
		SessionDuration: c.SessionDuration,
		HandSize:        c.HandSize,
	}
}
