package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"slide2048/engine"
)

type ConfigStore struct {
	mu     sync.RWMutex
	config engine.Config
}

var configStore = &ConfigStore{config: engine.DefaultConfig()}

func GetConfig() engine.Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() engine.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Update replaces the config when it validates.
func (c *ConfigStore) Update(newConfig engine.Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
	return nil
}

// configFromEnv applies AI_* overrides on top of base.
func configFromEnv(base engine.Config) (engine.Config, error) {
	cfg := base
	cfg.Depth = getenvInt("AI_DEPTH", cfg.Depth)
	cfg.ParallelRoot = getenvBool("AI_PARALLEL_ROOT", cfg.ParallelRoot)
	cfg.TTEnabled = getenvBool("AI_TT_ENABLED", cfg.TTEnabled)
	cfg.TTSize = getenvInt("AI_TT_SIZE", cfg.TTSize)
	if path := getenv("AI_TT_PERSISTENCE_PATH", ""); path != "" {
		cfg.TTPersistenceEnabled = true
		cfg.TTPersistencePath = path
	}
	cfg.LogSearchStats = getenvBool("AI_LOG_SEARCH_STATS", cfg.LogSearchStats)
	if err := cfg.Validate(); err != nil {
		return base, fmt.Errorf("config from env: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
