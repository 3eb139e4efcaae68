// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// config holds the settings a YAML file may supply. Command-line
// flags always take precedence over a loaded config file — see run.
// Each field can also be supplied through the environment; a set env
// variable overrides the YAML file's value for that field.
type config struct {
	Mountpoint string `yaml:"mountpoint" env:"MEMFS_MOUNTPOINT"`
	AllowOther bool   `yaml:"allow_other" env:"MEMFS_ALLOW_OTHER"`
	LogLevel   string `yaml:"log_level" env:"MEMFS_LOG_LEVEL"`
}

// loadConfig reads path as YAML, then overlays environment variables
// per the struct's env tags. An empty path is not an error — it just
// means no file was supplied.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("reading environment config: %w", err)
		}
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
