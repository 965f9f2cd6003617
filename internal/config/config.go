// SPDX-License-Identifier: Apache-2.0

// Package config loads runtime settings from a YAML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/compassoutlaw/rosetta/internal/pdfcheck"
	"github.com/compassoutlaw/rosetta/internal/preflight"
)

// Backend names the analysis service implementation.
type Backend string

const (
	BackendNone      Backend = ""
	BackendFunctions Backend = "functions"
	BackendGemini    Backend = "gemini"
)

type Functions struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	AuthToken string `yaml:"auth_token"`
}

type Gemini struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type PDF struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Functions      Functions     `yaml:"functions"`
	Gemini         Gemini        `yaml:"gemini"`
	PDF            PDF           `yaml:"pdf"`
	Store          Store         `yaml:"store"`
	Server         Server        `yaml:"server"`
	BatchDelay     time.Duration `yaml:"batch_delay"`
	PreflightDelay time.Duration `yaml:"preflight_delay"`
	Verbose        bool          `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Gemini:         Gemini{Model: "gemini-2.5-flash"},
		PDF:            PDF{Timeout: pdfcheck.DefaultTimeout},
		Store:          Store{Path: "rosetta.db"},
		Server:         Server{Addr: ":8080"},
		BatchDelay:     time.Second,
		PreflightDelay: preflight.DefaultDelay,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the given .env files (".env" when none are named; a
// missing file is ignored) and finally the process environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	dotenv := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			dotenv[k] = v
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ROSETTA_FUNCTIONS_URL": &cfg.Functions.BaseURL,
		"ROSETTA_FUNCTIONS_KEY": &cfg.Functions.APIKey,
		"ROSETTA_AUTH_TOKEN":    &cfg.Functions.AuthToken,
		"GEMINI_API_KEY":        &cfg.Gemini.APIKey,
		"ROSETTA_GEMINI_MODEL":  &cfg.Gemini.Model,
		"ROSETTA_PDF_ENDPOINT":  &cfg.PDF.Endpoint,
		"ROSETTA_STORE_PATH":    &cfg.Store.Path,
		"ROSETTA_ADDR":          &cfg.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ROSETTA_PDF_TIMEOUT":     &cfg.PDF.Timeout,
		"ROSETTA_BATCH_DELAY":     &cfg.BatchDelay,
		"ROSETTA_PREFLIGHT_DELAY": &cfg.PreflightDelay,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("ROSETTA_VERBOSE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ROSETTA_VERBOSE: %w", err)
		}
		cfg.Verbose = b
	}
	return nil
}

// Backend picks the analysis service: the functions gateway when a base
// URL is set, otherwise in-process Gemini when an API key is set.
func (c Config) Backend() Backend {
	switch {
	case c.Functions.BaseURL != "":
		return BackendFunctions
	case c.Gemini.APIKey != "":
		return BackendGemini
	}
	return BackendNone
}
