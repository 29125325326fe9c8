// Package config resolves settings from built-in defaults, the optional
// .locindex.yaml project file, .env and the environment, in that order.
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"locindex/internal/classify"
	"locindex/internal/filewalker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ModDir            string
	GameDir           string
	Language          string
	ReferenceLanguage string
	TargetLang        string
	Workers           int
	ContextRadius     int
	JournalPath       string
	DatabaseURL       string
	Neo4jURI          string
	Neo4jUser         string
	Neo4jPassword     string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Language:          filewalker.DefaultLanguage,
		ReferenceLanguage: filewalker.DefaultLanguage,
		TargetLang:        classify.DefaultTargetLang,
		Workers:           4,
		ContextRadius:     3,
		JournalPath:       ".loc-journal.db",
		DatabaseURL:       "postgres://localhost:5432/locindex?sslmode=disable",
		Neo4jURI:          "bolt://localhost:7687",
		Neo4jUser:         "neo4j",
		Neo4jPassword:     "password",
	}
}

// Load reads the project file and .env from dir, then the environment.
func Load(dir string) (*Config, error) {
	cfg := Default()

	pf, err := LoadProjectFile(dir)
	if err != nil {
		return nil, err
	}
	if pf != nil {
		pf.apply(cfg, dir)
		log.Debug().Str("file", filepath.Join(dir, ProjectFileName)).Msg("Loaded project file")
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg.ModDir = getEnv("LOC_MOD_DIR", cfg.ModDir)
	cfg.GameDir = getEnv("LOC_GAME_DIR", cfg.GameDir)
	cfg.Language = getEnv("LOC_LANGUAGE", cfg.Language)
	cfg.ReferenceLanguage = getEnv("LOC_REFERENCE_LANGUAGE", cfg.ReferenceLanguage)
	cfg.TargetLang = getEnv("LOC_TARGET_LANG", cfg.TargetLang)
	cfg.Workers = getEnvInt("LOC_WORKERS", cfg.Workers)
	cfg.ContextRadius = getEnvInt("LOC_CONTEXT_RADIUS", cfg.ContextRadius)
	cfg.JournalPath = getEnv("LOC_JOURNAL", cfg.JournalPath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.Neo4jURI = getEnv("NEO4J_URI", cfg.Neo4jURI)
	cfg.Neo4jUser = getEnv("NEO4J_USER", cfg.Neo4jUser)
	cfg.Neo4jPassword = getEnv("NEO4J_PASSWORD", cfg.Neo4jPassword)

	return cfg, nil
}

// Validate checks values that cannot be fixed by defaults and returns the
// classifier for the target language.
func (c *Config) Validate() (*classify.Classifier, error) {
	if c.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ContextRadius < 0 {
		return nil, fmt.Errorf("context radius must not be negative, got %d", c.ContextRadius)
	}
	cl, err := classify.New(c.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}
	return cl, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-numeric value")
		return fallback
	}
	return n
}
