// Package config loads the environment-driven settings seisarchive needs
// to open a database connection and run a bulk archive operation.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ArchiveConfiguration holds the settings read from the environment.
type ArchiveConfiguration struct {
	DSN            string
	SupportedMajor int
	SupportedMinor int
	BatchSize      int
}

// LoadEnvConfig loads configName (a .env-style file) and builds an
// ArchiveConfiguration from it. It is fatal to call this with a missing or
// unreadable file, matching the teacher's LoadEnvConfig behavior for a CLI
// entrypoint; library callers should build ArchiveConfiguration directly
// instead.
func LoadEnvConfig(configName string) ArchiveConfiguration {
	if err := godotenv.Load(configName); err != nil {
		log.Fatalf("error loading env file %q: %v", configName, err)
	}

	major, err := strconv.Atoi(envOr("SEISARCHIVE_SCHEMA_MAJOR", "0"))
	if err != nil {
		log.Fatalf("failed to parse SEISARCHIVE_SCHEMA_MAJOR: %v", err)
	}

	minor, err := strconv.Atoi(envOr("SEISARCHIVE_SCHEMA_MINOR", "12"))
	if err != nil {
		log.Fatalf("failed to parse SEISARCHIVE_SCHEMA_MINOR: %v", err)
	}

	batchSize, err := strconv.Atoi(envOr("SEISARCHIVE_BATCH_SIZE", "100"))
	if err != nil {
		log.Fatalf("failed to parse SEISARCHIVE_BATCH_SIZE: %v", err)
	}

	return ArchiveConfiguration{
		DSN:            os.Getenv("SEISARCHIVE_DSN"),
		SupportedMajor: major,
		SupportedMinor: minor,
		BatchSize:      batchSize,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
