// Package config loads container runtime settings from the environment,
// the same way the rest of this codebase's ancestry loads application
// settings: a typed struct populated via godotenv plus os.Getenv.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct for a running
// container.
type Config struct {
	// RootTag is applied to the root scope via RegistryBuilder.WithRootTag
	// if non-empty, so matching-scope lifetime registrations can target it
	// by name. Left empty, the root keeps its default "root" sentinel tag.
	RootTag string
	// Diagnostics enables the default diagnostic listener when the caller
	// hasn't supplied its own.
	Diagnostics bool
	// StrictSources converts a registration source panic into a fatal
	// process exit instead of a DependencyResolutionError, for
	// environments that would rather crash loudly during startup wiring
	// than surface a resolve-time error deep in a request path.
	StrictSources bool
}

// Load reads .env (if present) and populates a Config from environment
// variables. Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist outside local development.
	_ = godotenv.Load(files...)

	return &Config{
		RootTag:       env("IOC_ROOT_TAG", ""),
		Diagnostics:   envBool("IOC_DIAGNOSTICS", false),
		StrictSources: envBool("IOC_STRICT_SOURCES", false),
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
