package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Container ContainerConfig
	HTTP      HTTPConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
}

// IsLocal reports whether the app runs in the local environment.
func (c AppConfig) IsLocal() bool { return c.Env == "local" }

type LogConfig struct {
	Level    string // debug | info | warn | error
	Encoding string // json | console
}

type ContainerConfig struct {
	// Definitions is the path of a YAML definitions file, empty for none.
	Definitions string

	// Shared lists the ids served as shared instances; "*" shares every id.
	Shared []string

	// SharedTTL expires shared instances; zero keeps them forever.
	SharedTTL time.Duration
}

type HTTPConfig struct {
	Port string
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string { return ":" + c.Port }

// Load reads the env files (".env" by default, if present) and populates a
// Config from environment variables. Variables already set win over files.
//
//	cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "go-resolver"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
		},
		Log: LogConfig{
			Level:    env("LOG_LEVEL", "info"),
			Encoding: env("LOG_ENCODING", ""),
		},
		Container: ContainerConfig{
			Definitions: env("CONTAINER_DEFINITIONS", ""),
			Shared:      envList("CONTAINER_SHARED"),
			SharedTTL:   envDuration("CONTAINER_SHARED_TTL", 0),
		},
		HTTP: HTTPConfig{
			Port: env("HTTP_PORT", "8000"),
		},
	}
}

// ReadEnvFile returns the pairs declared in an env file without touching
// the process environment.
func ReadEnvFile(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

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

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envList splits a comma separated value, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
