package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret string
	JWTExpiry time.Duration

	DefaultModel    string
	ProviderTimeout time.Duration
	AppURL          string
	MinimaxBaseURL  string

	// ProviderKeys maps a provider id to the key read from the environment.
	ProviderKeys   map[string]string
	KeyringEnabled bool

	RedisURL       string
	AllowedOrigins []string

	LogLevel string
}

// providerEnv lists the environment variable holding each provider's credential.
var providerEnv = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"minimax":    "MINIMAX_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"gemini":     "GEMINI_API_KEY",
}

// ProviderEnvVar returns the environment variable name for a provider id.
func ProviderEnvVar(provider string) string {
	if name, ok := providerEnv[provider]; ok {
		return name
	}
	return strings.ToUpper(provider) + "_API_KEY"
}

func Load() *Config {
	_ = LoadEnv()
	_ = godotenv.Load()

	keys := make(map[string]string, len(providerEnv))
	for provider, env := range providerEnv {
		keys[provider] = os.Getenv(env)
	}

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBPath:      getEnv("DB_PATH", "promptforge.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),

		DefaultModel:    getEnv("DEFAULT_MODEL", "openrouter"),
		ProviderTimeout: parseDuration(getEnv("PROVIDER_TIMEOUT", "5m"), 5*time.Minute),
		AppURL:          getEnv("APP_URL", "http://localhost:3000"),
		MinimaxBaseURL:  getEnv("MINIMAX_BASE_URL", "https://api.minimax.io/v1"),

		ProviderKeys:   keys,
		KeyringEnabled: parseBool(getEnv("KEYRING_ENABLED", "false")),

		RedisURL:       getEnv("REDIS_URL", ""),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// FindProjectRoot walks up from the working directory to the nearest go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// LoadEnv loads the .env file at the project root, if any.
func LoadEnv() error {
	root, err := FindProjectRoot()
	if err != nil {
		return err
	}
	return godotenv.Load(filepath.Join(root, ".env"))
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func parseOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
