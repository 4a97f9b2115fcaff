// internal/config/config.go
//
// Environment-driven configuration for the engine server.
// `.env` files are loaded by main via godotenv before Load is called.
//
// Environment variables:
//   PORT                 listen port (3193)
//   LOG_LEVEL            zerolog level (info)
//   API_KEY              accepted X-API-Key value (test-api-key-12345)
//   API_KEY_HASH         bcrypt hash of the accepted key; takes precedence over API_KEY
//   JWT_SECRET           HS256 secret for bearer tokens (dev_secret_change_me)
//   JWT_EXPIRES_MINUTES  bearer token lifetime (60)
//   GAME_DATA_DIR        JSON level tree (game_data)
//   LEVELS_DB            SQLite level catalog; when set it replaces GAME_DATA_DIR
//   LEVEL_CACHE_TTL      how long level lookups are cached (30s); SIGHUP clears the cache
//   DEFAULT_RULE_GAMES   comma-separated game ids (or "*") using the built-in
//                        region toggle descriptor when they ship none. Empty by
//                        default, so a level tree without rules.yaml files only
//                        toggles blocks on ACTION6 once its games are listed here
//                        (e.g. DEFAULT_RULE_GAMES=*).
//   WIN_SCORE            score assigned on a win (1)
//   CLIENT_ORIGIN        CORS allowed origin (*)
//   REQUEST_TIMEOUT      per-request timeout (10s)

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the resolved server configuration.
type Config struct {
	Port             string
	LogLevel         string
	APIKey           string
	APIKeyHash       string
	JWTSecret        string
	JWTTTL           time.Duration
	GameDataDir      string
	LevelsDB         string
	LevelCacheTTL    time.Duration
	DefaultRuleGames []string
	WinScore         int
	ClientOrigin     string
	RequestTimeout   time.Duration
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "3193"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		APIKey:           getEnv("API_KEY", "test-api-key-12345"),
		APIKeyHash:       os.Getenv("API_KEY_HASH"),
		JWTSecret:        getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTTTL:           time.Duration(envInt("JWT_EXPIRES_MINUTES", 60)) * time.Minute,
		GameDataDir:      getEnv("GAME_DATA_DIR", "game_data"),
		LevelsDB:         os.Getenv("LEVELS_DB"),
		LevelCacheTTL:    envDuration("LEVEL_CACHE_TTL", 30*time.Second),
		DefaultRuleGames: splitList(os.Getenv("DEFAULT_RULE_GAMES")),
		WinScore:         envInt("WIN_SCORE", 1),
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "*"),
		RequestTimeout:   envDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
