package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	AppEnv     string

	DBDriver       string // "sqlite" or "mysql"
	SQLitePath     string
	MySQLDSN       string
	DBMaxOpen      int
	DBMaxIdle      int
	DBConnLifetime time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RememberMeTTL   time.Duration

	RateLimitWindow time.Duration
	RateLimitMax    int

	LockoutThreshold int
	LockoutWindow    time.Duration
	LockoutDuration  time.Duration

	BurstWindow time.Duration
	BurstMax    int
	BanDuration time.Duration

	CORSOrigins []string
	BodyLimit   string
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		AppEnv:     getEnv("APP_ENV", "development"),

		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "stellar.db"),
		MySQLDSN:       getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/stellar?charset=utf8mb4&parseTime=True&loc=Local"),
		DBMaxOpen:      getEnvInt("DB_MAX_OPEN", 25),
		DBMaxIdle:      getEnvInt("DB_MAX_IDLE", 5),
		DBConnLifetime: getEnvDuration("DB_CONN_LIFETIME", 30*time.Minute),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		RememberMeTTL:   getEnvDuration("REMEMBER_ME_TTL", 30*24*time.Hour),

		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 120),

		LockoutThreshold: getEnvInt("LOCKOUT_THRESHOLD", 5),
		LockoutWindow:    getEnvDuration("LOCKOUT_WINDOW", 15*time.Minute),
		LockoutDuration:  getEnvDuration("LOCKOUT_DURATION", 30*time.Minute),

		BurstWindow: getEnvDuration("BURST_WINDOW", 10*time.Second),
		BurstMax:    getEnvInt("BURST_MAX", 50),
		BanDuration: getEnvDuration("BAN_DURATION", 10*time.Minute),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		BodyLimit:   getEnv("BODY_LIMIT", "1M"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
