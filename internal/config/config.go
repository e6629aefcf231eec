// Package config loads the environment variables spec.md §6 names into a
// typed Config, the way the teacher's cmd/api/main.go reads os.Getenv
// inline but collected into one place for this codebase's larger surface.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every environment-configurable setting named in spec.md §6.
type Config struct {
	DatabaseURL   string
	PrefectAPIURL string
	Port          string
	AppEnv        string
	SentryDSN     string

	CacheEnable         bool
	CacheRedisURL       string
	CacheDefaultTimeout time.Duration

	RequestsDefaultTimeout time.Duration

	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool

	PasswordHashAlgorithm  string
	PasswordHashIterations int

	Timezone string
}

// Load reads configuration from environment variables, applying spec.md
// §6's defaults.
func Load() Config {
	return Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		PrefectAPIURL: os.Getenv("PREFECT_API_URL"),
		Port:          getEnv("PORT", "8080"),
		AppEnv:        getEnv("APP_ENV", "development"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),

		CacheEnable:         getEnvAsBool("CACHE_ENABLE", true),
		CacheRedisURL:       os.Getenv("CACHE_REDIS_URL"),
		CacheDefaultTimeout: time.Duration(getEnvAsInt("CACHE_DEFAULT_TIMEOUT", 43200)) * time.Second,

		RequestsDefaultTimeout: time.Duration(getEnvAsInt("REQUESTS_DEFAULT_TIMEOUT", 30)) * time.Second,

		AllowedOrigins:   getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods:   getEnvAsList("ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders:   getEnvAsList("ALLOWED_HEADERS", []string{"*"}),
		AllowCredentials: getEnvAsBool("ALLOW_CREDENTIALS", false),

		PasswordHashAlgorithm:  getEnv("PASSWORD_HASH_ALGORITHM", "pbkdf2_sha256"),
		PasswordHashIterations: getEnvAsInt("PASSWORD_HASH_NUMBER_OF_ITERATIONS", 60000),

		Timezone: getEnv("TIMEZONE", "America/Sao_Paulo"),
	}
}

func getEnv(name, defaultVal string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsList(name string, defaultVal []string) []string {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	start := 0
	for i := 0; i <= len(valStr); i++ {
		if i == len(valStr) || valStr[i] == ',' {
			if i > start {
				out = append(out, valStr[start:i])
			}
			start = i + 1
		}
	}
	return out
}
