package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProductionEnvironment = "production"
	DevelopmentEnvFile    = ".env.dev"
)

type Config struct {
	AppPort     string
	AppMode     string
	Environment string

	RAGServiceURL         string
	AllowInsecureUpstream bool
	RAGTimeout            time.Duration

	PresenceEnabled bool
	PresenceTTL     time.Duration
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
}

// LoadConfig reads the process environment. Outside production the
// development settings file is loaded first; variables already set win.
func LoadConfig() *Config {
	env := getEnv("ENVIRONMENT", "")
	if env != ProductionEnvironment {
		if err := godotenv.Load(DevelopmentEnvFile); err != nil {
			log.Printf("Development mode: no %s file found, using environment variables", DevelopmentEnvFile)
		} else {
			log.Printf("Development mode: Loaded %s file", DevelopmentEnvFile)
		}
		// .env.dev may set ENVIRONMENT itself
		env = getEnv("ENVIRONMENT", "development")
	}

	return &Config{
		AppPort:               getEnv("APP_PORT", "8080"),
		AppMode:               getEnv("APP_MODE", "debug"),
		Environment:           env,
		RAGServiceURL:         strings.TrimSpace(getEnv("RAG_SERVICE_URL", "")),
		AllowInsecureUpstream: getEnvAsBool("ALLOW_INSECURE_UPSTREAM", false),
		RAGTimeout:            time.Duration(getEnvAsInt("RAG_TIMEOUT_SECONDS", 0)) * time.Second,
		PresenceEnabled:       getEnvAsBool("PRESENCE_ENABLED", false),
		PresenceTTL:           time.Duration(getEnvAsInt("PRESENCE_TTL_SECONDS", 300)) * time.Second,
		RedisHost:             getEnv("REDIS_HOST", "localhost"),
		RedisPort:             getEnv("REDIS_PORT", "6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == ProductionEnvironment
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
