package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	Store    string

	JWTSecret string
	AccessTTL time.Duration

	RedisAddr       string
	RateLimitPerMin int

	RabbitURL         string
	RabbitExchange    string
	RabbitQueue       string
	RabbitBindKey     string
	RabbitConcurrency int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	OAuthStateSecret   string

	LogProd bool
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:     getenv("APP_PORT", "8080"),
		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:  getenv("MONGO_DB", "workspace_db"),
		Store:    strings.ToLower(getenv("STORE", StoreMongo)),

		JWTSecret: getenv("JWT", "default_secret_key"),
		AccessTTL: time.Duration(geti("ACCESS_TTL_MINUTES", 15)) * time.Minute,

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RateLimitPerMin: geti("RATE_LIMIT_PER_MIN", 5),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitExchange:    getenv("RABBIT_EXCHANGE", "auth.events"),
		RabbitQueue:       getenv("RABBIT_QUEUE", "welcomeq"),
		RabbitBindKey:     getenv("RABBIT_BIND_KEY", "user.*"),
		RabbitConcurrency: geti("RABBIT_CONCURRENCY", 4),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  getenv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/auth/google/callback"),
		OAuthStateSecret:   getenv("OAUTH_STATE_SECRET", "default_state_secret"),

		LogProd: getb("LOG_PROD", false),
	}
}

// GoogleEnabled reports whether federated login is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func geti(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
