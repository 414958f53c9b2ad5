package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	RedisAddr  string
	ServerPort string
	JWTSecret  string

	// Execution engine (Judge0-compatible) settings.
	EngineBaseURL string
	EngineAPIKey  string
	EngineAPIHost string

	PollInterval    time.Duration
	MaxWait         time.Duration
	NumEventWorkers int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	numWorkers, _ := strconv.Atoi(os.Getenv("NUM_EVENT_WORKERS"))
	if numWorkers <= 0 {
		numWorkers = 2
	}

	return &Config{
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		EngineBaseURL:   getEnv("ENGINE_BASE_URL", "https://judge0-ce.p.rapidapi.com"),
		EngineAPIKey:    os.Getenv("ENGINE_API_KEY"),
		EngineAPIHost:   os.Getenv("ENGINE_API_HOST"),
		PollInterval:    getDuration("POLL_INTERVAL", time.Second),
		MaxWait:         getDuration("MAX_WAIT", 30*time.Second),
		NumEventWorkers: numWorkers,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s: %v", key, err)
		return fallback
	}
	return d
}
