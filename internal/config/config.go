package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Bootstrap admin account (seeded at startup when both are set)
	AdminUsername string
	AdminPassword string

	// Redis (worker refresh lock)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tracing
	OTLPEndpoint string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:   env,
		Port:  port,
		DBURL: dbURL,

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", time.Hour),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "hrhub")
	pass := getEnv("DB_PASSWORD", "hrhub")
	name := getEnv("DB_NAME", "human_resource")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
