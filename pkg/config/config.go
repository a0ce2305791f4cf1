package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	UseInMemoryStore bool
	GroqAPIKey       string
	GroqBaseURL      string
	ModelName        string
	ModelTemperature float32
	ModelMaxTokens   int
	ServerHost       string
	ServerPort       string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "botgpt"),
		UseInMemoryStore: getEnvBool("USE_IN_MEMORY", false),
		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		ModelName:        getEnv("MODEL_NAME", "llama3-70b-8192"),
		ModelTemperature: getEnvFloat32("MODEL_TEMPERATURE", 0.7),
		ModelMaxTokens:   getEnvInt("MODEL_MAX_TOKENS", 1024),
		ServerHost:       getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:       getEnv("SERVER_PORT", "8000"),
	}
}

type SupervisorConfig struct {
	ServerBin           string
	RestartDelaySeconds int
}

func LoadSupervisorConfig() *SupervisorConfig {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found")
	}

	return &SupervisorConfig{
		ServerBin:           getEnv("SERVER_BIN", "./server"),
		RestartDelaySeconds: getEnvInt("RESTART_DELAY_SECONDS", 5),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.Warnf("Invalid boolean for %s: %q, using default", key, value)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Invalid integer for %s: %q, using default", key, value)
		return defaultValue
	}
	return parsed
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil {
		logrus.Warnf("Invalid float for %s: %q, using default", key, value)
		return defaultValue
	}
	return float32(parsed)
}
