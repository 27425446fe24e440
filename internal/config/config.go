// Package config reads process configuration from the environment, with an
// optional .env file for development setups.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the startup configuration surface. Everything is read once at
// boot; there is no runtime reconfiguration.
type Config struct {
	ListenAddr    string
	CameraDevice  int
	ModelPath     string
	ModelConfig   string
	DashboardPath string
	FixtureDir    string

	PushURL      string
	PushInterval time.Duration
	PushTimeout  time.Duration
}

// Load reads the configuration. A missing .env file is fine; the environment
// and the defaults below cover everything.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8000"),
		CameraDevice:  getEnvAsInt("CAMERA_DEVICE", 0),
		ModelPath:     getEnv("MODEL_PATH", "model/ppe.pb"),
		ModelConfig:   getEnv("MODEL_CONFIG", "model/ppe.pbtxt"),
		DashboardPath: getEnv("DASHBOARD_PATH", "web/index.html"),
		FixtureDir:    getEnv("FIXTURE_DIR", "fixtures"),
		PushURL:       getEnv("PUSH_URL", "http://192.168.0.148/update"),
		PushInterval:  getEnvAsDuration("PUSH_INTERVAL", time.Second),
		PushTimeout:   getEnvAsDuration("PUSH_TIMEOUT", 500*time.Millisecond),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
