package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	CompletedDir = "downloads/completed"
	OngoingDir   = "downloads/ongoing"

	DefaultAPIBaseURL     = "http://127.0.0.1:5001"
	DefaultPort           = "8080"
	DefaultRequestTimeout = 30 * time.Second
)

type Config struct {
	APIBaseURL     string
	DatabaseURL    string
	ExecDir        string
	Port           string
	RequestTimeout time.Duration

	AbsCompletedDir string
	AbsOngoingDir   string
}

var AppConfig *Config

func Load() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	timeout := DefaultRequestTimeout
	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q", raw)
		}
		timeout = d
	}

	execDir := getExecutableDir()
	absOngoingDir := filepath.Join(execDir, OngoingDir)
	absCompletedDir := filepath.Join(execDir, CompletedDir)

	cfg := &Config{
		APIBaseURL:      getEnv("API_BASE_URL", DefaultAPIBaseURL),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ExecDir:         execDir,
		Port:            getEnv("PORT", DefaultPort),
		RequestTimeout:  timeout,
		AbsCompletedDir: absCompletedDir,
		AbsOngoingDir:   absOngoingDir,
	}

	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, download history will not be persisted")
	}

	// Create directories
	if err := os.MkdirAll(absOngoingDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(absCompletedDir, 0755); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getExecutableDir() string {
	if dir := os.Getenv("EXEC_DIR"); dir != "" {
		return dir
	}
	return "."
}
