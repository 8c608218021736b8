package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// APIBaseURL is the backend base URL, e.g. "https://xbar.example.com/api".
	// Ignored when MockMode is set.
	APIBaseURL string

	// StatePath is the sqlite file holding persisted session state.
	StatePath string

	// MockMode runs against an in-process seeded mock backend instead
	// of a real one.
	MockMode bool

	// MockSeed controls the mock backend's fixture generation.
	MockSeed int64

	// ToastDuration is how long transient notifications stay visible.
	ToastDuration time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	apiBaseURL := os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8080/api"
	}

	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			statePath = "xbar-state.db"
		} else {
			statePath = filepath.Join(home, ".xbar", "state.db")
		}
	}

	mockMode, _ := strconv.ParseBool(os.Getenv("MOCK_MODE"))

	mockSeed, err := strconv.ParseInt(os.Getenv("MOCK_SEED"), 10, 64)
	if err != nil {
		mockSeed = 1
	}

	toastMillis, err := strconv.Atoi(os.Getenv("TOAST_DURATION_MS"))
	if err != nil || toastMillis <= 0 {
		toastMillis = 3000
	}

	return &Config{
		APIBaseURL:    apiBaseURL,
		StatePath:     statePath,
		MockMode:      mockMode,
		MockSeed:      mockSeed,
		ToastDuration: time.Duration(toastMillis) * time.Millisecond,
	}, nil
}
