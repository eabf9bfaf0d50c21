package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds everything voxrec reads from the environment. A .env file in
// the working directory is loaded first (if present) so the API key never has
// to live in shell profiles.
type Config struct {
	DeepgramKey string
	Language    string
	DataDir     string // saved transcriptions + exports
	LogDir      string // diagnostics + transcript logs
}

func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars win either way.
	_ = godotenv.Load()

	key := os.Getenv("DEEPGRAM_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("set DEEPGRAM_API_KEY environment variable")
	}

	dataDir := os.Getenv("VOXREC_DATA_PATH")
	if dataDir == "" {
		d, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = d
	}

	return &Config{
		DeepgramKey: key,
		Language:    os.Getenv("VOXREC_LANGUAGE"),
		DataDir:     dataDir,
		LogDir:      os.Getenv("VOXREC_LOG_PATH"),
	}, nil
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "voxrec"), nil
}
