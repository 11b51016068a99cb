package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"sentiment-backend/internal/shared/telemetry"
)

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist. Variables already
// set in the process environment win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			telemetry.Warn("config.env_file_invalid", map[string]any{"path": path, "error": err})
		}
	}
}
