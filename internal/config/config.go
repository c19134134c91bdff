package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

// LoadEnv loads a .env file from the working directory or its parent, once per
// process. Variables already present in the environment win. It returns the
// file that was loaded, or "" when none was found.
func LoadEnv() (string, error) {
	var (
		loaded  string
		loadErr error
	)
	envOnce.Do(func() {
		for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
			if _, err := os.Stat(candidate); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				loadErr = err
				return
			}
			if err := godotenv.Load(candidate); err != nil {
				loadErr = err
				return
			}
			loaded = candidate
			return
		}
	})
	return loaded, loadErr
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
