package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads KEY=VALUE files that exist, without overriding variables
// already present in the process environment. Parse errors are ignored.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		_ = godotenv.Load(path)
	}
}
