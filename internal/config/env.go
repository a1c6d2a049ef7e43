package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

var envFileNames = []string{".env", ".env.local"}

// loadEnvFile loads the first .env/.env.local found next to the config file.
// Variables already present in the environment win.
func loadEnvFile(dir string) error {
	for _, name := range envFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to load env file").
				WithContext("path", path).
				Fatal().
				Build()
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
		return nil
	}
	return nil
}
