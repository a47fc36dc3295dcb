package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"regexp"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// EnvToolchain overrides the configured compiler when set.
const EnvToolchain = "CBUILD_TOOLCHAIN"

var envFiles = []string{".env", ".env.local"}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with the environment value, empty when
// unset. Bare $VAR is left alone so flags such as -Wl,-rpath,$ORIGIN survive.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// loadEnvFiles loads .env and .env.local when present. Variables already in the
// process environment are not overwritten.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(name), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(name))
	}
}
