package config

import (
	"errors"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// Environment variables recognised on top of the YAML file.
const (
	EnvOutputDir = "SITEBAKE_OUTPUT_DIR"
	EnvLogLevel  = "SITEBAKE_LOG_LEVEL"
)

// envRef matches ${NAME}. Bare $NAME is left alone so dollar signs in tags
// and delimiters survive.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces every ${NAME} in s with the value of NAME. Unset
// variables expand to the empty string.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}

// envFiles are loaded in order. Variables already present in the process
// environment are never overwritten, so the first file to set a key wins.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads the .env files that exist and returns their names.
func LoadEnvFiles() ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return loaded, err
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}

// ApplyEnvOverrides applies environment variable overrides to cfg.
func ApplyEnvOverrides(cfg *Config) {
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		cfg.Output.Directory = dir
	}
}
