package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no .env path is given.
const DefaultEnvFile = ".env"

// LoadDotEnv exports the RUNQY_* settings found in a .env file. A missing
// file is not an error. Variables already present in the process
// environment win over the file.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LoadConfig builds the runqy configuration from an optional .env file and
// the RUNQY_* environment variables.
func LoadConfig(envPath string) (AppConfig, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return AppConfig{}, err
	}

	envCfg, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, err
	}
	return envCfg.ToAppConfig(), nil
}
