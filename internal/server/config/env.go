package config

import (
	"errors"
	"io/fs"

	"github.com/dmitrijs2005/vidhub/internal/flagx"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv loads a .env file (the -envfile flag, else ./.env) into the
// process environment without overriding variables that are already set,
// then overlays cfg with every VIDHUB_* variable present. A missing default
// .env is fine; any other failure panics.
func parseEnv(cfg *Config) {
	path := flagx.EnvFilePath()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}
