// Package config loads application configuration from environment variables.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable; every variable has a default so the server runs with
// zero setup, which is the whole point of a practice backend.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	Secret    string // secret used to hash passwords and sign access tokens
	Identity  string // field that identifies a user on register/login
	DataDir   string // directory with *.json collection files for the jsonstore
	ClientDir string // directory served by the admin panel in dev mode
	Dev       bool   // set from the -dev CLI flag, not the environment
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() Config {
	_ = godotenv.Load() // missing .env is fine

	return Config{
		Env:       getenv("APP_ENV", "dev"),
		Port:      getenv("APP_PORT", "3030"),
		Secret:    getenv("AUTH_SECRET", "This is not a production server"),
		Identity:  getenv("IDENTITY_FIELD", "email"),
		DataDir:   getenv("DATA_DIR", "./data"),
		ClientDir: getenv("CLIENT_DIR", "./client"),
	}
}

// getenv returns the value of an environment variable, or def when the
// variable is unset or empty.
func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
