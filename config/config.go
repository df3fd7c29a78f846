// Package config loads settings from the environment, an optional .env file
// and command-line flags.
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultDatabasePath = "library.db"
	DefaultCatalogPath  = "bookdetails.json"
)

type (
	Config struct {
		Database
		Log
		Auth
		Catalog
	}

	Database struct {
		Path string
	}
	Log struct {
		Level string
	}
	Auth struct {
		CredentialScheme string // "plain" or "bcrypt"
		BcryptCost       int
	}
	Catalog struct {
		Path string // JSON file used for autofill and bulk import
	}
)

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"db":        "database_path",
	"log-level": "log_level",
}

// Load reads LMS_* environment variables (after an optional .env) and lets
// any bound flags from flags override them. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("lms")
	v.AutomaticEnv()
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_level", "info")
	v.SetDefault("credential_scheme", "plain")
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("catalog_path", DefaultCatalogPath)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Database: Database{Path: v.GetString("database_path")},
		Log:      Log{Level: v.GetString("log_level")},
		Auth: Auth{
			CredentialScheme: v.GetString("credential_scheme"),
			BcryptCost:       v.GetInt("bcrypt_cost"),
		},
		Catalog: Catalog{Path: v.GetString("catalog_path")},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path must not be empty")
	}
	switch c.Auth.CredentialScheme {
	case "plain":
	case "bcrypt":
		if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
			return fmt.Errorf("bcrypt cost %d out of range [%d, %d]",
				c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	default:
		return fmt.Errorf("unknown credential scheme %q", c.Auth.CredentialScheme)
	}
	return nil
}
