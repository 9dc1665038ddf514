package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var (
	configData Config
	v          *viper.Viper
)

// Config holds all configuration settings.
type Config struct {
	// Backend selection
	Backend struct {
		Mode string
	}
	// Sandbox module configuration
	Sandbox struct {
		Module string
	}
	// Bridge interpreter configuration
	Bridge struct {
		Command string
		Script  string
	}
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
}

// Initialize sets up the configuration system.
func Initialize() error {
	v = viper.New()

	v.SetConfigName("config")          // name of config file (without extension)
	v.SetConfigType("yaml")            // config file type
	v.AddConfigPath(".")               // look for config in working directory first
	v.AddConfigPath("$HOME/.passcode") // then the per-user directory
	v.AddConfigPath("/etc/passcode/")  // then the system directory

	setDefaults()

	v.SetEnvPrefix("PASSCODE") // prefix for env vars
	v.AutomaticEnv()           // read in environment variables that match
	v.SetEnvKeyReplacer(       // replace dots with underscores in env vars
		strings.NewReplacer(".", "_"),
	)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&configData); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults() {
	// Backend defaults
	v.SetDefault("backend.mode", "auto")

	// Sandbox defaults
	v.SetDefault("sandbox.module", "passcode.wasm")

	// Bridge defaults
	v.SetDefault("bridge.command", "node")
	v.SetDefault("bridge.script", "")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
