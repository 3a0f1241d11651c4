// Package clientconfig loads contactctl settings.
//
// Precedence (highest to lowest):
//  1. Environment variables (CONTACTCTL_API_BASE_URL, CONTACTCTL_LOG_FILE, ...)
//  2. Project config (.contactctl.yaml in the working directory)
//  3. User config (~/.config/contactctl/config.yaml)
//  4. Built-in defaults
package clientconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName           = "contactctl"
	projectConfigName = ".contactctl.yaml"
	envPrefix         = "CONTACTCTL"
)

type Config struct {
	API APIConfig `mapstructure:"api"`
	Log LogConfig `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds each request; zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	// File receives the log while the grid owns the terminal.
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load reads the user config, merges the project config from the working
// directory over it and applies environment overrides.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return LoadFrom(UserConfigDir(), cwd)
}

// LoadFrom is Load with explicit directories.
func LoadFrom(userDir, projectDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := filepath.Join(projectDir, projectConfigName)
	if _, err := os.Stat(projectConfig); err == nil {
		pv := viper.New()
		pv.SetConfigFile(projectConfig)
		if err := pv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config: %w", err)
		}
		if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		API: APIConfig{BaseURL: "http://localhost:8082"},
		Log: LogConfig{File: filepath.Join(os.TempDir(), "contactctl.log"), Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
}

// UserConfigDir returns the XDG config directory for contactctl.
func UserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}
