package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the OneSite project configuration
type Config struct {
	ProjectName string         `mapstructure:"project_name"`
	ModelsDir   string         `mapstructure:"models_dir"`
	Backend     BackendConfig  `mapstructure:"backend"`
	Frontend    FrontendConfig `mapstructure:"frontend"`
	Sync        SyncConfig     `mapstructure:"sync"`
}

// BackendConfig represents the generated FastAPI application settings
type BackendConfig struct {
	Dir  string `mapstructure:"dir"`
	Port int    `mapstructure:"port"`
}

// FrontendConfig represents the generated React application settings
type FrontendConfig struct {
	Dir  string `mapstructure:"dir"`
	Port int    `mapstructure:"port"`
}

// SyncConfig tunes generation behavior
type SyncConfig struct {
	PageSize   int    `mapstructure:"page_size"`
	PublicPath string `mapstructure:"public_path"`
}

// Load loads the configuration from site.yml or site.yaml
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("models_dir", "models")
	v.SetDefault("backend.dir", "backend")
	v.SetDefault("backend.port", 8000)
	v.SetDefault("frontend.dir", "frontend")
	v.SetDefault("frontend.port", 5173)
	v.SetDefault("sync.page_size", 10)
	v.SetDefault("sync.public_path", "/static")

	v.SetConfigName("site")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ONESITE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Backend.Port <= 0 || cfg.Backend.Port > 65535 {
		return fmt.Errorf("invalid backend port: %d", cfg.Backend.Port)
	}
	if cfg.Frontend.Port <= 0 || cfg.Frontend.Port > 65535 {
		return fmt.Errorf("invalid frontend port: %d", cfg.Frontend.Port)
	}
	if cfg.Sync.PageSize <= 0 {
		return fmt.Errorf("invalid page size: %d", cfg.Sync.PageSize)
	}
	return nil
}

// InProject checks if the current directory is a OneSite project
func InProject() bool {
	if _, err := os.Stat("models"); err != nil {
		return false
	}
	if _, err := os.Stat("site.yml"); err == nil {
		return true
	}
	if _, err := os.Stat("site.yaml"); err == nil {
		return true
	}
	return false
}

// GetProjectRoot tries to find the project root by looking for site.yml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "site.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "site.yaml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a OneSite project (no site.yml found)")
		}
		dir = parent
	}
}
