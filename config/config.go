/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package config loads the global sparkimage configuration.
// Precedence is CLI flags > environment variables > config file > defaults;
// the flag layer is bound in the root command.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the global sparkimage configuration.
// This is for user preferences and environment-specific settings,
// NOT for the target catalog (which is compiled in).
type Config struct {
	OC       OCConfig       `mapstructure:"oc"`
	S2I      S2IConfig      `mapstructure:"s2i"`
	Registry RegistryConfig `mapstructure:"registry"`
	Tag      TagConfig      `mapstructure:"tag"`
	Log      LogConfig      `mapstructure:"log"`
	Features []string       `mapstructure:"features"`
}

// OCConfig holds settings for the OpenShift command-line client.
type OCConfig struct {
	// Binary is the oc executable to invoke.
	Binary string `mapstructure:"binary"`

	// Project is the OpenShift project all operations run in.
	// Empty means the client's current project.
	Project string `mapstructure:"project"`
}

// S2IConfig holds settings for the local source-to-image build backend.
type S2IConfig struct {
	Binary string `mapstructure:"binary"`
}

// RegistryConfig holds image registry settings.
type RegistryConfig struct {
	// Prefix is the registry/namespace prepended to catalog image names.
	Prefix string `mapstructure:"prefix"`
}

// TagConfig holds image tag settings.
type TagConfig struct {
	// Default is the destination tag applied to completed images.
	Default string `mapstructure:"default"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads and parses the global configuration file.
// Returns a Config with defaults if no config file exists.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Look in these locations (in order)
	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(home, ".sparkimage"))
		v.AddConfigPath(filepath.Join(home, ".config", "sparkimage")) // XDG standard
	}
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable support:
	// SPARKIMAGE_OC_PROJECT, SPARKIMAGE_LOG_LEVEL, etc.
	v.SetEnvPrefix("SPARKIMAGE")
	v.AutomaticEnv()
	bindEnvVars(v)

	// Config file is optional
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("SPARKIMAGE")
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("oc.binary", "oc")
	v.SetDefault("oc.project", "")
	v.SetDefault("s2i.binary", "s2i")
	v.SetDefault("registry.prefix", "docker.io/radanalyticsio")
	v.SetDefault("tag.default", "complete")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")
	v.SetDefault("features", []string{})
}

// bindEnvVars explicitly binds environment variables for nested keys so
// AutomaticEnv picks them up without requiring them in the config file.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"oc.binary",
		"oc.project",
		"s2i.binary",
		"registry.prefix",
		"tag.default",
		"log.level",
		"log.format",
		"features",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			// BindEnv only fails on an empty key
			panic(fmt.Sprintf("config: bind env for %s: %v", key, err))
		}
	}
}

// CacheDir returns the cache directory for a given subdirectory, creating it
// if necessary.
func CacheDir(subdirectory string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	cacheDir := filepath.Join(homeDir, ".sparkimage", "cache", subdirectory)
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	return cacheDir, nil
}
