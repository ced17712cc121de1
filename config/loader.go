// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppName names the configuration directory under the XDG config home.
const AppName = "beamopt"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BEAMOPT"

// LocalFile is the configuration file looked up in the working directory.
const LocalFile = "beamopt.yaml"

// envKeys are the scalar keys that environment variables may override.
var envKeys = []string{
	"plan",
	"input.dose", "input.structures", "input.beamlets", "input.voxels",
	"solver.time_limit", "solver.node_limit", "solver.gap",
	"report.format", "report.heatmap", "report.grid_width",
	"log.level", "log.format",
	"model.big_m", "model.max_intensity",
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// FindConfigFile resolves the configuration file: the explicit path when
// given, then ./beamopt.yaml, then <xdg config home>/beamopt/config.yaml.
// An empty result means no file was found and defaults apply.
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}

		return explicit, nil
	}
	for _, p := range []string{LocalFile, filepath.Join(ConfigDir(), "config.yaml")} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	return v
}

// Load reads the configuration at path (empty for defaults only), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDotEnv loads .env files into the environment without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: %s: %w", p, err)
		}
	}

	return nil
}
