package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. CYCLEKIT_CYCLE_MIGRATOR_DIRECTORY.
	EnvPrefix = "CYCLEKIT"
	// EnvConfig points at the configuration file when --config is not given.
	EnvConfig = "CYCLEKIT_CONFIG"
	// FileName is searched for in the working directory with any viper extension.
	FileName = "cyclekit"
)

// Load reads the configuration from path, or from $CYCLEKIT_CONFIG, or from
// cyclekit.{yaml,yml,json,toml} in the working directory. Without an explicit
// path a missing file yields an empty configuration.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read the configuration file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode the configuration file %s: %w", v.ConfigFileUsed(), err)
	}
	return cfg, nil
}
