package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dhamidi/pdepend/php/codebase"
)

// config holds the settings shared by all commands. Values come from
// flags, PDEPEND_* environment variables and .pdepend.yaml, in that order
// of precedence.
type config struct {
	Workers   int           `mapstructure:"workers"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Suffixes  []string      `mapstructure:"suffixes"`
	Exclude   []string      `mapstructure:"exclude"`
	Analyzers []string      `mapstructure:"analyzers"`
	Format    string        `mapstructure:"format"`
	Verbose   int           `mapstructure:"verbose"`
	LogFile   string        `mapstructure:"log-file"`
	Trace     bool          `mapstructure:"trace"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("workers", 0)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("suffixes", []string{".php"})
	v.SetDefault("exclude", []string{})
	v.SetDefault("analyzers", []string{})
	v.SetDefault("format", "json")
	v.SetDefault("verbose", 0)
	v.SetEnvPrefix("PDEPEND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the config file and merges flags of cmd into v. An
// explicit cfgFile must exist; the default locations are optional.
func loadConfig(v *viper.Viper, cmd *cobra.Command, cfgFile string) (*config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".pdepend")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *config) codebaseOptions() []codebase.Option {
	return []codebase.Option{
		codebase.WithWorkers(c.Workers),
		codebase.WithSuffixes(c.Suffixes...),
		codebase.WithExclude(c.Exclude...),
	}
}
